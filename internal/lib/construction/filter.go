package construction

import (
	"github.com/Nicola-Bdewi/smartrajet/internal/lib/geo"
)

// ProximityFilter retains constructions within a distance threshold of a
// reference geometry. Threshold clamping is the caller's concern; any
// non-negative value is applied literally, with distance == threshold
// included and strictly greater excluded.
type ProximityFilter struct {
	geoUtils geo.GeoUtils
}

// NewProximityFilter creates a ProximityFilter backed by the given geo
// implementation.
func NewProximityFilter(geoUtils geo.GeoUtils) *ProximityFilter {
	return &ProximityFilter{geoUtils: geoUtils}
}

// FilterByRoute retains constructions within thresholdMeters of the route
// polyline. An absent route means there is nothing to be near: the result is
// empty, not "everything".
func (f *ProximityFilter) FilterByRoute(constructions []EnrichedConstruction, route geo.Polyline, thresholdMeters float64) []EnrichedConstruction {
	if !route.IsUsable() {
		return nil
	}

	var retained []EnrichedConstruction
	for _, c := range constructions {
		point := geo.Point{Latitude: c.Latitude, Longitude: c.Longitude}
		distance, err := f.geoUtils.PointToPolyline(point, route)
		if err != nil {
			continue
		}
		if distance <= thresholdMeters {
			retained = append(retained, c)
		}
	}
	return retained
}

// FilterByPoint retains constructions within thresholdMeters of a single
// reference point. Used by the geofence sweep.
func (f *ProximityFilter) FilterByPoint(constructions []EnrichedConstruction, reference geo.Point, thresholdMeters float64) []EnrichedConstruction {
	var retained []EnrichedConstruction
	for _, c := range constructions {
		point := geo.Point{Latitude: c.Latitude, Longitude: c.Longitude}
		distance, err := f.geoUtils.PointToPoint(reference, point)
		if err != nil {
			continue
		}
		if distance <= thresholdMeters {
			retained = append(retained, c)
		}
	}
	return retained
}
