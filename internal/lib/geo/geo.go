package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// ErrInvalidPolyline is returned when a polyline with fewer than 2 vertices
// reaches a distance computation. This is a caller contract violation, not a
// runtime condition: the route layer never hands out degenerate routes.
var ErrInvalidPolyline = errors.New("polyline must have at least 2 points")

const earthRadiusMeters = 6371000

// geoUtils implements the GeoUtils interface
type geoUtils struct{}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils() GeoUtils {
	return &geoUtils{}
}

// PointToPoint calculates great-circle distance between two points using the
// Haversine formula. Accurate to GPS-scale tolerances at city spans.
func (g *geoUtils) PointToPoint(p1, p2 Point) (float64, error) {
	if !isValidCoordinate(p1) || !isValidCoordinate(p2) {
		return 0, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	if p1.Latitude == p2.Latitude && p1.Longitude == p2.Longitude {
		return 0, nil
	}

	lat1 := p1.Latitude * math.Pi / 180
	lon1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lon2 := p2.Longitude * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c, nil
}

// PointToPolyline calculates the minimum distance from a point to a route
// polyline, checking every consecutive vertex pair as a segment (not an
// infinite line). Polylines with fewer than 2 points are rejected.
func (g *geoUtils) PointToPolyline(point Point, line Polyline) (float64, error) {
	if !isValidCoordinate(point) {
		return 0, errors.New("invalid point coordinates")
	}

	if !line.IsUsable() {
		return 0, ErrInvalidPolyline
	}

	minDistance := math.Inf(1)

	for i := 0; i < len(line.Points)-1; i++ {
		distance := g.pointToSegmentDistance(point, line.Points[i], line.Points[i+1])
		if distance < minDistance {
			minDistance = distance
		}
	}

	return minDistance, nil
}

// pointToSegmentDistance calculates distance from a point to a line segment
// using the cross-track formula, clamped to the nearest endpoint when the
// projection falls outside the segment.
func (g *geoUtils) pointToSegmentDistance(point, segmentStart, segmentEnd Point) float64 {
	if segmentStart.Latitude == segmentEnd.Latitude && segmentStart.Longitude == segmentEnd.Longitude {
		distance, _ := g.PointToPoint(point, segmentStart)
		return distance
	}

	distanceToStart, _ := g.PointToPoint(point, segmentStart)
	distanceToEnd, _ := g.PointToPoint(point, segmentEnd)
	segmentLength, _ := g.PointToPoint(segmentStart, segmentEnd)

	// Degenerate segment, fall back to the nearer endpoint
	if segmentLength < 1 {
		return math.Min(distanceToStart, distanceToEnd)
	}

	lat1 := segmentStart.Latitude * math.Pi / 180
	lon1 := segmentStart.Longitude * math.Pi / 180
	lat2 := segmentEnd.Latitude * math.Pi / 180
	lon2 := segmentEnd.Longitude * math.Pi / 180
	lat3 := point.Latitude * math.Pi / 180
	lon3 := point.Longitude * math.Pi / 180

	// Angular distance from segment start to the point
	d13 := distanceToStart / earthRadiusMeters

	// Bearing from start to end
	y := math.Sin(lon2-lon1) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1)
	bearingToEnd := math.Atan2(y, x)

	// Bearing from start to the point
	y = math.Sin(lon3-lon1) * math.Cos(lat3)
	x = math.Cos(lat1)*math.Sin(lat3) - math.Sin(lat1)*math.Cos(lat3)*math.Cos(lon3-lon1)
	bearingToPoint := math.Atan2(y, x)

	// Cross-track distance from the great circle through the segment
	dxt := math.Asin(math.Sin(d13) * math.Sin(bearingToPoint-bearingToEnd))
	crossTrackDistance := math.Abs(dxt) * earthRadiusMeters

	// Along-track distance tells us whether the projection lies on the segment
	dat := math.Acos(math.Cos(d13) / math.Cos(dxt))
	alongTrackDistance := dat * earthRadiusMeters

	// Projection falls before the segment start. Checked first: a point
	// behind the start also has a large along-track distance, and the
	// nearer endpoint there is the start, not the end.
	if math.Cos(bearingToPoint-bearingToEnd) < 0 {
		return distanceToStart
	}
	if alongTrackDistance > segmentLength {
		return distanceToEnd
	}

	return crossTrackDistance
}

// DecodePolyline decodes an encoded polyline string to a point sequence.
// Directions providers that don't return GeoJSON geometry use this encoding.
func (g *geoUtils) DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{
			Latitude:  coord[0],
			Longitude: coord[1],
		}

		if !isValidCoordinate(points[i]) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !isValidCoordinate(point) {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return point, nil
}

// isValidCoordinate validates latitude and longitude values
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
