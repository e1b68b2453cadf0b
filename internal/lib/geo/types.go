package geo

// Point represents a geographic coordinate in WGS-84 degrees.
// Internal convention is (latitude, longitude); conversion from
// provider-specific (lon, lat) ordering happens at the client boundaries.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Polyline represents an ordered vertex sequence, typically a travel route.
// A usable route has at least 2 points; an empty Polyline means "no route".
type Polyline struct {
	Points []Point `json:"points"`
}

// IsUsable reports whether the polyline can participate in distance
// computations. Callers must check this before PointToPolyline.
func (p Polyline) IsUsable() bool {
	return len(p.Points) >= 2
}

// GeoUtils defines the geographic calculations used by the proximity
// pipeline and the geofence sweep.
type GeoUtils interface {
	// Great-circle distance between two points in meters
	PointToPoint(p1, p2 Point) (float64, error)

	// Minimum distance from point to route polyline in meters
	PointToPolyline(point Point, polyline Polyline) (float64, error)

	// Decode an encoded polyline string to a point sequence
	DecodePolyline(encoded string) ([]Point, error)
}

// NewGeoUtils is implemented in geo.go
