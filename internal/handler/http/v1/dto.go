package v1

// NearbyQuery binds the route-proximity query parameters. Coordinates are
// internal (lat, lon) order; radius_m is clamped server-side.
type NearbyQuery struct {
	FromLat float64 `form:"from_lat" validate:"latitude"`
	FromLon float64 `form:"from_lon" validate:"longitude"`
	ToLat   float64 `form:"to_lat" validate:"latitude"`
	ToLon   float64 `form:"to_lon" validate:"longitude"`
	RadiusM float64 `form:"radius_m"`
}

// CreateAddressRequest saves a labeled location. Coordinates come from the
// geocoder, which speaks (lon, lat).
type CreateAddressRequest struct {
	Label string  `json:"label" validate:"required,min=1,max=255"`
	Lon   float64 `json:"lon" validate:"longitude"`
	Lat   float64 `json:"lat" validate:"latitude"`
}

// UpdateAddressRequest renames a saved location
type UpdateAddressRequest struct {
	Label string `json:"label" validate:"required,min=1,max=255"`
}

// CreateAddressResponse returns the new address id
type CreateAddressResponse struct {
	ID uint `json:"id"`
}

// SweepRunResponse reports the outcome of a manually triggered sweep
type SweepRunResponse struct {
	Started bool `json:"started"`
}
