package models

// DeviceLocation is a validated location reported by the account service.
type DeviceLocation struct {
	Latitude  float64
	Longitude float64
	Timestamp *int64 // unit defined by the account service
}

// Place is the reverse geocoded place of a location. Nil fields are unknown.
type Place struct {
	City    *string
	State   *string
	Country *string // upper-cased two-letter code
}

// LocationResponse is the body returned by GET /location and the unit stored in the cache.
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	Country   *string `json:"country"`
	Timestamp *int64  `json:"timestamp"`
}

// NewLocationResponse combines a device location with its place.
func NewLocationResponse(loc DeviceLocation, place Place) LocationResponse {
	return LocationResponse{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		City:      place.City,
		State:     place.State,
		Country:   place.Country,
		Timestamp: loc.Timestamp,
	}
}

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
