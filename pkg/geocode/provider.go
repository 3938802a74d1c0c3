package geocode

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoAddress is returned when the provider answered but had no address for the coordinate.
var ErrNoAddress = errors.New("no address found for coordinate")

// Address is the subset of a reverse geocoding result used by the service.
// Empty fields were absent in the provider response.
type Address struct {
	City        string
	State       string
	CountryCode string
}

// Provider interface defines the methods for reverse geocoding providers
type Provider interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Address, error)
}

// ServiceError is a failure reported by the geocoding service itself.
type ServiceError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s geocoder returned %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s geocoder error: %s", e.Provider, e.Message)
}
