package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/internal/models"
	"github.com/benmeehan/device-locator/pkg/geocode"
)

// GeocodingServiceInterface resolves coordinates to a place.
type GeocodingServiceInterface interface {
	Reverse(ctx context.Context, lat, lon float64) (models.Place, error)
}

// GeocodingService adapts a geocode.Provider.
type GeocodingService struct {
	provider geocode.Provider
	logger   zerolog.Logger
}

// NewGeocodingService creates a new GeocodingService instance.
func NewGeocodingService(provider geocode.Provider, logger zerolog.Logger) *GeocodingService {
	return &GeocodingService{
		provider: provider,
		logger:   logger,
	}
}

// Reverse looks up the place at lat/lon. It returns ErrAddressUnavailable when the provider
// has no address and an error wrapping ErrGeocoderFailure when the provider fails.
// An address without city, state or country yields a Place with all fields nil.
func (g *GeocodingService) Reverse(ctx context.Context, lat, lon float64) (models.Place, error) {
	addr, err := g.provider.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		if errors.Is(err, geocode.ErrNoAddress) {
			return models.Place{}, ErrAddressUnavailable
		}
		return models.Place{}, fmt.Errorf("%w: %v", ErrGeocoderFailure, err)
	}

	return models.Place{
		City:    optional(addr.City),
		State:   optional(addr.State),
		Country: optional(strings.ToUpper(addr.CountryCode)),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
