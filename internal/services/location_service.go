package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/internal/models"
	"github.com/benmeehan/device-locator/internal/state_managers"
)

// LocationPublisher receives every freshly fetched location.
type LocationPublisher interface {
	PublishLocation(location models.LocationResponse) error
}

// LocationServiceInterface returns the current location of the configured device.
type LocationServiceInterface interface {
	GetLocation(ctx context.Context) (models.LocationResponse, error)
	DeviceName() string
}

// LocationService resolves the configured device's location through the cache,
// the account service and the geocoder.
type LocationService struct {
	// Configuration fields
	deviceName string

	// Dependencies
	accounts  AccountServiceInterface
	geocoder  GeocodingServiceInterface
	cache     state_managers.LocationCacheInterface
	publisher LocationPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewLocationService creates a new LocationService instance. publisher may be nil.
func NewLocationService(deviceName string, accounts AccountServiceInterface, geocoder GeocodingServiceInterface,
	cache state_managers.LocationCacheInterface, publisher LocationPublisher, logger zerolog.Logger) *LocationService {
	return &LocationService{
		deviceName: deviceName,
		accounts:   accounts,
		geocoder:   geocoder,
		cache:      cache,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the clock used to judge cache freshness.
func (l *LocationService) WithClock(now func() time.Time) *LocationService {
	l.now = now
	return l
}

// DeviceName returns the configured device display name.
func (l *LocationService) DeviceName() string {
	return l.deviceName
}

// GetLocation returns the cached location when fresh, otherwise fetches, caches and publishes a new one.
// A started fetch is not cancelled when the caller goes away.
func (l *LocationService) GetLocation(ctx context.Context) (models.LocationResponse, error) {
	resp, hit, err := l.cache.GetOrFetch(context.WithoutCancel(ctx), l.now(), l.fetchLocation)
	if err != nil {
		return models.LocationResponse{}, err
	}

	if !hit && l.publisher != nil {
		if err := l.publisher.PublishLocation(resp); err != nil {
			l.logger.Error().Err(err).Msg("Failed to publish location update")
		}
	}
	return resp, nil
}

// fetchLocation performs one device lookup, one location fetch and one reverse geocode.
func (l *LocationService) fetchLocation(ctx context.Context) (models.LocationResponse, error) {
	device, err := l.accounts.FindDevice(ctx, l.deviceName)
	if err != nil {
		return models.LocationResponse{}, err
	}

	loc, err := l.accounts.FetchLocation(ctx, device)
	if err != nil {
		l.logger.Error().Err(err).Str("device_id", device.ID).Msg("Failed to get location from account service")
		return models.LocationResponse{}, err
	}

	place, err := l.geocoder.Reverse(ctx, loc.Latitude, loc.Longitude)
	switch {
	case errors.Is(err, ErrGeocoderFailure):
		// Place names are best-effort; the coordinates are still returned.
		l.logger.Error().Err(err).Msg("Geocoding error")
		place = models.Place{}
	case err != nil:
		return models.LocationResponse{}, err
	}

	resp := models.NewLocationResponse(loc, place)
	l.logger.Info().
		Str("device_id", device.ID).
		Float64("latitude", resp.Latitude).
		Float64("longitude", resp.Longitude).
		Msg("Fetched new location data and updated cache")
	return resp, nil
}
