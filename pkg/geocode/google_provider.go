package geocode

import (
	"context"

	"googlemaps.github.io/maps"
)

// GoogleGeocodingProvider uses the Google Maps Geocoding API.
type GoogleGeocodingProvider struct {
	client *maps.Client // Maps API client for making reverse geocoding requests
}

// NewGoogleGeocodingProvider creates a new GoogleGeocodingProvider instance.
// Extra options, such as maps.WithBaseURL, are passed to the maps client.
func NewGoogleGeocodingProvider(apiKey string, opts ...maps.ClientOption) (*GoogleGeocodingProvider, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &GoogleGeocodingProvider{
		client: c,
	}, nil
}

// ReverseGeocode resolves lat/lon using the first result returned by Google.
func (g *GoogleGeocodingProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (Address, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lon},
	})
	if err != nil {
		return Address{}, &ServiceError{Provider: "google", Message: err.Error()}
	}
	if len(results) == 0 {
		return Address{}, ErrNoAddress
	}

	var addr Address
	for _, component := range results[0].AddressComponents {
		switch {
		case hasType(component, "locality"), hasType(component, "postal_town"):
			if addr.City == "" {
				addr.City = component.LongName
			}
		case hasType(component, "administrative_area_level_1"):
			addr.State = component.LongName
		case hasType(component, "country"):
			addr.CountryCode = component.ShortName
		}
	}
	return addr, nil
}

func hasType(component maps.AddressComponent, t string) bool {
	for _, ct := range component.Types {
		if ct == t {
			return true
		}
	}
	return false
}
