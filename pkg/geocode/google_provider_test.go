package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/benmeehan/device-locator/pkg/geocode"
)

func newGoogleProvider(t *testing.T, body string) *geocode.GoogleGeocodingProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	p, err := geocode.NewGoogleGeocodingProvider("test-key", maps.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return p
}

func TestGoogleGeocodingProvider_ReverseGeocode(t *testing.T) {
	p := newGoogleProvider(t, `{
		"status": "OK",
		"results": [{
			"place_id": "abc",
			"address_components": [
				{"long_name": "350", "short_name": "350", "types": ["street_number"]},
				{"long_name": "New York", "short_name": "New York", "types": ["locality", "political"]},
				{"long_name": "New York", "short_name": "NY", "types": ["administrative_area_level_1", "political"]},
				{"long_name": "United States", "short_name": "US", "types": ["country", "political"]}
			]
		}]
	}`)

	addr, err := p.ReverseGeocode(context.Background(), 40.7128, -74.006)

	require.NoError(t, err)
	assert.Equal(t, geocode.Address{City: "New York", State: "New York", CountryCode: "US"}, addr)
}

// TestGoogleGeocodingProvider_NoPlaceComponents returns an empty address, not ErrNoAddress.
func TestGoogleGeocodingProvider_NoPlaceComponents(t *testing.T) {
	p := newGoogleProvider(t, `{
		"status": "OK",
		"results": [{
			"place_id": "ocean",
			"address_components": [
				{"long_name": "North Atlantic Ocean", "short_name": "North Atlantic Ocean", "types": ["natural_feature"]}
			]
		}]
	}`)

	addr, err := p.ReverseGeocode(context.Background(), 30, -40)

	require.NoError(t, err)
	assert.Equal(t, geocode.Address{}, addr)
}

func TestGoogleGeocodingProvider_ZeroResults(t *testing.T) {
	p := newGoogleProvider(t, `{"status": "ZERO_RESULTS", "results": []}`)

	_, err := p.ReverseGeocode(context.Background(), 0, 0)

	assert.ErrorIs(t, err, geocode.ErrNoAddress)
}

func TestGoogleGeocodingProvider_RequestDenied(t *testing.T) {
	p := newGoogleProvider(t, `{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`)

	_, err := p.ReverseGeocode(context.Background(), 0, 0)

	var serviceErr *geocode.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "google", serviceErr.Provider)
}
