package server_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/device-locator/internal/mocks"
	"github.com/benmeehan/device-locator/internal/models"
	"github.com/benmeehan/device-locator/internal/server"
	"github.com/benmeehan/device-locator/internal/services"
)

func strPtr(s string) *string { return &s }

func serve(t *testing.T, locations *mocks.MockLocationService, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	server.NewRouter(locations, zerolog.Nop()).ServeHTTP(rec, req)
	return rec
}

func TestGetLocation_OK(t *testing.T) {
	ts := int64(1700000000)
	locations := new(mocks.MockLocationService)
	locations.On("GetLocation", mock.Anything).Return(models.LocationResponse{
		Latitude:  40.7128,
		Longitude: -74.006,
		City:      strPtr("New York"),
		State:     strPtr("New York"),
		Country:   strPtr("US"),
		Timestamp: &ts,
	}, nil)

	rec := serve(t, locations, httptest.NewRequest(http.MethodGet, "/location", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"latitude": 40.7128,
		"longitude": -74.006,
		"city": "New York",
		"state": "New York",
		"country": "US",
		"timestamp": 1700000000
	}`, rec.Body.String())
}

// TestGetLocation_DegradedPlace renders unknown place fields as JSON null.
func TestGetLocation_DegradedPlace(t *testing.T) {
	locations := new(mocks.MockLocationService)
	locations.On("GetLocation", mock.Anything).Return(models.LocationResponse{Latitude: 1.5, Longitude: 2.5}, nil)

	rec := serve(t, locations, httptest.NewRequest(http.MethodGet, "/location", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"latitude":1.5,"longitude":2.5,"city":null,"state":null,"country":null,"timestamp":null}`, rec.Body.String())
}

func TestGetLocation_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "device not found",
			err:        fmt.Errorf("%w: %q", services.ErrDeviceNotFound, "My iPhone"),
			wantStatus: http.StatusNotFound,
			wantDetail: "Device 'My iPhone' not found in account.",
		},
		{
			name:       "no location",
			err:        services.ErrLocationUnavailable,
			wantStatus: http.StatusNotFound,
			wantDetail: "No location data available (device might be offline).",
		},
		{
			name:       "malformed location",
			err:        services.ErrMalformedLocation,
			wantStatus: http.StatusBadGateway,
			wantDetail: "Location payload missing latitude/longitude.",
		},
		{
			name:       "no address",
			err:        services.ErrAddressUnavailable,
			wantStatus: http.StatusBadGateway,
			wantDetail: "Could not reverse geocode the location.",
		},
		{
			name:       "upstream failure",
			err:        &services.UpstreamError{Op: "fetch location", Err: errors.New("service unavailable")},
			wantStatus: http.StatusBadGateway,
			wantDetail: "Could not fetch location from account service: service unavailable",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Internal server error.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locations := new(mocks.MockLocationService)
			locations.On("GetLocation", mock.Anything).Return(models.LocationResponse{}, tt.err)
			locations.On("DeviceName").Return("My iPhone")

			rec := serve(t, locations, httptest.NewRequest(http.MethodGet, "/location", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDetail, body.Detail)
		})
	}
}

func TestRequestID(t *testing.T) {
	locations := new(mocks.MockLocationService)
	locations.On("GetLocation", mock.Anything).Return(models.LocationResponse{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/location", nil)
	req.Header.Set(server.RequestIDHeader, "req-123")
	rec := serve(t, locations, req)
	assert.Equal(t, "req-123", rec.Header().Get(server.RequestIDHeader))

	rec = serve(t, locations, httptest.NewRequest(http.MethodGet, "/location", nil))
	assert.Len(t, rec.Header().Get(server.RequestIDHeader), 36)
}

func TestOnlyLocationRouteIsServed(t *testing.T) {
	locations := new(mocks.MockLocationService)

	rec := serve(t, locations, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, locations, httptest.NewRequest(http.MethodPost, "/location", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	locations.AssertNotCalled(t, "GetLocation", mock.Anything)
}

func TestRecoversFromPanic(t *testing.T) {
	locations := new(mocks.MockLocationService)
	locations.On("GetLocation", mock.Anything).Run(func(mock.Arguments) { panic("unexpected") })

	rec := serve(t, locations, httptest.NewRequest(http.MethodGet, "/location", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
