package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/device-locator/internal/mocks"
	"github.com/benmeehan/device-locator/internal/server"
	"github.com/benmeehan/device-locator/internal/services"
	"github.com/benmeehan/device-locator/internal/state_managers"
	"github.com/benmeehan/device-locator/pkg/account"
	"github.com/benmeehan/device-locator/pkg/geocode"
)

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// TestLocationFlow_FreshThenCached runs the router against the real location pipeline:
// a cold request resolves the device and its place, a request 30 minutes later is served
// from the cache with an identical body.
func TestLocationFlow_FreshThenCached(t *testing.T) {
	logger := zerolog.Nop()

	var geocodeCalls atomic.Int32
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geocodeCalls.Add(1)
		assert.Equal(t, "40.7128", r.URL.Query().Get("lat"))
		assert.Equal(t, "-74.006", r.URL.Query().Get("lon"))
		_, _ = w.Write([]byte(`{"address":{"town":"New York","state":"New York","country_code":"us"}}`))
	}))
	defer nominatim.Close()

	provider, err := geocode.NewNominatimProvider(nominatim.URL, "device_locator_tracker")
	require.NoError(t, err)

	lat, lon, ts := 40.7128, -74.0060, int64(1700000000)
	client := new(mocks.MockAccountClient)
	client.On("Devices", mock.Anything).Return([]account.Device{
		{ID: "dev-1", Name: "Work iPad"},
		{ID: "dev-2", Name: "Rayhan's iPhone"},
	}, nil)
	client.On("Location", mock.Anything, "dev-2").Return(&account.Location{
		Latitude:  &lat,
		Longitude: &lon,
		TimeStamp: &ts,
	}, nil)

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	var elapsed atomic.Int64
	locations := services.NewLocationService(
		"Rayhan's iPhone",
		services.NewAccountService(client, new(mocks.MockSessionManager), logger),
		services.NewGeocodingService(provider, logger),
		state_managers.NewLocationCache(time.Hour, logger),
		nil,
		logger,
	).WithClock(func() time.Time { return start.Add(time.Duration(elapsed.Load())) })

	srv := httptest.NewServer(server.NewRouter(locations, logger))
	defer srv.Close()

	status, first := getBody(t, srv.URL+"/location")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{
		"latitude": 40.7128,
		"longitude": -74.006,
		"city": "New York",
		"state": "New York",
		"country": "US",
		"timestamp": 1700000000
	}`, first)

	elapsed.Store(int64(30 * time.Minute))
	status, second := getBody(t, srv.URL+"/location")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first, second)

	client.AssertNumberOfCalls(t, "Devices", 1)
	client.AssertNumberOfCalls(t, "Location", 1)
	assert.Equal(t, int32(1), geocodeCalls.Load())
}
