package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimProvider reverse geocodes through a Nominatim server.
type NominatimProvider struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatimProvider creates a NominatimProvider. Nominatim's usage policy requires
// an identifying userAgent. The HTTP client has no timeout of its own.
func NewNominatimProvider(baseURL, userAgent string) (*NominatimProvider, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, fmt.Errorf("nominatim requires a user agent")
	}
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid nominatim url: %w", err)
	}

	return &NominatimProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{},
	}, nil
}

type nominatimResponse struct {
	Error   string            `json:"error"`
	Address map[string]string `json:"address"`
}

// ReverseGeocode resolves lat/lon to an address.
func (n *NominatimProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (Address, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return Address{}, fmt.Errorf("failed to build nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("nominatim unavailable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Address{}, fmt.Errorf("failed to read nominatim response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Address{}, &ServiceError{
			Provider:   "nominatim",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var payload nominatimResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Address{}, &ServiceError{Provider: "nominatim", Message: "invalid response: " + err.Error()}
	}

	// Nominatim answers 200 with an error field when nothing is found near the coordinate.
	if len(payload.Address) == 0 {
		return Address{}, ErrNoAddress
	}

	return Address{
		City:        firstOf(payload.Address, "town", "city", "village"),
		State:       payload.Address["state"],
		CountryCode: payload.Address["country_code"],
	}, nil
}

func firstOf(fields map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := fields[key]; v != "" {
			return v
		}
	}
	return ""
}
