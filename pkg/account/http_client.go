package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/pkg/session"
)

const (
	sessionTokenHeader = "X-Session-Token"
	defaultTimeout     = 30 * time.Second
)

// HTTPClient talks to the account service over HTTP/JSON, carrying session state
// through a session manager.
type HTTPClient struct {
	baseURL     *url.URL
	credentials Credentials
	sessions    session.SessionManagerInterface
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewHTTPClient creates an HTTPClient. A zero timeout selects the default of 30 seconds.
func NewHTTPClient(baseURL string, credentials Credentials, sessions session.SessionManagerInterface,
	timeout time.Duration, logger zerolog.Logger) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid account service url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid account service url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		baseURL:     u,
		credentials: credentials,
		sessions:    sessions,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

type signinRequest struct {
	AccountName string   `json:"accountName"`
	Password    string   `json:"password"`
	TrustTokens []string `json:"trustTokens,omitempty"`
}

type validationResponse struct {
	Valid bool `json:"valid"`
}

type trustResponse struct {
	TrustToken string `json:"trustToken"`
}

// Login signs in, reusing any stored session and trust token.
func (c *HTTPClient) Login(ctx context.Context) (LoginStatus, error) {
	req := signinRequest{
		AccountName: c.credentials.AccountID,
		Password:    c.credentials.Secret,
	}
	if trust := c.sessions.TrustToken(); trust != "" {
		req.TrustTokens = []string{trust}
	}

	var status LoginStatus
	if _, err := c.do(ctx, http.MethodPost, "/auth/signin", req, &status); err != nil {
		return LoginStatus{}, err
	}
	if status.SessionToken != "" {
		c.sessions.SetSessionToken(status.SessionToken)
	}

	c.logger.Debug().
		Bool("requires_2fa", status.Requires2FA).
		Bool("requires_2sa", status.Requires2SA).
		Bool("trusted", status.TrustedSession).
		Msg("Account login completed")
	return status, nil
}

// TrustedDevices lists the devices that can receive two-step verification codes.
func (c *HTTPClient) TrustedDevices(ctx context.Context) ([]TrustedDevice, error) {
	var devices []TrustedDevice
	if _, err := c.do(ctx, http.MethodGet, "/auth/trusted-devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// SendVerificationCode asks the service to send a code to device.
func (c *HTTPClient) SendVerificationCode(ctx context.Context, device TrustedDevice) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/verify/send", device, nil)
	return err
}

// ValidateVerificationCode submits a two-step code received on device.
func (c *HTTPClient) ValidateVerificationCode(ctx context.Context, device TrustedDevice, code string) (bool, error) {
	body := struct {
		TrustedDevice
		Code string `json:"code"`
	}{device, code}

	var resp validationResponse
	if _, err := c.do(ctx, http.MethodPost, "/auth/verify/code", body, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// Validate2FACode submits a two-factor code shown on a trusted device.
func (c *HTTPClient) Validate2FACode(ctx context.Context, code string) (bool, error) {
	body := struct {
		Code string `json:"code"`
	}{code}

	var resp validationResponse
	if _, err := c.do(ctx, http.MethodPost, "/auth/verify/trusted-device", body, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// TrustSession requests a trust token so later logins skip verification.
func (c *HTTPClient) TrustSession(ctx context.Context) (bool, error) {
	var resp trustResponse
	if _, err := c.do(ctx, http.MethodPost, "/auth/trust", nil, &resp); err != nil {
		return false, err
	}
	if resp.TrustToken == "" {
		return false, nil
	}
	c.sessions.SetTrustToken(resp.TrustToken)
	return true, nil
}

// Devices lists the devices registered to the account in service order.
func (c *HTTPClient) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if _, err := c.do(ctx, http.MethodGet, "/devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Location fetches the current location of a device.
func (c *HTTPClient) Location(ctx context.Context, deviceID string) (*Location, error) {
	var loc *Location
	found, err := c.do(ctx, http.MethodGet, "/devices/"+url.PathEscape(deviceID)+"/location", nil, &loc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return loc, nil
}

// do performs a request and decodes the JSON response into out.
// It returns false when the service answered without content.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) (bool, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("failed to serialize request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.sessions.SessionToken(); token != "" {
		req.Header.Set(sessionTokenHeader, token)
	}
	for name, value := range c.sessions.Cookies() {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.captureSession(resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response of %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	trimmed := bytes.TrimSpace(data)
	if resp.StatusCode == http.StatusNoContent || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return false, fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return true, nil
}

// captureSession records cookies and a rotated session token from a response.
func (c *HTTPClient) captureSession(resp *http.Response) {
	for _, cookie := range resp.Cookies() {
		if cookie.MaxAge < 0 {
			c.sessions.SetCookie(cookie.Name, "")
			continue
		}
		c.sessions.SetCookie(cookie.Name, cookie.Value)
	}
	if token := resp.Header.Get(sessionTokenHeader); token != "" {
		c.sessions.SetSessionToken(token)
	}
}

func errorMessage(status int, data []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}
