package account

import (
	"context"
	"fmt"
)

// Credentials identify the account. They are never persisted.
type Credentials struct {
	AccountID string
	Secret    string
}

// LoginStatus describes the challenge state reported after a login.
type LoginStatus struct {
	SessionToken   string `json:"sessionToken"`
	Requires2FA    bool   `json:"requires2fa"`
	Requires2SA    bool   `json:"requires2sa"`
	TrustedSession bool   `json:"trustedSession"`
}

// RequiresVerification reports whether any multi-factor challenge is pending.
func (s LoginStatus) RequiresVerification() bool {
	return s.Requires2FA || s.Requires2SA
}

// TrustedDevice is a device able to receive legacy two-step verification codes.
type TrustedDevice struct {
	ID          string `json:"deviceId"`
	DeviceName  string `json:"deviceName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// DisplayName returns the device name, or an SMS label when the device has none.
func (d TrustedDevice) DisplayName() string {
	if d.DeviceName != "" {
		return d.DeviceName
	}
	return fmt.Sprintf("SMS → %s", d.PhoneNumber)
}

// Device is a device registered to the account.
type Device struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"deviceDisplayName,omitempty"`
}

// Location is the raw location payload for a device. Any field may be absent.
type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	TimeStamp *int64   `json:"timeStamp"`
}

// Client is the account service as seen by this system.
type Client interface {
	Login(ctx context.Context) (LoginStatus, error)
	TrustedDevices(ctx context.Context) ([]TrustedDevice, error)
	SendVerificationCode(ctx context.Context, device TrustedDevice) error
	ValidateVerificationCode(ctx context.Context, device TrustedDevice, code string) (bool, error)
	Validate2FACode(ctx context.Context, code string) (bool, error)
	TrustSession(ctx context.Context) (bool, error)
	Devices(ctx context.Context) ([]Device, error)
	// Location returns nil when the service has no location for the device.
	Location(ctx context.Context, deviceID string) (*Location, error)
}

// APIError is a non-success response from the account service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("account service returned %d: %s", e.StatusCode, e.Message)
}
