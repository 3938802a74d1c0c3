package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/internal/models"
	"github.com/benmeehan/device-locator/pkg/account"
	"github.com/benmeehan/device-locator/pkg/session"
)

// AccountServiceInterface defines the account operations used to locate a device.
type AccountServiceInterface interface {
	FindDevice(ctx context.Context, name string) (account.Device, error)
	FetchLocation(ctx context.Context, device account.Device) (models.DeviceLocation, error)
}

// AccountService adapts the account client for the non-interactive service process.
type AccountService struct {
	client   account.Client
	sessions session.SessionManagerInterface
	logger   zerolog.Logger
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(client account.Client, sessions session.SessionManagerInterface, logger zerolog.Logger) *AccountService {
	return &AccountService{
		client:   client,
		sessions: sessions,
		logger:   logger,
	}
}

// Authenticate loads the stored session and logs in with it. It never prompts:
// a pending multi-factor challenge yields ErrAuthenticationIncomplete.
func (a *AccountService) Authenticate(ctx context.Context) error {
	if err := a.sessions.Load(); err != nil {
		return fmt.Errorf("failed to load stored session: %w", err)
	}

	a.logger.Info().Msg("Authenticating to account service")
	status, err := a.client.Login(ctx)
	if err != nil {
		return &UpstreamError{Op: "login", Err: err}
	}

	if status.RequiresVerification() {
		a.logger.Error().
			Bool("requires_2fa", status.Requires2FA).
			Bool("requires_2sa", status.Requires2SA).
			Msg("Stored session is missing or expired")
		return ErrAuthenticationIncomplete
	}

	if err := a.sessions.Save(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to persist refreshed session")
	}

	a.logger.Info().Msg("Successfully authenticated to account service")
	return nil
}

// FindDevice returns the first device whose display name equals name, in service order.
func (a *AccountService) FindDevice(ctx context.Context, name string) (account.Device, error) {
	devices, err := a.client.Devices(ctx)
	if err != nil {
		return account.Device{}, &UpstreamError{Op: "list devices", Err: err}
	}

	for _, device := range devices {
		if device.Name == name {
			return device, nil
		}
	}

	a.logger.Warn().Str("device_name", name).Int("devices", len(devices)).Msg("Device not found in account")
	return account.Device{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// FetchLocation requests the current location of device.
func (a *AccountService) FetchLocation(ctx context.Context, device account.Device) (models.DeviceLocation, error) {
	loc, err := a.client.Location(ctx, device.ID)
	if err != nil {
		return models.DeviceLocation{}, &UpstreamError{Op: "fetch location", Err: err}
	}

	if loc == nil || (loc.Latitude == nil && loc.Longitude == nil && loc.TimeStamp == nil) {
		return models.DeviceLocation{}, ErrLocationUnavailable
	}
	if loc.Latitude == nil || loc.Longitude == nil {
		return models.DeviceLocation{}, ErrMalformedLocation
	}

	return models.DeviceLocation{
		Latitude:  *loc.Latitude,
		Longitude: *loc.Longitude,
		Timestamp: loc.TimeStamp,
	}, nil
}
