package services_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/device-locator/internal/mocks"
	"github.com/benmeehan/device-locator/internal/services"
	"github.com/benmeehan/device-locator/pkg/account"
)

const sessionPath = ".session/session.json"

func newBootstrap(input string) (*services.BootstrapService, *mocks.MockAccountClient, *mocks.MockSessionManager, *bytes.Buffer) {
	client := new(mocks.MockAccountClient)
	sessions := new(mocks.MockSessionManager)
	sessions.On("Load").Return(nil)
	sessions.On("Path").Return(sessionPath)
	out := new(bytes.Buffer)

	b := services.NewBootstrapService(client, sessions, strings.NewReader(input), out, zerolog.Nop())
	return b, client, sessions, out
}

func TestBootstrapService_Run_NoVerificationRequired(t *testing.T) {
	b, client, sessions, out := newBootstrap("")
	client.On("Login", mock.Anything).Return(account.LoginStatus{}, nil)
	sessions.On("Save").Return(nil)

	err := b.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.String(), "No 2FA/2SA required. Login succeeded.")
	assert.Contains(t, out.String(), "Authentication successful. Session saved to '.session/session.json'.")
	sessions.AssertCalled(t, "Save")
}

// TestBootstrapService_Run_TwoFactor reads the trust state after validation and skips the trust request.
func TestBootstrapService_Run_TwoFactor(t *testing.T) {
	b, client, sessions, out := newBootstrap("123456\n")
	client.On("Login", mock.Anything).Return(account.LoginStatus{Requires2FA: true}, nil).Once()
	client.On("Validate2FACode", mock.Anything, "123456").Return(true, nil)
	client.On("Login", mock.Anything).Return(account.LoginStatus{TrustedSession: true}, nil).Once()
	sessions.On("Save").Return(nil)

	err := b.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Enter the 6-digit code sent to a trusted device: ")
	client.AssertNumberOfCalls(t, "Login", 2)
	client.AssertNotCalled(t, "TrustSession", mock.Anything)
	sessions.AssertCalled(t, "Save")
}

// TestBootstrapService_Run_TwoFactorTrustFailure warns but still saves the session.
func TestBootstrapService_Run_TwoFactorTrustFailure(t *testing.T) {
	b, client, sessions, out := newBootstrap("123456")
	client.On("Login", mock.Anything).Return(account.LoginStatus{Requires2FA: true}, nil).Once()
	client.On("Validate2FACode", mock.Anything, "123456").Return(true, nil)
	client.On("Login", mock.Anything).Return(account.LoginStatus{}, nil).Once()
	client.On("TrustSession", mock.Anything).Return(false, nil)
	sessions.On("Save").Return(nil)

	err := b.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Failed to trust this session.")
	assert.Contains(t, out.String(), "Authentication successful.")
	sessions.AssertCalled(t, "Save")
}

func TestBootstrapService_Run_TwoFactorRejected(t *testing.T) {
	b, client, sessions, _ := newBootstrap("000000\n")
	client.On("Login", mock.Anything).Return(account.LoginStatus{Requires2FA: true}, nil)
	client.On("Validate2FACode", mock.Anything, "000000").Return(false, nil)

	err := b.Run(context.Background())

	assert.ErrorIs(t, err, services.ErrVerificationFailed)
	sessions.AssertNotCalled(t, "Save")
}

func TestBootstrapService_Run_TwoStep(t *testing.T) {
	devices := []account.TrustedDevice{
		{ID: "d0", DeviceName: "Old iPad"},
		{ID: "d1", PhoneNumber: "********12"},
	}
	b, client, sessions, out := newBootstrap("1\n654321\n")
	client.On("Login", mock.Anything).Return(account.LoginStatus{Requires2SA: true}, nil)
	client.On("TrustedDevices", mock.Anything).Return(devices, nil)
	client.On("SendVerificationCode", mock.Anything, devices[1]).Return(nil)
	client.On("ValidateVerificationCode", mock.Anything, devices[1], "654321").Return(true, nil)
	sessions.On("Save").Return(nil)

	err := b.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.String(), "  [0] Old iPad")
	assert.Contains(t, out.String(), "  [1] SMS → ********12")
	assert.Contains(t, out.String(), "Select a device (0–1): ")
	sessions.AssertCalled(t, "Save")
}

func TestBootstrapService_Run_TwoStepInvalidSelection(t *testing.T) {
	for _, input := range []string{"5\n", "-1\n", "abc\n"} {
		b, client, sessions, _ := newBootstrap(input)
		client.On("Login", mock.Anything).Return(account.LoginStatus{Requires2SA: true}, nil)
		client.On("TrustedDevices", mock.Anything).Return([]account.TrustedDevice{{ID: "d0", DeviceName: "Old iPad"}}, nil)

		err := b.Run(context.Background())

		assert.ErrorIs(t, err, services.ErrInvalidSelection, input)
		client.AssertNotCalled(t, "SendVerificationCode", mock.Anything, mock.Anything)
		sessions.AssertNotCalled(t, "Save")
	}
}

func TestBootstrapService_Run_TwoStepSendFailure(t *testing.T) {
	device := account.TrustedDevice{ID: "d0", DeviceName: "Old iPad"}
	b, client, _, _ := newBootstrap("0\n")
	client.On("Login", mock.Anything).Return(account.LoginStatus{Requires2SA: true}, nil)
	client.On("TrustedDevices", mock.Anything).Return([]account.TrustedDevice{device}, nil)
	client.On("SendVerificationCode", mock.Anything, device).Return(errors.New("rate limited"))

	err := b.Run(context.Background())

	assert.ErrorIs(t, err, services.ErrVerificationFailed)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestBootstrapService_Run_LoginFailure(t *testing.T) {
	b, client, sessions, _ := newBootstrap("")
	client.On("Login", mock.Anything).Return(account.LoginStatus{}, &account.APIError{StatusCode: 401, Message: "invalid password"})

	err := b.Run(context.Background())

	var upstream *services.UpstreamError
	assert.ErrorAs(t, err, &upstream)
	sessions.AssertNotCalled(t, "Save")
}

func TestBootstrapService_Run_MissingInput(t *testing.T) {
	b, client, _, _ := newBootstrap("")
	client.On("Login", mock.Anything).Return(account.LoginStatus{Requires2FA: true}, nil)

	err := b.Run(context.Background())

	assert.Error(t, err)
	client.AssertNotCalled(t, "Validate2FACode", mock.Anything, mock.Anything)
}
