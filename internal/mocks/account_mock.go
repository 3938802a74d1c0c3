package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/device-locator/pkg/account"
)

// MockAccountClient is a mock implementation of the account.Client interface
type MockAccountClient struct {
	mock.Mock
}

func (m *MockAccountClient) Login(ctx context.Context) (account.LoginStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(account.LoginStatus), args.Error(1)
}

func (m *MockAccountClient) TrustedDevices(ctx context.Context) ([]account.TrustedDevice, error) {
	args := m.Called(ctx)
	devices, _ := args.Get(0).([]account.TrustedDevice)
	return devices, args.Error(1)
}

func (m *MockAccountClient) SendVerificationCode(ctx context.Context, device account.TrustedDevice) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockAccountClient) ValidateVerificationCode(ctx context.Context, device account.TrustedDevice, code string) (bool, error) {
	args := m.Called(ctx, device, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountClient) Validate2FACode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountClient) TrustSession(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountClient) Devices(ctx context.Context) ([]account.Device, error) {
	args := m.Called(ctx)
	devices, _ := args.Get(0).([]account.Device)
	return devices, args.Error(1)
}

func (m *MockAccountClient) Location(ctx context.Context, deviceID string) (*account.Location, error) {
	args := m.Called(ctx, deviceID)
	location, _ := args.Get(0).(*account.Location)
	return location, args.Error(1)
}
