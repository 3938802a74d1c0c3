package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/device-locator/internal/models"
)

// MockLocationService is a mock implementation of the LocationServiceInterface
type MockLocationService struct {
	mock.Mock
}

func (m *MockLocationService) GetLocation(ctx context.Context) (models.LocationResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.LocationResponse), args.Error(1)
}

func (m *MockLocationService) DeviceName() string {
	args := m.Called()
	return args.String(0)
}

// MockLocationPublisher is a mock implementation of the LocationPublisher interface
type MockLocationPublisher struct {
	mock.Mock
}

func (m *MockLocationPublisher) PublishLocation(location models.LocationResponse) error {
	args := m.Called(location)
	return args.Error(0)
}
