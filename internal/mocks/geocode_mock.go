package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/device-locator/pkg/geocode"
)

// MockGeocodeProvider is a mock implementation of the geocode.Provider interface
type MockGeocodeProvider struct {
	mock.Mock
}

func (m *MockGeocodeProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (geocode.Address, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(geocode.Address), args.Error(1)
}
