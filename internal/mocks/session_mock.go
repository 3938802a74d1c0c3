package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockSessionManager is a mock implementation of the SessionManagerInterface
type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) Load() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSessionManager) Save() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSessionManager) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSessionManager) SessionToken() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSessionManager) SetSessionToken(token string) {
	m.Called(token)
}

func (m *MockSessionManager) TrustToken() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSessionManager) SetTrustToken(token string) {
	m.Called(token)
}

func (m *MockSessionManager) Cookies() map[string]string {
	args := m.Called()
	cookies, _ := args.Get(0).(map[string]string)
	return cookies
}

func (m *MockSessionManager) SetCookie(name, value string) {
	m.Called(name, value)
}
