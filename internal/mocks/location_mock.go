package mocks

import (
	"context"

	"github.com/benmeehan/locationsharing/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of the location.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetLocations(ctx context.Context) ([]location.Location, error) {
	args := m.Called(ctx)
	locations, _ := args.Get(0).([]location.Location)
	return locations, args.Error(1)
}

// MockAddressResolver is a mock implementation of the location.AddressResolver interface
type MockAddressResolver struct {
	mock.Mock
}

func (m *MockAddressResolver) ResolveAddress(ctx context.Context, lat, lng float64) (string, error) {
	args := m.Called(ctx, lat, lng)
	return args.String(0), args.Error(1)
}
