package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/locationsharing/internal/mocks"
	"github.com/benmeehan/locationsharing/internal/models"
	"github.com/benmeehan/locationsharing/pkg/location"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fetchedAt = time.Date(2019, 3, 28, 20, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func sampleLocations() []location.Location {
	ts := time.Date(2019, 3, 28, 19, 54, 45, 0, time.UTC)
	return []location.Location{
		{
			Person:    location.Person{ID: "twilight", FullName: "Twilight Sparkle", Nickname: strPtr("Twilight")},
			Latitude:  49.2664886,
			Longitude: -123.1123589,
			Address:   strPtr("380 W 5th Ave, Vancouver, BC V5Y 1J5, Canada"),
			Timestamp: &ts,
		},
		{
			Person:    location.Person{ID: "rarity", FullName: "Rarity"},
			Latitude:  49.2827,
			Longitude: -123.1207,
			Timestamp: &ts,
		},
	}
}

func newTestService(provider location.Provider, resolver location.AddressResolver, client *mocks.MockMQTTClient) *LocationService {
	var s *LocationService
	if client != nil {
		s = NewLocationService("home/people", 1, true, provider, resolver, client, zerolog.Nop())
	} else {
		s = NewLocationService("home/people", 1, true, provider, resolver, nil, zerolog.Nop())
	}
	s.now = func() time.Time { return fetchedAt }
	return s
}

// TestLocationService_Run_Success tests a fetch without optional sinks.
func TestLocationService_Run_Success(t *testing.T) {
	// Setup
	provider := new(mocks.MockProvider)
	provider.On("GetLocations", mock.Anything).Return(sampleLocations(), nil)
	s := newTestService(provider, nil, nil)

	// Execute
	messages, err := s.Run(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "twilight", messages[0].PersonID)
	assert.Equal(t, "Twilight Sparkle", messages[0].FullName)
	assert.Equal(t, fetchedAt, messages[0].FetchedAt)
	assert.Equal(t, "rarity", messages[1].PersonID)
	assert.Nil(t, messages[1].Address)
	provider.AssertExpectations(t)
}

func TestLocationService_Run_ProviderError(t *testing.T) {
	provider := new(mocks.MockProvider)
	cause := &location.MalformedError{Reason: "missing record array"}
	provider.On("GetLocations", mock.Anything).Return(nil, cause)
	client := new(mocks.MockMQTTClient)
	s := newTestService(provider, nil, client)

	messages, err := s.Run(context.Background())

	assert.Nil(t, messages)
	assert.True(t, errors.Is(err, location.ErrMalformed))
	client.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLocationService_Run_ResolvesMissingAddress(t *testing.T) {
	provider := new(mocks.MockProvider)
	provider.On("GetLocations", mock.Anything).Return(sampleLocations(), nil)
	resolver := new(mocks.MockAddressResolver)
	resolver.On("ResolveAddress", mock.Anything, 49.2827, -123.1207).Return("Vancouver, BC, Canada", nil)
	s := newTestService(provider, resolver, nil)

	messages, err := s.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "380 W 5th Ave, Vancouver, BC V5Y 1J5, Canada", *messages[0].Address)
	assert.Equal(t, "Vancouver, BC, Canada", *messages[1].Address)
	resolver.AssertNumberOfCalls(t, "ResolveAddress", 1)
}

func TestLocationService_Run_ResolverFailureKeepsLocation(t *testing.T) {
	provider := new(mocks.MockProvider)
	provider.On("GetLocations", mock.Anything).Return(sampleLocations(), nil)
	resolver := new(mocks.MockAddressResolver)
	resolver.On("ResolveAddress", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("OVER_QUERY_LIMIT"))
	s := newTestService(provider, resolver, nil)

	messages, err := s.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Nil(t, messages[1].Address)
}

func TestLocationService_Run_PublishesEachLocation(t *testing.T) {
	provider := new(mocks.MockProvider)
	provider.On("GetLocations", mock.Anything).Return(sampleLocations(), nil)
	client := new(mocks.MockMQTTClient)
	client.On("Publish", "home/people/twilight", byte(1), true, mock.Anything).Return(mocks.NewCompletedToken(nil)).Once()
	client.On("Publish", "home/people/rarity", byte(1), true, mock.Anything).Return(mocks.NewCompletedToken(nil)).Once()
	s := newTestService(provider, nil, client)

	messages, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Len(t, messages, 2)
	client.AssertExpectations(t)

	payload := client.Calls[0].Arguments.Get(3).([]byte)
	var published models.SharedLocation
	require.NoError(t, json.Unmarshal(payload, &published))
	assert.Equal(t, messages[0].PersonID, published.PersonID)
	assert.Equal(t, messages[0].Latitude, published.Latitude)
}

func TestLocationService_Run_PublishError(t *testing.T) {
	provider := new(mocks.MockProvider)
	provider.On("GetLocations", mock.Anything).Return(sampleLocations(), nil)
	client := new(mocks.MockMQTTClient)
	client.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(mocks.NewCompletedToken(errors.New("not connected")))
	s := newTestService(provider, nil, client)

	messages, err := s.Run(context.Background())

	assert.Nil(t, messages)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish location for twilight")
	client.AssertNumberOfCalls(t, "Publish", 1)
}

func TestLocationService_Run_PublishErrorMidway(t *testing.T) {
	provider := new(mocks.MockProvider)
	provider.On("GetLocations", mock.Anything).Return(sampleLocations(), nil)
	client := new(mocks.MockMQTTClient)
	client.On("Publish", "home/people/twilight", byte(1), true, mock.Anything).Return(mocks.NewCompletedToken(nil)).Once()
	client.On("Publish", "home/people/rarity", byte(1), true, mock.Anything).Return(mocks.NewCompletedToken(errors.New("connection lost"))).Once()
	s := newTestService(provider, nil, client)

	messages, err := s.Run(context.Background())

	assert.Nil(t, messages)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish location for rarity")
	// The first message already reached the broker.
	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "Publish", 2)
}
