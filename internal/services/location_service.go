package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benmeehan/locationsharing/internal/models"
	"github.com/benmeehan/locationsharing/pkg/location"
	"github.com/benmeehan/locationsharing/pkg/mqtt"
	"github.com/rs/zerolog"
)

// LocationService fetches shared locations once and hands them to the configured sinks.
type LocationService struct {
	// Configuration fields
	topic    string
	qos      int
	retained bool

	// Dependencies
	locationProvider location.Provider
	addressResolver  location.AddressResolver // Optional, fills in missing addresses
	mqttClient       mqtt.MQTTClient          // Optional, publishes each location
	logger           zerolog.Logger
	now              func() time.Time
}

// NewLocationService creates a new LocationService instance. addressResolver and
// mqttClient may be nil to disable address enrichment and publishing.
func NewLocationService(topic string, qos int, retained bool, locationProvider location.Provider,
	addressResolver location.AddressResolver, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *LocationService {
	return &LocationService{
		topic:            topic,
		qos:              qos,
		retained:         retained,
		locationProvider: locationProvider,
		addressResolver:  addressResolver,
		mqttClient:       mqttClient,
		logger:           logger,
		now:              time.Now,
	}
}

// Run performs a single fetch. Any fetch or publish error aborts the run and no
// messages are returned. Every payload is serialized before the first publish,
// but messages published before a broker failure are not retracted.
func (l *LocationService) Run(ctx context.Context) ([]models.SharedLocation, error) {
	locations, err := l.locationProvider.GetLocations(ctx)
	if err != nil {
		return nil, err
	}
	fetchedAt := l.now().UTC()

	l.logger.Info().
		Int("count", len(locations)).
		Msg("Fetched shared locations")

	messages := make([]models.SharedLocation, 0, len(locations))
	for _, loc := range locations {
		loc = l.withAddress(ctx, loc)
		messages = append(messages, models.NewSharedLocation(loc, fetchedAt))
	}

	if l.mqttClient != nil {
		payloads := make([][]byte, len(messages))
		for i, message := range messages {
			payload, err := json.Marshal(message)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize location message: %w", err)
			}
			payloads[i] = payload
		}

		for i, message := range messages {
			if err := l.publish(message.PersonID, payloads[i]); err != nil {
				return nil, err
			}
		}
	}

	return messages, nil
}

// withAddress fills in the address of loc when the server omitted it.
// Resolver failures leave loc unchanged.
func (l *LocationService) withAddress(ctx context.Context, loc location.Location) location.Location {
	if l.addressResolver == nil || loc.Address != nil {
		return loc
	}

	address, err := l.addressResolver.ResolveAddress(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		l.logger.Warn().
			Err(err).
			Str("person_id", loc.Person.ID).
			Msg("Failed to resolve address")
		return loc
	}
	return loc.WithAddress(address)
}

// publish sends one serialized location message to <topic>/<person id>.
func (l *LocationService) publish(personID string, payload []byte) error {
	topic := l.topic + "/" + personID
	token := l.mqttClient.Publish(topic, byte(l.qos), l.retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		l.logger.Error().
			Err(err).
			Str("topic", topic).
			Msg("Failed to publish location message to MQTT")
		return fmt.Errorf("failed to publish location for %s: %w", personID, err)
	}

	l.logger.Debug().
		Str("topic", topic).
		Msg("Location published successfully")
	return nil
}
