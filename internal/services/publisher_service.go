package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/internal/models"
	"github.com/benmeehan/device-locator/pkg/mqtt"
)

const publishTimeout = 5 * time.Second

// PublisherService publishes freshly fetched locations to an MQTT topic.
type PublisherService struct {
	// Configuration fields
	topic      string
	qos        int
	retained   bool
	deviceName string

	// Dependencies
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger

	mu      sync.Mutex
	running bool
}

type locationMessage struct {
	DeviceName  string    `json:"device_name"`
	PublishedAt time.Time `json:"published_at"`
	models.LocationResponse
}

// NewPublisherService creates a new PublisherService instance on a connected client.
func NewPublisherService(topic string, qos int, retained bool, deviceName string,
	mqttClient mqtt.MQTTClient, logger zerolog.Logger) *PublisherService {
	return &PublisherService{
		topic:      topic,
		qos:        qos,
		retained:   retained,
		deviceName: deviceName,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// Start enables publishing.
func (p *PublisherService) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.logger.Warn().Msg("PublisherService is already running")
		return errors.New("publisher service is already running")
	}
	p.running = true

	p.logger.Info().Str("topic", p.topic).Int("qos", p.qos).Msg("PublisherService started")
	return nil
}

// Stop disables publishing and disconnects from the broker.
func (p *PublisherService) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		p.logger.Warn().Msg("PublisherService is not running")
		return errors.New("publisher service is not running")
	}
	p.running = false
	p.mqttClient.Disconnect(250)

	p.logger.Info().Msg("PublisherService stopped")
	return nil
}

// PublishLocation serializes location and publishes it to the configured topic.
func (p *PublisherService) PublishLocation(location models.LocationResponse) error {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return errors.New("publisher service is not running")
	}

	payload, err := json.Marshal(locationMessage{
		DeviceName:       p.deviceName,
		PublishedAt:      time.Now().UTC(),
		LocationResponse: location,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize location message: %w", err)
	}

	token := p.mqttClient.Publish(p.topic, byte(p.qos), p.retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}

	p.logger.Debug().Str("topic", p.topic).Msg("Location published successfully")
	return nil
}
