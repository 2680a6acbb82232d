// Package readings ingests glucose readings from external sources and feeds
// them to the alerting pipeline.
package readings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/glucosense/glucosense-go/internal/alerting"
	"github.com/glucosense/glucosense-go/internal/conf"
	"github.com/glucosense/glucosense-go/internal/logger"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds, paho's Disconnect unit
)

// readingPayload is the wire format published by CGM bridge devices.
type readingPayload struct {
	UserID       string  `json:"user_id"`
	GlucoseValue float64 `json:"glucose_value"`
	ReadingID    string  `json:"reading_id"`
	Timestamp    string  `json:"timestamp"`
}

// MQTTSource subscribes to a broker topic and publishes each valid reading to
// the reading bus. Malformed payloads are logged and dropped; the subscription
// survives broker reconnects.
type MQTTSource struct {
	settings conf.MQTTSettings
	bus      *alerting.ReadingBus
	log      logger.Logger
	client   paho.Client
}

// NewMQTTSource creates an MQTT reading source. Start connects it.
func NewMQTTSource(settings conf.MQTTSettings, bus *alerting.ReadingBus, log logger.Logger) *MQTTSource {
	return &MQTTSource{settings: settings, bus: bus, log: log}
}

// Start connects to the broker and subscribes to the reading topic. The
// subscription is re-established automatically after reconnects.
func (s *MQTTSource) Start(ctx context.Context) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(s.settings.Broker)
	opts.SetClientID(s.settings.ClientID)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	if s.settings.Username != "" {
		opts.SetUsername(s.settings.Username)
		opts.SetPassword(s.settings.Password)
	}
	opts.SetOnConnectHandler(func(client paho.Client) {
		// Runs on the initial connect and every reconnect.
		token := client.Subscribe(s.settings.Topic, 1, s.handleMessage)
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			s.log.Error("failed to subscribe to reading topic",
				logger.String("topic", s.settings.Topic),
				logger.Error(token.Error()))
			return
		}
		s.log.Info("subscribed to reading topic",
			logger.String("broker", s.settings.Broker),
			logger.String("topic", s.settings.Topic))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.log.Warn("mqtt connection lost", logger.Error(err))
	})

	s.client = paho.NewClient(opts)
	token := s.client.Connect()

	deadline := connectTimeout
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining < deadline {
			deadline = remaining
		}
	}
	if !token.WaitTimeout(deadline) {
		return fmt.Errorf("mqtt connect to %s timed out", s.settings.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker %s: %w", s.settings.Broker, err)
	}
	return nil
}

// Stop disconnects from the broker.
func (s *MQTTSource) Stop() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(disconnectQuiesce)
	}
}

func (s *MQTTSource) handleMessage(_ paho.Client, msg paho.Message) {
	var payload readingPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		s.log.Warn("dropping malformed reading payload",
			logger.String("topic", msg.Topic()),
			logger.Error(err))
		return
	}
	if payload.UserID == "" || payload.GlucoseValue <= 0 {
		s.log.Warn("dropping invalid reading",
			logger.String("topic", msg.Topic()),
			logger.String("user_id", payload.UserID),
			logger.Float64("glucose", payload.GlucoseValue))
		return
	}

	event := &alerting.ReadingEvent{
		UserID:       payload.UserID,
		GlucoseValue: payload.GlucoseValue,
		ReadingID:    payload.ReadingID,
	}
	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, payload.Timestamp); err == nil {
			event.Timestamp = ts
		}
	}
	s.bus.Publish(event)
}
