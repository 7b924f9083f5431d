package publish

import (
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/janisvco/stepfeed/internal/readings"
)

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string // a random suffix is appended
	TopicPrefix string
	Retain      bool // retain readings messages; status is always retained
	Username    string
	Password    string
}

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	topics Topics
	retain bool
	logger *slog.Logger
}

// NewRealPublisher creates a publisher connected to the given broker. The
// status topic carries a retained "offline" last will.
func NewRealPublisher(o Options, logger *slog.Logger) (*RealPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	topics := NewTopics(o.TopicPrefix)
	clientID := o.ClientID + "-" + uuid.NewString()[:8]

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(topics.Status, StatusOffline, 1, true).
		SetOnConnectHandler(func(paho.Client) {
			logger.Info("mqtt connected", "broker", o.Broker, "client_id", clientID)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{
		client: client,
		topics: topics,
		retain: o.Retain,
		logger: logger,
	}, nil
}

// PublishReadings sends a snapshot to the readings topic.
func (p *RealPublisher) PublishReadings(snap readings.Snapshot) error {
	payload, err := FormatPayload(snap, time.Now())
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0, readings are superseded quickly
	return p.publish(p.topics.Readings, 0, p.retain, payload)
}

// PublishStatus sends the connection state to the status topic.
func (p *RealPublisher) PublishStatus(state readings.ConnectionState) error {
	return p.publish(p.topics.Status, 1, true, FormatStatus(state))
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close marks the status offline and disconnects from the broker.
func (p *RealPublisher) Close() error {
	if err := p.publish(p.topics.Status, 1, true, []byte(StatusOffline)); err != nil {
		p.logger.Warn("failed to publish offline status", "error", err)
	}
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
