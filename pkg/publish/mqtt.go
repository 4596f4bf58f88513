package publish

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig holds the broker connection settings for the MQTT sink.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// TopicPrefix defaults to "announce".
	TopicPrefix string
	QoS         byte
	Retained    bool
}

// MQTT publishes rendered announcements to an MQTT broker under
// <prefix>/<device>/<state>, so speech engines can subscribe to them.
type MQTT struct {
	client mqtt.Client
	cfg    MQTTConfig
}

// NewMQTT connects to the broker and returns a publisher.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "announce"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "announce-publisher"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTT{client: client, cfg: cfg}, nil
}

func (p *MQTT) Publish(ctx context.Context, deviceID int64, stateKey, value string) error {
	topic := fmt.Sprintf("%s/%d/%s", p.cfg.TopicPrefix, deviceID, stateKey)

	token := p.client.Publish(topic, p.cfg.QoS, p.cfg.Retained, []byte(value))
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTT) Close() {
	p.client.Disconnect(250)
}
