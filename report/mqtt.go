package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mklimuk/barometer/mpl115a2"
)

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Message is the MQTT payload of a single reading.
type Message struct {
	Bundle
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends readings to an MQTT topic as JSON.
type Publisher struct {
	client   mqttPublisher
	topic    string
	qos      byte
	retained bool
	now      func() time.Time
}

type PublisherOpt func(*Publisher)

func WithQoS(qos byte) PublisherOpt {
	return func(p *Publisher) {
		p.qos = qos
	}
}

func WithRetained(retained bool) PublisherOpt {
	return func(p *Publisher) {
		p.retained = retained
	}
}

func NewPublisher(client mqttPublisher, topic string, opts ...PublisherOpt) *Publisher {
	p := &Publisher{client: client, topic: topic, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish blocks until the broker acknowledged the message according to the
// QoS level or ctx is done.
func (p *Publisher) Publish(ctx context.Context, r mpl115a2.Reading) error {
	payload, err := json.Marshal(Message{Bundle: NewBundle(r), Timestamp: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("could not encode reading: %w", err)
	}
	token := p.client.Publish(p.topic, p.qos, p.retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", p.topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s failed: %w", p.topic, err)
	}
	return nil
}

// Connect dials the broker and waits for the connection up to timeout.
func Connect(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out after %s", broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return client, nil
}
