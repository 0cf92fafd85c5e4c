package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// bufferCapacity bounds messages held while the broker is unreachable.
// One report per minute means this covers several hours of outage.
const bufferCapacity = 256

// RealPublisher publishes to an actual MQTT broker. Messages that
// cannot be delivered while disconnected are held in a ring buffer and
// replayed in order when the connection comes back.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	pending *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := &RealPublisher{
		pending: newRingBuffer(bufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost, buffering reports")
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// Publish sends a window report to the MQTT broker.
func (p *RealPublisher) Publish(event ReportEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.send(Topic, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.send(TopicSystem, 1, event.Retained, payload)
}

// send delivers one message, or buffers it when the broker is away.
func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.buffer(topic, qos, retained, payload)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.buffer(topic, qos, retained, payload)
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		p.buffer(topic, qos, retained, payload)
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

func (p *RealPublisher) buffer(topic string, qos byte, retained bool, payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
}

// onConnect replays everything buffered during the outage.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	msgs := p.pending.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}

	log.Info().Int("count", len(msgs)).Msg("mqtt reconnected, replaying buffered messages")
	for _, m := range msgs {
		token := client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Warn().Str("topic", m.topic).Msg("replay timed out, dropping message")
			continue
		}
		if err := token.Error(); err != nil {
			log.Warn().Err(err).Str("topic", m.topic).Msg("replay failed, dropping message")
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
