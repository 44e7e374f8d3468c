// Package mqtt publishes vehicle telemetry and operator advisories to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/homeward/internal/logging"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
	"github.com/aretw0/homeward/pkg/runner"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

// Client is the subset of paho.Client the publisher uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Options configures the broker connection and topics.
type Options struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string
	Topic    string // Prefix; messages go to <Topic>/<vehicle>/state and /advisory
	QoS      byte
	// Interval throttles state messages; target and phase changes are always sent.
	Interval time.Duration
}

// Message is the JSON state payload.
type Message struct {
	VehicleID string                   `json:"vehicle_id"`
	Time      time.Time                `json:"time"`
	Mode      domain.NavMode           `json:"mode"`
	Phase     domain.Phase             `json:"phase"`
	Landed    bool                     `json:"landed"`
	Position  domain.GlobalPosition    `json:"position"`
	Target    *domain.PositionSetpoint `json:"target,omitempty"`
}

// AdvisoryMessage is the JSON advisory payload.
type AdvisoryMessage struct {
	VehicleID string          `json:"vehicle_id"`
	Time      time.Time       `json:"time"`
	Severity  domain.Severity `json:"severity"`
	Message   string          `json:"message"`
}

// Publisher sends telemetry from the guidance loop. Publishing never blocks
// the caller: delivery is confirmed on a separate goroutine.
type Publisher struct {
	client    Client
	opts      Options
	vehicleID string
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	lastSent  time.Time
	lastPhase domain.Phase
	lastMode  domain.NavMode
	sent      int
}

var _ ports.AdvisorySink = (*Publisher)(nil)

// Connect dials the broker and returns a publisher for vehicleID.
func Connect(opts Options, vehicleID string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	co := paho.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetUsername(opts.Username)
	co.SetPassword(opts.Password)
	co.SetAutoReconnect(true)
	co.SetConnectTimeout(connectTimeout)
	co.OnConnect = func(paho.Client) {
		logger.Info("MQTT connected", "broker", opts.Broker)
	}
	co.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Warn("MQTT connection lost", "broker", opts.Broker, "err", err)
	}

	client := paho.NewClient(co)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", opts.Broker, err)
	}
	return NewPublisher(client, opts, vehicleID, logger), nil
}

// NewPublisher wraps an already connected client.
func NewPublisher(client Client, opts Options, vehicleID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Topic == "" {
		opts.Topic = "homeward"
	}
	return &Publisher{
		client:    client,
		opts:      opts,
		vehicleID: vehicleID,
		logger:    logger,
		now:       time.Now,
		lastPhase: -1,
	}
}

// StateTopic is where state messages are published.
func (p *Publisher) StateTopic() string {
	return fmt.Sprintf("%s/%s/state", p.opts.Topic, p.vehicleID)
}

// AdvisoryTopic is where advisories are published.
func (p *Publisher) AdvisoryTopic() string {
	return fmt.Sprintf("%s/%s/advisory", p.opts.Topic, p.vehicleID)
}

// OnTick publishes a cycle if the interval elapsed or something changed.
// It has the signature of a runner tick observer.
func (p *Publisher) OnTick(tick runner.Tick) {
	s := tick.Snapshot
	p.mu.Lock()
	changed := tick.TripletUpdated || s.Phase != p.lastPhase || s.Mode != p.lastMode
	due := p.sent == 0 || tick.Time.Sub(p.lastSent) >= p.opts.Interval
	if !changed && !due {
		p.mu.Unlock()
		return
	}
	p.lastSent = tick.Time
	p.lastPhase = s.Phase
	p.lastMode = s.Mode
	p.sent++
	p.mu.Unlock()

	msg := Message{
		VehicleID: p.vehicleID,
		Time:      tick.Time,
		Mode:      s.Mode,
		Phase:     s.Phase,
		Landed:    s.Landed,
		Position:  s.Position,
	}
	if tick.TripletUpdated {
		target := s.Triplet.Current
		msg.Target = &target
	}
	p.publish(p.StateTopic(), p.opts.QoS, msg)
}

// Advise publishes an advisory. Advisories are sent at least once.
func (p *Publisher) Advise(severity domain.Severity, message string) {
	qos := p.opts.QoS
	if qos < 1 {
		qos = 1
	}
	p.publish(p.AdvisoryTopic(), qos, AdvisoryMessage{
		VehicleID: p.vehicleID,
		Time:      p.now(),
		Severity:  severity,
		Message:   message,
	})
}

func (p *Publisher) publish(topic string, qos byte, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("MQTT payload encode failed", "topic", topic, "err", err)
		return
	}
	token := p.client.Publish(topic, qos, false, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			p.logger.Warn("MQTT publish timed out", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("MQTT publish failed", "topic", topic, "err", err)
		}
	}()
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(disconnectQuiesce)
	return nil
}
