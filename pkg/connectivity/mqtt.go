package connectivity

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/util"
)

// MQTTConfig carries the broker session parameters.
type MQTTConfig struct {
	// Host is the broker URI, e.g. "tcp://localhost:1883".
	Host string

	// ClientID identifies the session on the bus.
	ClientID string

	Username string
	Password string

	// QoS applies to every subscription and publish.
	QoS byte

	KeepAlive      time.Duration
	ConnectTimeout time.Duration
}

func (c *MQTTConfig) withDefaults() MQTTConfig {
	out := *c
	if out.KeepAlive == 0 {
		out.KeepAlive = 60 * time.Second
	}
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = 10 * time.Second
	}
	return out
}

// ============================================================================
// MQTT service
// ============================================================================

// MQTTService implements Service on top of the paho MQTT client. Automatic
// reconnection is disabled: session recovery belongs to the caller, which
// re-runs its bootstrap sequence after every reconnect.
type MQTTService struct {
	mu       sync.Mutex
	cfg      MQTTConfig
	client   mqtt.Client
	listener Listener

	lastWillChannel string
	lastWillPayload []byte
}

var _ Service = (*MQTTService)(nil)

// NewMQTT creates a disconnected MQTT connectivity service.
func NewMQTT(cfg MQTTConfig) *MQTTService {
	return &MQTTService{cfg: cfg.withDefaults()}
}

// SetListener installs the inbound consumer.
func (s *MQTTService) SetListener(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = listener
}

// SetLastWill replaces the session last-will for the next connect.
func (s *MQTTService) SetLastWill(channel string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWillChannel = channel
	s.lastWillPayload = append([]byte(nil), payload...)
}

// Connect establishes the broker session and subscribes the listener's
// channels. Options are rebuilt on every call so the current last-will is
// registered with the new session.
func (s *MQTTService) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil && s.client.IsConnected() {
		return nil
	}
	if s.listener == nil {
		return fmt.Errorf("mqtt connect: %w: no listener installed", util.ErrInvalidConfig)
	}

	listener := s.listener
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Host).
		SetClientID(s.cfg.ClientID).
		SetUsername(s.cfg.Username).
		SetPassword(s.cfg.Password).
		SetCleanSession(true).
		SetKeepAlive(s.cfg.KeepAlive).
		SetConnectTimeout(s.cfg.ConnectTimeout).
		SetAutoReconnect(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			util.WithService("mqtt").Warnf("connection lost: %v", err)
			listener.ConnectionLost()
		})
	if s.lastWillChannel != "" {
		opts.SetBinaryWill(s.lastWillChannel, s.lastWillPayload, s.cfg.QoS, false)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w: %v", s.cfg.Host, util.ErrNotConnected, token.Error())
	}

	handler := func(_ mqtt.Client, m mqtt.Message) {
		listener.MessageReceived(model.NewMessage(m.Topic(), m.Payload()))
	}
	for _, channel := range listener.Channels() {
		if token := client.Subscribe(channel, s.cfg.QoS, handler); token.Wait() && token.Error() != nil {
			client.Disconnect(250)
			return fmt.Errorf("mqtt subscribe %s: %w: %v", channel, util.ErrNotConnected, token.Error())
		}
	}

	s.client = client
	util.WithService("mqtt").Infof("connected to %s as %s", s.cfg.Host, s.cfg.ClientID)
	return nil
}

// Disconnect tears the session down without publishing the last-will.
func (s *MQTTService) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return
	}
	s.client.Disconnect(250)
	s.client = nil
	util.WithService("mqtt").Info("disconnected")
}

// Reconnect drops the current session and connects again.
func (s *MQTTService) Reconnect() error {
	s.Disconnect()
	return s.Connect()
}

// IsConnected reports whether a live session exists.
func (s *MQTTService) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil && s.client.IsConnected()
}

// Publish sends one message and waits for transport acceptance.
func (s *MQTTService) Publish(msg *model.Message) error {
	s.mu.Lock()
	client := s.client
	qos := s.cfg.QoS
	s.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return fmt.Errorf("publish %s: %w", msg.Channel, util.ErrNotConnected)
	}
	if token := client.Publish(msg.Channel, qos, false, msg.Payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w: %v", msg.Channel, util.ErrPublishFailed, token.Error())
	}
	return nil
}
