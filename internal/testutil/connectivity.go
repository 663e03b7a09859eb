// Package testutil provides the in-memory connectivity stub and fixture
// subdevices shared by the package tests.
package testutil

import (
	"fmt"
	"sync"

	"github.com/subgate-io/subgate/pkg/connectivity"
	"github.com/subgate-io/subgate/pkg/model"
)

// MockConnectivity is an in-memory connectivity.Service. It records every
// published message and can be told to fail publishes or connects.
type MockConnectivity struct {
	mu sync.Mutex

	connected bool
	listener  connectivity.Listener

	published []model.Message

	failPublish  bool
	failConnects int

	lastWillChannel string
	lastWillPayload []byte

	connectCount int
}

var _ connectivity.Service = (*MockConnectivity)(nil)

// NewMockConnectivity creates a disconnected mock.
func NewMockConnectivity() *MockConnectivity {
	return &MockConnectivity{}
}

// SetListener installs the inbound consumer.
func (m *MockConnectivity) SetListener(listener connectivity.Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = listener
}

// SetLastWill records the pending last-will.
func (m *MockConnectivity) SetLastWill(channel string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastWillChannel = channel
	m.lastWillPayload = append([]byte(nil), payload...)
}

// Connect marks the mock connected, unless a queued failure fires.
func (m *MockConnectivity) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCount++
	if m.failConnects > 0 {
		m.failConnects--
		return fmt.Errorf("mock connect refused")
	}
	m.connected = true
	return nil
}

// Disconnect marks the mock disconnected.
func (m *MockConnectivity) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

// Reconnect drops and re-establishes the mock session.
func (m *MockConnectivity) Reconnect() error {
	m.Disconnect()
	return m.Connect()
}

// IsConnected reports the mock session state.
func (m *MockConnectivity) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Publish records the message, or fails when configured to.
func (m *MockConnectivity) Publish(msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("mock publish while disconnected")
	}
	if m.failPublish {
		return fmt.Errorf("mock publish refused")
	}
	m.published = append(m.published, *msg)
	return nil
}

// FailPublishes makes every subsequent Publish fail (or succeed again).
func (m *MockConnectivity) FailPublishes(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPublish = fail
}

// FailNextConnects makes the next n Connect calls fail.
func (m *MockConnectivity) FailNextConnects(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failConnects = n
}

// Published returns a copy of every recorded message in publish order.
func (m *MockConnectivity) Published() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Message, len(m.published))
	copy(out, m.published)
	return out
}

// PublishedOn returns the recorded messages whose channel matches exactly.
func (m *MockConnectivity) PublishedOn(channel string) []model.Message {
	var out []model.Message
	for _, msg := range m.Published() {
		if msg.Channel == channel {
			out = append(out, msg)
		}
	}
	return out
}

// Reset drops every recorded message.
func (m *MockConnectivity) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

// ConnectCount returns how many times Connect was attempted.
func (m *MockConnectivity) ConnectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCount
}

// LastWill returns the recorded last-will channel and payload.
func (m *MockConnectivity) LastWill() (string, []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastWillChannel, m.lastWillPayload
}

// Deliver feeds an inbound message to the installed listener.
func (m *MockConnectivity) Deliver(channel string, payload []byte) {
	m.mu.Lock()
	listener := m.listener
	m.mu.Unlock()
	if listener != nil {
		listener.MessageReceived(model.NewMessage(channel, payload))
	}
}

// DropConnection simulates an ungraceful session loss.
func (m *MockConnectivity) DropConnection() {
	m.mu.Lock()
	m.connected = false
	listener := m.listener
	m.mu.Unlock()
	if listener != nil {
		listener.ConnectionLost()
	}
}
