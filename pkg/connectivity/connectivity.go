// Package connectivity abstracts the gateway message bus behind a small
// publish/subscribe facade so the module core never sees transport detail.
package connectivity

import "github.com/subgate-io/subgate/pkg/model"

// Listener is the inbound side of the facade. The connectivity service
// subscribes to Channels() on connect and feeds every inbound message to
// MessageReceived. ConnectionLost fires once per broken session.
type Listener interface {
	MessageReceived(msg *model.Message)
	ConnectionLost()
	Channels() []string
}

// Service is the transport facade the module core drives.
type Service interface {
	// Connect establishes the session and subscribes the listener's
	// channels. Connecting an already connected service is a no-op.
	Connect() error

	// Disconnect tears the session down gracefully. The last-will is not
	// published.
	Disconnect()

	// Reconnect drops the current session, if any, and connects again.
	Reconnect() error

	// IsConnected reports whether a live session exists.
	IsConnected() bool

	// Publish sends one message. It returns an error when no session
	// exists or the transport rejects the message.
	Publish(msg *model.Message) error

	// SetListener installs the inbound consumer. Must be called before
	// Connect.
	SetListener(listener Listener)

	// SetLastWill replaces the session last-will. Takes effect on the
	// next Connect or Reconnect.
	SetLastWill(channel string, payload []byte)
}
