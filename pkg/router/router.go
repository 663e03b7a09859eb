// Package router fans inbound bus messages out to the protocol services
// that understand them, and owns the union subscription list.
package router

import (
	"sync"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// MessageListener consumes inbound messages a protocol family claimed.
type MessageListener interface {
	MessageReceived(msg *model.Message)
}

// MessageListenerFunc adapts a function to the MessageListener interface.
type MessageListenerFunc func(msg *model.Message)

// MessageReceived calls f(msg).
func (f MessageListenerFunc) MessageReceived(msg *model.Message) { f(msg) }

type route struct {
	proto    protocol.Protocol
	listener MessageListener
}

// ============================================================================
// Router
// ============================================================================

// Router matches inbound channels against each registered protocol's
// subscription list, in registration order, and hands the message to the
// first listener whose protocol claims it.
type Router struct {
	mu      sync.RWMutex
	routes  []route
	devices []string
}

// New creates an empty router.
func New() *Router {
	return &Router{}
}

// AddListener registers a protocol family and its consumer. Registration
// order is dispatch precedence.
func (r *Router) AddListener(proto protocol.Protocol, listener MessageListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{proto: proto, listener: listener})
}

// AddDevice adds a device key to the per-device subscription set. Adding a
// key twice is a no-op.
func (r *Router) AddDevice(deviceKey string) {
	if deviceKey == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.devices {
		if key == deviceKey {
			return
		}
	}
	r.devices = append(r.devices, deviceKey)
}

// RemoveDevice removes a device key from the per-device subscription set.
func (r *Router) RemoveDevice(deviceKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, key := range r.devices {
		if key == deviceKey {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			return
		}
	}
}

// Channels returns the union subscription list: every registered
// protocol's wildcarded channels plus its per-device channels for every
// known device key, deduplicated.
func (r *Router) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var channels []string
	add := func(chs []string) {
		for _, ch := range chs {
			if _, dup := seen[ch]; dup {
				continue
			}
			seen[ch] = struct{}{}
			channels = append(channels, ch)
		}
	}
	for _, rt := range r.routes {
		add(rt.proto.InboundChannels())
		for _, key := range r.devices {
			add(rt.proto.InboundChannelsForDevice(key))
		}
	}
	return channels
}

// MessageReceived dispatches one inbound message. Unroutable messages are
// logged and dropped.
func (r *Router) MessageReceived(msg *model.Message) {
	r.mu.RLock()
	routes := r.routes
	devices := r.devices
	r.mu.RUnlock()

	for _, rt := range routes {
		if protocol.MatchesAny(rt.proto.InboundChannels(), msg.Channel) {
			rt.listener.MessageReceived(msg)
			return
		}
		for _, key := range devices {
			if protocol.MatchesAny(rt.proto.InboundChannelsForDevice(key), msg.Channel) {
				rt.listener.MessageReceived(msg)
				return
			}
		}
	}
	util.WithChannel(msg.Channel).Debug("no protocol claimed inbound message")
}
