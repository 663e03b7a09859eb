package service

import (
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// ============================================================================
// Platform status service
// ============================================================================

// PlatformStatusListener observes gateway-to-platform link state changes.
type PlatformStatusListener func(status model.PlatformStatus)

// PlatformStatusService forwards platform connectivity pushes to the host.
type PlatformStatusService struct {
	proto    protocol.PlatformStatusProtocol
	enqueue  Enqueue
	listener PlatformStatusListener
}

// NewPlatformStatusService wires the platform status service to its codec.
func NewPlatformStatusService(proto protocol.PlatformStatusProtocol, enqueue Enqueue, listener PlatformStatusListener) *PlatformStatusService {
	return &PlatformStatusService{proto: proto, enqueue: enqueue, listener: listener}
}

// MessageReceived parses a platform status push and enqueues the listener.
func (s *PlatformStatusService) MessageReceived(msg *model.Message) {
	status, err := s.proto.ParsePlatformStatus(msg)
	if err != nil {
		util.WithChannel(msg.Channel).Warnf("malformed platform status: %v", err)
		return
	}
	if s.listener != nil {
		s.enqueue(func() { s.listener(status) })
	}
}
