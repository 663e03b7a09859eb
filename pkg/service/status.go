package service

import (
	"github.com/subgate-io/subgate/pkg/connectivity"
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// ============================================================================
// Status service
// ============================================================================

// StatusRequestHandler answers a platform status request. An empty device
// key means the broadcast form: every registered device must answer.
type StatusRequestHandler func(deviceKey string)

// StatusService publishes subdevice connectivity states and keeps the
// session last-will in step with the registered device set.
type StatusService struct {
	proto   protocol.StatusProtocol
	conn    connectivity.Service
	enqueue Enqueue

	statusRequest StatusRequestHandler
}

// NewStatusService wires the status service to its codec and transport.
func NewStatusService(proto protocol.StatusProtocol, conn connectivity.Service, enqueue Enqueue) *StatusService {
	return &StatusService{proto: proto, conn: conn, enqueue: enqueue}
}

// SetStatusRequestHandler installs the status request consumer.
func (s *StatusService) SetStatusRequestHandler(h StatusRequestHandler) { s.statusRequest = h }

// PublishStatusUpdate sends an unsolicited device status change.
func (s *StatusService) PublishStatusUpdate(deviceKey string, status model.DeviceStatus) error {
	msg, err := s.proto.StatusUpdateMessage(deviceKey, status)
	if err != nil {
		return err
	}
	return s.conn.Publish(msg)
}

// PublishStatusResponse answers a platform status request for one device.
func (s *StatusService) PublishStatusResponse(deviceKey string, status model.DeviceStatus) error {
	msg, err := s.proto.StatusResponseMessage(deviceKey, status)
	if err != nil {
		return err
	}
	return s.conn.Publish(msg)
}

// DevicesUpdated rebuilds the session last-will from the current device
// key set. An empty set clears nothing: the previous will stays until the
// next session anyway, so the update is skipped.
func (s *StatusService) DevicesUpdated(deviceKeys []string) {
	if len(deviceKeys) == 0 {
		return
	}
	msg, err := s.proto.LastWillMessage(deviceKeys)
	if err != nil {
		util.WithService("status").Errorf("encode last will: %v", err)
		return
	}
	s.conn.SetLastWill(msg.Channel, msg.Payload)
}

// MessageReceived enqueues the handler for an inbound status request.
func (s *StatusService) MessageReceived(msg *model.Message) {
	if !s.proto.IsStatusRequest(msg.Channel) {
		util.WithChannel(msg.Channel).Debug("unhandled status message")
		return
	}
	deviceKey := s.proto.ExtractDeviceKey(msg.Channel)
	if s.statusRequest != nil {
		s.enqueue(func() { s.statusRequest(deviceKey) })
	}
}
