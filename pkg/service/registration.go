package service

import (
	"github.com/subgate-io/subgate/pkg/connectivity"
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// ============================================================================
// Registration service
// ============================================================================

// RegistrationResponseHandler consumes a parsed registration or update
// response.
type RegistrationResponseHandler func(response *protocol.RegistrationResponse)

// RegistrationService publishes subdevice registration and update requests
// and routes the platform's responses back to the module core.
type RegistrationService struct {
	proto   protocol.RegistrationProtocol
	conn    connectivity.Service
	enqueue Enqueue

	registrationResponse RegistrationResponseHandler
	updateResponse       RegistrationResponseHandler
}

// NewRegistrationService wires the registration service to its codec and
// transport.
func NewRegistrationService(proto protocol.RegistrationProtocol, conn connectivity.Service, enqueue Enqueue) *RegistrationService {
	return &RegistrationService{proto: proto, conn: conn, enqueue: enqueue}
}

// SetRegistrationResponseHandler installs the registration response consumer.
func (s *RegistrationService) SetRegistrationResponseHandler(h RegistrationResponseHandler) {
	s.registrationResponse = h
}

// SetUpdateResponseHandler installs the update response consumer.
func (s *RegistrationService) SetUpdateResponseHandler(h RegistrationResponseHandler) {
	s.updateResponse = h
}

// PublishRegistrationRequest sends one subdevice registration request.
func (s *RegistrationService) PublishRegistrationRequest(device *model.Device) error {
	msg, err := s.proto.RegistrationRequestMessage(device)
	if err != nil {
		return err
	}
	return s.conn.Publish(msg)
}

// PublishUpdateRequest sends one subdevice update request.
func (s *RegistrationService) PublishUpdateRequest(request *model.SubdeviceUpdateRequest) error {
	msg, err := s.proto.UpdateRequestMessage(request)
	if err != nil {
		return err
	}
	return s.conn.Publish(msg)
}

// MessageReceived parses an inbound response and enqueues its handler.
func (s *RegistrationService) MessageReceived(msg *model.Message) {
	switch {
	case s.proto.IsRegistrationResponse(msg.Channel):
		response, err := s.proto.ParseRegistrationResponse(msg)
		if err != nil {
			util.WithChannel(msg.Channel).Warnf("malformed registration response: %v", err)
			return
		}
		if s.registrationResponse != nil {
			s.enqueue(func() { s.registrationResponse(response) })
		}
	case s.proto.IsUpdateResponse(msg.Channel):
		response, err := s.proto.ParseUpdateResponse(msg)
		if err != nil {
			util.WithChannel(msg.Channel).Warnf("malformed update response: %v", err)
			return
		}
		if s.updateResponse != nil {
			s.enqueue(func() { s.updateResponse(response) })
		}
	default:
		util.WithChannel(msg.Channel).Debug("unhandled registration message")
	}
}
