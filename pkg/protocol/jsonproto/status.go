package jsonproto

import (
	"encoding/json"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// Status is the JSON status protocol: subdevice status updates, responses
// to platform status requests, and the session last-will.
type Status struct{}

// NewStatus creates the JSON status codec.
func NewStatus() *Status { return &Status{} }

// InboundChannels returns the status request subscriptions, including the
// keyless broadcast form.
func (s *Status) InboundChannels() []string {
	return []string{
		StatusRequestRoot,
		wildcardDevice(StatusRequestRoot + protocol.ChannelDelimiter + protocol.DevicePathPrefix),
	}
}

// InboundChannelsForDevice returns the status request channel for one device.
func (s *Status) InboundChannelsForDevice(deviceKey string) []string {
	return []string{
		StatusRequestRoot + protocol.ChannelDelimiter + protocol.DevicePathPrefix +
			protocol.ChannelDelimiter + deviceKey,
	}
}

// ExtractDeviceKey returns the device key segment, or "" for the
// broadcast request form.
func (s *Status) ExtractDeviceKey(channel string) string {
	return protocol.DeviceKeyFromChannel(channel)
}

// IsStatusRequest reports whether the channel carries a status request.
func (s *Status) IsStatusRequest(channel string) bool {
	return channel == StatusRequestRoot || isChannelFor(StatusRequestRoot, channel)
}

type statusPayload struct {
	State string `json:"state"`
}

// StatusUpdateMessage encodes an unsolicited device status update.
func (s *Status) StatusUpdateMessage(deviceKey string, status model.DeviceStatus) (*model.Message, error) {
	return s.statusMessage(StatusUpdateRoot, deviceKey, status)
}

// StatusResponseMessage encodes a reply to a platform status request.
func (s *Status) StatusResponseMessage(deviceKey string, status model.DeviceStatus) (*model.Message, error) {
	return s.statusMessage(StatusResponseRoot, deviceKey, status)
}

func (s *Status) statusMessage(root, deviceKey string, status model.DeviceStatus) (*model.Message, error) {
	if deviceKey == "" {
		return nil, &util.EncodeError{Kind: "device status", Reason: "empty device key"}
	}
	if status == "" {
		return nil, &util.EncodeError{Kind: "device status", Reason: "empty status"}
	}
	body, err := json.Marshal(statusPayload{State: string(status)})
	if err != nil {
		return nil, &util.EncodeError{Kind: "device status", Reason: err.Error()}
	}
	return model.NewMessage(deviceChannel(root, deviceKey), body), nil
}

// ParseStatus decodes a status update or response message.
func (s *Status) ParseStatus(msg *model.Message) (model.DeviceStatus, error) {
	var p statusPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return "", &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
	}
	if p.State == "" {
		return "", &util.ParseError{Channel: msg.Channel, Reason: "missing state"}
	}
	return model.DeviceStatus(p.State), nil
}

// LastWillMessage encodes the session last-will: the list of subdevice
// keys the gateway must mark OFFLINE after an ungraceful disconnect.
func (s *Status) LastWillMessage(deviceKeys []string) (*model.Message, error) {
	if len(deviceKeys) == 0 {
		return nil, &util.EncodeError{Kind: "last will", Reason: "no device keys"}
	}
	body, err := json.Marshal(deviceKeys)
	if err != nil {
		return nil, &util.EncodeError{Kind: "last will", Reason: err.Error()}
	}
	return model.NewMessage(LastWillChannel, body), nil
}
