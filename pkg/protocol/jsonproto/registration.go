package jsonproto

import (
	"encoding/json"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// Registration is the JSON registration protocol: subdevice registration
// and update requests plus their platform responses.
type Registration struct{}

// NewRegistration creates the JSON registration codec.
func NewRegistration() *Registration { return &Registration{} }

// InboundChannels returns the response subscriptions wildcarded over devices.
func (r *Registration) InboundChannels() []string {
	return []string{
		wildcardDevice(RegistrationResponseRoot),
		wildcardDevice(UpdateResponseRoot),
	}
}

// InboundChannelsForDevice returns the response channels for one device.
func (r *Registration) InboundChannelsForDevice(deviceKey string) []string {
	return []string{
		deviceChannel(RegistrationResponseRoot, deviceKey),
		deviceChannel(UpdateResponseRoot, deviceKey),
	}
}

// ExtractDeviceKey returns the device key segment of a registration channel.
func (r *Registration) ExtractDeviceKey(channel string) string {
	return protocol.DeviceKeyFromChannel(channel)
}

// IsRegistrationResponse reports whether the channel carries a
// registration response.
func (r *Registration) IsRegistrationResponse(channel string) bool {
	return isChannelFor(RegistrationResponseRoot, channel)
}

// IsUpdateResponse reports whether the channel carries an update response.
func (r *Registration) IsUpdateResponse(channel string) bool {
	return isChannelFor(UpdateResponseRoot, channel)
}

type registrationRequestPayload struct {
	Device registrationDevice `json:"device"`
}

type registrationDevice struct {
	Name     string               `json:"name"`
	Key      string               `json:"key"`
	Template model.DeviceTemplate `json:"template"`
}

// RegistrationRequestMessage encodes a subdevice registration request.
func (r *Registration) RegistrationRequestMessage(device *model.Device) (*model.Message, error) {
	if device == nil || device.Key == "" {
		return nil, &util.EncodeError{Kind: "registration request", Reason: "empty device key"}
	}
	body, err := json.Marshal(registrationRequestPayload{Device: registrationDevice{
		Name:     device.Name,
		Key:      device.Key,
		Template: device.Template,
	}})
	if err != nil {
		return nil, &util.EncodeError{Kind: "registration request", Reason: err.Error()}
	}
	return model.NewMessage(deviceChannel(RegistrationRequestRoot, device.Key), body), nil
}

// ParseRegistrationRequest decodes a registration request message.
// Counterpart of RegistrationRequestMessage, used in tests and tooling.
func (r *Registration) ParseRegistrationRequest(msg *model.Message) (*model.Device, error) {
	var p registrationRequestPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
	}
	if p.Device.Key == "" {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "missing device key"}
	}
	return &model.Device{Name: p.Device.Name, Key: p.Device.Key, Template: p.Device.Template}, nil
}

// UpdateRequestMessage encodes a subdevice update request.
func (r *Registration) UpdateRequestMessage(request *model.SubdeviceUpdateRequest) (*model.Message, error) {
	if request == nil || request.DeviceKey == "" {
		return nil, &util.EncodeError{Kind: "update request", Reason: "empty device key"}
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, &util.EncodeError{Kind: "update request", Reason: err.Error()}
	}
	return model.NewMessage(deviceChannel(UpdateRequestRoot, request.DeviceKey), body), nil
}

type registrationResponsePayload struct {
	Payload struct {
		DeviceKey string `json:"deviceKey"`
	} `json:"payload"`
	Result string `json:"result"`
}

// ParseRegistrationResponse decodes a platform registration response.
func (r *Registration) ParseRegistrationResponse(msg *model.Message) (*protocol.RegistrationResponse, error) {
	return r.parseResponse(msg)
}

// ParseUpdateResponse decodes a platform update response.
func (r *Registration) ParseUpdateResponse(msg *model.Message) (*protocol.RegistrationResponse, error) {
	return r.parseResponse(msg)
}

func (r *Registration) parseResponse(msg *model.Message) (*protocol.RegistrationResponse, error) {
	var p registrationResponsePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
	}
	if p.Result == "" {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "missing result"}
	}
	deviceKey := p.Payload.DeviceKey
	if deviceKey == "" {
		// Older platforms omit the payload key; fall back to the channel.
		deviceKey = protocol.DeviceKeyFromChannel(msg.Channel)
	}
	if deviceKey == "" {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "missing device key"}
	}
	return &protocol.RegistrationResponse{
		DeviceKey: deviceKey,
		Result:    model.PlatformResult(p.Result),
	}, nil
}
