package jsonproto

import (
	"encoding/json"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// Firmware is the JSON firmware update protocol: install and abort
// commands from the platform, status and version reports back.
type Firmware struct{}

// NewFirmware creates the JSON firmware codec.
func NewFirmware() *Firmware { return &Firmware{} }

// InboundChannels returns the command subscriptions wildcarded over devices.
func (f *Firmware) InboundChannels() []string {
	return []string{
		wildcardDevice(FirmwareInstallRoot),
		wildcardDevice(FirmwareAbortRoot),
	}
}

// InboundChannelsForDevice returns the command channels for one device.
func (f *Firmware) InboundChannelsForDevice(deviceKey string) []string {
	return []string{
		deviceChannel(FirmwareInstallRoot, deviceKey),
		deviceChannel(FirmwareAbortRoot, deviceKey),
	}
}

// ExtractDeviceKey returns the device key segment of a firmware channel.
func (f *Firmware) ExtractDeviceKey(channel string) string {
	return protocol.DeviceKeyFromChannel(channel)
}

// IsFirmwareInstall reports whether the channel carries an install command.
func (f *Firmware) IsFirmwareInstall(channel string) bool {
	return isChannelFor(FirmwareInstallRoot, channel)
}

// IsFirmwareAbort reports whether the channel carries an abort command.
func (f *Firmware) IsFirmwareAbort(channel string) bool {
	return isChannelFor(FirmwareAbortRoot, channel)
}

type firmwareInstallPayload struct {
	Devices  []string `json:"devices"`
	FileName string   `json:"fileName"`
}

// ParseFirmwareInstall decodes a firmware install command. The device list
// in the payload wins over the channel key when both are present.
func (f *Firmware) ParseFirmwareInstall(msg *model.Message) (*model.FirmwareUpdateInstall, error) {
	var p firmwareInstallPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
	}
	devices := p.Devices
	if len(devices) == 0 {
		if key := protocol.DeviceKeyFromChannel(msg.Channel); key != "" {
			devices = []string{key}
		}
	}
	if len(devices) == 0 {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "no target devices"}
	}
	return &model.FirmwareUpdateInstall{DeviceKeys: devices, FileName: p.FileName}, nil
}

type firmwareAbortPayload struct {
	Devices []string `json:"devices"`
}

// ParseFirmwareAbort decodes a firmware abort command.
func (f *Firmware) ParseFirmwareAbort(msg *model.Message) (*model.FirmwareUpdateAbort, error) {
	var p firmwareAbortPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
	}
	devices := p.Devices
	if len(devices) == 0 {
		if key := protocol.DeviceKeyFromChannel(msg.Channel); key != "" {
			devices = []string{key}
		}
	}
	if len(devices) == 0 {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "no target devices"}
	}
	return &model.FirmwareUpdateAbort{DeviceKeys: devices}, nil
}

type firmwareStatusPayload struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// FirmwareStatusMessage encodes a firmware update status report. The error
// code is carried only for the ERROR status.
func (f *Firmware) FirmwareStatusMessage(deviceKey string, status model.FirmwareUpdateStatus) (*model.Message, error) {
	if deviceKey == "" {
		return nil, &util.EncodeError{Kind: "firmware status", Reason: "empty device key"}
	}
	if status.Status == "" {
		return nil, &util.EncodeError{Kind: "firmware status", Reason: "empty status"}
	}
	p := firmwareStatusPayload{Status: string(status.Status)}
	if status.Status == model.FirmwareStatusError {
		e := status.Error
		if e == "" {
			e = model.FirmwareErrorUnspecified
		}
		p.Error = string(e)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, &util.EncodeError{Kind: "firmware status", Reason: err.Error()}
	}
	return model.NewMessage(deviceChannel(FirmwareStatusRoot, deviceKey), body), nil
}

// FirmwareVersionMessage encodes a firmware version report. The payload is
// the bare version string, not JSON.
func (f *Firmware) FirmwareVersionMessage(deviceKey, version string) (*model.Message, error) {
	if deviceKey == "" {
		return nil, &util.EncodeError{Kind: "firmware version", Reason: "empty device key"}
	}
	if version == "" {
		return nil, &util.EncodeError{Kind: "firmware version", Reason: "empty version"}
	}
	return model.NewMessage(deviceChannel(FirmwareVersionRoot, deviceKey), []byte(version)), nil
}
