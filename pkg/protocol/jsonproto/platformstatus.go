package jsonproto

import (
	"strings"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/util"
)

// PlatformStatus parses gateway pushes announcing the platform link state.
// The payload is a one-word body, CONNECTED or OFFLINE.
type PlatformStatus struct{}

// NewPlatformStatus creates the platform status codec.
func NewPlatformStatus() *PlatformStatus { return &PlatformStatus{} }

// InboundChannels returns the single platform status channel.
func (p *PlatformStatus) InboundChannels() []string {
	return []string{PlatformStatusChannel}
}

// InboundChannelsForDevice returns nil: platform status is gateway-wide.
func (p *PlatformStatus) InboundChannelsForDevice(deviceKey string) []string {
	return nil
}

// ExtractDeviceKey returns "": platform status channels carry no device key.
func (p *PlatformStatus) ExtractDeviceKey(channel string) string { return "" }

// ParsePlatformStatus decodes a platform link state push.
func (p *PlatformStatus) ParsePlatformStatus(msg *model.Message) (model.PlatformStatus, error) {
	state, ok := model.ParsePlatformStatus(strings.TrimSpace(string(msg.Payload)))
	if !ok {
		return "", &util.ParseError{Channel: msg.Channel, Reason: "unknown platform status " + string(msg.Payload)}
	}
	return state, nil
}
