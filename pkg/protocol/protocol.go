// Package protocol defines the codec contracts between the module and the
// gateway message bus, plus the channel-string grammar shared by all
// protocol families.
//
// Channels use '/' as delimiter and carry a direction prefix ("d2p" for
// module-to-platform, "p2d" for platform-to-module), a type tag, and
// positional path segments: the device key follows the "d" prefix and a
// capability reference follows the "r" prefix. Key extraction is purely
// lexical.
package protocol

import (
	"strings"

	"github.com/subgate-io/subgate/pkg/model"
)

// Channel grammar tokens.
const (
	ChannelDelimiter = "/"

	// MQTT-style wildcards used in subscription channel lists.
	WildcardSingle = "+"
	WildcardMulti  = "#"

	DeviceToPlatform = "d2p"
	PlatformToDevice = "p2d"

	DevicePathPrefix    = "d"
	ReferencePathPrefix = "r"
)

// Protocol is the capability set common to every protocol family.
type Protocol interface {
	// InboundChannels returns the family's static subscription list,
	// wildcarded over device keys and references.
	InboundChannels() []string

	// InboundChannelsForDevice returns the family's subscription list
	// instantiated for one device key.
	InboundChannelsForDevice(deviceKey string) []string

	// ExtractDeviceKey returns the device key encoded in the channel, or
	// "" when the channel carries none.
	ExtractDeviceKey(channel string) string
}

// DataProtocol classifies and codes telemetry, actuation and configuration
// traffic.
type DataProtocol interface {
	Protocol

	IsActuatorSet(channel string) bool
	IsActuatorGet(channel string) bool
	IsConfigurationSet(channel string) bool
	IsConfigurationGet(channel string) bool

	ParseActuatorSet(msg *model.Message) (*ActuatorSetCommand, error)
	ParseActuatorGet(msg *model.Message) (*ActuatorGetCommand, error)
	ParseConfigurationSet(msg *model.Message) (*ConfigurationSetCommand, error)

	SensorReadingsMessage(deviceKey string, readings []model.SensorReading) (*model.Message, error)
	AlarmsMessage(deviceKey string, alarms []model.Alarm) (*model.Message, error)
	ActuatorStatusMessage(deviceKey string, status model.ActuatorStatus) (*model.Message, error)
	ConfigurationMessage(deviceKey string, items []model.ConfigurationItem) (*model.Message, error)
}

// StatusProtocol codes device status updates, responses and the last-will.
type StatusProtocol interface {
	Protocol

	IsStatusRequest(channel string) bool

	StatusUpdateMessage(deviceKey string, status model.DeviceStatus) (*model.Message, error)
	StatusResponseMessage(deviceKey string, status model.DeviceStatus) (*model.Message, error)
	LastWillMessage(deviceKeys []string) (*model.Message, error)
}

// RegistrationProtocol codes subdevice registration and update traffic.
type RegistrationProtocol interface {
	Protocol

	IsRegistrationResponse(channel string) bool
	IsUpdateResponse(channel string) bool

	RegistrationRequestMessage(device *model.Device) (*model.Message, error)
	UpdateRequestMessage(request *model.SubdeviceUpdateRequest) (*model.Message, error)

	ParseRegistrationResponse(msg *model.Message) (*RegistrationResponse, error)
	ParseUpdateResponse(msg *model.Message) (*RegistrationResponse, error)
}

// FirmwareProtocol codes firmware install/abort commands and the module's
// status and version reports.
type FirmwareProtocol interface {
	Protocol

	IsFirmwareInstall(channel string) bool
	IsFirmwareAbort(channel string) bool

	ParseFirmwareInstall(msg *model.Message) (*model.FirmwareUpdateInstall, error)
	ParseFirmwareAbort(msg *model.Message) (*model.FirmwareUpdateAbort, error)

	FirmwareStatusMessage(deviceKey string, status model.FirmwareUpdateStatus) (*model.Message, error)
	FirmwareVersionMessage(deviceKey, version string) (*model.Message, error)
}

// PlatformStatusProtocol parses gateway-to-platform connectivity pushes.
type PlatformStatusProtocol interface {
	Protocol

	ParsePlatformStatus(msg *model.Message) (model.PlatformStatus, error)
}

// ActuatorSetCommand is a parsed inbound actuation request.
type ActuatorSetCommand struct {
	Reference string
	Value     string
}

// ActuatorGetCommand is a parsed inbound actuator status request.
type ActuatorGetCommand struct {
	Reference string
}

// ConfigurationSetCommand is a parsed inbound configuration write.
type ConfigurationSetCommand struct {
	Items []model.ConfigurationItem
}

// RegistrationResponse is a parsed registration or update response.
type RegistrationResponse struct {
	DeviceKey string
	Result    model.PlatformResult
}

// Split breaks a channel into its path segments.
func Split(channel string) []string {
	return strings.Split(channel, ChannelDelimiter)
}

// Join assembles path segments into a channel.
func Join(segments ...string) string {
	return strings.Join(segments, ChannelDelimiter)
}

// ChannelMatches reports whether channel matches pattern. Pattern segments
// may be the single-level wildcard "+"; a trailing "#" matches any
// remainder, including none.
func ChannelMatches(pattern, channel string) bool {
	if pattern == channel {
		return true
	}
	p := Split(pattern)
	c := Split(channel)
	for i, seg := range p {
		if seg == WildcardMulti {
			return true
		}
		if i >= len(c) {
			return false
		}
		if seg != WildcardSingle && seg != c[i] {
			return false
		}
	}
	return len(p) == len(c)
}

// MatchesAny reports whether channel matches any of the patterns.
func MatchesAny(patterns []string, channel string) bool {
	for _, p := range patterns {
		if ChannelMatches(p, channel) {
			return true
		}
	}
	return false
}

// DeviceKeyFromChannel returns the segment following the device path
// prefix, or "" when the channel has none.
func DeviceKeyFromChannel(channel string) string {
	return segmentAfter(channel, DevicePathPrefix)
}

// ReferenceFromChannel returns the segment following the reference path
// prefix, or "" when the channel has none.
func ReferenceFromChannel(channel string) string {
	return segmentAfter(channel, ReferencePathPrefix)
}

func segmentAfter(channel, prefix string) string {
	segments := Split(channel)
	for i, seg := range segments {
		if seg == prefix && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}
