// Package jsonproto implements the JSON protocol family spoken on the
// gateway message bus: data, status, registration, firmware update and
// platform status codecs.
package jsonproto

import "github.com/subgate-io/subgate/pkg/protocol"

// Channel roots per message family. The device key always follows the
// "d" segment; a capability reference follows the "r" segment.
const (
	SensorReadingRoot     = "d2p/sensor_reading/d"
	EventsRoot            = "d2p/events/d"
	ActuatorStatusRoot    = "d2p/actuator_status/d"
	ConfigurationSendRoot = "d2p/configuration_get/d"

	ActuatorSetRoot      = "p2d/actuator_set/d"
	ActuatorGetRoot      = "p2d/actuator_get/d"
	ConfigurationSetRoot = "p2d/configuration_set/d"
	ConfigurationGetRoot = "p2d/configuration_get/d"

	StatusUpdateRoot   = "d2p/subdevice_status_update/d"
	StatusResponseRoot = "d2p/subdevice_status_response/d"
	StatusRequestRoot  = "p2d/subdevice_status_request"
	LastWillChannel    = "lastwill"

	RegistrationRequestRoot  = "d2p/register_subdevice/d"
	RegistrationResponseRoot = "p2d/register_subdevice/d"
	UpdateRequestRoot        = "d2p/update_subdevice/d"
	UpdateResponseRoot       = "p2d/update_subdevice/d"

	FirmwareInstallRoot = "p2d/firmware_update_install/d"
	FirmwareAbortRoot   = "p2d/firmware_update_abort/d"
	FirmwareStatusRoot  = "d2p/firmware_update_status/d"
	FirmwareVersionRoot = "d2p/firmware_version_update/d"

	PlatformStatusChannel = "p2d/connection_status"
)

// deviceChannel instantiates a root for one device key.
func deviceChannel(root, deviceKey string) string {
	return root + protocol.ChannelDelimiter + deviceKey
}

// referenceChannel instantiates a root for one device key and reference.
func referenceChannel(root, deviceKey, reference string) string {
	return root + protocol.ChannelDelimiter + deviceKey +
		protocol.ChannelDelimiter + protocol.ReferencePathPrefix +
		protocol.ChannelDelimiter + reference
}

// wildcardDevice widens a root over all device keys.
func wildcardDevice(root string) string {
	return root + protocol.ChannelDelimiter + protocol.WildcardSingle
}

// wildcardReference widens a root over all device keys and references.
func wildcardReference(root string) string {
	return wildcardDevice(root) + protocol.ChannelDelimiter +
		protocol.ReferencePathPrefix + protocol.ChannelDelimiter +
		protocol.WildcardSingle
}

// isChannelFor reports whether channel belongs to root (root is a plain
// prefix at a segment boundary).
func isChannelFor(root, channel string) bool {
	if len(channel) <= len(root) {
		return channel == root
	}
	return channel[:len(root)] == root &&
		channel[len(root):len(root)+1] == protocol.ChannelDelimiter
}
