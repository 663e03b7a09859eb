package model

// DeviceStatus is the connectivity state a subdevice reports to the platform.
type DeviceStatus string

const (
	DeviceStatusConnected DeviceStatus = "CONNECTED"
	DeviceStatusSleep     DeviceStatus = "SLEEP"
	DeviceStatusService   DeviceStatus = "SERVICE"
	DeviceStatusOffline   DeviceStatus = "OFFLINE"
)

// PlatformStatus is the gateway-to-platform connectivity state pushed to
// the module on the platform status channel.
type PlatformStatus string

const (
	PlatformStatusConnected PlatformStatus = "CONNECTED"
	PlatformStatusOffline   PlatformStatus = "OFFLINE"
)

// ParsePlatformStatus maps the one-word wire token to a PlatformStatus.
func ParsePlatformStatus(s string) (PlatformStatus, bool) {
	switch PlatformStatus(s) {
	case PlatformStatusConnected:
		return PlatformStatusConnected, true
	case PlatformStatusOffline:
		return PlatformStatusOffline, true
	}
	return "", false
}

// PlatformResult is the result code carried by subdevice registration and
// update responses.
type PlatformResult string

const (
	ResultOK                     PlatformResult = "OK"
	ResultErrorKeyConflict       PlatformResult = "ERROR_KEY_CONFLICT"
	ResultErrorManifestConflict  PlatformResult = "ERROR_MANIFEST_CONFLICT"
	ResultErrorMaxDevices        PlatformResult = "ERROR_MAX_DEVICES"
	ResultErrorReadingPayload    PlatformResult = "ERROR_READING_PAYLOAD"
	ResultErrorGatewayNotFound   PlatformResult = "ERROR_GATEWAY_NOT_FOUND"
	ResultErrorNoGatewayManifest PlatformResult = "ERROR_NO_GATEWAY_MANIFEST"
)

// SubdeviceUpdateRequest asks the platform to extend an already registered
// subdevice with additional capability templates.
type SubdeviceUpdateRequest struct {
	DeviceKey              string                  `json:"deviceKey"`
	UpdateDefaultSemantics bool                    `json:"updateDefaultSemantics"`
	Configurations         []ConfigurationTemplate `json:"configurations"`
	Sensors                []SensorTemplate        `json:"sensors"`
	Alarms                 []AlarmTemplate         `json:"alarms"`
	Actuators              []ActuatorTemplate      `json:"actuators"`
}
