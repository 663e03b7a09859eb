package model

import "time"

// SensorReading is one queued sensor sample. Values holds a single element
// for scalar readings and multiple ordered elements for multi-value sensors.
// RTC is milliseconds since the Unix epoch.
type SensorReading struct {
	Reference string   `json:"reference"`
	Values    []string `json:"values"`
	RTC       uint64   `json:"rtc"`
}

// Alarm is one queued alarm state change.
type Alarm struct {
	Reference string `json:"reference"`
	Active    bool   `json:"active"`
	RTC       uint64 `json:"rtc"`
}

// ActuatorState enumerates the reported actuator conditions.
type ActuatorState string

const (
	ActuatorStateReady ActuatorState = "READY"
	ActuatorStateBusy  ActuatorState = "BUSY"
	ActuatorStateError ActuatorState = "ERROR"
)

// ActuatorStatus is the current value and condition of one actuator.
// Ephemeral in persistence: each put replaces the previous status.
type ActuatorStatus struct {
	Reference string        `json:"reference"`
	Value     string        `json:"value"`
	State     ActuatorState `json:"state"`
}

// ConfigurationItem is one configuration reference with its current values.
type ConfigurationItem struct {
	Reference string   `json:"reference"`
	Values    []string `json:"values"`
}

// CurrentRTC returns the current reading timestamp in milliseconds since
// the Unix epoch. The single place where the rtc unit is decided.
func CurrentRTC() uint64 {
	return uint64(time.Now().UnixMilli())
}
