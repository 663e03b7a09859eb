// Package persistence defines the durable queue contract between the data
// pipeline and its backing store, keyed by "<deviceKey>+<reference>"
// composite keys, together with an in-memory and a Redis-backed
// implementation.
//
// Put operations are total: they never reject an item. Remove operations
// pop up to n items FIFO-wise from the front of a key's queue.
// Implementations must preserve FIFO ordering within each key and
// tolerate concurrent producers with a single draining consumer.
package persistence

import (
	"strings"

	"github.com/subgate-io/subgate/pkg/model"
)

// KeyDelimiter separates the device key from the capability reference in
// composite keys. It may appear in neither keys nor references.
const KeyDelimiter = "+"

// MakeKey builds the composite persistence key for a (device, reference) pair.
func MakeKey(deviceKey, reference string) string {
	return deviceKey + KeyDelimiter + reference
}

// ParseKey splits a composite key into device key and reference.
func ParseKey(key string) (deviceKey, reference string, ok bool) {
	i := strings.Index(key, KeyDelimiter)
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+len(KeyDelimiter):], true
}

// DevicePrefix returns the composite-key prefix selecting all entries of
// one device, as used by the per-device publish filter.
func DevicePrefix(deviceKey string) string {
	return deviceKey + KeyDelimiter
}

// Store is the durable mapping from composite keys to batches of
// readings, alarms, actuator statuses and configuration snapshots.
//
// Sensor readings and alarms accumulate FIFO per key. Actuator statuses
// and configuration snapshots are ephemeral: one item per key, replaced
// on each put. Configuration snapshots are keyed by bare device key.
// Keys() methods return outstanding keys in insertion order.
type Store interface {
	PutSensorReading(key string, reading model.SensorReading)
	SensorReadings(key string, n int) []model.SensorReading
	RemoveSensorReadings(key string, n int)
	SensorReadingsKeys() []string

	PutAlarm(key string, alarm model.Alarm)
	Alarms(key string, n int) []model.Alarm
	RemoveAlarms(key string, n int)
	AlarmsKeys() []string

	PutActuatorStatus(key string, status model.ActuatorStatus)
	ActuatorStatus(key string) (model.ActuatorStatus, bool)
	RemoveActuatorStatus(key string)
	ActuatorStatusKeys() []string

	PutConfiguration(deviceKey string, items []model.ConfigurationItem)
	Configuration(deviceKey string) ([]model.ConfigurationItem, bool)
	RemoveConfiguration(deviceKey string)
	ConfigurationKeys() []string

	IsEmpty() bool
}
