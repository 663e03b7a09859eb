package persistence

import (
	"sync"

	"github.com/subgate-io/subgate/pkg/model"
)

// InMemory is the default Store: process-local queues guarded by one
// mutex. Suitable for hosts that accept losing unpublished items on
// restart.
type InMemory struct {
	mu sync.Mutex

	readings    map[string][]model.SensorReading
	readingKeys []string

	alarms    map[string][]model.Alarm
	alarmKeys []string

	statuses   map[string]model.ActuatorStatus
	statusKeys []string

	configs    map[string][]model.ConfigurationItem
	configKeys []string
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		readings: make(map[string][]model.SensorReading),
		alarms:   make(map[string][]model.Alarm),
		statuses: make(map[string]model.ActuatorStatus),
		configs:  make(map[string][]model.ConfigurationItem),
	}
}

// PutSensorReading appends a reading to the key's queue.
func (s *InMemory) PutSensorReading(key string, reading model.SensorReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.readings[key]; !ok {
		s.readingKeys = append(s.readingKeys, key)
	}
	s.readings[key] = append(s.readings[key], reading)
}

// SensorReadings returns up to n readings from the front of the key's queue.
func (s *InMemory) SensorReadings(key string, n int) []model.SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.readings[key]
	if n > len(q) {
		n = len(q)
	}
	out := make([]model.SensorReading, n)
	copy(out, q[:n])
	return out
}

// RemoveSensorReadings pops up to n readings from the front of the key's queue.
func (s *InMemory) RemoveSensorReadings(key string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.readings[key]
	if !ok {
		return
	}
	if n >= len(q) {
		delete(s.readings, key)
		s.readingKeys = removeKey(s.readingKeys, key)
		return
	}
	s.readings[key] = q[n:]
}

// SensorReadingsKeys returns outstanding reading keys in insertion order.
func (s *InMemory) SensorReadingsKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyKeys(s.readingKeys)
}

// PutAlarm appends an alarm to the key's queue.
func (s *InMemory) PutAlarm(key string, alarm model.Alarm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alarms[key]; !ok {
		s.alarmKeys = append(s.alarmKeys, key)
	}
	s.alarms[key] = append(s.alarms[key], alarm)
}

// Alarms returns up to n alarms from the front of the key's queue.
func (s *InMemory) Alarms(key string, n int) []model.Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.alarms[key]
	if n > len(q) {
		n = len(q)
	}
	out := make([]model.Alarm, n)
	copy(out, q[:n])
	return out
}

// RemoveAlarms pops up to n alarms from the front of the key's queue.
func (s *InMemory) RemoveAlarms(key string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.alarms[key]
	if !ok {
		return
	}
	if n >= len(q) {
		delete(s.alarms, key)
		s.alarmKeys = removeKey(s.alarmKeys, key)
		return
	}
	s.alarms[key] = q[n:]
}

// AlarmsKeys returns outstanding alarm keys in insertion order.
func (s *InMemory) AlarmsKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyKeys(s.alarmKeys)
}

// PutActuatorStatus stores the status for the key, replacing any previous one.
func (s *InMemory) PutActuatorStatus(key string, status model.ActuatorStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statuses[key]; !ok {
		s.statusKeys = append(s.statusKeys, key)
	}
	s.statuses[key] = status
}

// ActuatorStatus returns the stored status for the key.
func (s *InMemory) ActuatorStatus(key string) (model.ActuatorStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[key]
	return st, ok
}

// RemoveActuatorStatus deletes the stored status for the key.
func (s *InMemory) RemoveActuatorStatus(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statuses[key]; ok {
		delete(s.statuses, key)
		s.statusKeys = removeKey(s.statusKeys, key)
	}
}

// ActuatorStatusKeys returns outstanding status keys in insertion order.
func (s *InMemory) ActuatorStatusKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyKeys(s.statusKeys)
}

// PutConfiguration stores the device's snapshot, replacing any previous one.
func (s *InMemory) PutConfiguration(deviceKey string, items []model.ConfigurationItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[deviceKey]; !ok {
		s.configKeys = append(s.configKeys, deviceKey)
	}
	snapshot := make([]model.ConfigurationItem, len(items))
	copy(snapshot, items)
	s.configs[deviceKey] = snapshot
}

// Configuration returns the stored snapshot for the device.
func (s *InMemory) Configuration(deviceKey string) ([]model.ConfigurationItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.configs[deviceKey]
	if !ok {
		return nil, false
	}
	out := make([]model.ConfigurationItem, len(items))
	copy(out, items)
	return out, true
}

// RemoveConfiguration deletes the stored snapshot for the device.
func (s *InMemory) RemoveConfiguration(deviceKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[deviceKey]; ok {
		delete(s.configs, deviceKey)
		s.configKeys = removeKey(s.configKeys, deviceKey)
	}
}

// ConfigurationKeys returns outstanding snapshot keys in insertion order.
func (s *InMemory) ConfigurationKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyKeys(s.configKeys)
}

// IsEmpty reports whether no items of any kind remain.
func (s *InMemory) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.readings) == 0 && len(s.alarms) == 0 &&
		len(s.statuses) == 0 && len(s.configs) == 0
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

func copyKeys(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}
