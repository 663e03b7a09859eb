// Package service implements the protocol services sitting between the
// module core and the bus: data, status, registration, firmware update and
// platform status. Each service enqueues its inbound work onto the command
// pipeline it was built with, so all state mutation stays single-threaded.
package service

import (
	"math"
	"strings"

	"github.com/subgate-io/subgate/pkg/buffer"
	"github.com/subgate-io/subgate/pkg/connectivity"
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/persistence"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// PublishBatchSize caps the readings and alarms drained from one composite
// key into a single outbound message.
const PublishBatchSize = 50

// Enqueue pushes a command onto the module's serialized pipeline. It
// reports false when the pipeline is shutting down.
type Enqueue func(cmd buffer.Command) bool

// ============================================================================
// Data service
// ============================================================================

// ActuationHandler consumes an inbound actuator write for one device.
type ActuationHandler func(deviceKey string, cmd *protocol.ActuatorSetCommand)

// ActuatorGetHandler consumes an inbound actuator status request.
type ActuatorGetHandler func(deviceKey, reference string)

// ConfigurationSetHandler consumes an inbound configuration write.
type ConfigurationSetHandler func(deviceKey string, items []model.ConfigurationItem)

// ConfigurationGetHandler consumes an inbound configuration read.
type ConfigurationGetHandler func(deviceKey string)

// DataService owns the persistence-backed outbound data pipeline and
// dispatches inbound actuation and configuration commands. Publish methods
// drain the store key by key and remove items only after the transport
// accepted them; a failed publish leaves the remainder queued for the next
// attempt.
type DataService struct {
	proto   protocol.DataProtocol
	store   persistence.Store
	conn    connectivity.Service
	enqueue Enqueue

	actuationHandler ActuationHandler
	actuatorGet      ActuatorGetHandler
	configurationSet ConfigurationSetHandler
	configurationGet ConfigurationGetHandler
}

// NewDataService wires the data service to its codec, store and transport.
func NewDataService(proto protocol.DataProtocol, store persistence.Store, conn connectivity.Service, enqueue Enqueue) *DataService {
	return &DataService{proto: proto, store: store, conn: conn, enqueue: enqueue}
}

// SetActuationHandler installs the actuator write consumer.
func (s *DataService) SetActuationHandler(h ActuationHandler) { s.actuationHandler = h }

// SetActuatorGetHandler installs the actuator status request consumer.
func (s *DataService) SetActuatorGetHandler(h ActuatorGetHandler) { s.actuatorGet = h }

// SetConfigurationSetHandler installs the configuration write consumer.
func (s *DataService) SetConfigurationSetHandler(h ConfigurationSetHandler) { s.configurationSet = h }

// SetConfigurationGetHandler installs the configuration read consumer.
func (s *DataService) SetConfigurationGetHandler(h ConfigurationGetHandler) { s.configurationGet = h }

// AddSensorReading queues a reading under its composite key.
func (s *DataService) AddSensorReading(deviceKey string, reading model.SensorReading) {
	s.store.PutSensorReading(persistence.MakeKey(deviceKey, reading.Reference), reading)
}

// AddAlarm queues an alarm under its composite key.
func (s *DataService) AddAlarm(deviceKey string, alarm model.Alarm) {
	s.store.PutAlarm(persistence.MakeKey(deviceKey, alarm.Reference), alarm)
}

// AddActuatorStatus records the latest status of one actuator, replacing
// any unpublished predecessor.
func (s *DataService) AddActuatorStatus(deviceKey string, status model.ActuatorStatus) {
	s.store.PutActuatorStatus(persistence.MakeKey(deviceKey, status.Reference), status)
}

// AddConfiguration records a device's configuration snapshot, replacing
// any unpublished predecessor.
func (s *DataService) AddConfiguration(deviceKey string, items []model.ConfigurationItem) {
	s.store.PutConfiguration(deviceKey, items)
}

// PublishSensorReadings drains every queued reading to the bus.
func (s *DataService) PublishSensorReadings() {
	for _, key := range s.store.SensorReadingsKeys() {
		if !s.publishReadingsKey(key) {
			return
		}
	}
}

// PublishSensorReadingsFor drains the queued readings of one device.
func (s *DataService) PublishSensorReadingsFor(deviceKey string) {
	prefix := persistence.DevicePrefix(deviceKey)
	for _, key := range s.store.SensorReadingsKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !s.publishReadingsKey(key) {
			return
		}
	}
}

func (s *DataService) publishReadingsKey(key string) bool {
	deviceKey, _, ok := persistence.ParseKey(key)
	if !ok {
		util.WithService("data").Warnf("dropping readings under malformed key %q", key)
		s.store.RemoveSensorReadings(key, math.MaxInt)
		return true
	}
	for {
		batch := s.store.SensorReadings(key, PublishBatchSize)
		if len(batch) == 0 {
			return true
		}
		msg, err := s.proto.SensorReadingsMessage(deviceKey, batch)
		if err != nil {
			util.WithDevice(deviceKey).Errorf("encode sensor readings: %v", err)
			s.store.RemoveSensorReadings(key, len(batch))
			continue
		}
		if err := s.conn.Publish(msg); err != nil {
			util.WithChannel(msg.Channel).Warnf("publish failed, retaining %d readings: %v", len(batch), err)
			return false
		}
		s.store.RemoveSensorReadings(key, len(batch))
	}
}

// PublishAlarms drains every queued alarm to the bus.
func (s *DataService) PublishAlarms() {
	for _, key := range s.store.AlarmsKeys() {
		if !s.publishAlarmsKey(key) {
			return
		}
	}
}

// PublishAlarmsFor drains the queued alarms of one device.
func (s *DataService) PublishAlarmsFor(deviceKey string) {
	prefix := persistence.DevicePrefix(deviceKey)
	for _, key := range s.store.AlarmsKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !s.publishAlarmsKey(key) {
			return
		}
	}
}

func (s *DataService) publishAlarmsKey(key string) bool {
	deviceKey, _, ok := persistence.ParseKey(key)
	if !ok {
		util.WithService("data").Warnf("dropping alarms under malformed key %q", key)
		s.store.RemoveAlarms(key, math.MaxInt)
		return true
	}
	for {
		batch := s.store.Alarms(key, PublishBatchSize)
		if len(batch) == 0 {
			return true
		}
		msg, err := s.proto.AlarmsMessage(deviceKey, batch)
		if err != nil {
			util.WithDevice(deviceKey).Errorf("encode alarms: %v", err)
			s.store.RemoveAlarms(key, len(batch))
			continue
		}
		if err := s.conn.Publish(msg); err != nil {
			util.WithChannel(msg.Channel).Warnf("publish failed, retaining %d alarms: %v", len(batch), err)
			return false
		}
		s.store.RemoveAlarms(key, len(batch))
	}
}

// PublishActuatorStatuses sends every pending actuator status.
func (s *DataService) PublishActuatorStatuses() {
	for _, key := range s.store.ActuatorStatusKeys() {
		if !s.publishActuatorStatusKey(key) {
			return
		}
	}
}

// PublishActuatorStatusesFor sends the pending actuator statuses of one device.
func (s *DataService) PublishActuatorStatusesFor(deviceKey string) {
	prefix := persistence.DevicePrefix(deviceKey)
	for _, key := range s.store.ActuatorStatusKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !s.publishActuatorStatusKey(key) {
			return
		}
	}
}

func (s *DataService) publishActuatorStatusKey(key string) bool {
	status, ok := s.store.ActuatorStatus(key)
	if !ok {
		return true
	}
	deviceKey, _, ok := persistence.ParseKey(key)
	if !ok {
		util.WithService("data").Warnf("dropping actuator status under malformed key %q", key)
		s.store.RemoveActuatorStatus(key)
		return true
	}
	msg, err := s.proto.ActuatorStatusMessage(deviceKey, status)
	if err != nil {
		util.WithDevice(deviceKey).Errorf("encode actuator status: %v", err)
		s.store.RemoveActuatorStatus(key)
		return true
	}
	if err := s.conn.Publish(msg); err != nil {
		util.WithChannel(msg.Channel).Warnf("publish failed, retaining actuator status: %v", err)
		return false
	}
	s.store.RemoveActuatorStatus(key)
	return true
}

// PublishConfigurations sends every pending configuration snapshot.
func (s *DataService) PublishConfigurations() {
	for _, deviceKey := range s.store.ConfigurationKeys() {
		if !s.publishConfigurationKey(deviceKey) {
			return
		}
	}
}

// PublishConfigurationFor sends the pending configuration snapshot of one device.
func (s *DataService) PublishConfigurationFor(deviceKey string) {
	s.publishConfigurationKey(deviceKey)
}

func (s *DataService) publishConfigurationKey(deviceKey string) bool {
	items, ok := s.store.Configuration(deviceKey)
	if !ok {
		return true
	}
	msg, err := s.proto.ConfigurationMessage(deviceKey, items)
	if err != nil {
		util.WithDevice(deviceKey).Errorf("encode configuration: %v", err)
		s.store.RemoveConfiguration(deviceKey)
		return true
	}
	if err := s.conn.Publish(msg); err != nil {
		util.WithChannel(msg.Channel).Warnf("publish failed, retaining configuration: %v", err)
		return false
	}
	s.store.RemoveConfiguration(deviceKey)
	return true
}

// MessageReceived classifies one inbound data message and enqueues the
// matching handler invocation onto the pipeline.
func (s *DataService) MessageReceived(msg *model.Message) {
	channel := msg.Channel
	deviceKey := s.proto.ExtractDeviceKey(channel)

	switch {
	case s.proto.IsActuatorSet(channel):
		cmd, err := s.proto.ParseActuatorSet(msg)
		if err != nil {
			util.WithChannel(channel).Warnf("malformed actuator set: %v", err)
			return
		}
		if s.actuationHandler != nil {
			s.enqueue(func() { s.actuationHandler(deviceKey, cmd) })
		}
	case s.proto.IsActuatorGet(channel):
		cmd, err := s.proto.ParseActuatorGet(msg)
		if err != nil {
			util.WithChannel(channel).Warnf("malformed actuator get: %v", err)
			return
		}
		if s.actuatorGet != nil {
			s.enqueue(func() { s.actuatorGet(deviceKey, cmd.Reference) })
		}
	case s.proto.IsConfigurationSet(channel):
		cmd, err := s.proto.ParseConfigurationSet(msg)
		if err != nil {
			util.WithChannel(channel).Warnf("malformed configuration set: %v", err)
			return
		}
		if s.configurationSet != nil {
			s.enqueue(func() { s.configurationSet(deviceKey, cmd.Items) })
		}
	case s.proto.IsConfigurationGet(channel):
		if s.configurationGet != nil {
			s.enqueue(func() { s.configurationGet(deviceKey) })
		}
	default:
		util.WithChannel(channel).Debug("unhandled data message")
	}
}
