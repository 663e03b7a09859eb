// Package module wires the command pipeline, device registry, protocol
// services and connectivity facade into the public gateway module API.
// Every public method defers its work onto the pipeline; callers never
// block on the bus and never observe errors synchronously.
package module

import (
	"time"

	"github.com/subgate-io/subgate/pkg/buffer"
	"github.com/subgate-io/subgate/pkg/connectivity"
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/router"
	"github.com/subgate-io/subgate/pkg/service"
	"github.com/subgate-io/subgate/pkg/util"
)

// DefaultReconnectDelay is the pause between failed connection attempts.
const DefaultReconnectDelay = 2000 * time.Millisecond

// ActuationHandler applies an actuator write on the host. Must return
// promptly; it runs on the pipeline consumer.
type ActuationHandler func(deviceKey, reference, value string)

// ActuatorStatusProvider reads the current value and state of one actuator.
type ActuatorStatusProvider func(deviceKey, reference string) model.ActuatorStatus

// ConfigurationHandler applies a configuration write on the host.
type ConfigurationHandler func(deviceKey string, items []model.ConfigurationItem)

// ConfigurationProvider reads a device's current configuration snapshot.
type ConfigurationProvider func(deviceKey string) []model.ConfigurationItem

// DeviceStatusProvider reports a device's current connectivity status.
type DeviceStatusProvider func(deviceKey string) model.DeviceStatus

// ============================================================================
// Module
// ============================================================================

// Module is the gateway-side device module core. Build one with Builder.
type Module struct {
	buf    *buffer.CommandBuffer
	conn   connectivity.Service
	router *router.Router

	data           *service.DataService
	status         *service.StatusService
	registration   *service.RegistrationService
	firmware       *service.FirmwareService
	platformStatus *service.PlatformStatusService

	registry  *registry
	connected bool

	reconnectDelay time.Duration

	actuationHandler       ActuationHandler
	actuatorStatusProvider ActuatorStatusProvider
	configurationHandler   ConfigurationHandler
	configurationProvider  ConfigurationProvider
	deviceStatusProvider   DeviceStatusProvider

	registrationResponseHandler service.RegistrationResponseHandler
	updateResponseHandler       service.RegistrationResponseHandler
}

// Channels returns the current subscription union. Part of the
// connectivity listener contract.
func (m *Module) Channels() []string {
	return m.router.Channels()
}

// MessageReceived feeds one inbound bus message to the router. Part of
// the connectivity listener contract; runs on the transport goroutine.
func (m *Module) MessageReceived(msg *model.Message) {
	m.router.MessageReceived(msg)
}

// ConnectionLost marks the session dead and schedules a reconnect with
// the full bootstrap sequence. Part of the connectivity listener contract.
func (m *Module) ConnectionLost() {
	m.buf.Push(func() {
		m.connected = false
		util.WithService("module").Warn("session lost, scheduling reconnect")
		m.connectTask(true)
	})
}

// Connect establishes the bus session and runs the bootstrap sequence:
// registration, firmware version, status, actuator statuses and
// configuration for every registered device. With publishRightAway the
// persisted queues are drained at the end. Connection failures retry
// forever with a constant delay.
func (m *Module) Connect(publishRightAway bool) {
	m.buf.Push(func() { m.connectTask(publishRightAway) })
}

func (m *Module) connectTask(publishRightAway bool) {
	if m.connected {
		return
	}
	if err := m.conn.Connect(); err != nil {
		util.WithService("module").Warnf("connect failed, retrying in %v: %v", m.reconnectDelay, err)
		m.buf.Push(func() {
			time.Sleep(m.reconnectDelay)
			m.connectTask(publishRightAway)
		})
		return
	}
	m.connected = true
	util.WithService("module").Info("connected, running bootstrap")
	m.bootstrap(publishRightAway)
}

// bootstrap rehydrates platform state after each (re)connect.
func (m *Module) bootstrap(publishRightAway bool) {
	keys := m.registry.deviceKeys()

	for _, key := range keys {
		device, _ := m.registry.device(key)
		if err := m.registration.PublishRegistrationRequest(device); err != nil {
			util.WithDevice(key).Warnf("registration request failed: %v", err)
		}
		if m.firmware != nil {
			m.firmware.PublishVersion(key)
		}
		if err := m.status.PublishStatusUpdate(key, m.deviceStatusProvider(key)); err != nil {
			util.WithDevice(key).Warnf("status update failed: %v", err)
		}
	}
	for _, key := range keys {
		for _, reference := range m.registry.actuatorReferences(key) {
			m.recordActuatorStatus(key, reference)
		}
	}
	for _, key := range keys {
		m.recordConfiguration(key)
	}
	if publishRightAway {
		m.publishAll()
	} else {
		m.data.PublishActuatorStatuses()
		m.data.PublishConfigurations()
	}
}

// Disconnect tears the session down gracefully.
func (m *Module) Disconnect() {
	m.buf.Push(func() {
		m.connected = false
		m.conn.Disconnect()
	})
}

// Stop disconnects and drains the pipeline to quiescence. The module is
// unusable afterwards.
func (m *Module) Stop() {
	m.Disconnect()
	m.buf.Stop()
}

// ============================================================================
// Outbound data API
// ============================================================================

// AddSensorReading queues one reading. The value may be any supported
// scalar or a slice for multi-value sensors; rtc is epoch milliseconds,
// 0 meaning now. Unknown devices or references are logged and dropped.
func (m *Module) AddSensorReading(deviceKey, reference string, value interface{}, rtc uint64) {
	values := model.FormatValues(value)
	m.buf.Push(func() {
		if len(values) == 0 {
			return
		}
		if !m.registry.sensorDefined(deviceKey, reference) {
			util.Error(&util.NotFoundError{Resource: "sensor", Device: deviceKey, Name: reference})
			return
		}
		stamp := rtc
		if stamp == 0 {
			stamp = model.CurrentRTC()
		}
		m.data.AddSensorReading(deviceKey, model.SensorReading{
			Reference: reference,
			Values:    values,
			RTC:       stamp,
		})
	})
}

// AddAlarm queues one alarm event. rtc semantics match AddSensorReading.
func (m *Module) AddAlarm(deviceKey, reference string, active bool, rtc uint64) {
	m.buf.Push(func() {
		if !m.registry.alarmDefined(deviceKey, reference) {
			util.Error(&util.NotFoundError{Resource: "alarm", Device: deviceKey, Name: reference})
			return
		}
		stamp := rtc
		if stamp == 0 {
			stamp = model.CurrentRTC()
		}
		m.data.AddAlarm(deviceKey, model.Alarm{Reference: reference, Active: active, RTC: stamp})
	})
}

// PublishActuatorStatus reads one actuator through the provider, queues
// its status and drains it. An optional explicit value overrides the
// provider's.
func (m *Module) PublishActuatorStatus(deviceKey, reference string, value ...string) {
	m.buf.Push(func() {
		if !m.registry.actuatorDefined(deviceKey, reference) {
			util.Error(&util.NotFoundError{Resource: "actuator", Device: deviceKey, Name: reference})
			return
		}
		status := m.actuatorStatusProvider(deviceKey, reference)
		status.Reference = reference
		if len(value) > 0 {
			status.Value = value[0]
		}
		m.data.AddActuatorStatus(deviceKey, status)
		m.data.PublishActuatorStatusesFor(deviceKey)
	})
}

// PublishActuatorStatuses reads every actuator of every registered
// device through the provider and drains the resulting statuses.
func (m *Module) PublishActuatorStatuses() {
	m.buf.Push(func() { m.handleActuatorGet("", "") })
}

// PublishConfiguration queues a device's configuration snapshot and
// drains it. Without explicit items the configuration provider is asked.
func (m *Module) PublishConfiguration(deviceKey string, items ...model.ConfigurationItem) {
	m.buf.Push(func() {
		if !m.registry.deviceExists(deviceKey) {
			util.Error(&util.NotFoundError{Resource: "device", Name: deviceKey})
			return
		}
		snapshot := items
		if len(snapshot) == 0 {
			if m.configurationProvider == nil {
				return
			}
			snapshot = m.configurationProvider(deviceKey)
		}
		if len(snapshot) == 0 {
			return
		}
		m.data.AddConfiguration(deviceKey, snapshot)
		m.data.PublishConfigurationFor(deviceKey)
	})
}

// AddDeviceStatus publishes a status update for one registered device.
func (m *Module) AddDeviceStatus(deviceKey string, status model.DeviceStatus) {
	m.buf.Push(func() {
		if !m.registry.deviceExists(deviceKey) {
			util.Error(&util.NotFoundError{Resource: "device", Name: deviceKey})
			return
		}
		if err := m.status.PublishStatusUpdate(deviceKey, status); err != nil {
			util.WithDevice(deviceKey).Warnf("status update failed: %v", err)
		}
	})
}

// PublishDeviceStatus publishes a status update without the registry check.
func (m *Module) PublishDeviceStatus(deviceKey string, status model.DeviceStatus) {
	m.buf.Push(func() {
		if err := m.status.PublishStatusUpdate(deviceKey, status); err != nil {
			util.WithDevice(deviceKey).Warnf("status update failed: %v", err)
		}
	})
}

// Publish drains every persisted queue once.
func (m *Module) Publish() {
	m.buf.Push(m.publishAll)
}

// PublishDevice drains the persisted queues of one device.
func (m *Module) PublishDevice(deviceKey string) {
	m.buf.Push(func() {
		m.data.PublishSensorReadingsFor(deviceKey)
		m.data.PublishAlarmsFor(deviceKey)
		m.data.PublishActuatorStatusesFor(deviceKey)
		m.data.PublishConfigurationFor(deviceKey)
	})
}

func (m *Module) publishAll() {
	m.data.PublishSensorReadings()
	m.data.PublishAlarms()
	m.data.PublishActuatorStatuses()
	m.data.PublishConfigurations()
}

// ============================================================================
// Registry API
// ============================================================================

// AddDevice registers a subdevice. A duplicate key is logged and ignored.
// On a live session the subscription set and last-will are refreshed and
// a registration request goes out immediately.
func (m *Module) AddDevice(device model.Device) {
	m.buf.Push(func() {
		d := device
		if !m.registry.add(&d) {
			util.WithDevice(d.Key).Error("device already registered")
			return
		}
		m.router.AddDevice(d.Key)
		m.status.DevicesUpdated(m.registry.deviceKeys())
		if !m.connected {
			return
		}
		if err := m.conn.Reconnect(); err != nil {
			util.WithDevice(d.Key).Warnf("resubscribe failed: %v", err)
			return
		}
		if err := m.registration.PublishRegistrationRequest(&d); err != nil {
			util.WithDevice(d.Key).Warnf("registration request failed: %v", err)
		}
	})
}

// AddAssetsToDevice grows a registered device's template. Templates whose
// reference already exists must match the registered ones exactly, else
// the whole call is rejected. On success an update request goes out.
func (m *Module) AddAssetsToDevice(deviceKey string, updateDefaultSemantics bool,
	configs []model.ConfigurationTemplate, sensors []model.SensorTemplate,
	alarms []model.AlarmTemplate, actuators []model.ActuatorTemplate) {

	m.buf.Push(func() {
		if err := m.registry.validateAssets(deviceKey, configs, sensors, alarms, actuators); err != nil {
			util.WithDevice(deviceKey).Errorf("asset update rejected: %v", err)
			return
		}
		m.registry.appendAssets(deviceKey, configs, sensors, alarms, actuators)
		err := m.registration.PublishUpdateRequest(&model.SubdeviceUpdateRequest{
			DeviceKey:              deviceKey,
			UpdateDefaultSemantics: updateDefaultSemantics,
			Configurations:         configs,
			Sensors:                sensors,
			Alarms:                 alarms,
			Actuators:              actuators,
		})
		if err != nil {
			util.WithDevice(deviceKey).Warnf("update request failed: %v", err)
		}
	})
}

// RemoveDevice deregisters a subdevice. Idempotent.
func (m *Module) RemoveDevice(deviceKey string) {
	m.buf.Push(func() {
		m.registry.remove(deviceKey)
		m.router.RemoveDevice(deviceKey)
		m.status.DevicesUpdated(m.registry.deviceKeys())
	})
}

// ============================================================================
// Inbound handlers (all run on the pipeline)
// ============================================================================

func (m *Module) handleActuatorSet(deviceKey string, cmd *protocol.ActuatorSetCommand) {
	if !m.registry.actuatorDefined(deviceKey, cmd.Reference) {
		util.Error(&util.NotFoundError{Resource: "actuator", Device: deviceKey, Name: cmd.Reference})
		return
	}
	m.actuationHandler(deviceKey, cmd.Reference, cmd.Value)
	m.recordActuatorStatus(deviceKey, cmd.Reference)
	m.buf.Push(func() { m.data.PublishActuatorStatusesFor(deviceKey) })
}

func (m *Module) handleActuatorGet(deviceKey, reference string) {
	if deviceKey == "" && reference == "" {
		// Broadcast form: every actuator of every device reports.
		for _, key := range m.registry.deviceKeys() {
			for _, ref := range m.registry.actuatorReferences(key) {
				m.recordActuatorStatus(key, ref)
			}
		}
		m.buf.Push(m.data.PublishActuatorStatuses)
		return
	}
	if !m.registry.actuatorDefined(deviceKey, reference) {
		util.Error(&util.NotFoundError{Resource: "actuator", Device: deviceKey, Name: reference})
		return
	}
	m.recordActuatorStatus(deviceKey, reference)
	m.buf.Push(func() { m.data.PublishActuatorStatusesFor(deviceKey) })
}

func (m *Module) recordActuatorStatus(deviceKey, reference string) {
	status := m.actuatorStatusProvider(deviceKey, reference)
	status.Reference = reference
	m.data.AddActuatorStatus(deviceKey, status)
}

func (m *Module) handleConfigurationSet(deviceKey string, items []model.ConfigurationItem) {
	if m.configurationHandler == nil || m.configurationProvider == nil {
		util.WithDevice(deviceKey).Warn("configuration write received but configuration is not enabled")
		return
	}
	for _, item := range items {
		if !m.registry.configurationDefined(deviceKey, item.Reference) {
			util.Error(&util.NotFoundError{Resource: "configuration", Device: deviceKey, Name: item.Reference})
			return
		}
	}
	m.configurationHandler(deviceKey, items)
	m.recordConfiguration(deviceKey)
	m.buf.Push(func() { m.data.PublishConfigurationFor(deviceKey) })
}

func (m *Module) handleConfigurationGet(deviceKey string) {
	if m.configurationProvider == nil {
		util.WithDevice(deviceKey).Warn("configuration read received but configuration is not enabled")
		return
	}
	if !m.registry.deviceExists(deviceKey) {
		util.Error(&util.NotFoundError{Resource: "device", Name: deviceKey})
		return
	}
	m.recordConfiguration(deviceKey)
	m.buf.Push(func() { m.data.PublishConfigurationFor(deviceKey) })
}

func (m *Module) recordConfiguration(deviceKey string) {
	if m.configurationProvider == nil {
		return
	}
	if items := m.configurationProvider(deviceKey); len(items) > 0 {
		m.data.AddConfiguration(deviceKey, items)
	}
}

func (m *Module) handleStatusRequest(deviceKey string) {
	if deviceKey == "" {
		// Broadcast form: every registered device answers.
		for _, key := range m.registry.deviceKeys() {
			if err := m.status.PublishStatusResponse(key, m.deviceStatusProvider(key)); err != nil {
				util.WithDevice(key).Warnf("status response failed: %v", err)
			}
		}
		return
	}
	if !m.registry.deviceExists(deviceKey) {
		util.Error(&util.NotFoundError{Resource: "device", Name: deviceKey})
		return
	}
	if err := m.status.PublishStatusResponse(deviceKey, m.deviceStatusProvider(deviceKey)); err != nil {
		util.WithDevice(deviceKey).Warnf("status response failed: %v", err)
	}
}

func (m *Module) handleRegistrationResponse(response *protocol.RegistrationResponse) {
	m.handlePlatformAck("registration", response)
	if m.registrationResponseHandler != nil {
		m.registrationResponseHandler(response)
	}
}

func (m *Module) handleUpdateResponse(response *protocol.RegistrationResponse) {
	m.handlePlatformAck("update", response)
	if m.updateResponseHandler != nil {
		m.updateResponseHandler(response)
	}
}

// handlePlatformAck reacts to a registration or update response. An OK
// result republishes the device's actuator statuses, configuration and
// firmware version so the platform holds a complete picture.
func (m *Module) handlePlatformAck(kind string, response *protocol.RegistrationResponse) {
	log := util.WithDevice(response.DeviceKey)
	if response.Result != model.ResultOK {
		log.Errorf("%s rejected by platform: %s", kind, response.Result)
		return
	}
	log.Infof("%s acknowledged by platform", kind)
	if !m.registry.deviceExists(response.DeviceKey) {
		return
	}
	for _, reference := range m.registry.actuatorReferences(response.DeviceKey) {
		m.recordActuatorStatus(response.DeviceKey, reference)
	}
	m.recordConfiguration(response.DeviceKey)
	m.data.PublishActuatorStatusesFor(response.DeviceKey)
	m.data.PublishConfigurationFor(response.DeviceKey)
	if m.firmware != nil {
		m.firmware.PublishVersion(response.DeviceKey)
	}
}
