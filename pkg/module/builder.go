package module

import (
	"fmt"
	"time"

	"github.com/subgate-io/subgate/pkg/buffer"
	"github.com/subgate-io/subgate/pkg/connectivity"
	"github.com/subgate-io/subgate/pkg/persistence"
	"github.com/subgate-io/subgate/pkg/protocol/jsonproto"
	"github.com/subgate-io/subgate/pkg/router"
	"github.com/subgate-io/subgate/pkg/service"
	"github.com/subgate-io/subgate/pkg/util"
)

// DefaultHost is the bus URI of a gateway process on the same machine.
const DefaultHost = "tcp://localhost:1883"

// Builder assembles a Module. Host-side callbacks are mandatory as
// documented on each setter; Build rejects inconsistent configuration.
type Builder struct {
	host     string
	clientID string

	store          persistence.Store
	conn           connectivity.Service
	reconnectDelay time.Duration

	actuationHandler       ActuationHandler
	actuatorStatusProvider ActuatorStatusProvider
	configurationHandler   ConfigurationHandler
	configurationProvider  ConfigurationProvider
	deviceStatusProvider   DeviceStatusProvider

	firmwareInstaller       service.Installer
	firmwareVersionProvider service.VersionProvider

	platformStatusListener service.PlatformStatusListener

	registrationResponseHandler service.RegistrationResponseHandler
	updateResponseHandler       service.RegistrationResponseHandler
}

// NewBuilder creates a builder with the default host and in-memory
// persistence.
func NewBuilder() *Builder {
	return &Builder{
		host:           DefaultHost,
		clientID:       "subgate-module",
		reconnectDelay: DefaultReconnectDelay,
	}
}

// Host sets the bus URI.
func (b *Builder) Host(host string) *Builder {
	b.host = host
	return b
}

// ClientID sets the bus session identity.
func (b *Builder) ClientID(clientID string) *Builder {
	b.clientID = clientID
	return b
}

// Persistence replaces the default in-memory store.
func (b *Builder) Persistence(store persistence.Store) *Builder {
	b.store = store
	return b
}

// Connectivity replaces the MQTT transport, mainly for tests.
func (b *Builder) Connectivity(conn connectivity.Service) *Builder {
	b.conn = conn
	return b
}

// ReconnectDelay overrides the pause between failed connection attempts.
func (b *Builder) ReconnectDelay(delay time.Duration) *Builder {
	b.reconnectDelay = delay
	return b
}

// ActuationHandler sets the mandatory actuator write callback.
func (b *Builder) ActuationHandler(h ActuationHandler) *Builder {
	b.actuationHandler = h
	return b
}

// ActuatorStatusProvider sets the mandatory actuator read callback.
func (b *Builder) ActuatorStatusProvider(p ActuatorStatusProvider) *Builder {
	b.actuatorStatusProvider = p
	return b
}

// DeviceStatusProvider sets the mandatory device status callback.
func (b *Builder) DeviceStatusProvider(p DeviceStatusProvider) *Builder {
	b.deviceStatusProvider = p
	return b
}

// ConfigurationHandler sets the configuration write callback. Must be
// paired with ConfigurationProvider.
func (b *Builder) ConfigurationHandler(h ConfigurationHandler) *Builder {
	b.configurationHandler = h
	return b
}

// ConfigurationProvider sets the configuration read callback. Must be
// paired with ConfigurationHandler.
func (b *Builder) ConfigurationProvider(p ConfigurationProvider) *Builder {
	b.configurationProvider = p
	return b
}

// FirmwareUpdate enables firmware installation. Installer and version
// provider come as a pair.
func (b *Builder) FirmwareUpdate(installer service.Installer, versions service.VersionProvider) *Builder {
	b.firmwareInstaller = installer
	b.firmwareVersionProvider = versions
	return b
}

// PlatformStatusListener observes gateway-to-platform link changes.
func (b *Builder) PlatformStatusListener(l service.PlatformStatusListener) *Builder {
	b.platformStatusListener = l
	return b
}

// RegistrationResponseHandler observes registration responses after the
// module's own handling.
func (b *Builder) RegistrationResponseHandler(h service.RegistrationResponseHandler) *Builder {
	b.registrationResponseHandler = h
	return b
}

// UpdateResponseHandler observes update responses after the module's own
// handling.
func (b *Builder) UpdateResponseHandler(h service.RegistrationResponseHandler) *Builder {
	b.updateResponseHandler = h
	return b
}

func (b *Builder) validate() error {
	v := &util.ValidationBuilder{}
	v.Add(b.actuationHandler != nil, "actuation handler is required")
	v.Add(b.actuatorStatusProvider != nil, "actuator status provider is required")
	v.Add(b.deviceStatusProvider != nil, "device status provider is required")
	v.Add((b.configurationHandler == nil) == (b.configurationProvider == nil),
		"configuration handler and provider must be set together")
	v.Add((b.firmwareInstaller == nil) == (b.firmwareVersionProvider == nil),
		"firmware installer and version provider must be set together")
	v.Add(b.host != "", "host must not be empty")
	if err := v.Build(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	return nil
}

// Build assembles the module. The returned module is disconnected; call
// Connect to go live.
func (b *Builder) Build() (*Module, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		store = persistence.NewInMemory()
	}
	conn := b.conn
	if conn == nil {
		conn = connectivity.NewMQTT(connectivity.MQTTConfig{
			Host:     b.host,
			ClientID: b.clientID,
		})
	}

	m := &Module{
		buf:            buffer.New(),
		conn:           conn,
		router:         router.New(),
		registry:       newRegistry(),
		reconnectDelay: b.reconnectDelay,

		actuationHandler:       b.actuationHandler,
		actuatorStatusProvider: b.actuatorStatusProvider,
		configurationHandler:   b.configurationHandler,
		configurationProvider:  b.configurationProvider,
		deviceStatusProvider:   b.deviceStatusProvider,

		registrationResponseHandler: b.registrationResponseHandler,
		updateResponseHandler:       b.updateResponseHandler,
	}
	enqueue := service.Enqueue(func(cmd buffer.Command) bool { return m.buf.Push(cmd) })

	dataProto := jsonproto.NewData()
	statusProto := jsonproto.NewStatus()
	registrationProto := jsonproto.NewRegistration()
	firmwareProto := jsonproto.NewFirmware()
	platformProto := jsonproto.NewPlatformStatus()

	m.data = service.NewDataService(dataProto, store, conn, enqueue)
	m.data.SetActuationHandler(m.handleActuatorSet)
	m.data.SetActuatorGetHandler(m.handleActuatorGet)
	m.data.SetConfigurationSetHandler(m.handleConfigurationSet)
	m.data.SetConfigurationGetHandler(m.handleConfigurationGet)

	m.status = service.NewStatusService(statusProto, conn, enqueue)
	m.status.SetStatusRequestHandler(m.handleStatusRequest)

	m.registration = service.NewRegistrationService(registrationProto, conn, enqueue)
	m.registration.SetRegistrationResponseHandler(m.handleRegistrationResponse)
	m.registration.SetUpdateResponseHandler(m.handleUpdateResponse)

	m.router.AddListener(dataProto, m.data)
	m.router.AddListener(statusProto, m.status)
	m.router.AddListener(registrationProto, m.registration)

	if b.firmwareInstaller != nil {
		m.firmware = service.NewFirmwareService(firmwareProto, conn, enqueue,
			b.firmwareInstaller, b.firmwareVersionProvider)
		m.router.AddListener(firmwareProto, m.firmware)
	}

	m.platformStatus = service.NewPlatformStatusService(platformProto, enqueue, b.platformStatusListener)
	m.router.AddListener(platformProto, m.platformStatus)

	conn.SetListener(m)
	return m, nil
}
