package service

import (
	"os"

	"github.com/subgate-io/subgate/pkg/connectivity"
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// ============================================================================
// Firmware update service
// ============================================================================

// Installer starts and aborts firmware installations on subdevices. The
// host owns the actual flashing; the callbacks report its outcome and may
// fire from any goroutine.
type Installer interface {
	// Install starts flashing the named file onto the device. Exactly one
	// of the callbacks fires when the attempt settles.
	Install(deviceKey, fileName string, onSuccess func(), onFail func())

	// Abort cancels a running installation. It reports whether the
	// installation was actually aborted.
	Abort(deviceKey string) bool
}

// VersionProvider reports the firmware revision currently running on a
// device. An empty string means unknown.
type VersionProvider interface {
	FirmwareVersion(deviceKey string) string
}

// FirmwareService runs the per-device install state machine: IDLE,
// INSTALLING, then COMPLETED, FAILED or ABORTED. Installer callbacks are
// re-enqueued onto the pipeline, so state moves single-threaded.
type FirmwareService struct {
	proto     protocol.FirmwareProtocol
	conn      connectivity.Service
	enqueue   Enqueue
	installer Installer
	versions  VersionProvider

	states map[string]*model.FirmwareUpdateState
}

// NewFirmwareService wires the firmware service to its codec, transport
// and host-side installer.
func NewFirmwareService(proto protocol.FirmwareProtocol, conn connectivity.Service, enqueue Enqueue, installer Installer, versions VersionProvider) *FirmwareService {
	return &FirmwareService{
		proto:     proto,
		conn:      conn,
		enqueue:   enqueue,
		installer: installer,
		versions:  versions,
		states:    make(map[string]*model.FirmwareUpdateState),
	}
}

// State returns the install state machine position for one device.
func (s *FirmwareService) State(deviceKey string) model.FirmwareState {
	if st, ok := s.states[deviceKey]; ok {
		return st.Status
	}
	return model.FirmwareIdle
}

func (s *FirmwareService) state(deviceKey string) *model.FirmwareUpdateState {
	st, ok := s.states[deviceKey]
	if !ok {
		st = &model.FirmwareUpdateState{Status: model.FirmwareIdle}
		s.states[deviceKey] = st
	}
	return st
}

// PublishVersion reports the device's current firmware revision. Devices
// with an unknown version stay silent.
func (s *FirmwareService) PublishVersion(deviceKey string) {
	if s.versions == nil {
		return
	}
	version := s.versions.FirmwareVersion(deviceKey)
	if version == "" {
		return
	}
	msg, err := s.proto.FirmwareVersionMessage(deviceKey, version)
	if err != nil {
		util.WithDevice(deviceKey).Errorf("encode firmware version: %v", err)
		return
	}
	if err := s.conn.Publish(msg); err != nil {
		util.WithChannel(msg.Channel).Warnf("publish firmware version failed: %v", err)
		return
	}
	s.state(deviceKey).CurrentVersion = version
}

func (s *FirmwareService) publishStatus(deviceKey string, kind model.FirmwareStatusKind, fwErr model.FirmwareError) {
	msg, err := s.proto.FirmwareStatusMessage(deviceKey, model.FirmwareUpdateStatus{
		DeviceKeys: []string{deviceKey},
		Status:     kind,
		Error:      fwErr,
	})
	if err != nil {
		util.WithDevice(deviceKey).Errorf("encode firmware status: %v", err)
		return
	}
	if err := s.conn.Publish(msg); err != nil {
		util.WithChannel(msg.Channel).Warnf("publish firmware status failed: %v", err)
	}
}

// HandleInstall runs an inbound install command. A command must target
// exactly one device; anything else is dropped. Runs on the pipeline.
func (s *FirmwareService) HandleInstall(cmd *model.FirmwareUpdateInstall) {
	if len(cmd.DeviceKeys) != 1 {
		util.WithService("firmware").Warnf("install command targets %d devices, dropping", len(cmd.DeviceKeys))
		return
	}
	s.installOne(cmd.DeviceKeys[0], cmd.FileName)
}

func (s *FirmwareService) installOne(deviceKey, fileName string) {
	log := util.WithDevice(deviceKey)

	st := s.state(deviceKey)
	if st.Status == model.FirmwareInstalling {
		log.Warn("install requested while another installation runs")
		return
	}

	// An unreadable file reports the error but leaves the state machine
	// where it was: no installation ever started.
	if fileName == "" {
		log.Error("install requested with no firmware file")
		s.publishStatus(deviceKey, model.FirmwareStatusError, model.FirmwareErrorFileSystem)
		return
	}
	if _, err := os.Stat(fileName); err != nil {
		log.Errorf("firmware file %s unreadable: %v", fileName, err)
		s.publishStatus(deviceKey, model.FirmwareStatusError, model.FirmwareErrorFileSystem)
		return
	}

	st.Status = model.FirmwareInstalling
	s.publishStatus(deviceKey, model.FirmwareStatusInstallation, "")
	log.Infof("installing firmware %s", fileName)

	s.installer.Install(deviceKey, fileName,
		func() { s.enqueue(func() { s.installSucceeded(deviceKey) }) },
		func() { s.enqueue(func() { s.installFailed(deviceKey) }) },
	)
}

func (s *FirmwareService) installSucceeded(deviceKey string) {
	st := s.state(deviceKey)
	if st.Status != model.FirmwareInstalling {
		return
	}
	st.Status = model.FirmwareCompleted
	s.publishStatus(deviceKey, model.FirmwareStatusCompleted, "")
	s.PublishVersion(deviceKey)
	util.WithDevice(deviceKey).Info("firmware installation completed")
}

func (s *FirmwareService) installFailed(deviceKey string) {
	st := s.state(deviceKey)
	if st.Status != model.FirmwareInstalling {
		return
	}
	st.Status = model.FirmwareFailed
	s.publishStatus(deviceKey, model.FirmwareStatusError, model.FirmwareErrorInstallationFailed)
	util.WithDevice(deviceKey).Warn("firmware installation failed")
}

// HandleAbort runs an inbound abort command. A command must target
// exactly one device; anything else is dropped. Runs on the pipeline.
func (s *FirmwareService) HandleAbort(cmd *model.FirmwareUpdateAbort) {
	if len(cmd.DeviceKeys) != 1 {
		util.WithService("firmware").Warnf("abort command targets %d devices, dropping", len(cmd.DeviceKeys))
		return
	}
	deviceKey := cmd.DeviceKeys[0]
	st := s.state(deviceKey)
	if st.Status != model.FirmwareInstalling {
		return
	}
	if !s.installer.Abort(deviceKey) {
		util.WithDevice(deviceKey).Warn("installer refused to abort")
		return
	}
	st.Status = model.FirmwareAborted
	s.publishStatus(deviceKey, model.FirmwareStatusAborted, "")
	util.WithDevice(deviceKey).Info("firmware installation aborted")
}

// MessageReceived parses an inbound firmware command and enqueues it.
func (s *FirmwareService) MessageReceived(msg *model.Message) {
	switch {
	case s.proto.IsFirmwareInstall(msg.Channel):
		cmd, err := s.proto.ParseFirmwareInstall(msg)
		if err != nil {
			util.WithChannel(msg.Channel).Warnf("malformed firmware install: %v", err)
			return
		}
		s.enqueue(func() { s.HandleInstall(cmd) })
	case s.proto.IsFirmwareAbort(msg.Channel):
		cmd, err := s.proto.ParseFirmwareAbort(msg)
		if err != nil {
			util.WithChannel(msg.Channel).Warnf("malformed firmware abort: %v", err)
			return
		}
		s.enqueue(func() { s.HandleAbort(cmd) })
	default:
		util.WithChannel(msg.Channel).Debug("unhandled firmware message")
	}
}
