package model

// FirmwareState is the per-device install state machine position.
type FirmwareState string

const (
	FirmwareIdle       FirmwareState = "IDLE"
	FirmwareInstalling FirmwareState = "INSTALLING"
	FirmwareCompleted  FirmwareState = "COMPLETED"
	FirmwareFailed     FirmwareState = "FAILED"
	FirmwareAborted    FirmwareState = "ABORTED"
)

// FirmwareUpdateState couples the state machine position with the version
// last reported for the device.
type FirmwareUpdateState struct {
	Status         FirmwareState
	CurrentVersion string
}

// FirmwareStatusKind is the wire-visible progress token of an install.
type FirmwareStatusKind string

const (
	FirmwareStatusInstallation FirmwareStatusKind = "INSTALLATION"
	FirmwareStatusCompleted    FirmwareStatusKind = "COMPLETED"
	FirmwareStatusAborted      FirmwareStatusKind = "ABORTED"
	FirmwareStatusError        FirmwareStatusKind = "ERROR"
)

// FirmwareError is the error detail attached to a FirmwareStatusError status.
type FirmwareError string

const (
	FirmwareErrorUnspecified        FirmwareError = "UNSPECIFIED"
	FirmwareErrorFileSystem         FirmwareError = "FILE_SYSTEM_ERROR"
	FirmwareErrorInstallationFailed FirmwareError = "INSTALLATION_FAILED"
)

// FirmwareUpdateStatus is the progress message the module emits while an
// install runs. Error is set only when Status is FirmwareStatusError.
type FirmwareUpdateStatus struct {
	DeviceKeys []string
	Status     FirmwareStatusKind
	Error      FirmwareError
}

// FirmwareUpdateInstall is the inbound install command: exactly one device
// key and the local path of the already transferred firmware file.
type FirmwareUpdateInstall struct {
	DeviceKeys []string
	FileName   string
}

// FirmwareUpdateAbort is the inbound abort command.
type FirmwareUpdateAbort struct {
	DeviceKeys []string
}

// FirmwareVersion reports the firmware revision currently running on a device.
type FirmwareVersion struct {
	DeviceKey string
	Version   string
}
