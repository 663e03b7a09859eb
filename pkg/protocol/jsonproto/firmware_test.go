package jsonproto

import (
	"reflect"
	"testing"

	"github.com/subgate-io/subgate/pkg/model"
)

func TestFirmware_ParseInstall(t *testing.T) {
	f := NewFirmware()

	cmd, err := f.ParseFirmwareInstall(model.NewMessage(
		"p2d/firmware_update_install/d/k1",
		[]byte(`{"devices":["k1"],"fileName":"/tmp/fw.bin"}`)))
	if err != nil {
		t.Fatalf("ParseFirmwareInstall() error: %v", err)
	}
	if !reflect.DeepEqual(cmd.DeviceKeys, []string{"k1"}) || cmd.FileName != "/tmp/fw.bin" {
		t.Errorf("command = %+v", cmd)
	}

	// No device list: the channel key is the target.
	cmd, err = f.ParseFirmwareInstall(model.NewMessage(
		"p2d/firmware_update_install/d/k2", []byte(`{"fileName":"fw.bin"}`)))
	if err != nil || !reflect.DeepEqual(cmd.DeviceKeys, []string{"k2"}) {
		t.Errorf("channel fallback = %+v, err %v", cmd, err)
	}

	if _, err := f.ParseFirmwareInstall(model.NewMessage("p2d/firmware_update_install", []byte(`{}`))); err == nil {
		t.Error("command without targets accepted")
	}
}

func TestFirmware_ParseAbort(t *testing.T) {
	f := NewFirmware()

	cmd, err := f.ParseFirmwareAbort(model.NewMessage(
		"p2d/firmware_update_abort/d/k1", []byte(`{"devices":["k1"]}`)))
	if err != nil || !reflect.DeepEqual(cmd.DeviceKeys, []string{"k1"}) {
		t.Errorf("command = %+v, err %v", cmd, err)
	}
}

func TestFirmware_StatusMessage(t *testing.T) {
	f := NewFirmware()

	msg, err := f.FirmwareStatusMessage("k1", model.FirmwareUpdateStatus{
		DeviceKeys: []string{"k1"},
		Status:     model.FirmwareStatusInstallation,
	})
	if err != nil {
		t.Fatalf("FirmwareStatusMessage() error: %v", err)
	}
	if msg.Channel != "d2p/firmware_update_status/d/k1" {
		t.Errorf("channel = %q", msg.Channel)
	}
	if string(msg.Payload) != `{"status":"INSTALLATION"}` {
		t.Errorf("payload = %s", msg.Payload)
	}
}

func TestFirmware_StatusMessage_Error(t *testing.T) {
	f := NewFirmware()

	msg, err := f.FirmwareStatusMessage("k1", model.FirmwareUpdateStatus{
		DeviceKeys: []string{"k1"},
		Status:     model.FirmwareStatusError,
		Error:      model.FirmwareErrorFileSystem,
	})
	if err != nil {
		t.Fatalf("FirmwareStatusMessage() error: %v", err)
	}
	if string(msg.Payload) != `{"status":"ERROR","error":"FILE_SYSTEM_ERROR"}` {
		t.Errorf("payload = %s", msg.Payload)
	}

	// An ERROR status without detail carries the unspecified code.
	msg, _ = f.FirmwareStatusMessage("k1", model.FirmwareUpdateStatus{
		DeviceKeys: []string{"k1"},
		Status:     model.FirmwareStatusError,
	})
	if string(msg.Payload) != `{"status":"ERROR","error":"UNSPECIFIED"}` {
		t.Errorf("payload = %s", msg.Payload)
	}
}

func TestFirmware_VersionMessage(t *testing.T) {
	f := NewFirmware()

	msg, err := f.FirmwareVersionMessage("k1", "2.1.0")
	if err != nil {
		t.Fatalf("FirmwareVersionMessage() error: %v", err)
	}
	if msg.Channel != "d2p/firmware_version_update/d/k1" {
		t.Errorf("channel = %q", msg.Channel)
	}
	// The version payload is the bare string, not JSON.
	if string(msg.Payload) != "2.1.0" {
		t.Errorf("payload = %s", msg.Payload)
	}

	if _, err := f.FirmwareVersionMessage("k1", ""); err == nil {
		t.Error("empty version accepted")
	}
}

func TestPlatformStatus_Parse(t *testing.T) {
	p := NewPlatformStatus()

	status, err := p.ParsePlatformStatus(model.NewMessage("p2d/connection_status", []byte("CONNECTED")))
	if err != nil || status != model.PlatformStatusConnected {
		t.Errorf("ParsePlatformStatus() = %q, err %v", status, err)
	}

	status, err = p.ParsePlatformStatus(model.NewMessage("p2d/connection_status", []byte("OFFLINE\n")))
	if err != nil || status != model.PlatformStatusOffline {
		t.Errorf("ParsePlatformStatus() with whitespace = %q, err %v", status, err)
	}

	if _, err := p.ParsePlatformStatus(model.NewMessage("p2d/connection_status", []byte("BOGUS"))); err == nil {
		t.Error("unknown token accepted")
	}

	if key := p.ExtractDeviceKey("p2d/connection_status"); key != "" {
		t.Errorf("ExtractDeviceKey() = %q, want empty", key)
	}
}
