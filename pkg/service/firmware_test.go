package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/subgate-io/subgate/internal/testutil"
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol/jsonproto"
)

func newFirmwareService(t *testing.T, abortOK bool) (*FirmwareService, *testutil.MockConnectivity, *testutil.MockInstaller) {
	t.Helper()
	conn := testutil.NewMockConnectivity()
	if err := conn.Connect(); err != nil {
		t.Fatalf("mock connect: %v", err)
	}
	installer := testutil.NewMockInstaller(abortOK)
	versions := testutil.NewMockVersions(map[string]string{"k1": "2.0.0"})
	s := NewFirmwareService(jsonproto.NewFirmware(), conn, syncEnqueue, installer, versions)
	return s, conn, installer
}

func firmwareFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fw.bin")
	if err := os.WriteFile(path, []byte("firmware"), 0644); err != nil {
		t.Fatalf("writing firmware file: %v", err)
	}
	return path
}

func statusPayloads(conn *testutil.MockConnectivity, deviceKey string) []string {
	var out []string
	for _, msg := range conn.PublishedOn("d2p/firmware_update_status/d/" + deviceKey) {
		out = append(out, string(msg.Payload))
	}
	return out
}

func TestFirmwareService_InstallMissingFile(t *testing.T) {
	s, conn, installer := newFirmwareService(t, true)

	s.HandleInstall(&model.FirmwareUpdateInstall{DeviceKeys: []string{"k1"}, FileName: "/no/such/file"})

	payloads := statusPayloads(conn, "k1")
	if len(payloads) != 1 || payloads[0] != `{"status":"ERROR","error":"FILE_SYSTEM_ERROR"}` {
		t.Errorf("status payloads = %v", payloads)
	}
	if len(installer.Installs()) != 0 {
		t.Error("installer invoked for a missing file")
	}
	// No installation started, so the state machine never left IDLE.
	if s.State("k1") != model.FirmwareIdle {
		t.Errorf("state = %q, want IDLE", s.State("k1"))
	}
}

func TestFirmwareService_InstallMultipleTargetsDropped(t *testing.T) {
	s, conn, installer := newFirmwareService(t, true)
	file := firmwareFile(t)

	s.HandleInstall(&model.FirmwareUpdateInstall{DeviceKeys: []string{"k1", "k2"}, FileName: file})

	if got := len(conn.Published()); got != 0 {
		t.Errorf("multi-target install emitted %d messages, want 0", got)
	}
	if len(installer.Installs()) != 0 {
		t.Error("installer invoked for a multi-target install")
	}
	if s.State("k1") != model.FirmwareIdle || s.State("k2") != model.FirmwareIdle {
		t.Errorf("states = %q, %q, want IDLE", s.State("k1"), s.State("k2"))
	}
}

func TestFirmwareService_AbortMultipleTargetsDropped(t *testing.T) {
	s, conn, _ := newFirmwareService(t, true)
	file := firmwareFile(t)

	s.HandleInstall(&model.FirmwareUpdateInstall{DeviceKeys: []string{"k1"}, FileName: file})
	before := len(conn.Published())

	s.HandleAbort(&model.FirmwareUpdateAbort{DeviceKeys: []string{"k1", "k2"}})

	if got := len(conn.Published()); got != before {
		t.Errorf("multi-target abort emitted %d messages", got-before)
	}
	if s.State("k1") != model.FirmwareInstalling {
		t.Errorf("state = %q, want INSTALLING", s.State("k1"))
	}
}

func TestFirmwareService_InstallSuccess(t *testing.T) {
	s, conn, installer := newFirmwareService(t, true)
	file := firmwareFile(t)

	s.HandleInstall(&model.FirmwareUpdateInstall{DeviceKeys: []string{"k1"}, FileName: file})
	if s.State("k1") != model.FirmwareInstalling {
		t.Fatalf("state = %q, want INSTALLING", s.State("k1"))
	}

	installer.Succeed("k1")

	payloads := statusPayloads(conn, "k1")
	want := []string{`{"status":"INSTALLATION"}`, `{"status":"COMPLETED"}`}
	if len(payloads) != 2 || payloads[0] != want[0] || payloads[1] != want[1] {
		t.Errorf("status payloads = %v, want %v", payloads, want)
	}
	if s.State("k1") != model.FirmwareCompleted {
		t.Errorf("state = %q, want COMPLETED", s.State("k1"))
	}

	// The version report follows COMPLETED.
	versions := conn.PublishedOn("d2p/firmware_version_update/d/k1")
	if len(versions) != 1 || string(versions[0].Payload) != "2.0.0" {
		t.Errorf("version messages = %v", versions)
	}
	all := conn.Published()
	lastChannel := all[len(all)-1].Channel
	if !strings.HasPrefix(lastChannel, "d2p/firmware_version_update/") {
		t.Errorf("last message on %q, want the version update", lastChannel)
	}
}

func TestFirmwareService_InstallFailure(t *testing.T) {
	s, conn, installer := newFirmwareService(t, true)
	file := firmwareFile(t)

	s.HandleInstall(&model.FirmwareUpdateInstall{DeviceKeys: []string{"k1"}, FileName: file})
	installer.Fail("k1")

	payloads := statusPayloads(conn, "k1")
	want := []string{`{"status":"INSTALLATION"}`, `{"status":"ERROR","error":"INSTALLATION_FAILED"}`}
	if len(payloads) != 2 || payloads[1] != want[1] {
		t.Errorf("status payloads = %v, want %v", payloads, want)
	}
	if s.State("k1") != model.FirmwareFailed {
		t.Errorf("state = %q, want FAILED", s.State("k1"))
	}
}

func TestFirmwareService_AbortAccepted(t *testing.T) {
	s, conn, _ := newFirmwareService(t, true)
	file := firmwareFile(t)

	s.HandleInstall(&model.FirmwareUpdateInstall{DeviceKeys: []string{"k1"}, FileName: file})
	s.HandleAbort(&model.FirmwareUpdateAbort{DeviceKeys: []string{"k1"}})

	payloads := statusPayloads(conn, "k1")
	if len(payloads) != 2 || payloads[1] != `{"status":"ABORTED"}` {
		t.Errorf("status payloads = %v", payloads)
	}
	if s.State("k1") != model.FirmwareAborted {
		t.Errorf("state = %q, want ABORTED", s.State("k1"))
	}
}

func TestFirmwareService_AbortRefused(t *testing.T) {
	s, conn, _ := newFirmwareService(t, false)
	file := firmwareFile(t)

	s.HandleInstall(&model.FirmwareUpdateInstall{DeviceKeys: []string{"k1"}, FileName: file})
	s.HandleAbort(&model.FirmwareUpdateAbort{DeviceKeys: []string{"k1"}})

	payloads := statusPayloads(conn, "k1")
	if len(payloads) != 1 {
		t.Errorf("refused abort still emitted a message: %v", payloads)
	}
	if s.State("k1") != model.FirmwareInstalling {
		t.Errorf("state = %q, want INSTALLING", s.State("k1"))
	}
}

func TestFirmwareService_AbortWhileIdle(t *testing.T) {
	s, conn, _ := newFirmwareService(t, true)

	s.HandleAbort(&model.FirmwareUpdateAbort{DeviceKeys: []string{"k1"}})
	if len(conn.Published()) != 0 {
		t.Error("abort on an idle device emitted a message")
	}
}

func TestFirmwareService_LateCallbacksIgnored(t *testing.T) {
	s, conn, installer := newFirmwareService(t, true)
	file := firmwareFile(t)

	s.HandleInstall(&model.FirmwareUpdateInstall{DeviceKeys: []string{"k1"}, FileName: file})
	s.HandleAbort(&model.FirmwareUpdateAbort{DeviceKeys: []string{"k1"}})
	before := len(conn.Published())

	// The installer settles after the abort already moved the state on.
	installer.Succeed("k1")

	if len(conn.Published()) != before {
		t.Error("late success callback emitted a message")
	}
	if s.State("k1") != model.FirmwareAborted {
		t.Errorf("state = %q, want ABORTED", s.State("k1"))
	}
}
