package jsonproto

import (
	"testing"

	"github.com/subgate-io/subgate/pkg/model"
)

func TestStatus_StatusUpdateMessage(t *testing.T) {
	s := NewStatus()

	msg, err := s.StatusUpdateMessage("k1", model.DeviceStatusConnected)
	if err != nil {
		t.Fatalf("StatusUpdateMessage() error: %v", err)
	}
	if msg.Channel != "d2p/subdevice_status_update/d/k1" {
		t.Errorf("channel = %q", msg.Channel)
	}
	if string(msg.Payload) != `{"state":"CONNECTED"}` {
		t.Errorf("payload = %s", msg.Payload)
	}

	status, err := s.ParseStatus(msg)
	if err != nil || status != model.DeviceStatusConnected {
		t.Errorf("round trip = %q, err %v", status, err)
	}
}

func TestStatus_StatusResponseMessage(t *testing.T) {
	s := NewStatus()

	msg, err := s.StatusResponseMessage("k1", model.DeviceStatusSleep)
	if err != nil {
		t.Fatalf("StatusResponseMessage() error: %v", err)
	}
	if msg.Channel != "d2p/subdevice_status_response/d/k1" {
		t.Errorf("channel = %q", msg.Channel)
	}
}

func TestStatus_Rejects(t *testing.T) {
	s := NewStatus()

	if _, err := s.StatusUpdateMessage("", model.DeviceStatusConnected); err == nil {
		t.Error("empty device key accepted")
	}
	if _, err := s.StatusUpdateMessage("k1", ""); err == nil {
		t.Error("empty status accepted")
	}
}

func TestStatus_IsStatusRequest(t *testing.T) {
	s := NewStatus()

	if !s.IsStatusRequest("p2d/subdevice_status_request") {
		t.Error("broadcast request not recognized")
	}
	if !s.IsStatusRequest("p2d/subdevice_status_request/d/k1") {
		t.Error("per-device request not recognized")
	}
	if s.IsStatusRequest("p2d/connection_status") {
		t.Error("unrelated channel claimed")
	}

	if key := s.ExtractDeviceKey("p2d/subdevice_status_request"); key != "" {
		t.Errorf("broadcast key = %q, want empty", key)
	}
	if key := s.ExtractDeviceKey("p2d/subdevice_status_request/d/k1"); key != "k1" {
		t.Errorf("key = %q, want k1", key)
	}
}

func TestStatus_LastWillMessage(t *testing.T) {
	s := NewStatus()

	msg, err := s.LastWillMessage([]string{"k1", "k2"})
	if err != nil {
		t.Fatalf("LastWillMessage() error: %v", err)
	}
	if msg.Channel != "lastwill" {
		t.Errorf("channel = %q", msg.Channel)
	}
	if string(msg.Payload) != `["k1","k2"]` {
		t.Errorf("payload = %s", msg.Payload)
	}

	if _, err := s.LastWillMessage(nil); err == nil {
		t.Error("empty key list accepted")
	}
}
