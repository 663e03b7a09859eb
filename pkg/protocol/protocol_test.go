package protocol

import "testing"

func TestChannelMatches(t *testing.T) {
	tests := []struct {
		pattern string
		channel string
		want    bool
	}{
		{"p2d/actuator_set/d/k1/r/SW", "p2d/actuator_set/d/k1/r/SW", true},
		{"p2d/actuator_set/d/+/r/+", "p2d/actuator_set/d/k1/r/SW", true},
		{"p2d/actuator_set/d/+/r/+", "p2d/actuator_set/d/k1", false},
		{"p2d/actuator_set/d/+", "p2d/actuator_set/d/k1/r/SW", false},
		{"d2p/#", "d2p/sensor_reading/d/k1/r/T", true},
		{"p2d/connection_status", "p2d/connection_status", true},
		{"p2d/connection_status", "p2d/connection_statusx", false},
		{"p2d/subdevice_status_request/d/+", "p2d/subdevice_status_request/d/k9", true},
	}
	for _, tt := range tests {
		if got := ChannelMatches(tt.pattern, tt.channel); got != tt.want {
			t.Errorf("ChannelMatches(%q, %q) = %v, want %v", tt.pattern, tt.channel, got, tt.want)
		}
	}
}

func TestMatchesAny(t *testing.T) {
	patterns := []string{"p2d/actuator_set/d/+/r/+", "p2d/connection_status"}
	if !MatchesAny(patterns, "p2d/connection_status") {
		t.Error("MatchesAny() missed an exact pattern")
	}
	if MatchesAny(patterns, "d2p/events/d/k1/r/HT") {
		t.Error("MatchesAny() claimed an unrelated channel")
	}
}

func TestDeviceKeyFromChannel(t *testing.T) {
	tests := []struct {
		channel string
		want    string
	}{
		{"p2d/actuator_set/d/DEVICE_KEY_1/r/SW", "DEVICE_KEY_1"},
		{"d2p/register_subdevice/d/k2", "k2"},
		{"p2d/connection_status", ""},
		{"p2d/subdevice_status_request", ""},
	}
	for _, tt := range tests {
		if got := DeviceKeyFromChannel(tt.channel); got != tt.want {
			t.Errorf("DeviceKeyFromChannel(%q) = %q, want %q", tt.channel, got, tt.want)
		}
	}
}

func TestReferenceFromChannel(t *testing.T) {
	if got := ReferenceFromChannel("d2p/sensor_reading/d/k1/r/T"); got != "T" {
		t.Errorf("ReferenceFromChannel() = %q, want %q", got, "T")
	}
	if got := ReferenceFromChannel("d2p/configuration_get/d/k1"); got != "" {
		t.Errorf("ReferenceFromChannel() = %q, want empty", got)
	}
}
