package persistence

import (
	"reflect"
	"testing"

	"github.com/subgate-io/subgate/pkg/model"
)

func TestMakeKey_RoundTrip(t *testing.T) {
	key := MakeKey("DEVICE_KEY_1", "T")
	if key != "DEVICE_KEY_1+T" {
		t.Fatalf("MakeKey() = %q, want %q", key, "DEVICE_KEY_1+T")
	}

	deviceKey, reference, ok := ParseKey(key)
	if !ok || deviceKey != "DEVICE_KEY_1" || reference != "T" {
		t.Errorf("ParseKey(%q) = (%q, %q, %v)", key, deviceKey, reference, ok)
	}

	if _, _, ok := ParseKey("no-delimiter"); ok {
		t.Error("ParseKey() accepted a key without delimiter")
	}
}

func TestInMemory_SensorReadingsFIFO(t *testing.T) {
	s := NewInMemory()
	key := MakeKey("d1", "T")

	for i := 0; i < 5; i++ {
		s.PutSensorReading(key, model.SensorReading{Reference: "T", Values: []string{"v"}, RTC: uint64(i)})
	}

	batch := s.SensorReadings(key, 3)
	if len(batch) != 3 {
		t.Fatalf("SensorReadings(3) returned %d items", len(batch))
	}
	for i, r := range batch {
		if r.RTC != uint64(i) {
			t.Errorf("item %d has RTC %d, want %d", i, r.RTC, i)
		}
	}

	// Reads do not consume.
	if again := s.SensorReadings(key, 3); !reflect.DeepEqual(again, batch) {
		t.Error("second read returned different items")
	}

	s.RemoveSensorReadings(key, 3)
	rest := s.SensorReadings(key, 10)
	if len(rest) != 2 || rest[0].RTC != 3 {
		t.Errorf("after removal got %d items, first RTC %d", len(rest), rest[0].RTC)
	}

	s.RemoveSensorReadings(key, 10)
	if keys := s.SensorReadingsKeys(); len(keys) != 0 {
		t.Errorf("drained key still listed: %v", keys)
	}
	if !s.IsEmpty() {
		t.Error("IsEmpty() = false after draining everything")
	}
}

func TestInMemory_KeysInsertionOrder(t *testing.T) {
	s := NewInMemory()

	order := []string{"d1+T", "d2+P", "d1+H"}
	for _, key := range order {
		s.PutSensorReading(key, model.SensorReading{Reference: "x", Values: []string{"1"}})
	}
	// Another put on an existing key must not reorder.
	s.PutSensorReading("d1+T", model.SensorReading{Reference: "x", Values: []string{"2"}})

	if got := s.SensorReadingsKeys(); !reflect.DeepEqual(got, order) {
		t.Errorf("SensorReadingsKeys() = %v, want %v", got, order)
	}
}

func TestInMemory_ActuatorStatusReplaceOnPut(t *testing.T) {
	s := NewInMemory()
	key := MakeKey("d1", "SW")

	s.PutActuatorStatus(key, model.ActuatorStatus{Reference: "SW", Value: "false", State: model.ActuatorStateReady})
	s.PutActuatorStatus(key, model.ActuatorStatus{Reference: "SW", Value: "true", State: model.ActuatorStateReady})

	st, ok := s.ActuatorStatus(key)
	if !ok || st.Value != "true" {
		t.Errorf("ActuatorStatus() = (%+v, %v), want latest value", st, ok)
	}
	if keys := s.ActuatorStatusKeys(); len(keys) != 1 {
		t.Errorf("replace-on-put produced %d keys, want 1", len(keys))
	}

	s.RemoveActuatorStatus(key)
	if _, ok := s.ActuatorStatus(key); ok {
		t.Error("status survived removal")
	}
}

func TestInMemory_ConfigurationReplaceOnPut(t *testing.T) {
	s := NewInMemory()

	s.PutConfiguration("d1", []model.ConfigurationItem{{Reference: "RI", Values: []string{"30"}}})
	s.PutConfiguration("d1", []model.ConfigurationItem{{Reference: "RI", Values: []string{"60"}}})

	items, ok := s.Configuration("d1")
	if !ok || len(items) != 1 || items[0].Values[0] != "60" {
		t.Errorf("Configuration() = (%+v, %v), want the latest snapshot", items, ok)
	}

	s.RemoveConfiguration("d1")
	if !s.IsEmpty() {
		t.Error("IsEmpty() = false after removing the only snapshot")
	}
}

func TestInMemory_AlarmsIndependentOfReadings(t *testing.T) {
	s := NewInMemory()
	key := MakeKey("d1", "HT")

	s.PutAlarm(key, model.Alarm{Reference: "HT", Active: true, RTC: 1})
	if len(s.SensorReadingsKeys()) != 0 {
		t.Error("alarm put leaked into reading keys")
	}
	if got := s.Alarms(key, 10); len(got) != 1 || !got[0].Active {
		t.Errorf("Alarms() = %+v", got)
	}
}
