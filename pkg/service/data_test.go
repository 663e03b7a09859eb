package service

import (
	"strings"
	"testing"

	"github.com/subgate-io/subgate/internal/testutil"
	"github.com/subgate-io/subgate/pkg/buffer"
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/persistence"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/protocol/jsonproto"
)

// syncEnqueue runs commands inline; service tests need no real pipeline.
func syncEnqueue(cmd buffer.Command) bool {
	cmd()
	return true
}

func newDataService(t *testing.T) (*DataService, *testutil.MockConnectivity, persistence.Store) {
	t.Helper()
	conn := testutil.NewMockConnectivity()
	if err := conn.Connect(); err != nil {
		t.Fatalf("mock connect: %v", err)
	}
	store := persistence.NewInMemory()
	return NewDataService(jsonproto.NewData(), store, conn, syncEnqueue), conn, store
}

func TestDataService_PublishSensorReadings_Batches(t *testing.T) {
	s, conn, store := newDataService(t)

	for i := 0; i < 120; i++ {
		s.AddSensorReading("k1", model.SensorReading{Reference: "T", Values: []string{"1"}, RTC: uint64(i + 1)})
	}
	s.PublishSensorReadings()

	msgs := conn.Published()
	if len(msgs) != 3 {
		t.Fatalf("published %d messages, want 3 batches", len(msgs))
	}
	for _, msg := range msgs {
		if msg.Channel != "d2p/sensor_reading/d/k1/r/T" {
			t.Errorf("channel = %q", msg.Channel)
		}
	}
	if !store.IsEmpty() {
		t.Error("store not drained after successful publish")
	}
}

func TestDataService_PublishSensorReadings_FailureRetains(t *testing.T) {
	s, conn, store := newDataService(t)

	s.AddSensorReading("k1", model.SensorReading{Reference: "T", Values: []string{"1"}, RTC: 1})
	conn.FailPublishes(true)
	s.PublishSensorReadings()

	if len(conn.Published()) != 0 {
		t.Error("failed publish still recorded a message")
	}
	if store.IsEmpty() {
		t.Fatal("failed publish removed the reading")
	}

	// Next drain delivers the retained reading.
	conn.FailPublishes(false)
	s.PublishSensorReadings()
	if len(conn.Published()) != 1 || !store.IsEmpty() {
		t.Errorf("retry published %d messages, store empty %v", len(conn.Published()), store.IsEmpty())
	}
}

func TestDataService_PublishSensorReadingsFor_FiltersDevice(t *testing.T) {
	s, conn, _ := newDataService(t)

	s.AddSensorReading("k1", model.SensorReading{Reference: "T", Values: []string{"1"}, RTC: 1})
	s.AddSensorReading("k2", model.SensorReading{Reference: "T", Values: []string{"2"}, RTC: 2})

	s.PublishSensorReadingsFor("k1")

	msgs := conn.Published()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Channel, "/d/k1/") {
		t.Errorf("published wrong device: %q", msgs[0].Channel)
	}
}

func TestDataService_PublishAlarms(t *testing.T) {
	s, conn, store := newDataService(t)

	s.AddAlarm("k1", model.Alarm{Reference: "HT", Active: true, RTC: 1})
	s.PublishAlarms()

	msgs := conn.PublishedOn("d2p/events/d/k1/r/HT")
	if len(msgs) != 1 {
		t.Fatalf("published %d alarm messages, want 1", len(msgs))
	}
	if !store.IsEmpty() {
		t.Error("alarm not removed after publish")
	}
}

func TestDataService_PublishActuatorStatuses_ReplaceOnPut(t *testing.T) {
	s, conn, _ := newDataService(t)

	s.AddActuatorStatus("k1", model.ActuatorStatus{Reference: "SW", Value: "false", State: model.ActuatorStateReady})
	s.AddActuatorStatus("k1", model.ActuatorStatus{Reference: "SW", Value: "true", State: model.ActuatorStateReady})
	s.PublishActuatorStatuses()

	msgs := conn.PublishedOn("d2p/actuator_status/d/k1/r/SW")
	if len(msgs) != 1 {
		t.Fatalf("published %d status messages, want 1", len(msgs))
	}
	if string(msgs[0].Payload) != `{"value":"true","status":"READY"}` {
		t.Errorf("payload = %s, want the latest value", msgs[0].Payload)
	}
}

func TestDataService_PublishConfigurations(t *testing.T) {
	s, conn, store := newDataService(t)

	s.AddConfiguration("k1", []model.ConfigurationItem{{Reference: "RI", Values: []string{"60"}}})
	s.PublishConfigurations()

	if len(conn.PublishedOn("d2p/configuration_get/d/k1")) != 1 {
		t.Fatal("configuration snapshot not published")
	}
	if !store.IsEmpty() {
		t.Error("snapshot not removed after publish")
	}
}

func TestDataService_MessageReceived_ActuatorSet(t *testing.T) {
	s, _, _ := newDataService(t)

	var gotKey, gotRef, gotValue string
	s.SetActuationHandler(func(deviceKey string, cmd *protocol.ActuatorSetCommand) {
		gotKey, gotRef, gotValue = deviceKey, cmd.Reference, cmd.Value
	})

	s.MessageReceived(model.NewMessage("p2d/actuator_set/d/k1/r/SW", []byte(`{"value":"true"}`)))

	if gotKey != "k1" || gotRef != "SW" || gotValue != "true" {
		t.Errorf("handler got (%q, %q, %q)", gotKey, gotRef, gotValue)
	}
}

func TestDataService_MessageReceived_MalformedDropped(t *testing.T) {
	s, _, _ := newDataService(t)

	called := false
	s.SetActuationHandler(func(string, *protocol.ActuatorSetCommand) { called = true })

	s.MessageReceived(model.NewMessage("p2d/actuator_set/d/k1/r/SW", []byte(`not json`)))
	if called {
		t.Error("handler invoked for a malformed payload")
	}
}

func TestDataService_MessageReceived_ConfigurationSet(t *testing.T) {
	s, _, _ := newDataService(t)

	var got []model.ConfigurationItem
	s.SetConfigurationSetHandler(func(deviceKey string, items []model.ConfigurationItem) {
		got = items
	})

	s.MessageReceived(model.NewMessage("p2d/configuration_set/d/k1", []byte(`{"values":{"RI":"30"}}`)))
	if len(got) != 1 || got[0].Reference != "RI" || got[0].Values[0] != "30" {
		t.Errorf("handler got %+v", got)
	}
}
