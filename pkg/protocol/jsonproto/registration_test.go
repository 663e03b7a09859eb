package jsonproto

import (
	"encoding/json"
	"testing"

	"github.com/subgate-io/subgate/pkg/model"
)

func TestRegistration_RequestMessage(t *testing.T) {
	r := NewRegistration()

	device := &model.Device{
		Name: "Thermostat",
		Key:  "DEVICE_KEY_1",
		Template: model.DeviceTemplate{
			Sensors: []model.SensorTemplate{{Name: "Temperature", Reference: "T"}},
		},
	}
	msg, err := r.RegistrationRequestMessage(device)
	if err != nil {
		t.Fatalf("RegistrationRequestMessage() error: %v", err)
	}
	if msg.Channel != "d2p/register_subdevice/d/DEVICE_KEY_1" {
		t.Errorf("channel = %q", msg.Channel)
	}

	var envelope struct {
		Device struct {
			Name     string               `json:"name"`
			Key      string               `json:"key"`
			Template model.DeviceTemplate `json:"template"`
		} `json:"device"`
	}
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if envelope.Device.Key != "DEVICE_KEY_1" || len(envelope.Device.Template.Sensors) != 1 {
		t.Errorf("envelope = %+v", envelope)
	}

	parsed, err := r.ParseRegistrationRequest(msg)
	if err != nil || parsed.Key != device.Key || parsed.Name != device.Name {
		t.Errorf("round trip = %+v, err %v", parsed, err)
	}
}

func TestRegistration_RequestMessage_Rejects(t *testing.T) {
	r := NewRegistration()

	if _, err := r.RegistrationRequestMessage(nil); err == nil {
		t.Error("nil device accepted")
	}
	if _, err := r.RegistrationRequestMessage(&model.Device{Name: "x"}); err == nil {
		t.Error("empty key accepted")
	}
}

func TestRegistration_UpdateRequestMessage(t *testing.T) {
	r := NewRegistration()

	msg, err := r.UpdateRequestMessage(&model.SubdeviceUpdateRequest{
		DeviceKey: "k1",
		Sensors:   []model.SensorTemplate{{Name: "Humidity", Reference: "H"}},
	})
	if err != nil {
		t.Fatalf("UpdateRequestMessage() error: %v", err)
	}
	if msg.Channel != "d2p/update_subdevice/d/k1" {
		t.Errorf("channel = %q", msg.Channel)
	}
}

func TestRegistration_ParseResponse(t *testing.T) {
	r := NewRegistration()

	msg := model.NewMessage("p2d/register_subdevice/d/k1",
		[]byte(`{"payload":{"deviceKey":"k1"},"result":"OK"}`))
	response, err := r.ParseRegistrationResponse(msg)
	if err != nil {
		t.Fatalf("ParseRegistrationResponse() error: %v", err)
	}
	if response.DeviceKey != "k1" || response.Result != model.ResultOK {
		t.Errorf("response = %+v", response)
	}

	// Missing payload key falls back to the channel.
	msg = model.NewMessage("p2d/register_subdevice/d/k2", []byte(`{"result":"ERROR_KEY_CONFLICT"}`))
	response, err = r.ParseRegistrationResponse(msg)
	if err != nil {
		t.Fatalf("fallback parse error: %v", err)
	}
	if response.DeviceKey != "k2" || response.Result != model.ResultErrorKeyConflict {
		t.Errorf("fallback response = %+v", response)
	}

	if _, err := r.ParseRegistrationResponse(model.NewMessage("p2d/register_subdevice/d/k1", []byte(`{}`))); err == nil {
		t.Error("missing result accepted")
	}
}

func TestRegistration_Classification(t *testing.T) {
	r := NewRegistration()

	if !r.IsRegistrationResponse("p2d/register_subdevice/d/k1") {
		t.Error("registration response not recognized")
	}
	if !r.IsUpdateResponse("p2d/update_subdevice/d/k1") {
		t.Error("update response not recognized")
	}
	if r.IsRegistrationResponse("p2d/update_subdevice/d/k1") {
		t.Error("update response misclassified as registration")
	}
}
