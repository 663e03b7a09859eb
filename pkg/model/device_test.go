package model

import (
	"reflect"
	"testing"
)

func TestDeviceTemplate_Lookups(t *testing.T) {
	tpl := DeviceTemplate{
		Sensors:   []SensorTemplate{{Name: "Temperature", Reference: "T"}},
		Actuators: []ActuatorTemplate{{Name: "Switch", Reference: "SW", DataType: DataTypeBoolean}},
		Alarms:    []AlarmTemplate{{Name: "High Temp", Reference: "HT"}},
		Configurations: []ConfigurationTemplate{
			{Name: "Interval", Reference: "RI", DataType: DataTypeNumeric},
		},
	}

	if !tpl.HasSensor("T") || tpl.HasSensor("X") {
		t.Error("sensor lookup wrong")
	}
	if !tpl.HasActuator("SW") || tpl.HasActuator("T") {
		t.Error("actuator lookup wrong")
	}
	if !tpl.HasAlarm("HT") || !tpl.HasConfiguration("RI") {
		t.Error("alarm or configuration lookup wrong")
	}

	if got := tpl.ActuatorReferences(); !reflect.DeepEqual(got, []string{"SW"}) {
		t.Errorf("ActuatorReferences() = %v", got)
	}
}

func TestDeviceTemplate_AddSkipsDuplicates(t *testing.T) {
	tpl := DeviceTemplate{}

	tpl.AddSensor(SensorTemplate{Name: "Temperature", Reference: "T"})
	tpl.AddSensor(SensorTemplate{Name: "Different Name", Reference: "T"})
	if len(tpl.Sensors) != 1 || tpl.Sensors[0].Name != "Temperature" {
		t.Errorf("AddSensor duplicate handling wrong: %+v", tpl.Sensors)
	}

	tpl.AddActuator(ActuatorTemplate{Reference: "SW"})
	tpl.AddActuator(ActuatorTemplate{Reference: "SW"})
	if len(tpl.Actuators) != 1 {
		t.Errorf("AddActuator duplicate handling wrong: %+v", tpl.Actuators)
	}
}

func TestConfigurationTemplate_Equal(t *testing.T) {
	a := ConfigurationTemplate{Name: "X", Reference: "R", DataType: DataTypeString, Labels: []string{"l1", "l2"}}
	b := a

	if !a.Equal(b) {
		t.Error("identical templates not equal")
	}

	b.Labels = []string{"l2", "l1"}
	if a.Equal(b) {
		t.Error("label order ignored")
	}

	b = a
	b.DefaultValue = "other"
	if a.Equal(b) {
		t.Error("default value ignored")
	}
}
