package testutil

import "github.com/subgate-io/subgate/pkg/model"

// ThermostatDevice is a fixture subdevice with a temperature sensor, a
// pressure sensor, a switch actuator, a high-temperature alarm and a
// reporting-interval configuration item.
func ThermostatDevice() model.Device {
	return model.Device{
		Name: "Thermostat",
		Key:  "DEVICE_KEY_1",
		Template: model.DeviceTemplate{
			Sensors: []model.SensorTemplate{
				{Name: "Temperature", Reference: "T", ReadingType: "TEMPERATURE", Unit: "CELSIUS"},
				{Name: "Pressure", Reference: "P", ReadingType: "PRESSURE", Unit: "MILLIBAR"},
			},
			Actuators: []model.ActuatorTemplate{
				{Name: "Switch", Reference: "SW", DataType: model.DataTypeBoolean},
			},
			Alarms: []model.AlarmTemplate{
				{Name: "High Temperature", Reference: "HT"},
			},
			Configurations: []model.ConfigurationTemplate{
				{Name: "Reporting Interval", Reference: "RI", DataType: model.DataTypeNumeric, DefaultValue: "60"},
			},
		},
	}
}

// AccelerometerDevice is a fixture subdevice with one multi-value sensor.
func AccelerometerDevice() model.Device {
	return model.Device{
		Name: "Accelerometer",
		Key:  "DEVICE_KEY_2",
		Template: model.DeviceTemplate{
			Sensors: []model.SensorTemplate{
				{Name: "Acceleration", Reference: "ACCELEROMETER_REF", ReadingType: "ACCELEROMETER", Unit: "METRES_PER_SQUARE_SECOND"},
			},
		},
	}
}
