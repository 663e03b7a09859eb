// Package model defines the domain types carried through the module:
// subdevices and their capability templates, readings, statuses, firmware
// commands, and the wire Message envelope.
package model

// DataType enumerates the value types an actuator or configuration item accepts.
type DataType string

const (
	DataTypeBoolean DataType = "BOOLEAN"
	DataTypeNumeric DataType = "NUMERIC"
	DataTypeString  DataType = "STRING"
)

// SensorTemplate describes one sensor capability of a subdevice.
type SensorTemplate struct {
	Name        string  `json:"name" yaml:"name"`
	Reference   string  `json:"reference" yaml:"reference"`
	ReadingType string  `json:"readingType,omitempty" yaml:"readingType,omitempty"`
	Unit        string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Minimum     float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum     float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
}

// ActuatorTemplate describes one actuator capability of a subdevice.
type ActuatorTemplate struct {
	Name        string   `json:"name" yaml:"name"`
	Reference   string   `json:"reference" yaml:"reference"`
	DataType    DataType `json:"dataType" yaml:"dataType"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Minimum     float64  `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum     float64  `json:"maximum,omitempty" yaml:"maximum,omitempty"`
}

// AlarmTemplate describes one alarm capability of a subdevice.
type AlarmTemplate struct {
	Name        string `json:"name" yaml:"name"`
	Reference   string `json:"reference" yaml:"reference"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ConfigurationTemplate describes one configuration item of a subdevice.
type ConfigurationTemplate struct {
	Name         string   `json:"name" yaml:"name"`
	Reference    string   `json:"reference" yaml:"reference"`
	DataType     DataType `json:"dataType" yaml:"dataType"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	DefaultValue string   `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Labels       []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Minimum      float64  `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum      float64  `json:"maximum,omitempty" yaml:"maximum,omitempty"`
}

// Equal reports structural equality, including label order.
func (c ConfigurationTemplate) Equal(other ConfigurationTemplate) bool {
	if c.Name != other.Name || c.Reference != other.Reference ||
		c.DataType != other.DataType || c.Description != other.Description ||
		c.DefaultValue != other.DefaultValue ||
		c.Minimum != other.Minimum || c.Maximum != other.Maximum {
		return false
	}
	if len(c.Labels) != len(other.Labels) {
		return false
	}
	for i := range c.Labels {
		if c.Labels[i] != other.Labels[i] {
			return false
		}
	}
	return true
}

// DeviceTemplate is the full capability description of a subdevice.
// References are unique within each capability kind.
type DeviceTemplate struct {
	Sensors        []SensorTemplate        `json:"sensors,omitempty" yaml:"sensors,omitempty"`
	Actuators      []ActuatorTemplate      `json:"actuators,omitempty" yaml:"actuators,omitempty"`
	Alarms         []AlarmTemplate         `json:"alarms,omitempty" yaml:"alarms,omitempty"`
	Configurations []ConfigurationTemplate `json:"configurations,omitempty" yaml:"configurations,omitempty"`
}

// SensorByReference returns the sensor template with the given reference.
func (t *DeviceTemplate) SensorByReference(reference string) (SensorTemplate, bool) {
	for _, s := range t.Sensors {
		if s.Reference == reference {
			return s, true
		}
	}
	return SensorTemplate{}, false
}

// ActuatorByReference returns the actuator template with the given reference.
func (t *DeviceTemplate) ActuatorByReference(reference string) (ActuatorTemplate, bool) {
	for _, a := range t.Actuators {
		if a.Reference == reference {
			return a, true
		}
	}
	return ActuatorTemplate{}, false
}

// AlarmByReference returns the alarm template with the given reference.
func (t *DeviceTemplate) AlarmByReference(reference string) (AlarmTemplate, bool) {
	for _, a := range t.Alarms {
		if a.Reference == reference {
			return a, true
		}
	}
	return AlarmTemplate{}, false
}

// ConfigurationByReference returns the configuration template with the given reference.
func (t *DeviceTemplate) ConfigurationByReference(reference string) (ConfigurationTemplate, bool) {
	for _, c := range t.Configurations {
		if c.Reference == reference {
			return c, true
		}
	}
	return ConfigurationTemplate{}, false
}

// HasSensor reports whether a sensor with the reference exists.
func (t *DeviceTemplate) HasSensor(reference string) bool {
	_, ok := t.SensorByReference(reference)
	return ok
}

// HasActuator reports whether an actuator with the reference exists.
func (t *DeviceTemplate) HasActuator(reference string) bool {
	_, ok := t.ActuatorByReference(reference)
	return ok
}

// HasAlarm reports whether an alarm with the reference exists.
func (t *DeviceTemplate) HasAlarm(reference string) bool {
	_, ok := t.AlarmByReference(reference)
	return ok
}

// HasConfiguration reports whether a configuration item with the reference exists.
func (t *DeviceTemplate) HasConfiguration(reference string) bool {
	_, ok := t.ConfigurationByReference(reference)
	return ok
}

// AddSensor appends a sensor template if its reference is not present.
func (t *DeviceTemplate) AddSensor(s SensorTemplate) {
	if !t.HasSensor(s.Reference) {
		t.Sensors = append(t.Sensors, s)
	}
}

// AddActuator appends an actuator template if its reference is not present.
func (t *DeviceTemplate) AddActuator(a ActuatorTemplate) {
	if !t.HasActuator(a.Reference) {
		t.Actuators = append(t.Actuators, a)
	}
}

// AddAlarm appends an alarm template if its reference is not present.
func (t *DeviceTemplate) AddAlarm(a AlarmTemplate) {
	if !t.HasAlarm(a.Reference) {
		t.Alarms = append(t.Alarms, a)
	}
}

// AddConfiguration appends a configuration template if its reference is not present.
func (t *DeviceTemplate) AddConfiguration(c ConfigurationTemplate) {
	if !t.HasConfiguration(c.Reference) {
		t.Configurations = append(t.Configurations, c)
	}
}

// ActuatorReferences returns the actuator references in template order.
func (t *DeviceTemplate) ActuatorReferences() []string {
	refs := make([]string, 0, len(t.Actuators))
	for _, a := range t.Actuators {
		refs = append(refs, a.Reference)
	}
	return refs
}

// Device is a logical subdevice proxied by the module. Key is the unique
// identity used on every wire channel and is immutable once registered.
type Device struct {
	Name     string         `json:"name" yaml:"name"`
	Key      string         `json:"key" yaml:"key"`
	Template DeviceTemplate `json:"template" yaml:"template"`
}

// ActuatorReferences returns the device's actuator references.
func (d *Device) ActuatorReferences() []string {
	return d.Template.ActuatorReferences()
}
