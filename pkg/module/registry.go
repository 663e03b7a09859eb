package module

import (
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/util"
)

// registry is the subdevice set and capability index. It is touched only
// from the pipeline consumer, so it carries no lock.
type registry struct {
	devices map[string]*model.Device
	order   []string
}

func newRegistry() *registry {
	return &registry{devices: make(map[string]*model.Device)}
}

func (r *registry) deviceExists(deviceKey string) bool {
	_, ok := r.devices[deviceKey]
	return ok
}

func (r *registry) device(deviceKey string) (*model.Device, bool) {
	d, ok := r.devices[deviceKey]
	return d, ok
}

// add inserts a new device. Reports false when the key already exists.
func (r *registry) add(device *model.Device) bool {
	if _, ok := r.devices[device.Key]; ok {
		return false
	}
	r.devices[device.Key] = device
	r.order = append(r.order, device.Key)
	return true
}

// remove deletes a device. Removing an unknown key is a no-op.
func (r *registry) remove(deviceKey string) {
	if _, ok := r.devices[deviceKey]; !ok {
		return
	}
	delete(r.devices, deviceKey)
	for i, key := range r.order {
		if key == deviceKey {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// deviceKeys returns the registered keys in registration order.
func (r *registry) deviceKeys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *registry) sensorDefined(deviceKey, reference string) bool {
	d, ok := r.devices[deviceKey]
	return ok && d.Template.HasSensor(reference)
}

func (r *registry) actuatorDefined(deviceKey, reference string) bool {
	d, ok := r.devices[deviceKey]
	return ok && d.Template.HasActuator(reference)
}

func (r *registry) alarmDefined(deviceKey, reference string) bool {
	d, ok := r.devices[deviceKey]
	return ok && d.Template.HasAlarm(reference)
}

func (r *registry) configurationDefined(deviceKey, reference string) bool {
	d, ok := r.devices[deviceKey]
	return ok && d.Template.HasConfiguration(reference)
}

func (r *registry) actuatorReferences(deviceKey string) []string {
	d, ok := r.devices[deviceKey]
	if !ok {
		return nil
	}
	return d.ActuatorReferences()
}

// validateAssets checks incoming templates against a device's existing
// ones. A template whose reference is already registered must be
// structurally equal to the registered one; any mismatch rejects the
// whole update.
func (r *registry) validateAssets(deviceKey string, configs []model.ConfigurationTemplate,
	sensors []model.SensorTemplate, alarms []model.AlarmTemplate,
	actuators []model.ActuatorTemplate) error {

	d, ok := r.devices[deviceKey]
	if !ok {
		return &util.NotFoundError{Resource: "device", Name: deviceKey}
	}

	v := &util.ValidationBuilder{}
	for _, c := range configs {
		if existing, ok := d.Template.ConfigurationByReference(c.Reference); ok && !existing.Equal(c) {
			v.AddErrorf("configuration '%s' conflicts with the registered template", c.Reference)
		}
	}
	for _, s := range sensors {
		if existing, ok := d.Template.SensorByReference(s.Reference); ok && existing != s {
			v.AddErrorf("sensor '%s' conflicts with the registered template", s.Reference)
		}
	}
	for _, a := range alarms {
		if existing, ok := d.Template.AlarmByReference(a.Reference); ok && existing != a {
			v.AddErrorf("alarm '%s' conflicts with the registered template", a.Reference)
		}
	}
	for _, a := range actuators {
		if existing, ok := d.Template.ActuatorByReference(a.Reference); ok && existing != a {
			v.AddErrorf("actuator '%s' conflicts with the registered template", a.Reference)
		}
	}
	return v.Build()
}

// appendAssets grows a device's template with the missing-by-reference
// incoming templates. Callers must validate first.
func (r *registry) appendAssets(deviceKey string, configs []model.ConfigurationTemplate,
	sensors []model.SensorTemplate, alarms []model.AlarmTemplate,
	actuators []model.ActuatorTemplate) {

	d, ok := r.devices[deviceKey]
	if !ok {
		return
	}
	for _, c := range configs {
		d.Template.AddConfiguration(c)
	}
	for _, s := range sensors {
		d.Template.AddSensor(s)
	}
	for _, a := range alarms {
		d.Template.AddAlarm(a)
	}
	for _, a := range actuators {
		d.Template.AddActuator(a)
	}
}
