package jsonproto

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol"
	"github.com/subgate-io/subgate/pkg/util"
)

// multiValueJoiner separates the ordered values of a multi-value sensor
// reading inside the "data" field.
const multiValueJoiner = " "

// configValueJoiner separates the values of a multi-value configuration
// item inside the snapshot map.
const configValueJoiner = ","

// Data is the JSON data protocol: telemetry, actuation and configuration.
type Data struct{}

// NewData creates the JSON data codec.
func NewData() *Data { return &Data{} }

// InboundChannels returns the data subscriptions wildcarded over devices.
func (d *Data) InboundChannels() []string {
	return []string{
		wildcardReference(ActuatorSetRoot),
		wildcardReference(ActuatorGetRoot),
		wildcardDevice(ConfigurationSetRoot),
		wildcardDevice(ConfigurationGetRoot),
	}
}

// InboundChannelsForDevice returns the data subscriptions for one device.
func (d *Data) InboundChannelsForDevice(deviceKey string) []string {
	return []string{
		referenceChannel(ActuatorSetRoot, deviceKey, protocol.WildcardSingle),
		referenceChannel(ActuatorGetRoot, deviceKey, protocol.WildcardSingle),
		deviceChannel(ConfigurationSetRoot, deviceKey),
		deviceChannel(ConfigurationGetRoot, deviceKey),
	}
}

// ExtractDeviceKey returns the device key segment of a data channel.
func (d *Data) ExtractDeviceKey(channel string) string {
	return protocol.DeviceKeyFromChannel(channel)
}

// IsActuatorSet reports whether the channel carries an actuation request.
func (d *Data) IsActuatorSet(channel string) bool {
	return isChannelFor(ActuatorSetRoot, channel)
}

// IsActuatorGet reports whether the channel carries a status request.
func (d *Data) IsActuatorGet(channel string) bool {
	return isChannelFor(ActuatorGetRoot, channel)
}

// IsConfigurationSet reports whether the channel carries a configuration write.
func (d *Data) IsConfigurationSet(channel string) bool {
	return isChannelFor(ConfigurationSetRoot, channel)
}

// IsConfigurationGet reports whether the channel carries a configuration read.
func (d *Data) IsConfigurationGet(channel string) bool {
	return isChannelFor(ConfigurationGetRoot, channel)
}

type actuatorSetPayload struct {
	Value string `json:"value"`
}

// ParseActuatorSet decodes an inbound actuation request. The reference
// rides on the channel, the value in the payload.
func (d *Data) ParseActuatorSet(msg *model.Message) (*protocol.ActuatorSetCommand, error) {
	reference := protocol.ReferenceFromChannel(msg.Channel)
	if reference == "" {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "no reference segment"}
	}
	var p actuatorSetPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
	}
	return &protocol.ActuatorSetCommand{Reference: reference, Value: p.Value}, nil
}

// ParseActuatorGet decodes an inbound actuator status request.
func (d *Data) ParseActuatorGet(msg *model.Message) (*protocol.ActuatorGetCommand, error) {
	reference := protocol.ReferenceFromChannel(msg.Channel)
	if reference == "" {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "no reference segment"}
	}
	return &protocol.ActuatorGetCommand{Reference: reference}, nil
}

type configurationPayload struct {
	Values map[string]string `json:"values"`
}

// ParseConfigurationSet decodes an inbound configuration write. Items are
// returned in reference order (the wire map is unordered).
func (d *Data) ParseConfigurationSet(msg *model.Message) (*protocol.ConfigurationSetCommand, error) {
	var p configurationPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
	}
	if p.Values == nil {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "missing values object"}
	}
	refs := make([]string, 0, len(p.Values))
	for ref := range p.Values {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	items := make([]model.ConfigurationItem, 0, len(refs))
	for _, ref := range refs {
		items = append(items, model.ConfigurationItem{
			Reference: ref,
			Values:    strings.Split(p.Values[ref], configValueJoiner),
		})
	}
	return &protocol.ConfigurationSetCommand{Items: items}, nil
}

type readingPayload struct {
	UTC  uint64 `json:"utc"`
	Data string `json:"data"`
}

// SensorReadingsMessage encodes a batch of readings for one (device,
// reference) queue. A single reading encodes as an object, a batch as an
// array. Multi-value readings join their values with a single space.
func (d *Data) SensorReadingsMessage(deviceKey string, readings []model.SensorReading) (*model.Message, error) {
	if deviceKey == "" {
		return nil, &util.EncodeError{Kind: "sensor reading", Reason: "empty device key"}
	}
	if len(readings) == 0 {
		return nil, &util.EncodeError{Kind: "sensor reading", Reason: "no readings"}
	}
	reference := readings[0].Reference
	if reference == "" {
		return nil, &util.EncodeError{Kind: "sensor reading", Reason: "empty reference"}
	}
	payloads := make([]readingPayload, 0, len(readings))
	for _, r := range readings {
		if len(r.Values) == 0 {
			return nil, &util.EncodeError{Kind: "sensor reading", Reason: "reading with no values"}
		}
		payloads = append(payloads, readingPayload{
			UTC:  r.RTC,
			Data: strings.Join(r.Values, multiValueJoiner),
		})
	}
	var (
		body []byte
		err  error
	)
	if len(payloads) == 1 {
		body, err = json.Marshal(payloads[0])
	} else {
		body, err = json.Marshal(payloads)
	}
	if err != nil {
		return nil, &util.EncodeError{Kind: "sensor reading", Reason: err.Error()}
	}
	return model.NewMessage(referenceChannel(SensorReadingRoot, deviceKey, reference), body), nil
}

// ParseSensorReadings decodes a sensor reading message back into domain
// readings. Counterpart of SensorReadingsMessage.
func (d *Data) ParseSensorReadings(msg *model.Message) ([]model.SensorReading, error) {
	reference := protocol.ReferenceFromChannel(msg.Channel)
	if reference == "" {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "no reference segment"}
	}
	var payloads []readingPayload
	if err := json.Unmarshal(msg.Payload, &payloads); err != nil {
		var single readingPayload
		if err := json.Unmarshal(msg.Payload, &single); err != nil {
			return nil, &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
		}
		payloads = []readingPayload{single}
	}
	readings := make([]model.SensorReading, 0, len(payloads))
	for _, p := range payloads {
		readings = append(readings, model.SensorReading{
			Reference: reference,
			Values:    strings.Split(p.Data, multiValueJoiner),
			RTC:       p.UTC,
		})
	}
	return readings, nil
}

type alarmPayload struct {
	UTC    uint64 `json:"utc"`
	Active bool   `json:"active"`
}

// AlarmsMessage encodes a batch of alarms for one (device, reference) queue.
func (d *Data) AlarmsMessage(deviceKey string, alarms []model.Alarm) (*model.Message, error) {
	if deviceKey == "" {
		return nil, &util.EncodeError{Kind: "alarm", Reason: "empty device key"}
	}
	if len(alarms) == 0 {
		return nil, &util.EncodeError{Kind: "alarm", Reason: "no alarms"}
	}
	reference := alarms[0].Reference
	if reference == "" {
		return nil, &util.EncodeError{Kind: "alarm", Reason: "empty reference"}
	}
	payloads := make([]alarmPayload, 0, len(alarms))
	for _, a := range alarms {
		payloads = append(payloads, alarmPayload{UTC: a.RTC, Active: a.Active})
	}
	var (
		body []byte
		err  error
	)
	if len(payloads) == 1 {
		body, err = json.Marshal(payloads[0])
	} else {
		body, err = json.Marshal(payloads)
	}
	if err != nil {
		return nil, &util.EncodeError{Kind: "alarm", Reason: err.Error()}
	}
	return model.NewMessage(referenceChannel(EventsRoot, deviceKey, reference), body), nil
}

// ParseAlarms decodes an alarm message back into domain alarms.
func (d *Data) ParseAlarms(msg *model.Message) ([]model.Alarm, error) {
	reference := protocol.ReferenceFromChannel(msg.Channel)
	if reference == "" {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "no reference segment"}
	}
	var payloads []alarmPayload
	if err := json.Unmarshal(msg.Payload, &payloads); err != nil {
		var single alarmPayload
		if err := json.Unmarshal(msg.Payload, &single); err != nil {
			return nil, &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
		}
		payloads = []alarmPayload{single}
	}
	alarms := make([]model.Alarm, 0, len(payloads))
	for _, p := range payloads {
		alarms = append(alarms, model.Alarm{Reference: reference, Active: p.Active, RTC: p.UTC})
	}
	return alarms, nil
}

type actuatorStatusPayload struct {
	Value  string `json:"value"`
	Status string `json:"status"`
}

// ActuatorStatusMessage encodes the current status of one actuator.
func (d *Data) ActuatorStatusMessage(deviceKey string, status model.ActuatorStatus) (*model.Message, error) {
	if deviceKey == "" {
		return nil, &util.EncodeError{Kind: "actuator status", Reason: "empty device key"}
	}
	if status.Reference == "" {
		return nil, &util.EncodeError{Kind: "actuator status", Reason: "empty reference"}
	}
	body, err := json.Marshal(actuatorStatusPayload{Value: status.Value, Status: string(status.State)})
	if err != nil {
		return nil, &util.EncodeError{Kind: "actuator status", Reason: err.Error()}
	}
	return model.NewMessage(referenceChannel(ActuatorStatusRoot, deviceKey, status.Reference), body), nil
}

// ParseActuatorStatus decodes an actuator status message. Unknown state
// strings pass through untouched so newer platform vocabularies do not
// break classification.
func (d *Data) ParseActuatorStatus(msg *model.Message) (*model.ActuatorStatus, error) {
	reference := protocol.ReferenceFromChannel(msg.Channel)
	if reference == "" {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: "no reference segment"}
	}
	var p actuatorStatusPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return nil, &util.ParseError{Channel: msg.Channel, Reason: err.Error()}
	}
	return &model.ActuatorStatus{
		Reference: reference,
		Value:     p.Value,
		State:     model.ActuatorState(p.Status),
	}, nil
}

// ConfigurationMessage encodes a device's configuration snapshot. The
// wire form is a reference-to-value map; multi-values are comma-joined.
func (d *Data) ConfigurationMessage(deviceKey string, items []model.ConfigurationItem) (*model.Message, error) {
	if deviceKey == "" {
		return nil, &util.EncodeError{Kind: "configuration", Reason: "empty device key"}
	}
	values := make(map[string]string, len(items))
	for _, item := range items {
		if item.Reference == "" {
			return nil, &util.EncodeError{Kind: "configuration", Reason: "item with empty reference"}
		}
		values[item.Reference] = strings.Join(item.Values, configValueJoiner)
	}
	body, err := json.Marshal(configurationPayload{Values: values})
	if err != nil {
		return nil, &util.EncodeError{Kind: "configuration", Reason: err.Error()}
	}
	return model.NewMessage(deviceChannel(ConfigurationSendRoot, deviceKey), body), nil
}

// ParseConfiguration decodes a configuration snapshot message back into
// items ordered by reference.
func (d *Data) ParseConfiguration(msg *model.Message) ([]model.ConfigurationItem, error) {
	cmd, err := d.ParseConfigurationSet(msg)
	if err != nil {
		return nil, err
	}
	return cmd.Items, nil
}
