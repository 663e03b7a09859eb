package persistence

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/util"
)

// Redis key layout, all under one namespace:
//
//	<ns>:reading:<composite>  LIST of JSON readings (FIFO)
//	<ns>:alarm:<composite>    LIST of JSON alarms (FIFO)
//	<ns>:astatus:<composite>  STRING, JSON actuator status (replace-on-put)
//	<ns>:config:<deviceKey>   STRING, JSON snapshot (replace-on-put)
//	<ns>:keys:<kind>          LIST of outstanding keys in insertion order
//	<ns>:keyset:<kind>        SET mirroring the list, for dedup
const defaultNamespace = "subgate"

// RedisStore is a Store backed by Redis lists, surviving host restarts.
// Put operations are total: Redis errors are logged and the item is
// dropped rather than surfaced to the producer.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	ns     string
}

// NewRedisStore creates a store on an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ctx: context.Background(), ns: defaultNamespace}
}

// NewRedisStoreAddr dials addr (host:port) and creates a store on it.
func NewRedisStoreAddr(addr string) *RedisStore {
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}))
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping() error {
	return s.client.Ping(s.ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) dataKey(kind, key string) string {
	return s.ns + ":" + kind + ":" + key
}

func (s *RedisStore) indexKey(kind string) string {
	return s.ns + ":keys:" + kind
}

func (s *RedisStore) indexSetKey(kind string) string {
	return s.ns + ":keyset:" + kind
}

// trackKey records key in the kind's insertion-ordered index, once.
func (s *RedisStore) trackKey(kind, key string) {
	added, err := s.client.SAdd(s.ctx, s.indexSetKey(kind), key).Result()
	if err != nil {
		util.Warnf("redis persistence: track key %s/%s: %v", kind, key, err)
		return
	}
	if added == 1 {
		if err := s.client.RPush(s.ctx, s.indexKey(kind), key).Err(); err != nil {
			util.Warnf("redis persistence: index key %s/%s: %v", kind, key, err)
		}
	}
}

// untrackKey drops key from the kind's index.
func (s *RedisStore) untrackKey(kind, key string) {
	s.client.SRem(s.ctx, s.indexSetKey(kind), key)
	s.client.LRem(s.ctx, s.indexKey(kind), 0, key)
}

func (s *RedisStore) keys(kind string) []string {
	keys, err := s.client.LRange(s.ctx, s.indexKey(kind), 0, -1).Result()
	if err != nil {
		util.Warnf("redis persistence: list %s keys: %v", kind, err)
		return nil
	}
	return keys
}

func (s *RedisStore) pushJSON(kind, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		util.Warnf("redis persistence: marshal %s item: %v", kind, err)
		return
	}
	if err := s.client.RPush(s.ctx, s.dataKey(kind, key), data).Err(); err != nil {
		util.Warnf("redis persistence: put %s item for %s: %v", kind, key, err)
		return
	}
	s.trackKey(kind, key)
}

func (s *RedisStore) rangeJSON(kind, key string, n int) [][]byte {
	if n <= 0 {
		return nil
	}
	rows, err := s.client.LRange(s.ctx, s.dataKey(kind, key), 0, int64(n-1)).Result()
	if err != nil {
		util.Warnf("redis persistence: get %s items for %s: %v", kind, key, err)
		return nil
	}
	out := make([][]byte, len(rows))
	for i, r := range rows {
		out[i] = []byte(r)
	}
	return out
}

func (s *RedisStore) trimFront(kind, key string, n int) {
	dk := s.dataKey(kind, key)
	if err := s.client.LTrim(s.ctx, dk, int64(n), -1).Err(); err != nil {
		util.Warnf("redis persistence: remove %s items for %s: %v", kind, key, err)
		return
	}
	remaining, err := s.client.LLen(s.ctx, dk).Result()
	if err == nil && remaining == 0 {
		s.untrackKey(kind, key)
	}
}

// PutSensorReading appends a reading to the key's Redis list.
func (s *RedisStore) PutSensorReading(key string, reading model.SensorReading) {
	s.pushJSON("reading", key, reading)
}

// SensorReadings returns up to n readings from the front of the key's list.
func (s *RedisStore) SensorReadings(key string, n int) []model.SensorReading {
	rows := s.rangeJSON("reading", key, n)
	out := make([]model.SensorReading, 0, len(rows))
	for _, row := range rows {
		var r model.SensorReading
		if err := json.Unmarshal(row, &r); err != nil {
			util.Warnf("redis persistence: decode reading for %s: %v", key, err)
			continue
		}
		out = append(out, r)
	}
	return out
}

// RemoveSensorReadings pops up to n readings from the front of the key's list.
func (s *RedisStore) RemoveSensorReadings(key string, n int) {
	s.trimFront("reading", key, n)
}

// SensorReadingsKeys returns outstanding reading keys in insertion order.
func (s *RedisStore) SensorReadingsKeys() []string {
	return s.keys("reading")
}

// PutAlarm appends an alarm to the key's Redis list.
func (s *RedisStore) PutAlarm(key string, alarm model.Alarm) {
	s.pushJSON("alarm", key, alarm)
}

// Alarms returns up to n alarms from the front of the key's list.
func (s *RedisStore) Alarms(key string, n int) []model.Alarm {
	rows := s.rangeJSON("alarm", key, n)
	out := make([]model.Alarm, 0, len(rows))
	for _, row := range rows {
		var a model.Alarm
		if err := json.Unmarshal(row, &a); err != nil {
			util.Warnf("redis persistence: decode alarm for %s: %v", key, err)
			continue
		}
		out = append(out, a)
	}
	return out
}

// RemoveAlarms pops up to n alarms from the front of the key's list.
func (s *RedisStore) RemoveAlarms(key string, n int) {
	s.trimFront("alarm", key, n)
}

// AlarmsKeys returns outstanding alarm keys in insertion order.
func (s *RedisStore) AlarmsKeys() []string {
	return s.keys("alarm")
}

// PutActuatorStatus stores the status for the key, replacing any previous one.
func (s *RedisStore) PutActuatorStatus(key string, status model.ActuatorStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		util.Warnf("redis persistence: marshal actuator status: %v", err)
		return
	}
	if err := s.client.Set(s.ctx, s.dataKey("astatus", key), data, 0).Err(); err != nil {
		util.Warnf("redis persistence: put actuator status for %s: %v", key, err)
		return
	}
	s.trackKey("astatus", key)
}

// ActuatorStatus returns the stored status for the key.
func (s *RedisStore) ActuatorStatus(key string) (model.ActuatorStatus, bool) {
	data, err := s.client.Get(s.ctx, s.dataKey("astatus", key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			util.Warnf("redis persistence: get actuator status for %s: %v", key, err)
		}
		return model.ActuatorStatus{}, false
	}
	var st model.ActuatorStatus
	if err := json.Unmarshal(data, &st); err != nil {
		util.Warnf("redis persistence: decode actuator status for %s: %v", key, err)
		return model.ActuatorStatus{}, false
	}
	return st, true
}

// RemoveActuatorStatus deletes the stored status for the key.
func (s *RedisStore) RemoveActuatorStatus(key string) {
	if err := s.client.Del(s.ctx, s.dataKey("astatus", key)).Err(); err != nil {
		util.Warnf("redis persistence: remove actuator status for %s: %v", key, err)
		return
	}
	s.untrackKey("astatus", key)
}

// ActuatorStatusKeys returns outstanding status keys in insertion order.
func (s *RedisStore) ActuatorStatusKeys() []string {
	return s.keys("astatus")
}

// PutConfiguration stores the device's snapshot, replacing any previous one.
func (s *RedisStore) PutConfiguration(deviceKey string, items []model.ConfigurationItem) {
	data, err := json.Marshal(items)
	if err != nil {
		util.Warnf("redis persistence: marshal configuration: %v", err)
		return
	}
	if err := s.client.Set(s.ctx, s.dataKey("config", deviceKey), data, 0).Err(); err != nil {
		util.Warnf("redis persistence: put configuration for %s: %v", deviceKey, err)
		return
	}
	s.trackKey("config", deviceKey)
}

// Configuration returns the stored snapshot for the device.
func (s *RedisStore) Configuration(deviceKey string) ([]model.ConfigurationItem, bool) {
	data, err := s.client.Get(s.ctx, s.dataKey("config", deviceKey)).Bytes()
	if err != nil {
		if err != redis.Nil {
			util.Warnf("redis persistence: get configuration for %s: %v", deviceKey, err)
		}
		return nil, false
	}
	var items []model.ConfigurationItem
	if err := json.Unmarshal(data, &items); err != nil {
		util.Warnf("redis persistence: decode configuration for %s: %v", deviceKey, err)
		return nil, false
	}
	return items, true
}

// RemoveConfiguration deletes the stored snapshot for the device.
func (s *RedisStore) RemoveConfiguration(deviceKey string) {
	if err := s.client.Del(s.ctx, s.dataKey("config", deviceKey)).Err(); err != nil {
		util.Warnf("redis persistence: remove configuration for %s: %v", deviceKey, err)
		return
	}
	s.untrackKey("config", deviceKey)
}

// ConfigurationKeys returns outstanding snapshot keys in insertion order.
func (s *RedisStore) ConfigurationKeys() []string {
	return s.keys("config")
}

// IsEmpty reports whether no items of any kind remain.
func (s *RedisStore) IsEmpty() bool {
	for _, kind := range []string{"reading", "alarm", "astatus", "config"} {
		n, err := s.client.LLen(s.ctx, s.indexKey(kind)).Result()
		if err != nil {
			util.Warnf("redis persistence: count %s keys: %v", kind, err)
			continue
		}
		if n > 0 {
			return false
		}
	}
	return true
}
