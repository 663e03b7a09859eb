package gatewaycfg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/util"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "module.json", `{
		"name": "subgate",
		"host": "tcp://localhost:1883",
		"logLevel": "debug",
		"devices": [
			{
				"name": "Thermostat",
				"key": "DEVICE_KEY_1",
				"template": {
					"sensors": [{"name": "Temperature", "reference": "T"}]
				}
			}
		]
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "subgate" || cfg.Host != "tcp://localhost:1883" || cfg.LogLevel != "debug" {
		t.Errorf("loaded %+v", cfg)
	}
	if len(cfg.Devices) != 1 || cfg.Devices[0].Key != "DEVICE_KEY_1" {
		t.Fatalf("devices = %+v", cfg.Devices)
	}
	if !cfg.Devices[0].Template.HasSensor("T") {
		t.Error("sensor template not loaded")
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "module.yaml", `
name: subgate
host: tcp://localhost:1883
devices:
  - name: Thermostat
    key: DEVICE_KEY_1
    template:
      actuators:
        - name: Switch
          reference: SW
          dataType: BOOLEAN
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Devices) != 1 || !cfg.Devices[0].Template.HasActuator("SW") {
		t.Errorf("devices = %+v", cfg.Devices)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Load accepted a missing file")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeConfig(t, "broken.json", `{not json`)
	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed JSON")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Name: "subgate",
			Host: "tcp://localhost:1883",
			Devices: []model.Device{
				{Name: "A", Key: "KEY_A"},
				{Name: "B", Key: "KEY_B"},
			},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"empty host", func(c *Config) { c.Host = "" }, "host"},
		{"empty name", func(c *Config) { c.Name = "" }, "name"},
		{"empty device key", func(c *Config) { c.Devices[0].Key = "" }, "no key"},
		{"reserved wildcard", func(c *Config) { c.Devices[0].Key = "KEY+A" }, "reserved"},
		{"reserved delimiter", func(c *Config) { c.Devices[0].Key = "KEY/A" }, "reserved"},
		{"duplicate key", func(c *Config) { c.Devices[1].Key = "KEY_A" }, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted the config")
			}
			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}
