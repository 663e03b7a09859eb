// Package gatewaycfg loads the module host configuration: bus URI plus
// the subdevice descriptors the host proxies. JSON and YAML are accepted,
// chosen by file extension.
package gatewaycfg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/util"
)

// Config is the host configuration file shape.
type Config struct {
	// Name identifies the module session on the bus.
	Name string `json:"name" yaml:"name"`

	// Host is the bus URI, e.g. "tcp://localhost:1883".
	Host string `json:"host" yaml:"host"`

	// LogLevel is a logrus level name; empty means "info".
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// Devices are the subdevices registered at startup.
	Devices []model.Device `json:"devices" yaml:"devices"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the structural invariants of the configuration.
func (c *Config) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(c.Host != "", "host must not be empty")
	v.Add(c.Name != "", "name must not be empty")

	seen := make(map[string]struct{})
	for i, d := range c.Devices {
		if d.Key == "" {
			v.AddErrorf("device %d has no key", i)
			continue
		}
		if strings.Contains(d.Key, "+") || strings.Contains(d.Key, "/") {
			v.AddErrorf("device key '%s' contains a reserved character", d.Key)
		}
		if _, dup := seen[d.Key]; dup {
			v.AddErrorf("duplicate device key '%s'", d.Key)
		}
		seen[d.Key] = struct{}{}
	}
	if err := v.Build(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	return nil
}
