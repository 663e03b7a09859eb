// Subgate - gateway subdevice module host
//
// Runs a device module that proxies a set of logical subdevices onto the
// local gateway message bus. Subdevices, their capability templates and
// the bus URI come from a JSON or YAML configuration file.
//
// The bundled host wires simulated callbacks: actuator writes land in an
// in-memory table that the status provider reads back, and configuration
// items start from their template defaults. Real deployments supply their
// own handlers through the module builder API.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/subgate-io/subgate/pkg/gatewaycfg"
	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/module"
	"github.com/subgate-io/subgate/pkg/persistence"
	"github.com/subgate-io/subgate/pkg/util"
	"github.com/subgate-io/subgate/pkg/version"
)

var (
	configPath string
	hostFlag   string
	logLevel   string
	jsonLogs   bool
	redisAddr  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "subgate",
	Short:         "Gateway subdevice module host",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the module against the local gateway bus",
	RunE:  runModule,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("subgate " + version.Info())
	},
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "subgate.json", "module configuration file (JSON or YAML)")
	runCmd.Flags().StringVar(&hostFlag, "host", "", "override the bus URI from the configuration")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "override the log level from the configuration")
	runCmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
	runCmd.Flags().StringVar(&redisAddr, "redis", "", "persist unpublished data in Redis at this address")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func runModule(cmd *cobra.Command, args []string) error {
	cfg, err := gatewaycfg.Load(configPath)
	if err != nil {
		return err
	}
	if hostFlag != "" {
		cfg.Host = hostFlag
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if cfg.LogLevel != "" {
		if err := util.SetLogLevel(cfg.LogLevel); err != nil {
			return err
		}
	}
	if jsonLogs {
		util.SetJSONFormat()
	}

	host := newSimulatedHost(cfg.Devices)

	builder := module.NewBuilder().
		Host(cfg.Host).
		ClientID(cfg.Name).
		ActuationHandler(host.handleActuation).
		ActuatorStatusProvider(host.actuatorStatus).
		ConfigurationHandler(host.handleConfiguration).
		ConfigurationProvider(host.configuration).
		DeviceStatusProvider(host.deviceStatus).
		PlatformStatusListener(func(status model.PlatformStatus) {
			util.Infof("platform link is %s", status)
		})

	if redisAddr != "" {
		store := persistence.NewRedisStoreAddr(redisAddr)
		if err := store.Ping(); err != nil {
			return fmt.Errorf("redis at %s: %w", redisAddr, err)
		}
		defer store.Close()
		builder.Persistence(store)
	}

	m, err := builder.Build()
	if err != nil {
		return err
	}

	for _, device := range cfg.Devices {
		m.AddDevice(device)
	}
	m.Connect(true)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	util.Info("shutting down")
	m.Stop()
	return nil
}

// ============================================================================
// Simulated host callbacks
// ============================================================================

// simulatedHost backs the module callbacks with in-memory state derived
// from the configured device templates.
type simulatedHost struct {
	mu        sync.Mutex
	actuators map[string]string                    // "<key>+<ref>" -> value
	configs   map[string][]model.ConfigurationItem // key -> snapshot
}

func newSimulatedHost(devices []model.Device) *simulatedHost {
	h := &simulatedHost{
		actuators: make(map[string]string),
		configs:   make(map[string][]model.ConfigurationItem),
	}
	for _, d := range devices {
		for _, a := range d.Template.Actuators {
			h.actuators[persistence.MakeKey(d.Key, a.Reference)] = ""
		}
		var items []model.ConfigurationItem
		for _, c := range d.Template.Configurations {
			items = append(items, model.ConfigurationItem{
				Reference: c.Reference,
				Values:    []string{c.DefaultValue},
			})
		}
		if len(items) > 0 {
			h.configs[d.Key] = items
		}
	}
	return h
}

func (h *simulatedHost) handleActuation(deviceKey, reference, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actuators[persistence.MakeKey(deviceKey, reference)] = value
	util.WithDevice(deviceKey).Infof("actuator %s set to %q", reference, value)
}

func (h *simulatedHost) actuatorStatus(deviceKey, reference string) model.ActuatorStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return model.ActuatorStatus{
		Reference: reference,
		Value:     h.actuators[persistence.MakeKey(deviceKey, reference)],
		State:     model.ActuatorStateReady,
	}
}

func (h *simulatedHost) handleConfiguration(deviceKey string, items []model.ConfigurationItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	snapshot := h.configs[deviceKey]
	for _, incoming := range items {
		replaced := false
		for i, existing := range snapshot {
			if existing.Reference == incoming.Reference {
				snapshot[i] = incoming
				replaced = true
				break
			}
		}
		if !replaced {
			snapshot = append(snapshot, incoming)
		}
	}
	h.configs[deviceKey] = snapshot
	util.WithDevice(deviceKey).Infof("configuration updated (%d items)", len(items))
}

func (h *simulatedHost) configuration(deviceKey string) []model.ConfigurationItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	items := h.configs[deviceKey]
	out := make([]model.ConfigurationItem, len(items))
	copy(out, items)
	return out
}

func (h *simulatedHost) deviceStatus(deviceKey string) model.DeviceStatus {
	return model.DeviceStatusConnected
}
