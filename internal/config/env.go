package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "queuelip"

// EnvOverrides holds QUEUELIP_* variables. Unset variables stay nil and leave
// the file/default value alone.
//
// Keys come from split_words rather than envconfig tags: a tag also matches
// the unprefixed name, and DISPLAY is always set under X.
type EnvOverrides struct {
	Backend           *string        `split_words:"true"`
	Display           *string        `split_words:"true"`
	LogLevel          *string        `split_words:"true"`
	LogDev            *bool          `split_words:"true"`
	BridgeAddr        *string        `split_words:"true"`
	BridgeEnabled     *bool          `split_words:"true"`
	ExitGrace         *time.Duration `split_words:"true"`
	PopupCloseDelay   *time.Duration `split_words:"true"`
	ReconcileInterval *time.Duration `split_words:"true"`
}

// ApplyEnv reads QUEUELIP_* overrides into cfg and returns the config paths
// they touched.
func ApplyEnv(cfg *Config) (map[string]Source, error) {
	var env EnvOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	return env.apply(cfg), nil
}

func (e EnvOverrides) apply(cfg *Config) map[string]Source {
	sources := map[string]Source{}
	set := func(path, name string) {
		sources[path] = Source{Kind: SourceEnv, Name: "QUEUELIP_" + name}
	}

	if e.Backend != nil {
		cfg.Backend = *e.Backend
		set("backend", "BACKEND")
	}
	if e.Display != nil {
		cfg.Display = *e.Display
		set("display", "DISPLAY")
	}
	if e.LogLevel != nil {
		cfg.Logging.Level = *e.LogLevel
		set("logging.level", "LOG_LEVEL")
	}
	if e.LogDev != nil {
		cfg.Logging.Development = *e.LogDev
		set("logging.development", "LOG_DEV")
	}
	if e.BridgeAddr != nil {
		cfg.Bridge.Listen = *e.BridgeAddr
		set("bridge.listen", "BRIDGE_ADDR")
	}
	if e.BridgeEnabled != nil {
		cfg.Bridge.Enabled = *e.BridgeEnabled
		set("bridge.enabled", "BRIDGE_ENABLED")
	}
	if e.ExitGrace != nil {
		cfg.ExitGrace = *e.ExitGrace
		set("exit_grace", "EXIT_GRACE")
	}
	if e.PopupCloseDelay != nil {
		cfg.PopupCloseDelay = *e.PopupCloseDelay
		set("popup_close_delay", "POPUP_CLOSE_DELAY")
	}
	if e.ReconcileInterval != nil {
		cfg.ReconcileInterval = *e.ReconcileInterval
		set("reconcile_interval", "RECONCILE_INTERVAL")
	}
	return sources
}
