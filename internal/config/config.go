package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/lifecycle"
	"github.com/1broseidon/queuelip/internal/logging"
	"github.com/1broseidon/queuelip/internal/platform"
	"github.com/1broseidon/queuelip/internal/window"
)

// Window system backends.
const (
	BackendX11    = "x11"
	BackendMemory = "memory"
)

const (
	DefaultBridgeListen      = "127.0.0.1:7420"
	DefaultReconcileInterval = 5 * time.Second
)

// Chrome is the fixed creation-time configuration of a window.
type Chrome struct {
	Title       string `yaml:"title,omitempty"`
	URL         string `yaml:"url,omitempty"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Decorations bool   `yaml:"decorations"`
	Resizable   bool   `yaml:"resizable"`
	AlwaysOnTop bool   `yaml:"always_on_top"`
	Center      bool   `yaml:"center"`
}

// WindowProfile configures one auxiliary kind.
type WindowProfile struct {
	Chrome `yaml:",inline"`

	Idiom           string `yaml:"idiom"`
	RestorePrimary  bool   `yaml:"restore_primary,omitempty"`
	ExitWhenMissing bool   `yaml:"exit_when_missing,omitempty"`
}

type LoggingConfig struct {
	Level       string   `yaml:"level"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths,omitempty"`
}

type BridgeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Hotkey binds a global key sequence such as "Mod4-Shift-d" to a window
// command. Kind and Label are passed as the command arguments.
type Hotkey struct {
	Command string `yaml:"command"`
	Kind    string `yaml:"kind,omitempty"`
	Label   string `yaml:"label,omitempty"`
}

// Config is the effective configuration after files, defaults and
// environment overrides have been applied.
type Config struct {
	Backend           string                   `yaml:"backend"`
	Display           string                   `yaml:"display,omitempty"`
	PopupCloseDelay   time.Duration            `yaml:"popup_close_delay"`
	ExitGrace         time.Duration            `yaml:"exit_grace"`
	ReconcileInterval time.Duration            `yaml:"reconcile_interval"`
	Primary           Chrome                   `yaml:"primary"`
	Popup             Chrome                   `yaml:"popup"`
	Windows           map[string]WindowProfile `yaml:"windows"`
	Logging           LoggingConfig            `yaml:"logging"`
	Bridge            BridgeConfig             `yaml:"bridge"`
	Hotkeys           map[string]Hotkey        `yaml:"hotkeys,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend:           BackendX11,
		PopupCloseDelay:   lifecycle.DefaultPopupCloseDelay,
		ExitGrace:         lifecycle.DefaultExitGrace,
		ReconcileInterval: DefaultReconcileInterval,
		Primary: Chrome{
			Title:       "Queuelip",
			URL:         "index.html",
			Width:       800,
			Height:      600,
			Decorations: true,
			Resizable:   true,
			Center:      true,
		},
		Popup: Chrome{
			Width:       300,
			Height:      400,
			Decorations: true,
			Center:      true,
		},
		Windows: BuiltinWindows(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Bridge: BridgeConfig{
			Enabled: true,
			Listen:  DefaultBridgeListen,
		},
	}
}

// Kinds returns the configured auxiliary kinds in sorted order.
func (c *Config) Kinds() []string {
	kinds := make([]string, 0, len(c.Windows))
	for kind := range c.Windows {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// PolicyConfig converts the window section into lifecycle policy input.
func (c *Config) PolicyConfig() lifecycle.Config {
	out := lifecycle.Config{
		Primary:         c.Primary.platform(),
		Popup:           c.Popup.platform(),
		PopupCloseDelay: c.PopupCloseDelay,
		ExitGrace:       c.ExitGrace,
	}
	for _, kind := range c.Kinds() {
		w := c.Windows[kind]
		out.Auxiliary = append(out.Auxiliary, lifecycle.Profile{
			Kind:            kind,
			Chrome:          w.Chrome.platform(),
			Idiom:           lifecycle.Idiom(w.Idiom),
			RestorePrimary:  w.RestorePrimary,
			ExitWhenMissing: w.ExitWhenMissing,
		})
	}
	return out
}

// LoggerConfig converts the logging section for the logging package.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:       c.Logging.Level,
		Development: c.Logging.Development,
		OutputPaths: c.Logging.OutputPaths,
	}
}

func (ch Chrome) platform() platform.Chrome {
	return platform.Chrome{
		Title:       ch.Title,
		URL:         ch.URL,
		Width:       ch.Width,
		Height:      ch.Height,
		Decorations: ch.Decorations,
		Resizable:   ch.Resizable,
		AlwaysOnTop: ch.AlwaysOnTop,
		Center:      ch.Center,
	}
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates c and writes it to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the effective config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendX11, BackendMemory:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: x11, memory")}
	}
	if c.PopupCloseDelay <= 0 {
		return &ValidationError{Path: "popup_close_delay", Err: fmt.Errorf("popup_close_delay must be > 0")}
	}
	if c.ExitGrace <= 0 {
		return &ValidationError{Path: "exit_grace", Err: fmt.Errorf("exit_grace must be > 0")}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= 0")}
	}
	if err := validateChrome("primary", c.Primary); err != nil {
		return err
	}
	if err := validateChrome("popup", c.Popup); err != nil {
		return err
	}

	for _, kind := range c.Kinds() {
		path := "windows." + kind
		if strings.TrimSpace(kind) == "" {
			return &ValidationError{Path: "windows", Err: fmt.Errorf("windows contains an empty kind")}
		}
		if kind == window.PrimaryLabel {
			return &ValidationError{Path: path, Err: fmt.Errorf("%q is reserved for the primary window", kind)}
		}
		w := c.Windows[kind]
		if err := validateChrome(path, w.Chrome); err != nil {
			return err
		}
		switch lifecycle.Idiom(w.Idiom) {
		case lifecycle.IdiomHideShow, lifecycle.IdiomDestroyRecreate:
		default:
			return &ValidationError{Path: path + ".idiom", Err: fmt.Errorf("idiom must be one of: hide-show, destroy-recreate")}
		}
		if lifecycle.Idiom(w.Idiom) == lifecycle.IdiomHideShow && (w.RestorePrimary || w.ExitWhenMissing) {
			return &ValidationError{Path: path, Err: fmt.Errorf("restore_primary and exit_when_missing only apply to destroy-recreate")}
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Bridge.Enabled && strings.TrimSpace(c.Bridge.Listen) == "" {
		return &ValidationError{Path: "bridge.listen", Err: fmt.Errorf("listen is required when the bridge is enabled")}
	}
	return c.validateHotkeys()
}

func (c *Config) validateHotkeys() error {
	keys := make([]string, 0, len(c.Hotkeys))
	for k := range c.Hotkeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		hk := c.Hotkeys[k]
		path := "hotkeys." + k
		if strings.TrimSpace(k) == "" {
			return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("hotkeys contains an empty key sequence")}
		}
		name := command.Normalize(hk.Command)
		if !command.Known(name) {
			return &ValidationError{Path: path + ".command", Err: fmt.Errorf("unknown command %q", hk.Command)}
		}
		switch name {
		case command.OpenAuxiliary, command.CloseAuxiliary:
			if _, ok := c.Windows[hk.Kind]; !ok {
				return &ValidationError{Path: path + ".kind", Err: fmt.Errorf("%s needs a configured window kind", name)}
			}
		case command.CloseWindow, command.CloseCurrentWindow:
			if strings.TrimSpace(hk.Label) == "" {
				return &ValidationError{Path: path + ".label", Err: fmt.Errorf("%s needs a label", name)}
			}
		case command.CreatePopup, command.GetStatus, command.ListWindows:
			return &ValidationError{Path: path + ".command", Err: fmt.Errorf("%s cannot be bound to a key", name)}
		}
	}
	return nil
}

func validateChrome(path string, ch Chrome) error {
	if ch.Width <= 0 {
		return &ValidationError{Path: path + ".width", Err: fmt.Errorf("width must be > 0")}
	}
	if ch.Height <= 0 {
		return &ValidationError{Path: path + ".height", Err: fmt.Errorf("height must be > 0")}
	}
	return nil
}
