package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawChrome is a partial window chrome; nil fields inherit.
type RawChrome struct {
	Title       *string `yaml:"title"`
	URL         *string `yaml:"url"`
	Width       *int    `yaml:"width"`
	Height      *int    `yaml:"height"`
	Decorations *bool   `yaml:"decorations"`
	Resizable   *bool   `yaml:"resizable"`
	AlwaysOnTop *bool   `yaml:"always_on_top"`
	Center      *bool   `yaml:"center"`
}

// RawWindow is a partial auxiliary kind profile.
type RawWindow struct {
	RawChrome `yaml:",inline"`

	Idiom           *string `yaml:"idiom"`
	RestorePrimary  *bool   `yaml:"restore_primary"`
	ExitWhenMissing *bool   `yaml:"exit_when_missing"`
}

type RawLogging struct {
	Level       *string  `yaml:"level"`
	Development *bool    `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

type RawBridge struct {
	Enabled *bool   `yaml:"enabled"`
	Listen  *string `yaml:"listen"`
}

// RawConfig mirrors the YAML file. Every field is optional so that several
// files can be merged before defaults are applied.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	Backend           *string              `yaml:"backend"`
	Display           *string              `yaml:"display"`
	PopupCloseDelay   *time.Duration       `yaml:"popup_close_delay"`
	ExitGrace         *time.Duration       `yaml:"exit_grace"`
	ReconcileInterval *time.Duration       `yaml:"reconcile_interval"`
	Primary           *RawChrome           `yaml:"primary"`
	Popup             *RawChrome           `yaml:"popup"`
	Windows           map[string]RawWindow `yaml:"windows"`
	Logging           *RawLogging          `yaml:"logging"`
	Bridge            *RawBridge           `yaml:"bridge"`
	Hotkeys           map[string]Hotkey    `yaml:"hotkeys"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	if overlay.Backend != nil {
		out.Backend = overlay.Backend
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.PopupCloseDelay != nil {
		out.PopupCloseDelay = overlay.PopupCloseDelay
	}
	if overlay.ExitGrace != nil {
		out.ExitGrace = overlay.ExitGrace
	}
	if overlay.ReconcileInterval != nil {
		out.ReconcileInterval = overlay.ReconcileInterval
	}
	if overlay.Primary != nil {
		merged := mergeRawChrome(derefRawChrome(c.Primary), *overlay.Primary)
		out.Primary = &merged
	}
	if overlay.Popup != nil {
		merged := mergeRawChrome(derefRawChrome(c.Popup), *overlay.Popup)
		out.Popup = &merged
	}
	if overlay.Windows != nil {
		windows := make(map[string]RawWindow, len(c.Windows)+len(overlay.Windows))
		for kind, w := range c.Windows {
			windows[kind] = w
		}
		for kind, w := range overlay.Windows {
			windows[kind] = mergeRawWindow(windows[kind], w)
		}
		out.Windows = windows
	}
	if overlay.Logging != nil {
		merged := RawLogging{}
		if c.Logging != nil {
			merged = *c.Logging
		}
		if overlay.Logging.Level != nil {
			merged.Level = overlay.Logging.Level
		}
		if overlay.Logging.Development != nil {
			merged.Development = overlay.Logging.Development
		}
		if overlay.Logging.OutputPaths != nil {
			merged.OutputPaths = overlay.Logging.OutputPaths
		}
		out.Logging = &merged
	}
	if overlay.Bridge != nil {
		merged := RawBridge{}
		if c.Bridge != nil {
			merged = *c.Bridge
		}
		if overlay.Bridge.Enabled != nil {
			merged.Enabled = overlay.Bridge.Enabled
		}
		if overlay.Bridge.Listen != nil {
			merged.Listen = overlay.Bridge.Listen
		}
		out.Bridge = &merged
	}
	if overlay.Hotkeys != nil {
		hotkeys := make(map[string]Hotkey, len(c.Hotkeys)+len(overlay.Hotkeys))
		for keys, hk := range c.Hotkeys {
			hotkeys[keys] = hk
		}
		for keys, hk := range overlay.Hotkeys {
			hotkeys[keys] = hk
		}
		out.Hotkeys = hotkeys
	}
	return out
}

func derefRawChrome(p *RawChrome) RawChrome {
	if p == nil {
		return RawChrome{}
	}
	return *p
}

func mergeRawChrome(base RawChrome, overlay RawChrome) RawChrome {
	out := base
	if overlay.Title != nil {
		out.Title = overlay.Title
	}
	if overlay.URL != nil {
		out.URL = overlay.URL
	}
	if overlay.Width != nil {
		out.Width = overlay.Width
	}
	if overlay.Height != nil {
		out.Height = overlay.Height
	}
	if overlay.Decorations != nil {
		out.Decorations = overlay.Decorations
	}
	if overlay.Resizable != nil {
		out.Resizable = overlay.Resizable
	}
	if overlay.AlwaysOnTop != nil {
		out.AlwaysOnTop = overlay.AlwaysOnTop
	}
	if overlay.Center != nil {
		out.Center = overlay.Center
	}
	return out
}

func mergeRawWindow(base RawWindow, overlay RawWindow) RawWindow {
	out := base
	out.RawChrome = mergeRawChrome(base.RawChrome, overlay.RawChrome)
	if overlay.Idiom != nil {
		out.Idiom = overlay.Idiom
	}
	if overlay.RestorePrimary != nil {
		out.RestorePrimary = overlay.RestorePrimary
	}
	if overlay.ExitWhenMissing != nil {
		out.ExitWhenMissing = overlay.ExitWhenMissing
	}
	return out
}
