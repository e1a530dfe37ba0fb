package config

import (
	"fmt"
	"sort"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Source.Kind == SourceEnv && e.Source.Name != "" {
		return fmt.Sprintf("%s (from %s): %v", e.Path, e.Source.Name, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of DefaultConfig. The returned map
// names, for each auxiliary kind, the built-in profile it was patched from
// (empty for kinds defined only in YAML).
func BuildEffectiveConfig(raw RawConfig) (*Config, map[string]string, error) {
	cfg := DefaultConfig()

	if raw.Backend != nil {
		cfg.Backend = *raw.Backend
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.PopupCloseDelay != nil {
		cfg.PopupCloseDelay = *raw.PopupCloseDelay
	}
	if raw.ExitGrace != nil {
		cfg.ExitGrace = *raw.ExitGrace
	}
	if raw.ReconcileInterval != nil {
		cfg.ReconcileInterval = *raw.ReconcileInterval
	}
	if raw.Primary != nil {
		cfg.Primary = applyChrome(cfg.Primary, *raw.Primary)
	}
	if raw.Popup != nil {
		cfg.Popup = applyChrome(cfg.Popup, *raw.Popup)
	}
	if raw.Logging != nil {
		if raw.Logging.Level != nil {
			cfg.Logging.Level = *raw.Logging.Level
		}
		if raw.Logging.Development != nil {
			cfg.Logging.Development = *raw.Logging.Development
		}
		if raw.Logging.OutputPaths != nil {
			cfg.Logging.OutputPaths = raw.Logging.OutputPaths
		}
	}
	if raw.Bridge != nil {
		if raw.Bridge.Enabled != nil {
			cfg.Bridge.Enabled = *raw.Bridge.Enabled
		}
		if raw.Bridge.Listen != nil {
			cfg.Bridge.Listen = *raw.Bridge.Listen
		}
	}

	// An entry with an empty command unbinds a sequence set by an earlier
	// include.
	for keys, hk := range raw.Hotkeys {
		if strings.TrimSpace(hk.Command) == "" {
			continue
		}
		if cfg.Hotkeys == nil {
			cfg.Hotkeys = make(map[string]Hotkey)
		}
		cfg.Hotkeys[keys] = hk
	}

	bases := applyWindows(cfg, raw)
	return cfg, bases, nil
}

func applyWindows(cfg *Config, raw RawConfig) map[string]string {
	builtin := BuiltinWindows()
	bases := make(map[string]string, len(builtin)+len(raw.Windows))
	for kind := range builtin {
		bases[kind] = kind
	}

	kinds := make([]string, 0, len(raw.Windows))
	for kind := range raw.Windows {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		patch := raw.Windows[kind]
		base, ok := builtin[kind]
		if !ok {
			bases[kind] = ""
		}
		cfg.Windows[kind] = applyWindow(base, patch)
	}
	return bases
}

func applyWindow(base WindowProfile, patch RawWindow) WindowProfile {
	out := base
	out.Chrome = applyChrome(base.Chrome, patch.RawChrome)
	if patch.Idiom != nil {
		out.Idiom = *patch.Idiom
	}
	if out.Idiom == "" {
		out.Idiom = "hide-show"
	}
	if patch.RestorePrimary != nil {
		out.RestorePrimary = *patch.RestorePrimary
	}
	if patch.ExitWhenMissing != nil {
		out.ExitWhenMissing = *patch.ExitWhenMissing
	}
	return out
}

func applyChrome(base Chrome, patch RawChrome) Chrome {
	out := base
	if patch.Title != nil {
		out.Title = *patch.Title
	}
	if patch.URL != nil {
		out.URL = *patch.URL
	}
	if patch.Width != nil {
		out.Width = *patch.Width
	}
	if patch.Height != nil {
		out.Height = *patch.Height
	}
	if patch.Decorations != nil {
		out.Decorations = *patch.Decorations
	}
	if patch.Resizable != nil {
		out.Resizable = *patch.Resizable
	}
	if patch.AlwaysOnTop != nil {
		out.AlwaysOnTop = *patch.AlwaysOnTop
	}
	if patch.Center != nil {
		out.Center = *patch.Center
	}
	return out
}
