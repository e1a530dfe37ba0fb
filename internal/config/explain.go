package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	backend
//	display
//	popup_close_delay
//	exit_grace
//	reconcile_interval
//	primary.width
//	popup.title
//	windows.<kind>.idiom
//	windows.<kind>.always_on_top
//	logging.level
//	bridge.listen
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file or env source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	if strings.HasPrefix(path, "windows.") {
		if base := res.Bases[kindFromPath(path)]; base != "" {
			return value, Source{Kind: SourceBuiltin, Name: base}, nil
		}
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func kindFromPath(path string) string {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || parts[0] != "windows" {
		return ""
	}
	return parts[1]
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	leaf := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return v, nil
	}

	switch parts[0] {
	case "backend":
		return leaf(cfg.Backend)
	case "display":
		return leaf(cfg.Display)
	case "popup_close_delay":
		return leaf(cfg.PopupCloseDelay)
	case "exit_grace":
		return leaf(cfg.ExitGrace)
	case "reconcile_interval":
		return leaf(cfg.ReconcileInterval)
	case "primary":
		return lookupChrome(cfg.Primary, parts[1:], path)
	case "popup":
		return lookupChrome(cfg.Popup, parts[1:], path)
	case "windows":
		if len(parts) == 1 {
			return cfg.Windows, nil
		}
		kind := parts[1]
		w, ok := cfg.Windows[kind]
		if !ok {
			return nil, fmt.Errorf("unknown window kind %q", kind)
		}
		if len(parts) == 2 {
			return w, nil
		}
		if len(parts) != 3 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[2] {
		case "idiom":
			return w.Idiom, nil
		case "restore_primary":
			return w.RestorePrimary, nil
		case "exit_when_missing":
			return w.ExitWhenMissing, nil
		}
		return lookupChrome(w.Chrome, parts[2:], path)
	case "logging":
		if len(parts) == 1 {
			return cfg.Logging, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "level":
			return cfg.Logging.Level, nil
		case "development":
			return cfg.Logging.Development, nil
		case "output_paths":
			return cfg.Logging.OutputPaths, nil
		}
	case "hotkeys":
		if len(parts) == 1 {
			return cfg.Hotkeys, nil
		}
		hk, ok := cfg.Hotkeys[parts[1]]
		if !ok {
			return nil, fmt.Errorf("no hotkey bound to %q", parts[1])
		}
		if len(parts) == 2 {
			return hk, nil
		}
		if len(parts) != 3 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[2] {
		case "command":
			return hk.Command, nil
		case "kind":
			return hk.Kind, nil
		case "label":
			return hk.Label, nil
		}
	case "bridge":
		if len(parts) == 1 {
			return cfg.Bridge, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "enabled":
			return cfg.Bridge.Enabled, nil
		case "listen":
			return cfg.Bridge.Listen, nil
		}
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}

func lookupChrome(ch Chrome, rest []string, path string) (any, error) {
	if len(rest) == 0 {
		return ch, nil
	}
	if len(rest) != 1 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	switch rest[0] {
	case "title":
		return ch.Title, nil
	case "url":
		return ch.URL, nil
	case "width":
		return ch.Width, nil
	case "height":
		return ch.Height, nil
	case "decorations":
		return ch.Decorations, nil
	case "resizable":
		return ch.Resizable, nil
	case "always_on_top":
		return ch.AlwaysOnTop, nil
	case "center":
		return ch.Center, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
