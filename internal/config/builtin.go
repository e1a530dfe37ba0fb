package config

import "github.com/1broseidon/queuelip/internal/lifecycle"

// BuiltinWindows returns the built-in auxiliary kinds.
//
// These are always available without being defined in YAML. A `windows`
// entry with the same kind patches the built-in profile field by field.
func BuiltinWindows() map[string]WindowProfile {
	return map[string]WindowProfile{
		"mini": {
			Chrome: Chrome{
				Title:       "Queuelip Mini",
				URL:         "mini.html",
				Width:       320,
				Height:      180,
				AlwaysOnTop: true,
			},
			Idiom: string(lifecycle.IdiomHideShow),
		},
		"dashboard": {
			Chrome: Chrome{
				Title:       "Queuelip Dashboard",
				URL:         "dashboard.html",
				Width:       1000,
				Height:      700,
				Decorations: true,
				Resizable:   true,
				Center:      true,
			},
			Idiom: string(lifecycle.IdiomHideShow),
		},
	}
}
