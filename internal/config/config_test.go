package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/queuelip/internal/lifecycle"
)

func writeConfig(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(data)+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_ValidAndHasBuiltinWindows(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	for _, kind := range []string{"mini", "dashboard"} {
		if _, ok := cfg.Windows[kind]; !ok {
			t.Fatalf("expected builtin %q to exist in windows", kind)
		}
	}
	if got := cfg.Kinds(); strings.Join(got, ",") != "dashboard,mini" {
		t.Fatalf("expected sorted kinds, got %v", got)
	}
	if cfg.Popup.Width != 300 || cfg.Popup.Height != 400 {
		t.Fatalf("expected 300x400 popup chrome, got %dx%d", cfg.Popup.Width, cfg.Popup.Height)
	}
}

func TestDefaultConfig_BuildsPolicy(t *testing.T) {
	cfg := DefaultConfig()
	policy, err := lifecycle.New(cfg.PolicyConfig())
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if got := policy.Kinds(); len(got) != 2 {
		t.Fatalf("expected two auxiliary kinds, got %v", got)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend != BackendX11 {
		t.Fatalf("expected backend %q, got %q", BackendX11, res.Config.Backend)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "# empty")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.ExitGrace != lifecycle.DefaultExitGrace {
		t.Fatalf("expected exit_grace %s, got %s", lifecycle.DefaultExitGrace, res.Config.ExitGrace)
	}
	if res.Config.PopupCloseDelay != lifecycle.DefaultPopupCloseDelay {
		t.Fatalf("expected popup_close_delay %s, got %s", lifecycle.DefaultPopupCloseDelay, res.Config.PopupCloseDelay)
	}
}

func TestLoadFromPath_DisplayAndExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, `display: ":1"`)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Display != ":1" {
		t.Fatalf("expected display :1, got %q", res.Config.Display)
	}

	val, src, err := Explain(res, "display")
	if err != nil {
		t.Fatalf("explain display: %v", err)
	}
	if val != ":1" {
		t.Fatalf("expected explain display :1, got %#v", val)
	}
	if src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("expected display source file line 1, got %#v", src)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "unknown_key: 1")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	writeConfig(t, filepath.Join(dir, "config.d", "10-base.yaml"), "exit_grace: 1s")
	writeConfig(t, filepath.Join(dir, "config.d", "20-override.yaml"), "exit_grace: 2s\npopup_close_delay: 50ms")

	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, `
include:
  - config.d
exit_grace: 3s
`)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.ExitGrace != 3*time.Second {
		t.Fatalf("expected exit_grace 3s, got %s", res.Config.ExitGrace)
	}
	if res.Config.PopupCloseDelay != 50*time.Millisecond {
		t.Fatalf("expected popup_close_delay from include, got %s", res.Config.PopupCloseDelay)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected three loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "include:\n  - missing.yaml")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	writeConfig(t, a, "include: b.yaml")
	writeConfig(t, filepath.Join(dir, "b.yaml"), "include: a.yaml")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_PatchesBuiltinWindowAndExplainSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, `
windows:
  mini:
    width: 400
  settings:
    title: Settings
    url: settings.html
    width: 500
    height: 400
    idiom: destroy-recreate
    restore_primary: true
`)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	mini := res.Config.Windows["mini"]
	if mini.Width != 400 || mini.Height != 180 {
		t.Fatalf("expected patched mini 400x180, got %dx%d", mini.Width, mini.Height)
	}
	if !mini.AlwaysOnTop {
		t.Fatalf("expected mini to keep always_on_top from builtin")
	}

	settings := res.Config.Windows["settings"]
	if settings.Idiom != string(lifecycle.IdiomDestroyRecreate) || !settings.RestorePrimary {
		t.Fatalf("unexpected settings profile: %#v", settings)
	}
	if res.Bases["settings"] != "" || res.Bases["mini"] != "mini" {
		t.Fatalf("unexpected bases: %#v", res.Bases)
	}

	val, src, err := Explain(res, "windows.mini.height")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 180 {
		t.Fatalf("expected explain value 180, got %#v", val)
	}
	if src.Kind != SourceBuiltin || src.Name != "mini" {
		t.Fatalf("expected builtin source mini, got %#v", src)
	}

	_, src, err = Explain(res, "windows.mini.width")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceFile {
		t.Fatalf("expected file source for patched width, got %#v", src)
	}

	_, src, err = Explain(res, "windows.settings.always_on_top")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceDefault {
		t.Fatalf("expected default source, got %#v", src)
	}
}

func TestLoadFromPath_YAMLOnlyKindDefaultsToHideShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, `
windows:
  notes:
    width: 200
    height: 200
`)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := res.Config.Windows["notes"].Idiom; got != string(lifecycle.IdiomHideShow) {
		t.Fatalf("expected hide-show idiom, got %q", got)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, `
windows:
  mini:
    idiom: sideways
`)

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "windows.mini.idiom" {
		t.Fatalf("expected path windows.mini.idiom, got %q", verr.Path)
	}
	if verr.Source.Kind != SourceFile || verr.Source.Line != 3 {
		t.Fatalf("expected file source on line 3, got %#v", verr.Source)
	}
	if !strings.HasPrefix(err.Error(), path+":3:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"backend", func(c *Config) { c.Backend = "wayland" }, "backend"},
		{"zero grace", func(c *Config) { c.ExitGrace = 0 }, "exit_grace"},
		{"zero popup delay", func(c *Config) { c.PopupCloseDelay = 0 }, "popup_close_delay"},
		{"negative reconcile", func(c *Config) { c.ReconcileInterval = -time.Second }, "reconcile_interval"},
		{"primary width", func(c *Config) { c.Primary.Width = 0 }, "primary.width"},
		{"popup height", func(c *Config) { c.Popup.Height = -1 }, "popup.height"},
		{"reserved kind", func(c *Config) {
			c.Windows["main"] = WindowProfile{Chrome: Chrome{Width: 1, Height: 1}, Idiom: "hide-show"}
		}, "windows.main"},
		{"quirk on hide-show", func(c *Config) {
			w := c.Windows["mini"]
			w.ExitWhenMissing = true
			c.Windows["mini"] = w
		}, "windows.mini"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bridge listen", func(c *Config) { c.Bridge.Listen = " " }, "bridge.listen"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tc.path {
				t.Fatalf("expected path %q, got %q", tc.path, verr.Path)
			}
		})
	}
}

func TestValidate_BridgeDisabledNeedsNoListen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.Enabled = false
	cfg.Bridge.Listen = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadFromPath_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, `
backend: x11
logging:
  level: warn
`)
	t.Setenv("QUEUELIP_BACKEND", "memory")
	t.Setenv("QUEUELIP_LOG_LEVEL", "debug")
	t.Setenv("QUEUELIP_EXIT_GRACE", "750ms")
	t.Setenv("QUEUELIP_BRIDGE_ENABLED", "false")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend != BackendMemory {
		t.Fatalf("expected env backend, got %q", res.Config.Backend)
	}
	if res.Config.Logging.Level != "debug" {
		t.Fatalf("expected env log level, got %q", res.Config.Logging.Level)
	}
	if res.Config.ExitGrace != 750*time.Millisecond {
		t.Fatalf("expected env exit grace, got %s", res.Config.ExitGrace)
	}
	if res.Config.Bridge.Enabled {
		t.Fatalf("expected bridge disabled by env")
	}

	_, src, err := Explain(res, "logging.level")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceEnv || src.Name != "QUEUELIP_LOG_LEVEL" {
		t.Fatalf("expected env source, got %#v", src)
	}
}

func TestLoadFromPath_UnprefixedDisplayIgnored(t *testing.T) {
	t.Setenv("DISPLAY", ":42")
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Display != "" {
		t.Fatalf("expected display to stay unset, got %q", res.Config.Display)
	}
}

func TestLoadFromPath_InvalidEnvValueNamesVariable(t *testing.T) {
	t.Setenv("QUEUELIP_EXIT_GRACE", "soon")
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected env parse error")
	}
	if !strings.Contains(err.Error(), "QUEUELIP_EXIT_GRACE") {
		t.Fatalf("expected variable name in error, got %v", err)
	}
}

func TestLoadFromPath_EnvValidationErrorNamesVariable(t *testing.T) {
	t.Setenv("QUEUELIP_BACKEND", "wayland")
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "QUEUELIP_BACKEND") {
		t.Fatalf("expected env source in error, got %v", err)
	}
}

func TestSaveTo_RoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Backend = BackendMemory
	cfg.Primary.Title = "Saved"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend != BackendMemory || res.Config.Primary.Title != "Saved" {
		t.Fatalf("unexpected reloaded config: %#v", res.Config)
	}
}

func TestExplain_UnknownPath(t *testing.T) {
	res := &LoadResult{Config: DefaultConfig()}
	if _, _, err := Explain(res, "windows.nope.width"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, _, err := Explain(res, "primary.depth"); err == nil {
		t.Fatalf("expected error for unknown chrome field")
	}
	if _, _, err := Explain(res, ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadFromPath_Hotkeys(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, "keys.yaml"), `
hotkeys:
  Mod4-q:
    command: force_quit
  Mod4-s:
    command: show_primary
`)
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, `
include: keys.yaml
hotkeys:
  Mod4-d:
    command: open_auxiliary
    kind: dashboard
  Mod4-q:
    command: ""
`)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Hotkeys) != 2 {
		t.Fatalf("expected 2 hotkeys, got %#v", res.Config.Hotkeys)
	}
	if _, ok := res.Config.Hotkeys["Mod4-q"]; ok {
		t.Fatalf("expected Mod4-q to be unbound")
	}

	val, src, err := Explain(res, "hotkeys.Mod4-d.kind")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "dashboard" || src.Kind != SourceFile || src.File != path {
		t.Fatalf("unexpected explain result %#v %#v", val, src)
	}
}

func TestValidate_RejectsBadHotkeys(t *testing.T) {
	cases := map[string]Hotkey{
		"unknown command": {Command: "tile_windows"},
		"unknown kind":    {Command: "open_auxiliary", Kind: "nope"},
		"missing label":   {Command: "close_window"},
		"query not bound": {Command: "get_status"},
	}
	for name, hk := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Hotkeys = map[string]Hotkey{"Mod4-x": hk}
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.HasPrefix(verr.Path, "hotkeys.Mod4-x") {
				t.Fatalf("unexpected path %q", verr.Path)
			}
		})
	}
}
