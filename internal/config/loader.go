package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceBuiltin SourceKind = "builtin"
	SourceFile    SourceKind = "file"
	SourceEnv     SourceKind = "env"
)

type Source struct {
	Kind   SourceKind
	Name   string // builtin profile or environment variable
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML-path -> last writer source (file or env)
	Bases   map[string]string // auxiliary kind -> builtin base name
	Files   []string          // all loaded files, in load order
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "queuelip", "config.yaml"), nil
}

// Load reads the merged configuration from the standard location, applies
// QUEUELIP_* environment overrides and returns an effective config ready for
// use by the daemon.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources loads config and returns file-level sources for introspection.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path (a missing file means defaults) and applies
// environment overrides.
func LoadFromPath(path string) (*LoadResult, error) {
	raw := RawConfig{}
	sources := map[string]Source{}
	var files []string

	if _, err := os.Stat(path); err == nil {
		merged, err := newIncludeLoader().load(path)
		if err != nil {
			return nil, err
		}
		raw = merged.raw
		sources = merged.sources
		files = merged.files
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg, bases, err := BuildEffectiveConfig(raw)
	if err != nil {
		return nil, attachSourceContext(err, sources)
	}
	envSources, err := ApplyEnv(cfg)
	if err != nil {
		return nil, err
	}
	for key, src := range envSources {
		sources[key] = src
	}
	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, sources)
	}

	return &LoadResult{
		Config:  cfg,
		Sources: sources,
		Bases:   bases,
		Files:   files,
	}, nil
}

func attachSourceContext(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr == nil {
		return err
	}
	if verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}
