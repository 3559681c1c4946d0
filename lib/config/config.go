// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for diskfish.
//
// Configuration is loaded from a single YAML file specified by:
//   - the DISKFISH_CONFIG environment variable, or
//   - the --config flag passed to the command, or
//   - ~/.config/diskfish/config.yaml when it exists.
//
// The file is optional: command-line flags cover everything in it,
// and a missing default file simply yields the defaults. When a file
// is named explicitly (flag or environment), a read failure is an
// error rather than a silent fallback.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the diskfish configuration.
type Config struct {
	// Verbose enables trace logging of dispatched commands.
	Verbose bool `yaml:"verbose"`

	// ReadOnly adds drives read-only by default.
	ReadOnly bool `yaml:"read_only"`

	// Csh makes --listen print a csh-style setenv line instead of a
	// Bourne-shell export assignment.
	Csh bool `yaml:"csh"`

	// SocketDir overrides the base directory under which the private
	// per-user socket directory is created. Empty means the standard
	// temporary-files location (/tmp). Intended for tests and unusual
	// deployments; the per-user subdirectory and its ownership checks
	// apply regardless.
	SocketDir string `yaml:"socket_dir"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{}
}

// Load loads configuration from DISKFISH_CONFIG, or from the default
// per-user path if the variable is unset. A missing default file is
// not an error; a missing explicitly-named file is.
func Load() (*Config, error) {
	if path := os.Getenv("DISKFISH_CONFIG"); path != "" {
		return LoadFile(path)
	}

	path := defaultPath()
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. The file is
// the single source of truth for the fields it sets; flags applied by
// the caller afterwards may still override individual values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SocketDir != "" && !filepath.IsAbs(c.SocketDir) {
		return fmt.Errorf("socket_dir must be an absolute path, got %q", c.SocketDir)
	}
	return nil
}

// defaultPath returns the per-user config file path, honoring
// XDG_CONFIG_HOME. Empty when no home directory can be determined.
func defaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "diskfish", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "diskfish", "config.yaml")
}
