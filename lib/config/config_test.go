// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Verbose || cfg.ReadOnly || cfg.Csh {
		t.Errorf("default config has non-zero flags: %+v", cfg)
	}
	if cfg.SocketDir != "" {
		t.Errorf("default socket_dir = %q, want empty", cfg.SocketDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "verbose: true\nread_only: true\nsocket_dir: /run/diskfish\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !cfg.Verbose {
		t.Error("verbose not loaded")
	}
	if !cfg.ReadOnly {
		t.Error("read_only not loaded")
	}
	if cfg.Csh {
		t.Error("csh defaulted true")
	}
	if cfg.SocketDir != "/run/diskfish" {
		t.Errorf("socket_dir = %q, want /run/diskfish", cfg.SocketDir)
	}
}

func TestLoadFileRejectsRelativeSocketDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("socket_dir: relative/dir\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile accepted a relative socket_dir, want error")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile of a missing file succeeded, want error")
	}
}

func TestLoadMissingDefaultFileYieldsDefaults(t *testing.T) {
	t.Setenv("DISKFISH_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Verbose || cfg.ReadOnly || cfg.Csh || cfg.SocketDir != "" {
		t.Errorf("Load without a file returned non-defaults: %+v", cfg)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Setenv("DISKFISH_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Error("Load with explicit missing DISKFISH_CONFIG succeeded, want error")
	}
}
