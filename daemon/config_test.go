// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package daemon

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.yaml")
	content := `
socket: /run/neverbleed/_
log_level: debug
preload_keys:
  - /etc/neverbleed/a.pem
  - /etc/neverbleed/b.pem
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.Socket != "/run/neverbleed/_" {
		t.Fatalf("Socket = %q", config.Socket)
	}
	if len(config.PreloadKeys) != 2 || config.PreloadKeys[1] != "/etc/neverbleed/b.pem" {
		t.Fatalf("PreloadKeys = %v", config.PreloadKeys)
	}
	level, err := config.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Fatalf("SlogLevel = %v, %v", level, err)
	}
}

func TestConfigLevelDefaultsToInfo(t *testing.T) {
	level, err := Config{}.SlogLevel()
	if err != nil || level != slog.LevelInfo {
		t.Fatalf("SlogLevel = %v, %v", level, err)
	}
}

func TestConfigRejectsUnknownLevel(t *testing.T) {
	if _, err := (Config{LogLevel: "loud"}).SlogLevel(); err == nil {
		t.Fatal("unknown level accepted")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig succeeded on a missing file")
	}
}
