// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package daemon

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config configures the standalone daemon binary. In the normal
// embedded deployment the supervisor passes everything over inherited
// file descriptors and no configuration file exists; standalone mode
// is for operating the daemon as its own service (with the supervisor
// pointed at the socket via its options).
type Config struct {
	// Socket is the unix socket path to listen on. The parent
	// directory should be mode 0700: the socket carries no
	// authentication, so directory permissions are the only barrier.
	Socket string `yaml:"socket"`

	// LogLevel is one of debug, info, warn, error. Empty means info.
	LogLevel string `yaml:"log_level"`

	// PreloadKeys lists private key files to load at startup. They
	// receive registry indices 0, 1, ... in list order.
	PreloadKeys []string `yaml:"preload_keys"`
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return config, nil
}

// SlogLevel translates the configured log level name.
func (c Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}
