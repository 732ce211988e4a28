// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

// neverbleed-daemon is the key-holding helper process. It has two
// modes:
//
//   - Inherited mode (the default, used when spawned by
//     neverbleed.Init with WithDaemonBinary): the listening socket
//     arrives as fd 3 and the lifetime pipe as fd 4; the process
//     exits when the supervisor does.
//
//   - Standalone mode (--socket or a config file with a socket path):
//     the daemon listens on its own unix socket and runs until
//     killed. Intended for operating the daemon as a system service,
//     with keys preloaded from the config.
package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/sharksforarms/neverbleed/daemon"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		socketPath string
		logLevel   string
	)
	pflag.StringVar(&configPath, "config", "", "path to YAML config (standalone mode)")
	pflag.StringVar(&socketPath, "socket", "", "unix socket path to listen on (standalone mode; overrides config)")
	pflag.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pflag.Parse()

	config := daemon.Config{}
	if configPath != "" {
		loaded, err := daemon.LoadConfig(configPath)
		if err != nil {
			return err
		}
		config = loaded
	}
	if socketPath != "" {
		config.Socket = socketPath
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}

	level, err := config.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})).With("proc", "neverbleed-daemon")

	daemon.Harden(logger)
	server := daemon.NewServer(logger)
	if err := server.PreloadKeys(config.PreloadKeys); err != nil {
		return err
	}

	if config.Socket == "" {
		return runInherited(server, logger)
	}
	return runStandalone(server, logger, config.Socket)
}

// runInherited serves on the descriptors passed by neverbleed.Init.
func runInherited(server *daemon.Server, logger *slog.Logger) error {
	listener, lifetime, err := daemon.InheritedListener()
	if err != nil {
		return fmt.Errorf("recovering inherited descriptors (did you mean --socket?): %w", err)
	}
	go daemon.WatchLifetime(lifetime, logger)
	logger.Info("serving on inherited socket")
	return server.Serve(listener)
}

// runStandalone listens on the configured socket path. The parent
// directory must already exist; a stale socket file from a previous
// run is removed first.
func runStandalone(server *daemon.Server, logger *slog.Logger, socketPath string) error {
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", socketPath, err)
	}
	if info, err := os.Stat(filepath.Dir(socketPath)); err == nil {
		if info.Mode().Perm()&0077 != 0 {
			logger.Warn("socket directory is accessible to other users; the channel has no authentication",
				"dir", filepath.Dir(socketPath))
		}
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(socketPath)
	}()
	logger.Info("serving", "socket", socketPath)
	return server.Serve(listener)
}
