// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package daemon

import (
	"io"
	"log/slog"
	"net"
	"os"
)

// Inherited file descriptor positions when the daemon is spawned by
// the supervisor: stdin/stdout/stderr, then the listening socket,
// then the read end of the lifetime pipe.
const (
	listenerFD = 3
	lifetimeFD = 4
)

// InheritedListener recovers the listening socket and the lifetime
// pipe from the file descriptors passed by neverbleed.Init.
func InheritedListener() (net.Listener, *os.File, error) {
	listenerFile := os.NewFile(listenerFD, "neverbleed-listener")
	listener, err := net.FileListener(listenerFile)
	// net.FileListener dups the descriptor; the original is no longer
	// needed either way.
	listenerFile.Close()
	if err != nil {
		return nil, nil, err
	}
	lifetime := os.NewFile(lifetimeFD, "neverbleed-lifetime")
	return listener, lifetime, nil
}

// WatchLifetime blocks reading the lifetime pipe and terminates the
// process the moment it reaches EOF or fails: the supervisor has
// exited (or closed its write end deliberately) and a key daemon must
// not outlive it. Nothing is ever written on the pipe, so any
// successful read is ignored and the watch resumes.
//
// Run it on its own goroutine.
func WatchLifetime(pipe io.Reader, logger *slog.Logger) {
	var scratch [1]byte
	for {
		n, err := pipe.Read(scratch[:])
		if n > 0 {
			continue
		}
		if err != nil {
			logger.Info("supervisor is gone, exiting")
			os.Exit(0)
		}
	}
}
