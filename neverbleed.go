// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package neverbleed

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sharksforarms/neverbleed/daemon"
)

// EnvDaemon marks a process as the daemon child. Init sets it in the
// child's environment; RunDaemonIfChild keys off it.
const EnvDaemon = "NEVERBLEED_DAEMON"

// Runtime is the supervisor's handle on a running daemon: the socket
// to reach it, the write end of the lifetime pipe that keeps it
// alive, and the pool of connections to it.
type Runtime struct {
	socketPath string
	dir        string
	lifetime   *os.File
	child      *os.Process
	pool       *connPool
	logger     *slog.Logger
}

type options struct {
	logger       *slog.Logger
	daemonBinary string
}

// Option adjusts Init's behavior.
type Option func(*options)

// WithLogger routes the supervisor side's logging through logger.
// The default logs to stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDaemonBinary runs the given program as the daemon instead of
// re-executing the current binary. The program must serve on the
// inherited descriptors the way neverbleed-daemon does.
func WithDaemonBinary(path string) Option {
	return func(o *options) { o.daemonBinary = path }
}

// RunDaemonIfChild turns the current process into the key daemon when
// it was spawned by Init, and never returns in that case. Host
// applications call it first thing in main, before any key material
// or application state exists in the process.
func RunDaemonIfChild() {
	if os.Getenv(EnvDaemon) == "" {
		return
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("proc", "neverbleed-daemon")
	daemon.Harden(logger)
	listener, lifetime, err := daemon.InheritedListener()
	if err != nil {
		logger.Error("failed to recover inherited descriptors", "error", err)
		osExit(1)
	}
	go daemon.WatchLifetime(lifetime, logger)
	if err := daemon.NewServer(logger).Serve(listener); err != nil {
		logger.Error("daemon serve failed", "error", err)
		osExit(1)
	}
	osExit(0)
}

// Init stands up the privilege-separated daemon: a private socket
// directory, a listening unix socket, a lifetime pipe, and the child
// process holding all of them. On success the supervisor keeps only
// the socket path and the pipe's write end — closing the latter
// (explicitly via Close, or implicitly by process exit) is what shuts
// the daemon down.
//
// On failure every resource created so far is released and the socket
// directory is removed.
func Init(opts ...Option) (*Runtime, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	// MkdirTemp creates the directory mode 0700: directory
	// permissions are the channel's only access control.
	dir, err := os.MkdirTemp("", "neverbleed-*")
	if err != nil {
		return nil, fmt.Errorf("creating socket directory: %w", err)
	}
	socketPath := filepath.Join(dir, "_")

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("listening on %s: %w", socketPath, err)
	}

	listenerFile, err := listener.(*net.UnixListener).File()
	if err != nil {
		listener.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("extracting listener descriptor: %w", err)
	}

	pipeRead, pipeWrite, err := os.Pipe()
	if err != nil {
		listenerFile.Close()
		listener.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("creating lifetime pipe: %w", err)
	}

	program := o.daemonBinary
	if program == "" {
		program, err = os.Executable()
		if err != nil {
			pipeRead.Close()
			pipeWrite.Close()
			listenerFile.Close()
			listener.Close()
			os.RemoveAll(dir)
			return nil, fmt.Errorf("locating executable for re-exec: %w", err)
		}
	}

	command := exec.Command(program)
	command.Env = append(os.Environ(), EnvDaemon+"=1")
	command.Stderr = os.Stderr
	command.ExtraFiles = []*os.File{listenerFile, pipeRead} // fds 3 and 4 in the child
	if err := command.Start(); err != nil {
		pipeRead.Close()
		pipeWrite.Close()
		listenerFile.Close()
		listener.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("spawning daemon %s: %w", program, err)
	}

	// The daemon owns the listener and the pipe's read end now; the
	// supervisor drops its copies so that EOF semantics work. Closing
	// a unix listener unlinks its socket file by default, which would
	// make the path undialable the moment Init returns, so the unlink
	// is suppressed: the daemon's lifetime owns the path.
	listener.(*net.UnixListener).SetUnlinkOnClose(false)
	listenerFile.Close()
	listener.Close()
	pipeRead.Close()

	// The child is the daemon; nobody waits on it, it exits with the
	// supervisor. Release lets the runtime drop its bookkeeping.
	child := command.Process
	go command.Wait()

	return &Runtime{
		socketPath: socketPath,
		dir:        dir,
		lifetime:   pipeWrite,
		child:      child,
		pool:       newConnPool(socketPath),
		logger:     o.logger,
	}, nil
}

// SocketPath returns the daemon's unix socket path, for supervisors
// that want to hand additional processes access to the channel.
func (rt *Runtime) SocketPath() string {
	return rt.socketPath
}

// Close shuts the daemon down by closing the lifetime pipe's write
// end, and closes the supervisor's idle connections. The socket
// directory is deliberately left in place — the daemon may still be
// draining — matching the bootstrap-failure-only cleanup of the
// original design.
func (rt *Runtime) Close() error {
	rt.pool.close()
	return rt.lifetime.Close()
}
