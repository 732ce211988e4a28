// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

//go:build linux

package daemon

import (
	"log/slog"

	"golang.org/x/sys/unix"
)

// Harden applies process-level protections for a process whose whole
// purpose is to hold private keys: no core dumps, no swapping of key
// material, and death alongside the supervisor even if the lifetime
// pipe mechanism is somehow bypassed. Every step is best-effort —
// mlockall in particular needs CAP_IPC_LOCK or a generous
// RLIMIT_MEMLOCK — and failures are logged, not fatal.
func Harden(logger *slog.Logger) {
	if err := unix.Setrlimit(unix.RLIMIT_CORE, &unix.Rlimit{Cur: 0, Max: 0}); err != nil {
		logger.Warn("failed to disable core dumps", "error", err)
	}
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		logger.Warn("failed to lock memory, key material may be swapped", "error", err)
	}
	if err := unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(unix.SIGTERM), 0, 0, 0); err != nil {
		logger.Warn("failed to set parent-death signal", "error", err)
	}
}
