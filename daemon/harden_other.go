// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

//go:build !linux

package daemon

import "log/slog"

// Harden is a no-op outside Linux; the lifetime pipe remains the sole
// bound on the daemon's existence and key material is not locked in
// RAM.
func Harden(logger *slog.Logger) {
	logger.Warn("process hardening is unavailable on this platform")
}
