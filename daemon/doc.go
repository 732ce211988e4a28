// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

// Package daemon implements the key-holding side of neverbleed: the
// process that loads RSA private keys and performs every private-key
// operation on behalf of the supervisor.
//
// The daemon is normally spawned by neverbleed.Init with a listening
// unix socket as fd 3 and the read end of a lifetime pipe as fd 4;
// it exits the moment the pipe reaches EOF, which bounds its lifetime
// to the supervisor's. Each accepted connection is served by its own
// goroutine running a strict request/response loop; a connection that
// delivers a malformed request or an unknown command is closed and
// never repaired, while domain-level failures (unknown key index,
// unparsable key file) are answered with ordinary failure responses.
//
// Keys live in an append-only registry for the life of the process.
// There is no eviction: the process boundary is the lifetime boundary.
package daemon
