// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

// Package wire implements the byte-level encoding shared by the
// neverbleed supervisor and daemon: a growable buffer of typed fields
// (fixed-width numbers, NUL-terminated strings, length-prefixed byte
// blobs) and the length-prefixed message framing used on the unix
// socket between them.
//
// The encoding is deliberately not a general-purpose wire format.
// Numbers travel in native byte order because both endpoints always
// run on the same host and architecture; a message produced on one
// machine is not portable to another.
//
// Buffers routinely carry private-key operation inputs and outputs, so
// Close and Reset zero the occupied region before the memory is
// released or reused.
package wire
