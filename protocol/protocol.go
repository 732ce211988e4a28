// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package protocol

// Command names. The command is always the first field of a request.
const (
	CmdPrivEnc = "priv_enc"
	CmdPrivDec = "priv_dec"
	CmdSign    = "sign"
	CmdLoadKey = "load_key"
)

// Return codes carried in the first response field of every command.
// Success is 1; any other value is a failure and the accompanying
// output field is empty. The convention is inherited from OpenSSL's
// RSA functions, which the daemon's results are translated from.
const (
	Success uint64 = 1
	Failure uint64 = 0
)

// InvalidKeyIndex is the sentinel returned by a failed load_key in
// place of a real registry index.
const InvalidKeyIndex = ^uint64(0)

// Padding modes for priv_enc and priv_dec. The numbering follows
// OpenSSL's RSA_*_PADDING constants so that captures of the original
// protocol read identically.
const (
	PaddingPKCS1 uint64 = 1 // PKCS #1 v1.5
	PaddingNone  uint64 = 3 // raw modular exponentiation
	PaddingOAEP  uint64 = 4 // OAEP with SHA-256
)

// DigestNone in the sign request's digest-type field selects a
// PKCS #1 v1.5 signature over the raw input with no DigestInfo
// prefix. Any other value is interpreted as a crypto.Hash and the
// input must be a digest of exactly that hash's size. Both endpoints
// are always this library, so crypto.Hash values are a stable shared
// vocabulary.
const DigestNone uint64 = 0

// MaxFrameSize bounds a single message body. An RSA operation moves
// at most one modulus-sized blob plus small fields, so anything close
// to this limit indicates a desynchronized stream rather than a large
// legitimate request.
const MaxFrameSize uint64 = 1 << 20
