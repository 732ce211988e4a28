// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

// Package protocol defines the command set spoken between the
// neverbleed supervisor and its key daemon, together with the shared
// numeric conventions: return codes, padding modes, the invalid key
// index sentinel, and the frame size limit.
//
// Every message starts with a NUL-terminated command name; the
// remaining fields are command-specific and are consumed strictly in
// order. See the package documentation of wire for the field
// encodings.
//
//	priv_enc / priv_dec
//	  request:  input bytes, key index, padding mode
//	  response: return code, output bytes
//	sign
//	  request:  digest type, message bytes, key index
//	  response: return code, signature bytes
//	load_key
//	  request:  key file path
//	  response: status, key index, public exponent hex,
//	            modulus hex, error message
package protocol
