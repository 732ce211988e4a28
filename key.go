// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package neverbleed

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"

	"github.com/sharksforarms/neverbleed/protocol"
)

// PrivateKey is the supervisor-side stand-in for a private key held
// by the daemon: the public parameters plus the (runtime, key index)
// association. It never holds the private exponent, so any operation
// that needs one is necessarily proxied.
//
// PrivateKey implements crypto.Signer and crypto.Decrypter — the
// pluggable substitution points Go's crypto stack exposes — which is
// how it slots into tls.Certificate and friends in place of a real
// *rsa.PrivateKey.
type PrivateKey struct {
	rt     *Runtime
	index  uint64
	public *rsa.PublicKey
}

var (
	_ crypto.Signer    = (*PrivateKey)(nil)
	_ crypto.Decrypter = (*PrivateKey)(nil)
)

// LoadPrivateKeyFile asks the daemon to load the key file at path and
// returns the proxied handle bound to the daemon-assigned index. The
// path is resolved in the daemon process, which shares the
// supervisor's filesystem view.
//
// Daemon-side load failures (missing file, unparsable key) are
// returned as errors carrying the daemon's message; they never
// terminate the process.
func (rt *Runtime) LoadPrivateKeyFile(path string) (*PrivateKey, error) {
	index, e, n, err := rt.loadKey(path)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{
		rt:     rt,
		index:  index,
		public: &rsa.PublicKey{N: n, E: e},
	}, nil
}

// Public returns the key's public half.
func (k *PrivateKey) Public() crypto.PublicKey {
	return k.public
}

// KeyIndex returns the daemon registry index this handle is bound to.
func (k *PrivateKey) KeyIndex() uint64 {
	return k.index
}

// Sign produces a PKCS #1 v1.5 signature in the daemon. The rand
// argument is ignored — randomness, like the key, belongs to the
// daemon. opts selects the hash the digest was computed with and must
// not be nil; pass crypto.Hash(0) to sign a raw input with no
// DigestInfo prefix. PSS is not supported: the wire protocol's sign
// command carries only a digest-type selector.
func (k *PrivateKey) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	if opts == nil {
		return nil, fmt.Errorf("neverbleed: nil signer options; pass crypto.Hash(0) to sign a raw input")
	}
	if _, ok := opts.(*rsa.PSSOptions); ok {
		return nil, fmt.Errorf("neverbleed: RSA-PSS signatures are not supported")
	}
	return k.rt.sign(k.index, uint64(opts.HashFunc()), digest)
}

// Decrypt decrypts ciphertext in the daemon. Supported modes: PKCS #1
// v1.5 (opts nil or *rsa.PKCS1v15DecryptOptions, including the
// session-key convention used by TLS's static RSA key exchange) and
// OAEP with SHA-256.
func (k *PrivateKey) Decrypt(_ io.Reader, ciphertext []byte, opts crypto.DecrypterOpts) ([]byte, error) {
	padding := protocol.PaddingPKCS1
	switch o := opts.(type) {
	case nil:
	case *rsa.PKCS1v15DecryptOptions:
		if o.SessionKeyLen > 0 {
			return k.decryptSessionKey(ciphertext, o.SessionKeyLen)
		}
	case *rsa.OAEPOptions:
		if o.Hash != crypto.SHA256 {
			return nil, fmt.Errorf("neverbleed: OAEP is only supported with SHA-256")
		}
		padding = protocol.PaddingOAEP
	default:
		return nil, fmt.Errorf("neverbleed: unsupported decrypter options %T", opts)
	}
	return k.rt.privOp(protocol.CmdPrivDec, k.index, ciphertext, padding)
}

// decryptSessionKey implements the session-key convention of
// rsa.DecryptPKCS1v15SessionKey: on any padding or length failure the
// caller receives a random key of the expected length instead of an
// error, so a TLS server using static RSA key exchange does not leak
// padding validity through its alerts. The channel round-trip itself
// is not constant-time — the daemon is local and trusted, and timing
// on the trusted channel is outside the threat model, as in the
// original design.
func (k *PrivateKey) decryptSessionKey(ciphertext []byte, length int) ([]byte, error) {
	random := make([]byte, length)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("neverbleed: generating fallback session key: %w", err)
	}
	plaintext, err := k.rt.privOp(protocol.CmdPrivDec, k.index, ciphertext, protocol.PaddingPKCS1)
	if err != nil || len(plaintext) != length {
		return random, nil
	}
	return plaintext, nil
}

// PrivateEncrypt exposes the raw private-key encryption primitive
// (the signature direction) with an explicit padding mode, for
// callers below the crypto.Signer abstraction.
func (k *PrivateKey) PrivateEncrypt(input []byte, padding uint64) ([]byte, error) {
	return k.rt.privOp(protocol.CmdPrivEnc, k.index, input, padding)
}

// PrivateDecrypt exposes the raw private-key decryption primitive
// with an explicit padding mode.
func (k *PrivateKey) PrivateDecrypt(input []byte, padding uint64) ([]byte, error) {
	return k.rt.privOp(protocol.CmdPrivDec, k.index, input, padding)
}
