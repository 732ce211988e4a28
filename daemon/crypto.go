// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package daemon

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/sharksforarms/neverbleed/protocol"
)

// privEncrypt performs the private-key encryption primitive: a
// signature-direction operation producing a modulus-sized block.
// PKCS #1 v1.5 mode applies type-1 signature padding to the raw
// input (no DigestInfo); none mode is textbook modular
// exponentiation and requires a modulus-sized input.
func privEncrypt(key *rsa.PrivateKey, input []byte, padding uint64) ([]byte, error) {
	switch padding {
	case protocol.PaddingPKCS1:
		return rsa.SignPKCS1v15(rand.Reader, key, crypto.Hash(0), input)
	case protocol.PaddingNone:
		return rawPrivate(key, input)
	default:
		return nil, fmt.Errorf("priv_enc: unsupported padding mode %d", padding)
	}
}

// privDecrypt performs the private-key decryption primitive.
func privDecrypt(key *rsa.PrivateKey, input []byte, padding uint64) ([]byte, error) {
	switch padding {
	case protocol.PaddingPKCS1:
		return rsa.DecryptPKCS1v15(rand.Reader, key, input)
	case protocol.PaddingOAEP:
		return rsa.DecryptOAEP(sha256.New(), rand.Reader, key, input, nil)
	case protocol.PaddingNone:
		return rawPrivate(key, input)
	default:
		return nil, fmt.Errorf("priv_dec: unsupported padding mode %d", padding)
	}
}

// signDigest produces a PKCS #1 v1.5 signature over digest. A
// digestType of protocol.DigestNone signs the raw input; any other
// value is a crypto.Hash identifying how digest was produced, and
// the stdlib rejects a digest of the wrong length for that hash.
func signDigest(key *rsa.PrivateKey, digestType uint64, digest []byte) ([]byte, error) {
	hash := crypto.Hash(digestType)
	if digestType != protocol.DigestNone && !hash.Available() {
		return nil, fmt.Errorf("sign: unsupported digest type %d", digestType)
	}
	return rsa.SignPKCS1v15(rand.Reader, key, hash, digest)
}

// rawPrivate computes input^d mod n with no padding. The input must
// be exactly modulus-sized and numerically below the modulus; the
// output is left-padded to modulus size.
func rawPrivate(key *rsa.PrivateKey, input []byte) ([]byte, error) {
	size := key.Size()
	if len(input) != size {
		return nil, fmt.Errorf("raw RSA input is %d bytes, want %d", len(input), size)
	}
	c := new(big.Int).SetBytes(input)
	if c.Cmp(key.N) >= 0 {
		return nil, fmt.Errorf("raw RSA input is not less than the modulus")
	}
	m := new(big.Int).Exp(c, key.D, key.N)
	return m.FillBytes(make([]byte, size)), nil
}
