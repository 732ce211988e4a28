// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package daemon

import (
	"crypto/rsa"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// LoadKeyFile reads and parses an RSA private key from path. PEM
// PKCS #1 ("RSA PRIVATE KEY"), PKCS #8 ("PRIVATE KEY"), and OpenSSH
// ("OPENSSH PRIVATE KEY") encodings are accepted. Only RSA keys are
// supported: the protocol's operations are RSA-shaped.
//
// Errors are domain failures: the daemon reports them back to the
// supervisor in the load_key response rather than treating them as
// faults.
func LoadKeyFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM data found", path)
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY", "PRIVATE KEY", "OPENSSH PRIVATE KEY":
		// ssh.ParseRawPrivateKey handles all three encodings and
		// returns the concrete stdlib key type.
		parsed, err := ssh.ParseRawPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse the private key: %w", path, err)
		}
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%s: not an RSA private key (%T)", path, parsed)
		}
		key = rsaKey
	case "ENCRYPTED PRIVATE KEY":
		return nil, fmt.Errorf("%s: passphrase-protected keys are not supported", path)
	default:
		return nil, fmt.Errorf("%s: unsupported PEM block %q", path, block.Type)
	}

	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid RSA key: %w", path, err)
	}
	key.Precompute()
	return key, nil
}
