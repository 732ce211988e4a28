// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package neverbleed

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// LoadTLSCertificate builds a tls.Certificate whose private key lives
// in the daemon: the certificate chain is read locally, the key file
// is loaded by the daemon via LoadPrivateKeyFile, and the returned
// certificate's PrivateKey is the proxied handle. The leaf's public
// key must match the daemon-reported public parameters, catching
// mismatched cert/key pairs before a TLS handshake does.
func (rt *Runtime) LoadTLSCertificate(certFile, keyFile string) (tls.Certificate, error) {
	chainPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("reading certificate file: %w", err)
	}

	var cert tls.Certificate
	for block, rest := pem.Decode(chainPEM); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert.Certificate = append(cert.Certificate, block.Bytes)
	}
	if len(cert.Certificate) == 0 {
		return tls.Certificate{}, fmt.Errorf("%s: no certificates found", certFile)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("parsing leaf certificate: %w", err)
	}
	cert.Leaf = leaf

	leafKey, ok := leaf.PublicKey.(*rsa.PublicKey)
	if !ok {
		return tls.Certificate{}, fmt.Errorf("%s: leaf certificate holds a %T, want an RSA key", certFile, leaf.PublicKey)
	}

	key, err := rt.LoadPrivateKeyFile(keyFile)
	if err != nil {
		return tls.Certificate{}, err
	}
	if !leafKey.Equal(key.public) {
		return tls.Certificate{}, fmt.Errorf("private key %s does not match certificate %s", keyFile, certFile)
	}

	cert.PrivateKey = key
	return cert, nil
}
