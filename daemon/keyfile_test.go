// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package daemon

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

// writeKeyFile writes a PEM block to a fresh file under t.TempDir.
func writeKeyFile(t *testing.T, name string, block *pem.Block) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}
	return path
}

func TestLoadKeyFilePKCS1(t *testing.T) {
	key := testRSAKey(t)
	path := writeKeyFile(t, "pkcs1.pem", &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	loaded, err := LoadKeyFile(path)
	if err != nil {
		t.Fatalf("LoadKeyFile: %v", err)
	}
	if !loaded.Equal(key) {
		t.Fatal("loaded key differs from the original")
	}
}

func TestLoadKeyFilePKCS8(t *testing.T) {
	key := testRSAKey(t)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}
	path := writeKeyFile(t, "pkcs8.pem", &pem.Block{Type: "PRIVATE KEY", Bytes: der})

	loaded, err := LoadKeyFile(path)
	if err != nil {
		t.Fatalf("LoadKeyFile: %v", err)
	}
	if !loaded.Equal(key) {
		t.Fatal("loaded key differs from the original")
	}
}

func TestLoadKeyFileOpenSSH(t *testing.T) {
	key := testRSAKey(t)
	block, err := ssh.MarshalPrivateKey(key, "")
	if err != nil {
		t.Fatalf("ssh.MarshalPrivateKey: %v", err)
	}
	path := writeKeyFile(t, "id_rsa", block)

	loaded, err := LoadKeyFile(path)
	if err != nil {
		t.Fatalf("LoadKeyFile: %v", err)
	}
	if !loaded.Equal(key) {
		t.Fatal("loaded key differs from the original")
	}
}

func TestLoadKeyFileMissing(t *testing.T) {
	_, err := LoadKeyFile(filepath.Join(t.TempDir(), "absent.pem"))
	if err == nil {
		t.Fatal("LoadKeyFile succeeded on a missing file")
	}
}

func TestLoadKeyFileNotPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk")
	if err := os.WriteFile(path, []byte("this is not a key"), 0600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	_, err := LoadKeyFile(path)
	if err == nil || !strings.Contains(err.Error(), "no PEM data") {
		t.Fatalf("LoadKeyFile on junk: %v", err)
	}
}

func TestLoadKeyFileRejectsNonRSA(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating ECDSA key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(ecKey)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}
	path := writeKeyFile(t, "ec.pem", &pem.Block{Type: "PRIVATE KEY", Bytes: der})

	_, err = LoadKeyFile(path)
	if err == nil || !strings.Contains(err.Error(), "not an RSA private key") {
		t.Fatalf("LoadKeyFile on ECDSA key: %v", err)
	}
}
