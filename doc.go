// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

// Package neverbleed keeps RSA private keys out of the address space
// of the process that uses them. Init spawns a daemon child process
// that alone loads and holds private keys; the supervisor receives a
// PrivateKey handle carrying only the public parameters and an opaque
// key index, and every private-key operation is forwarded to the
// daemon over a unix-domain socket.
//
// PrivateKey implements crypto.Signer and crypto.Decrypter, so it
// drops into crypto/tls and any other consumer of those interfaces:
//
//	func main() {
//		neverbleed.RunDaemonIfChild()
//
//		rt, err := neverbleed.Init()
//		...
//		cert, err := rt.LoadTLSCertificate("server.crt", "server.key")
//		...
//		config := &tls.Config{Certificates: []tls.Certificate{cert}}
//	}
//
// The daemon is, by default, the supervisor's own executable
// re-executed in daemon mode, which is why main must call
// RunDaemonIfChild before anything else. Deployments that prefer a
// dedicated helper binary point WithDaemonBinary at neverbleed-daemon.
//
// The channel between the two processes is trusted: it lives in a
// freshly created mode-0700 directory and carries no authentication.
// A supervisor-side transport or protocol fault therefore terminates
// the process — a private-key channel in an inconsistent state cannot
// be trusted to resume — while daemon-reported domain failures (an
// unreadable key file, an unknown key index) surface as ordinary
// errors.
package neverbleed
