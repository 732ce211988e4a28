// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package neverbleed

import (
	"net"
	"sync"
)

// connPool manages the supervisor's connections to the daemon. The
// original design cached one connection per OS thread; goroutines are
// not pinned to threads, so the Go rendering is a free pool with
// scoped acquisition: get pops an idle connection or dials a new one,
// put returns a connection that completed a request/response exchange
// cleanly. A connection is only ever used by one request at a time,
// preserving the strict request/response alternation the protocol
// requires.
//
// Connections that fault are never returned to the pool — the proxy
// layer aborts the process instead — so everything idle here is
// believed healthy.
type connPool struct {
	socketPath string

	mu     sync.Mutex
	idle   []net.Conn
	closed bool
}

func newConnPool(socketPath string) *connPool {
	return &connPool{socketPath: socketPath}
}

// get returns an idle connection or dials the daemon.
func (p *connPool) get() (net.Conn, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()
	return net.Dial("unix", p.socketPath)
}

// put returns a healthy connection for reuse. After close, the
// connection is discarded instead.
func (p *connPool) put(conn net.Conn) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return
	}
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
}

// close discards all idle connections and makes future puts discard.
func (p *connPool) close() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()
	for _, conn := range idle {
		conn.Close()
	}
}
