// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package daemon

import (
	"crypto/rsa"
	"sync"
)

// Registry is the daemon's append-only table of loaded private keys.
// Indices are dense, start at 0, and are assigned in registration
// order; a valid index resolves for the remainder of the process.
// There is no removal or replacement.
//
// The mutex guards only the append and the slice read — key objects
// themselves are immutable after registration.
type Registry struct {
	mu   sync.Mutex
	keys []*rsa.PrivateKey
}

// Register appends key and returns its new index.
func (r *Registry) Register(key *rsa.PrivateKey) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return uint64(len(r.keys) - 1)
}

// Lookup returns the key at index, or nil when the index has never
// been assigned. An unknown index is caller error, not corruption.
func (r *Registry) Lookup(index uint64) *rsa.PrivateKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index >= uint64(len(r.keys)) {
		return nil
	}
	return r.keys[index]
}

// Len reports the number of registered keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
