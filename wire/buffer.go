// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package wire

import (
	"encoding/binary"
	"errors"
)

// NumWidth is the width in bytes of every fixed-width numeric field:
// counts, key indices, return codes, and padding/digest selectors.
const NumWidth = 8

// initialCapacity is the starting allocation for a buffer's first
// reserve. Most messages (a command name, an index, and one RSA-sized
// blob) fit without growing.
const initialCapacity = 4096

// ErrDecode is returned by the Shift functions when the buffer does
// not contain a well-formed field of the requested type. It reports a
// protocol-level fault: the callers decide whether that is fatal (the
// supervisor proxy) or merely closes one connection (the daemon).
var ErrDecode = errors.New("wire: malformed or truncated field")

// Buffer is a growable byte container with a read cursor and a write
// cursor. Fields are appended ("pushed") at the write cursor and
// consumed ("shifted") from the read cursor; no field is ever re-read.
//
// Invariant: 0 <= read <= write <= cap(storage). Growth doubles the
// capacity and preserves both cursor offsets.
//
// A Buffer is not safe for concurrent use. Each message — inbound or
// outbound — gets its own Buffer (or an explicit Reset between
// messages on the daemon's serve loop).
type Buffer struct {
	storage []byte // full allocation; occupied region is storage[read:write]
	read    int
	write   int
}

// New returns an empty buffer. The first push allocates.
func New() *Buffer {
	return &Buffer{}
}

// Len reports the number of unconsumed bytes between the read and
// write cursors.
func (b *Buffer) Len() int {
	return b.write - b.read
}

// Bytes returns the unconsumed region. The slice aliases the buffer's
// storage and is invalidated by any push, Reset, or Close.
func (b *Buffer) Bytes() []byte {
	return b.storage[b.read:b.write]
}

// Reserve grows the buffer so that at least n more bytes can be pushed
// without reallocation. Cursor offsets are preserved. The abandoned
// allocation is zeroed before release since it may hold key material.
func (b *Buffer) Reserve(n int) {
	if cap(b.storage)-b.write >= n {
		return
	}
	capacity := cap(b.storage)
	if capacity == 0 {
		capacity = initialCapacity
	}
	for capacity-b.write < n {
		capacity *= 2
	}
	grown := make([]byte, capacity)
	copy(grown, b.storage[:b.write])
	zero(b.storage)
	b.storage = grown
}

// PushNum appends a fixed-width numeric field in native byte order.
func (b *Buffer) PushNum(v uint64) {
	b.Reserve(NumWidth)
	binary.NativeEndian.PutUint64(b.storage[b.write:b.write+NumWidth], v)
	b.write += NumWidth
}

// PushString appends the bytes of s followed by a terminating NUL.
func (b *Buffer) PushString(s string) {
	b.Reserve(len(s) + 1)
	copy(b.storage[b.write:], s)
	b.write += len(s)
	b.storage[b.write] = 0
	b.write++
}

// PushBytes appends a length prefix (as PushNum) followed by the raw
// bytes of p.
func (b *Buffer) PushBytes(p []byte) {
	b.PushNum(uint64(len(p)))
	b.Reserve(len(p))
	copy(b.storage[b.write:], p)
	b.write += len(p)
}

// ShiftNum consumes one fixed-width numeric field. Returns ErrDecode
// if fewer than NumWidth bytes remain.
func (b *Buffer) ShiftNum() (uint64, error) {
	if b.Len() < NumWidth {
		return 0, ErrDecode
	}
	v := binary.NativeEndian.Uint64(b.storage[b.read : b.read+NumWidth])
	b.read += NumWidth
	return v, nil
}

// ShiftString consumes bytes up to and including the next NUL and
// returns them (without the NUL) as a string. Returns ErrDecode if no
// NUL is found in the unconsumed region.
func (b *Buffer) ShiftString() (string, error) {
	region := b.Bytes()
	for i, c := range region {
		if c == 0 {
			b.read += i + 1
			return string(region[:i]), nil
		}
	}
	return "", ErrDecode
}

// ShiftBytes consumes a length prefix and then that many raw bytes.
// The returned slice aliases the buffer's storage: it is valid until
// the next push, Reset, or Close, and is zeroed by the latter two.
// Callers that need the bytes beyond the buffer's lifetime must copy.
func (b *Buffer) ShiftBytes() ([]byte, error) {
	length, err := b.ShiftNum()
	if err != nil {
		return nil, err
	}
	if uint64(b.Len()) < length {
		return nil, ErrDecode
	}
	p := b.storage[b.read : b.read+int(length)]
	b.read += int(length)
	return p, nil
}

// Reset zeroes the occupied region and rewinds both cursors so the
// allocation can be reused for the next message. The daemon's serve
// loop resets the request buffer before encoding each response into
// it.
func (b *Buffer) Reset() {
	zero(b.storage[:b.write])
	b.read = 0
	b.write = 0
}

// Close zeroes the occupied region and releases the allocation.
// Secrets must not linger in freed memory. The buffer is empty and
// reusable afterwards, though callers normally discard it.
func (b *Buffer) Close() {
	zero(b.storage[:b.write])
	b.storage = nil
	b.read = 0
	b.write = 0
}

func zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
