// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteFrame writes the buffer's unconsumed region as one message:
// an 8-byte native-endian body length followed by the body. A short
// write surfaces as the transport's error; net.Conn retries
// interrupted writes internally, so any error here is final.
func WriteFrame(w io.Writer, b *Buffer) error {
	var header [NumWidth]byte
	binary.NativeEndian.PutUint64(header[:], uint64(b.Len()))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if _, err := w.Write(b.Bytes()); err != nil {
		return fmt.Errorf("writing frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one message from r and appends its body at the
// buffer's write cursor. A clean EOF before any header byte is
// returned as io.EOF so callers can distinguish an orderly peer close
// from corruption; EOF mid-header or mid-body is a hard error. A body
// length above max is reported as ErrDecode — it means the stream is
// desynchronized, not that a legitimate message was too big.
func ReadFrame(r io.Reader, b *Buffer, max uint64) error {
	var header [NumWidth]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("reading frame header: %w", err)
	}
	length := binary.NativeEndian.Uint64(header[:])
	if length > max {
		return fmt.Errorf("frame body of %d bytes exceeds limit %d: %w", length, max, ErrDecode)
	}
	b.Reserve(int(length))
	if _, err := io.ReadFull(r, b.storage[b.write:b.write+int(length)]); err != nil {
		return fmt.Errorf("reading frame body: %w", err)
	}
	b.write += int(length)
	return nil
}
