// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFieldRoundTrip(t *testing.T) {
	buf := New()
	defer buf.Close()

	payload := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	buf.PushNum(42)
	buf.PushString("load_key")
	buf.PushBytes(payload)
	buf.PushNum(^uint64(0))
	buf.PushString("")

	n, err := buf.ShiftNum()
	if err != nil || n != 42 {
		t.Fatalf("ShiftNum = %d, %v, want 42, nil", n, err)
	}
	s, err := buf.ShiftString()
	if err != nil || s != "load_key" {
		t.Fatalf("ShiftString = %q, %v, want \"load_key\", nil", s, err)
	}
	p, err := buf.ShiftBytes()
	if err != nil || !bytes.Equal(p, payload) {
		t.Fatalf("ShiftBytes = %x, %v, want %x, nil", p, err, payload)
	}
	n, err = buf.ShiftNum()
	if err != nil || n != ^uint64(0) {
		t.Fatalf("ShiftNum = %d, %v, want max, nil", n, err)
	}
	s, err = buf.ShiftString()
	if err != nil || s != "" {
		t.Fatalf("ShiftString = %q, %v, want empty, nil", s, err)
	}

	// Every field consumed: the read cursor sits exactly at the write
	// cursor.
	if buf.Len() != 0 {
		t.Fatalf("buffer has %d unconsumed bytes after full decode", buf.Len())
	}
}

func TestShiftEmptyBytes(t *testing.T) {
	buf := New()
	defer buf.Close()

	buf.PushBytes(nil)
	p, err := buf.ShiftBytes()
	if err != nil {
		t.Fatalf("ShiftBytes: %v", err)
	}
	if len(p) != 0 {
		t.Fatalf("ShiftBytes returned %d bytes, want 0", len(p))
	}
}

func TestShiftFailures(t *testing.T) {
	t.Run("num from empty buffer", func(t *testing.T) {
		buf := New()
		defer buf.Close()
		if _, err := buf.ShiftNum(); !errors.Is(err, ErrDecode) {
			t.Fatalf("ShiftNum on empty buffer: %v, want ErrDecode", err)
		}
	})

	t.Run("string without terminator", func(t *testing.T) {
		buf := New()
		defer buf.Close()
		buf.PushBytes([]byte("no nul here")) // length prefix then raw bytes
		if _, err := buf.ShiftNum(); err != nil {
			t.Fatalf("consuming prefix: %v", err)
		}
		if _, err := buf.ShiftString(); !errors.Is(err, ErrDecode) {
			t.Fatalf("ShiftString without NUL: %v, want ErrDecode", err)
		}
	})

	t.Run("bytes with short body", func(t *testing.T) {
		buf := New()
		defer buf.Close()
		buf.PushNum(1000) // claims 1000 bytes, none follow
		if _, err := buf.ShiftBytes(); !errors.Is(err, ErrDecode) {
			t.Fatalf("ShiftBytes with short body: %v, want ErrDecode", err)
		}
	})
}

func TestNoFieldReRead(t *testing.T) {
	buf := New()
	defer buf.Close()

	buf.PushNum(1)
	buf.PushNum(2)
	if v, _ := buf.ShiftNum(); v != 1 {
		t.Fatalf("first shift = %d, want 1", v)
	}
	if v, _ := buf.ShiftNum(); v != 2 {
		t.Fatalf("second shift = %d, want 2", v)
	}
	if _, err := buf.ShiftNum(); !errors.Is(err, ErrDecode) {
		t.Fatalf("third shift: %v, want ErrDecode", err)
	}
}

func TestReserveGrowthPreservesCursors(t *testing.T) {
	buf := New()
	defer buf.Close()

	// Fill past the initial allocation while partially consuming, so
	// both cursors are nonzero across several growth steps.
	blob := bytes.Repeat([]byte{0xa5}, 1024)
	for i := 0; i < 4; i++ {
		buf.PushNum(uint64(i))
		buf.PushBytes(blob)
	}
	if v, _ := buf.ShiftNum(); v != 0 {
		t.Fatalf("pre-growth shift = %d, want 0", v)
	}
	for i := 0; i < 64; i++ {
		buf.PushBytes(blob)
	}

	p, err := buf.ShiftBytes()
	if err != nil || !bytes.Equal(p, blob) {
		t.Fatalf("post-growth ShiftBytes: %v", err)
	}
	for i := 1; i < 4; i++ {
		v, err := buf.ShiftNum()
		if err != nil || v != uint64(i) {
			t.Fatalf("post-growth ShiftNum = %d, %v, want %d", v, err, i)
		}
		if _, err := buf.ShiftBytes(); err != nil {
			t.Fatalf("post-growth ShiftBytes: %v", err)
		}
	}
	for i := 0; i < 64; i++ {
		p, err := buf.ShiftBytes()
		if err != nil || !bytes.Equal(p, blob) {
			t.Fatalf("blob %d after growth: %v", i, err)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("%d unconsumed bytes remain", buf.Len())
	}
}

func TestResetZeroesOccupiedRegion(t *testing.T) {
	buf := New()
	buf.PushBytes([]byte("a very private exponent"))
	storage := buf.storage
	buf.Reset()
	for i, c := range storage {
		if c != 0 {
			t.Fatalf("storage[%d] = %#x after Reset, want 0", i, c)
		}
	}
	if buf.Len() != 0 || buf.read != 0 || buf.write != 0 {
		t.Fatal("cursors not rewound by Reset")
	}
}

func TestCloseZeroesOccupiedRegion(t *testing.T) {
	buf := New()
	buf.PushString("hunter2")
	storage := buf.storage
	buf.Close()
	for i, c := range storage {
		if c != 0 {
			t.Fatalf("storage[%d] = %#x after Close, want 0", i, c)
		}
	}
}

func TestFrameRoundTrip(t *testing.T) {
	out := New()
	defer out.Close()
	out.PushString("sign")
	out.PushNum(5)
	out.PushBytes([]byte{1, 2, 3})

	var stream bytes.Buffer
	if err := WriteFrame(&stream, out); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	in := New()
	defer in.Close()
	if err := ReadFrame(&stream, in, 1<<20); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	if s, _ := in.ShiftString(); s != "sign" {
		t.Fatalf("decoded command %q", s)
	}
	if v, _ := in.ShiftNum(); v != 5 {
		t.Fatalf("decoded num %d", v)
	}
	if p, _ := in.ShiftBytes(); !bytes.Equal(p, []byte{1, 2, 3}) {
		t.Fatalf("decoded bytes %x", p)
	}
	if in.Len() != 0 {
		t.Fatalf("%d trailing bytes", in.Len())
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	in := New()
	defer in.Close()
	err := ReadFrame(bytes.NewReader(nil), in, 1<<20)
	if err != io.EOF {
		t.Fatalf("ReadFrame on empty stream: %v, want io.EOF", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	out := New()
	defer out.Close()
	out.PushString("priv_dec")
	out.PushBytes(bytes.Repeat([]byte{7}, 64))

	var stream bytes.Buffer
	if err := WriteFrame(&stream, out); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	// Drop the tail of the body: the header still promises the full
	// length.
	truncated := stream.Bytes()[:stream.Len()-10]

	in := New()
	defer in.Close()
	err := ReadFrame(bytes.NewReader(truncated), in, 1<<20)
	if err == nil || err == io.EOF {
		t.Fatalf("ReadFrame on truncated stream: %v, want hard error", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("ReadFrame on truncated stream: %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReadFrameOversizedLength(t *testing.T) {
	// A header claiming a body far beyond the limit means the stream
	// is desynchronized; the reader must not try to allocate it.
	out := New()
	defer out.Close()
	out.PushNum(1 << 40) // reuse the field encoder to build the bogus header

	in := New()
	defer in.Close()
	err := ReadFrame(bytes.NewReader(out.Bytes()), in, 1<<20)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("ReadFrame with oversized length: %v, want ErrDecode", err)
	}
}
