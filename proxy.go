// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package neverbleed

import (
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/sharksforarms/neverbleed/protocol"
	"github.com/sharksforarms/neverbleed/wire"
)

// osExit is swapped out by tests that exercise the fatal path.
var osExit = os.Exit

// fatal is the dedicated unrecoverable-error path for channel and
// protocol faults on the supervisor side. A private-key channel whose
// state can no longer be trusted must not keep running: partially
// completed operations must not silently proceed, and there is no
// safe reconnect.
func (rt *Runtime) fatal(msg string, err error) {
	if err != nil {
		rt.logger.Error(msg, "error", err)
	} else {
		rt.logger.Error(msg)
	}
	osExit(1)
}

// roundTrip sends the buffer's contents as one request and replaces
// them with the daemon's response. Any transport failure in either
// direction is fatal.
func (rt *Runtime) roundTrip(buf *wire.Buffer) {
	conn, err := rt.pool.get()
	if err != nil {
		rt.fatal("failed to connect to privsep daemon", err)
	}
	if err := wire.WriteFrame(conn, buf); err != nil {
		rt.fatal("write error on privsep channel", err)
	}
	buf.Reset()
	if err := wire.ReadFrame(conn, buf, protocol.MaxFrameSize); err != nil {
		rt.fatal("read error on privsep channel", err)
	}
	rt.pool.put(conn)
}

// privOp runs priv_enc or priv_dec: both carry (input, key index,
// padding) and answer (return code, output). A failure return code is
// a domain error; a malformed response is fatal.
func (rt *Runtime) privOp(cmd string, index uint64, input []byte, padding uint64) ([]byte, error) {
	buf := wire.New()
	defer buf.Close()

	buf.PushString(cmd)
	buf.PushBytes(input)
	buf.PushNum(index)
	buf.PushNum(padding)
	rt.roundTrip(buf)

	code, err := buf.ShiftNum()
	if err != nil {
		rt.fatal("failed to parse response", err)
	}
	output, err := buf.ShiftBytes()
	if err != nil {
		rt.fatal("failed to parse response", err)
	}
	if code != protocol.Success {
		return nil, fmt.Errorf("%s: daemon reported failure", cmd)
	}
	// Copy out before Close zeroes the buffer.
	return append([]byte(nil), output...), nil
}

// sign runs the sign command: (digest type, digest, key index) in,
// (return code, signature) out.
func (rt *Runtime) sign(index uint64, digestType uint64, digest []byte) ([]byte, error) {
	buf := wire.New()
	defer buf.Close()

	buf.PushString(protocol.CmdSign)
	buf.PushNum(digestType)
	buf.PushBytes(digest)
	buf.PushNum(index)
	rt.roundTrip(buf)

	code, err := buf.ShiftNum()
	if err != nil {
		rt.fatal("failed to parse response", err)
	}
	signature, err := buf.ShiftBytes()
	if err != nil {
		rt.fatal("failed to parse response", err)
	}
	if code != protocol.Success {
		return nil, fmt.Errorf("sign: daemon reported failure")
	}
	return append([]byte(nil), signature...), nil
}

// loadKey runs load_key and returns the assigned index plus the
// public parameters. Unlike the other proxies, a daemon-reported
// failure here is a normal, recoverable condition — "key file not
// found" is caller input error, not a channel fault — so it comes
// back as an error carrying the daemon's message.
func (rt *Runtime) loadKey(path string) (index uint64, e int, n *big.Int, err error) {
	buf := wire.New()
	defer buf.Close()

	buf.PushString(protocol.CmdLoadKey)
	buf.PushString(path)
	rt.roundTrip(buf)

	code, shiftErr := buf.ShiftNum()
	if shiftErr != nil {
		rt.fatal("failed to parse response", shiftErr)
	}
	index, shiftErr = buf.ShiftNum()
	if shiftErr != nil {
		rt.fatal("failed to parse response", shiftErr)
	}
	eHex, shiftErr := buf.ShiftString()
	if shiftErr != nil {
		rt.fatal("failed to parse response", shiftErr)
	}
	nHex, shiftErr := buf.ShiftString()
	if shiftErr != nil {
		rt.fatal("failed to parse response", shiftErr)
	}
	message, shiftErr := buf.ShiftString()
	if shiftErr != nil {
		rt.fatal("failed to parse response", shiftErr)
	}

	if code != protocol.Success {
		return 0, 0, nil, fmt.Errorf("loading private key: %s", message)
	}

	// The daemon is this library; hex it emits always parses. A
	// mismatch means the channel is corrupt.
	parsedE, parseErr := strconv.ParseInt(eHex, 16, 64)
	if parseErr != nil {
		rt.fatal("malformed public exponent in response", parseErr)
	}
	parsedN, ok := new(big.Int).SetString(nHex, 16)
	if !ok {
		rt.fatal("malformed modulus in response", nil)
	}
	return index, int(parsedE), parsedN, nil
}
