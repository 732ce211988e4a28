// Copyright 2026 The Neverbleed Authors
// SPDX-License-Identifier: MIT

package daemon

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/sharksforarms/neverbleed/protocol"
	"github.com/sharksforarms/neverbleed/wire"
)

// Server accepts supervisor connections and dispatches their commands
// against a single shared key registry. One Server per daemon process.
type Server struct {
	registry Registry
	logger   *slog.Logger
}

// NewServer returns a server logging through logger.
func NewServer(logger *slog.Logger) *Server {
	return &Server{logger: logger}
}

// Registry exposes the server's key registry. Standalone mode uses it
// to preload keys before serving.
func (s *Server) Registry() *Registry {
	return &s.registry
}

// PreloadKeys loads each key file and registers it, logging the
// assigned index. Indices are assigned in list order, so a supervisor
// configured with the same list can address keys positionally.
func (s *Server) PreloadKeys(paths []string) error {
	for _, path := range paths {
		key, err := LoadKeyFile(path)
		if err != nil {
			return fmt.Errorf("preloading key: %w", err)
		}
		index := s.registry.Register(key)
		s.logger.Info("preloaded private key", "path", path, "index", index)
	}
	return nil
}

// Serve runs the accept loop until the listener is closed, serving
// each connection on its own goroutine. Connections never share
// request state, so there is no cross-connection ordering.
func (s *Server) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go s.serveConn(conn)
	}
}

// serveConn runs one connection's request/response loop: read a
// frame, dispatch on the leading command name, write the response
// built into the same buffer, repeat. Any transport error, decode
// error, or unknown command abandons the connection — the peer is
// desynchronized and no response is written.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	buf := wire.New()
	defer buf.Close()

	for {
		if err := wire.ReadFrame(conn, buf, protocol.MaxFrameSize); err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("read error", "error", err)
			}
			return
		}
		cmd, err := buf.ShiftString()
		if err != nil {
			s.logger.Warn("failed to parse request: missing command")
			return
		}

		var ok bool
		switch cmd {
		case protocol.CmdPrivEnc:
			ok = s.encDecStub(protocol.CmdPrivEnc, privEncrypt, buf)
		case protocol.CmdPrivDec:
			ok = s.encDecStub(protocol.CmdPrivDec, privDecrypt, buf)
		case protocol.CmdSign:
			ok = s.signStub(buf)
		case protocol.CmdLoadKey:
			ok = s.loadKeyStub(buf)
		default:
			s.logger.Warn("unknown command", "command", cmd)
			return
		}
		if !ok {
			return
		}

		if err := wire.WriteFrame(conn, buf); err != nil {
			s.logger.Warn("write error", "error", err)
			return
		}
		buf.Reset()
	}
}

// encDecStub handles priv_enc and priv_dec, which share a request
// shape: input bytes, key index, padding mode. Returns false when the
// request is malformed and the connection must close; domain failures
// (unknown index, primitive failure) produce a failure response and
// keep the connection alive.
func (s *Server) encDecStub(name string, op func(*rsa.PrivateKey, []byte, uint64) ([]byte, error), buf *wire.Buffer) bool {
	input, err := buf.ShiftBytes()
	if err != nil {
		s.logger.Warn("failed to parse request", "command", name)
		return false
	}
	index, err := buf.ShiftNum()
	if err != nil {
		s.logger.Warn("failed to parse request", "command", name)
		return false
	}
	padding, err := buf.ShiftNum()
	if err != nil {
		s.logger.Warn("failed to parse request", "command", name)
		return false
	}

	key := s.registry.Lookup(index)
	if key == nil {
		s.logger.Warn("invalid key index", "command", name, "index", index)
		buf.Reset()
		buf.PushNum(protocol.Failure)
		buf.PushBytes(nil)
		return true
	}

	// The input aliases the request buffer; the operation runs before
	// Reset zeroes it.
	output, opErr := op(key, input, padding)
	buf.Reset()
	if opErr != nil {
		s.logger.Warn("private-key operation failed", "command", name, "error", opErr)
		buf.PushNum(protocol.Failure)
		buf.PushBytes(nil)
		return true
	}
	buf.PushNum(protocol.Success)
	buf.PushBytes(output)
	return true
}

// signStub handles sign: digest type, message bytes, key index.
func (s *Server) signStub(buf *wire.Buffer) bool {
	digestType, err := buf.ShiftNum()
	if err != nil {
		s.logger.Warn("failed to parse request", "command", protocol.CmdSign)
		return false
	}
	digest, err := buf.ShiftBytes()
	if err != nil {
		s.logger.Warn("failed to parse request", "command", protocol.CmdSign)
		return false
	}
	index, err := buf.ShiftNum()
	if err != nil {
		s.logger.Warn("failed to parse request", "command", protocol.CmdSign)
		return false
	}

	key := s.registry.Lookup(index)
	if key == nil {
		s.logger.Warn("invalid key index", "command", protocol.CmdSign, "index", index)
		buf.Reset()
		buf.PushNum(protocol.Failure)
		buf.PushBytes(nil)
		return true
	}

	signature, opErr := signDigest(key, digestType, digest)
	buf.Reset()
	if opErr != nil {
		s.logger.Warn("private-key operation failed", "command", protocol.CmdSign, "error", opErr)
		buf.PushNum(protocol.Failure)
		buf.PushBytes(nil)
		return true
	}
	buf.PushNum(protocol.Success)
	buf.PushBytes(signature)
	return true
}

// loadKeyStub handles load_key: it opens and parses the key file,
// registers the key, and responds with the assigned index plus the
// public parameters as uppercase hex. File and parse failures are
// reported to the supervisor in the error field with the sentinel
// index and empty parameter strings.
func (s *Server) loadKeyStub(buf *wire.Buffer) bool {
	path, err := buf.ShiftString()
	if err != nil {
		s.logger.Warn("failed to parse request", "command", protocol.CmdLoadKey)
		return false
	}

	key, loadErr := LoadKeyFile(path)
	buf.Reset()
	if loadErr != nil {
		s.logger.Warn("failed to load private key", "path", path, "error", loadErr)
		buf.PushNum(protocol.Failure)
		buf.PushNum(protocol.InvalidKeyIndex)
		buf.PushString("")
		buf.PushString("")
		buf.PushString(loadErr.Error())
		return true
	}

	index := s.registry.Register(key)
	s.logger.Info("loaded private key", "path", path, "index", index)
	buf.PushNum(protocol.Success)
	buf.PushNum(index)
	buf.PushString(fmt.Sprintf("%X", key.PublicKey.E))
	buf.PushString(strings.ToUpper(key.PublicKey.N.Text(16)))
	buf.PushString("")
	return true
}
