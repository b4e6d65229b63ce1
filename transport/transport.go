// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package transport is pure byte conveyance for the ICSP session:
// it opens a TCP (optionally TLS) connection to the controller and
// exposes read_exact/write/close/is_connected, spec.md §4.2. It never
// parses protocol; framing and dispatch belong to wire and engine.
package transport

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Transport is the narrow conveyance surface the protocol engine
// depends on (spec.md §4.2).
type Transport interface {
	ReadExact(n int) ([]byte, error)
	Write(b []byte) error
	Close() error
	IsConnected() bool
}

// Options configures how Dial opens the session transport.
type Options struct {
	// Addr is "host:port" of the controller.
	Addr string

	// Timeout bounds every blocking read/write (spec.md §4.2 default
	// 10s). Zero means 10s.
	Timeout time.Duration

	// TLS turns on encryption; when set, TLSConfig (optional) and
	// VerifyConnection (optional, spec.md "Certificate verification is
	// optional and callback-driven") control the handshake.
	TLS              bool
	TLSConfig        *tls.Config
	VerifyConnection func(*tls.ConnectionState) error
}

// tcpTransport is the concrete Transport: a net.Conn (plain or TLS)
// with a poll-style read_exact built from repeated SetReadDeadline +
// Read, matching spec.md §4.2 "Read is blocking with a configurable
// per-operation timeout ... implemented by polling".
type tcpTransport struct {
	conn    net.Conn
	timeout time.Duration
	mu      sync.Mutex
	closed  atomic.Bool
}

// FromConn wraps an already-established net.Conn (used by tests, and
// by callers embedding this package in a larger connection manager
// that already did its own dial/accept).
func FromConn(conn net.Conn, timeout time.Duration) Transport {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &tcpTransport{conn: conn, timeout: timeout}
}

// Dial opens the TCP (or TLS) connection. It does not send anything:
// spec.md §4.2 "the panel does NOT initiate; it waits for the
// controller's device-info probe."
func Dial(opts Options) (Transport, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.Dial("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", opts.Addr, err)
	}

	if opts.TLS {
		tlsConf := opts.TLSConfig
		if tlsConf == nil {
			tlsConf = &tls.Config{}
		}
		tlsConn := tls.Client(conn, tlsConf)
		if err := tlsConn.Handshake(); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("transport: tls handshake: %w", err)
		}
		if opts.VerifyConnection != nil {
			state := tlsConn.ConnectionState()
			if err := opts.VerifyConnection(&state); err != nil {
				_ = tlsConn.Close()
				return nil, fmt.Errorf("transport: tls verify: %w", err)
			}
		}
		conn = tlsConn
	}

	return &tcpTransport{conn: conn, timeout: timeout}, nil
}

// ReadExact blocks until exactly n bytes are read, the connection is
// closed, or the per-operation timeout elapses.
func (t *tcpTransport) ReadExact(n int) ([]byte, error) {
	if t.closed.Load() {
		return nil, io.ErrClosedPipe
	}
	buf := make([]byte, n)
	read := 0
	for read < n {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
			return nil, err
		}
		m, err := t.conn.Read(buf[read:])
		read += m
		if err != nil {
			return buf[:read], err
		}
	}
	return buf, nil
}

// Write sends b, bounded by the same per-operation timeout.
func (t *tcpTransport) Write(b []byte) error {
	if t.closed.Load() {
		return io.ErrClosedPipe
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		return err
	}
	_, err := t.conn.Write(b)
	return err
}

// Close unblocks any in-flight ReadExact/Write (spec.md §5
// "Cancellation: session teardown cancels reader and writer (close of
// transport unblocks them)").
func (t *tcpTransport) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}

func (t *tcpTransport) IsConnected() bool {
	return !t.closed.Load()
}
