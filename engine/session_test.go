package engine

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/mc"
	"github.com/amxpanel/icspcore/transport"
	"github.com/amxpanel/icspcore/wire"
)

// TestRunWithReconnectRedialsAndReachesReady exercises spec.md §4.2's
// reconnect loop end to end: the first dial attempt has nothing
// listening, so Reconnector.Dial retries; once a controller comes up
// and sends its device-info announce, the session completes the
// handshake and the engine reaches Ready.
func TestRunWithReconnectRedialsAndReachesReady(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := probe.Addr().String()
	require.NoError(t, probe.Close())

	log := clog.NewLogger("test")
	ready := make(chan struct{})
	go func() {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		announce := wire.Message{MC: uint16(mc.DeviceInfo), DevSrc: 1, PortSrc: 1}
		if _, err := conn.Write(wire.Encode(announce)); err != nil {
			return
		}

		header := make([]byte, wire.FixedHeaderSize)
		for i := 0; i < 8; i++ {
			if _, err := readFull(conn, header); err != nil {
				return
			}
			headerLen := uint16(header[1])<<8 | uint16(header[2])
			payloadLen, err := wire.PayloadLenFromHeader(headerLen)
			if err != nil {
				return
			}
			if _, err := readFull(conn, make([]byte, payloadLen+1)); err != nil {
				return
			}
		}
		close(ready)
		<-context.Background().Done()
	}()

	identity := Identity{
		Panel:  DeviceRecord{ObjectID: 0, DeviceID: 0x0149, Serial: NewSerial("ABC123XYZ00000")},
		Kernel: DeviceRecord{ObjectID: 2, DeviceID: 0x0149, Serial: NewSerial("ABC123XYZ00000")},
		IPv4:   net.IPv4(127, 0, 0, 1),
	}
	e := New(DefaultConfig(), identity, DefaultCapacities(), log)

	reconnector := transport.NewReconnector(transport.Options{Timeout: time.Second}, 5*time.Millisecond, 5*time.Millisecond, 5*time.Millisecond, 20*time.Millisecond, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() { _ = e.RunWithReconnect(ctx, reconnector, addr) }()

	select {
	case <-ready:
	case <-time.After(4 * time.Second):
		t.Fatal("handshake never completed over the reconnected session")
	}
	require.Equal(t, Ready, e.State())
}
