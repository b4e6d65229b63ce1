package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amxpanel/icspcore/clog"
)

// TestReconnectorDialRetriesUntilListenerIsUp exercises spec.md §4.2's
// reconnect-with-backoff behavior: the first dial attempt against a
// closed port fails, and Reconnector.Dial keeps retrying until a
// listener comes up on the same address.
func TestReconnectorDialRetriesUntilListenerIsUp(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := probe.Addr().String()
	require.NoError(t, probe.Close())

	accepted := make(chan struct{})
	go func() {
		time.Sleep(30 * time.Millisecond)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		defer ln.Close()
		conn, err := ln.Accept()
		if err == nil {
			_ = conn.Close()
		}
		close(accepted)
	}()

	r := NewReconnector(Options{}, 5*time.Millisecond, 5*time.Millisecond, 5*time.Millisecond, 20*time.Millisecond, clog.NewLogger("test"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := r.Dial(ctx, addr)
	require.NoError(t, err)
	require.NotNil(t, tr)
	_ = tr.Close()

	select {
	case <-accepted:
	case <-time.After(time.Second):
		t.Fatal("listener never accepted the retried dial")
	}
}

// TestReconnectorDialStopsOnContextCancellation exercises the "retry
// until ctx is done" half of spec.md §4.2: with no listener ever
// coming up, Dial returns once ctx is cancelled instead of retrying
// forever.
func TestReconnectorDialStopsOnContextCancellation(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := probe.Addr().String()
	require.NoError(t, probe.Close())

	r := NewReconnector(Options{}, 5*time.Millisecond, 5*time.Millisecond, 5*time.Millisecond, 10*time.Millisecond, clog.NewLogger("test"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = r.Dial(ctx, addr)
	require.Error(t, err)
}
