package engine

import (
	"context"

	"github.com/amxpanel/icspcore/transport"
)

// RunWithReconnect drives successive sessions against addr, redialing
// through reconnector whenever a session ends in error (spec.md §4.2:
// "any I/O or framing error" sends the state machine back to
// Offline and reconnect begins). It returns only when ctx is done.
func (e *Engine) RunWithReconnect(ctx context.Context, reconnector *transport.Reconnector, addr string) error {
	for {
		tr, err := reconnector.Dial(ctx, addr)
		if err != nil {
			return err
		}

		runErr := e.Run(ctx, tr)

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if runErr != nil {
			e.log.Warn("engine: session ended, reconnecting: %v", runErr)
		}
	}
}
