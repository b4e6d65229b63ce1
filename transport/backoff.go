package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/amxpanel/icspcore/clog"
)

// Reconnector redials Options.Addr with an exponential-capped delay,
// spec.md §4.2: "reset = 3 s for address change, reconnect = 15 s for
// same address retry, bounded between 3 and 300 s." It wraps
// cenkalti/backoff/v5's ExponentialBackOff rather than hand-rolling
// the cap/jitter arithmetic the teacher's cs104.Config only documents
// as constants.
type Reconnector struct {
	opts       Options
	sameAddr   bool
	lastAddr   string
	resetDelay time.Duration
	retryDelay time.Duration
	min, max   time.Duration
	log        clog.Clog
}

// NewReconnector builds a Reconnector for opts using the reset/retry
// initial delays and [min,max] cap from engine configuration. The
// caller (engine) owns opts.Addr and may change it between calls to
// Dial, which is what distinguishes a "reset" from a "reconnect".
func NewReconnector(opts Options, resetDelay, retryDelay, min, max time.Duration, log clog.Clog) *Reconnector {
	return &Reconnector{
		opts:       opts,
		resetDelay: resetDelay,
		retryDelay: retryDelay,
		min:        min,
		max:        max,
		log:        log,
	}
}

// Dial connects, retrying with backoff until ctx is done. The initial
// delay is resetDelay the first time addr changes since the last
// successful connect, retryDelay otherwise.
func (r *Reconnector) Dial(ctx context.Context, addr string) (Transport, error) {
	r.opts.Addr = addr
	initial := r.retryDelay
	if addr != r.lastAddr {
		initial = r.resetDelay
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.MaxInterval = r.max
	if bo.InitialInterval < r.min {
		bo.InitialInterval = r.min
	}

	operation := func() (Transport, error) {
		t, err := Dial(r.opts)
		if err != nil {
			r.log.Warn("transport: dial %s failed: %v", addr, err)
			return nil, err
		}
		return t, nil
	}

	t, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxElapsedTime(0), // retry until ctx is cancelled
	)
	if err != nil {
		return nil, err
	}
	r.lastAddr = addr
	return t, nil
}
