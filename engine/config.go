// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package engine

import (
	"errors"
	"time"
)

// Config defines a protocol engine configuration. The default is
// applied for each unspecified value, the same shape as the teacher's
// cs104.Config, generalized to the timeouts and limits spec.md §4.2,
// §4.3 and §5 name: connect/read watchdog, reconnect back-off floor
// and ceiling, heartbeat watchdog, and the outbound FIFO depth.
type Config struct {
	// ReadWriteTimeout bounds every blocking transport operation
	// (spec.md §4.2 default 10s) and doubles as the heartbeat
	// watchdog (spec.md §4.3: "the configurable inbound poll timeout
	// serves as the watchdog").
	ReadWriteTimeout time.Duration

	// ResetDelay is the initial reconnect delay used when the
	// controller address changed (spec.md §4.2, default 3s).
	ResetDelay time.Duration

	// ReconnectDelay is the initial reconnect delay used when retrying
	// the same address (spec.md §4.2, default 15s).
	ReconnectDelay time.Duration

	// BackoffMin/BackoffMax bound every reconnect delay regardless of
	// which initial value above it grew from (spec.md §4.2: [3s,300s]).
	BackoffMin time.Duration
	BackoffMax time.Duration

	// OutboundQueueDepth bounds the outbound FIFO (spec.md §4.3 "a
	// bounded FIFO").
	OutboundQueueDepth int

	// InboundCommandQueueDepth bounds the command-loop queue
	// (spec.md §5 "unbounded-but-backpressured queue" — modeled here
	// as a large bounded channel, since an unbounded Go channel isn't
	// expressible without a supporting goroutine the rest of the spec
	// doesn't call for).
	InboundCommandQueueDepth int
}

// Valid applies the default for each unspecified field.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("engine: nil config")
	}
	if c.ReadWriteTimeout == 0 {
		c.ReadWriteTimeout = 10 * time.Second
	}
	if c.ResetDelay == 0 {
		c.ResetDelay = 3 * time.Second
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 15 * time.Second
	}
	if c.BackoffMin == 0 {
		c.BackoffMin = 3 * time.Second
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = 300 * time.Second
	}
	if c.BackoffMin > c.BackoffMax {
		return errors.New("engine: BackoffMin exceeds BackoffMax")
	}
	if c.OutboundQueueDepth == 0 {
		c.OutboundQueueDepth = 256
	}
	if c.InboundCommandQueueDepth == 0 {
		c.InboundCommandQueueDepth = 1024
	}
	return nil
}

// DefaultConfig returns a Config with every field at its spec.md
// default.
func DefaultConfig() Config {
	cfg := Config{}
	_ = cfg.Valid()
	return cfg
}
