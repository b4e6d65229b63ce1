// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package engine implements the ICSP protocol engine: the three-state
// connection machine, the inbound dispatch table, the outbound API and
// FIFO, the send counter, and the heartbeat watchdog (spec.md §4.3).
package engine

import (
	"context"
	"sync"

	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/observer"
	"github.com/amxpanel/icspcore/transport"
	"github.com/amxpanel/icspcore/wire"
)

// CommandSink receives concatenated, dispatch-ready command strings
// from MC 0x000b/0x000c (spec.md §4.3, §4.5). The command interpreter
// package implements it; engine only knows it as a narrow interface so
// the two packages don't import each other.
type CommandSink interface {
	Dispatch(sourcePort int, text string)
}

// Engine is the per-session protocol engine. It owns the counters, the
// outbound FIFO, the connection state, and the dispatch loop; it does
// not own the transport's lifecycle beyond one session (reconnect is
// the caller's loop, see Run).
type Engine struct {
	identity    Identity
	capacities  Capacities
	log         clog.Clog
	sink        CommandSink
	feedback    FeedbackSink
	fileSink    FileTransferSink
	query       StateQuery
	onlineObs   *observer.Registry[int]
	tickObs     *observer.Registry[HeartbeatTick]
	concat      *commandConcat
	cfg         Config

	mu      sync.Mutex
	state   State
	tr      transport.Transport
	sendCtr uint16

	outbound chan wire.Message
	fatal    chan error
}

// New builds an Engine. sink may be nil if the caller wires the
// command interpreter later via SetCommandSink.
func New(cfg Config, identity Identity, capacities Capacities, log clog.Clog) *Engine {
	_ = cfg.Valid()
	return &Engine{
		identity:   identity,
		capacities: capacities,
		log:        log,
		cfg:        cfg,
		onlineObs:  observer.NewRegistry[int](),
		tickObs:    observer.NewRegistry[HeartbeatTick](),
		concat:     newCommandConcat(),
		state:      Offline,
		outbound:   make(chan wire.Message, cfg.OutboundQueueDepth),
		fatal:      make(chan error, 1),
	}
}

// SetCommandSink wires the command interpreter. Safe to call before Run.
func (e *Engine) SetCommandSink(sink CommandSink) { e.sink = sink }

// OnlineObservers exposes the online-state registry (spec.md §6.7).
func (e *Engine) OnlineObservers() *observer.Registry[int] { return e.onlineObs }

// TickObservers exposes the heartbeat-tick registry (spec.md §6.7).
func (e *Engine) TickObservers() *observer.Registry[HeartbeatTick] { return e.tickObs }

// Fatal is the channel a fatal internal error is posted to, per
// spec.md §7: "surfaced to a fatal channel that halts the process
// after flushing." The session loop (Run's caller) selects on it.
func (e *Engine) Fatal() <-chan error { return e.fatal }

// State reports the current connection state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	if s == Ready {
		e.onlineObs.Notify(1)
	}
}

// Run drives one session over tr until ctx is cancelled or a
// transport/framing error occurs, at which point it returns so the
// caller's reconnect loop (spec.md §4.2) can redial. It starts the
// network reader, network writer and command-loop threads spec.md §5
// names and blocks until all three exit.
func (e *Engine) Run(ctx context.Context, tr transport.Transport) error {
	e.mu.Lock()
	e.tr = tr
	e.state = Offline
	e.sendCtr = 0
	e.mu.Unlock()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmdQueue := make(chan inboundCommand, e.cfg.InboundCommandQueueDepth)

	var wg sync.WaitGroup
	var readErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		readErr = e.readLoop(sessionCtx, tr, cmdQueue)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.writeLoop(sessionCtx, tr)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.commandLoop(sessionCtx, cmdQueue)
	}()

	<-sessionCtx.Done()
	_ = tr.Close()
	wg.Wait()
	e.setState(Offline)
	return readErr
}

type inboundCommand struct {
	sourcePort int
	text       string
}

// readLoop is the "network reader" thread of spec.md §5: it blocks on
// the transport, decodes one frame at a time, and dispatches it.
func (e *Engine) readLoop(ctx context.Context, tr transport.Transport, cmdQueue chan<- inboundCommand) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		header, err := tr.ReadExact(wire.FixedHeaderSize)
		if err != nil {
			return err
		}
		headerLen := uint16(header[1])<<8 | uint16(header[2])
		payloadLen, err := wire.PayloadLenFromHeader(headerLen)
		if err != nil {
			return err
		}
		rest, err := tr.ReadExact(payloadLen + 1)
		if err != nil {
			return err
		}
		frame := append(header, rest...)

		if !wire.ChecksumValid(frame) {
			e.log.Warn("engine: checksum mismatch, continuing (spec.md tolerant policy)")
		}

		msg, _, err := wire.Decode(frame)
		if err != nil {
			e.log.Error("engine: framing error: %v", err)
			return err
		}

		e.dispatch(ctx, msg, cmdQueue)
	}
}

// writeLoop is the "network writer" thread: it drains the outbound
// FIFO in enqueue order and increments the send counter as each frame
// goes out (spec.md §4.3, §5, invariant P8).
func (e *Engine) writeLoop(ctx context.Context, tr transport.Transport) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-e.outbound:
			e.mu.Lock()
			msg.Counter = e.sendCtr
			e.sendCtr++
			e.mu.Unlock()
			frame := wire.Encode(msg)
			if err := tr.Write(frame); err != nil {
				e.log.Error("engine: write failed: %v", err)
				return
			}
		}
	}
}

// commandLoop is the single-threaded "command loop" of spec.md §5: it
// serializes every command-interpreter invocation so page/popup model
// mutations apply in receive order.
func (e *Engine) commandLoop(ctx context.Context, cmdQueue <-chan inboundCommand) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-cmdQueue:
			if e.sink != nil {
				e.sink.Dispatch(cmd.sourcePort, cmd.text)
			}
		}
	}
}

// enqueue posts msg to the outbound FIFO, blocking if it is full
// (spec.md §4.3 "a bounded FIFO").
func (e *Engine) enqueue(msg wire.Message) {
	e.outbound <- msg
}

func (e *Engine) postFatal(err error) {
	select {
	case e.fatal <- err:
	default:
	}
}
