// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package filexfer implements the embedded file-transfer sub-protocol
// carried inside MC 0x0204 (spec.md §4.4, §6.5): directory enumeration,
// delete, chunked upload and download, with progress reporting and
// transparent gzip decompression on receipt.
package filexfer

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/mc"
	"github.com/amxpanel/icspcore/wire"
)

// ChunkCap is the maximum bytes carried in one file-data chunk,
// spec.md §4.4/§6.5.
const ChunkCap = 2000

// FType is the outer type discriminator of an MC 0x0204 payload
// (spec.md §4.4 table).
type FType uint16

const (
	FTypeDirectory FType = 0
	FTypeFile      FType = 4
)

// Function is the inner operation selector, scoped to its FType.
type Function uint16

const (
	FuncDirListRequest   Function = 0x0100 // FTypeDirectory
	FuncDeleteRequest    Function = 0x0104 // FTypeDirectory
	FuncDirExistsRequest Function = 0x0105 // FTypeDirectory

	FuncMoreFilesFollow        Function = 0x0100 // FTypeFile
	FuncFileAnnounce           Function = 0x0102 // FTypeFile: controller will send file (name, size)
	FuncFileChunk              Function = 0x0103 // FTypeFile: file-data chunk (both directions: see HandleFrame)
	FuncFileRequestFromPanel   Function = 0x0104 // FTypeFile: controller requests file from panel
	FuncBeginSendAck           Function = 0x0106 // FTypeFile: ack that panel may begin sending
	FuncRequestNextChunk       Function = 0x0002 // FTypeFile
	FuncFileDataFromController Function = 0x0003 // FTypeFile
	FuncEndOfFile              Function = 0x0004 // FTypeFile
	FuncEndOfFileAck           Function = 0x0005 // FTypeFile
	FuncEndOfDirListingAck     Function = 0x0006 // FTypeFile
	FuncEndOfSession           Function = 0x0007 // FTypeFile
)

// Sender is the narrow outbound surface filexfer needs from the
// protocol engine; *engine.Engine satisfies it structurally.
type Sender interface {
	SendRaw(devDst, portDst uint16, code mc.Code, payload []byte)
}

// Progress is invoked at transfer start (with the total file count),
// per-file start, per-chunk (quantized to whole percent change) and
// per-file end (spec.md §4.4).
type Progress interface {
	TransferStart(totalFiles int)
	FileStart(name string, size int64)
	ChunkProgress(name string, percent int)
	FileEnd(name string, err error)
}

// NoopProgress discards every event; New installs it when passed a
// nil Progress.
type NoopProgress struct{}

func (NoopProgress) TransferStart(int)              {}
func (NoopProgress) FileStart(string, int64)         {}
func (NoopProgress) ChunkProgress(string, int)       {}
func (NoopProgress) FileEnd(string, error)           {}

// Storage is the filesystem abstraction the sub-engine writes received
// files to and reads sent files from; spec.md treats on-disk concerns
// as an external collaborator (§1), so this is the narrow interface a
// host application implements (a real filesystem, or, as in tests, an
// in-memory one).
type Storage interface {
	CreateTemp(name string) (io.WriteCloser, error)
	Finalize(tempName string) error
	Delete(name string) error
	Exists(name string) bool
	Open(name string) (io.ReadCloser, int64, error)
	ReadDir() ([]DirEntry, error)
}

// DirEntry is one record of a directory listing reply (spec.md §4.4
// "Directory listings report per-entry {index, is_dir, size,
// last_modified_epoch, name} in counted records").
type DirEntry struct {
	Index        int
	IsDir        bool
	Size         int64
	LastModified time.Time
	Name         string
}

// Engine is the file-transfer sub-engine. One Engine serves one
// session; inbound frames arrive via HandleFrame from the protocol
// engine's dispatch table (spec.md §4.3 "0x0204: file transfer —
// delegated to §4.4").
type Engine struct {
	sender   Sender
	storage  Storage
	progress Progress
	log      clog.Clog
	encoding wire.Origin

	mu       sync.Mutex
	incoming *incomingTransfer

	chunkCap int
}

// New builds a file-transfer sub-engine. progress may be nil, which
// installs NoopProgress.
func New(sender Sender, storage Storage, progress Progress, encoding wire.Origin, log clog.Clog) *Engine {
	if progress == nil {
		progress = NoopProgress{}
	}
	return &Engine{sender: sender, storage: storage, progress: progress, encoding: encoding, log: log}
}

// SetChunkCap overrides the outgoing chunk size (spec.md §10's
// configurable "file-transfer chunk cap"); n<=0 restores ChunkCap.
func (e *Engine) SetChunkCap(n int) { e.chunkCap = n }

func (e *Engine) chunkCapOrDefault() int {
	if e.chunkCap > 0 {
		return e.chunkCap
	}
	return ChunkCap
}

type incomingTransfer struct {
	name     string
	size     int64
	received int64
	lastPct  int
	w        io.WriteCloser
	tempName string
	buf      bytes.Buffer
}

// HandleFrame dispatches one decoded MC 0x0204 message (spec.md §4.4).
func (e *Engine) HandleFrame(msg wire.Message) {
	if len(msg.Payload) < 16 {
		e.log.Warn("filexfer: short 0x0204 payload")
		return
	}
	cur := wire.NewCursor(msg.Payload)
	ftypeRaw, _ := cur.DecodeU16()
	funcRaw, _ := cur.DecodeU16()
	info1, _ := cur.DecodeU16()
	info2, _ := cur.DecodeU16()
	var words [4]uint32
	for i := range words {
		words[i], _ = cur.DecodeU32()
	}
	rest := msg.Payload[cur_offset(msg.Payload, cur):]

	ftype := FType(ftypeRaw)
	fn := Function(funcRaw)

	switch ftype {
	case FTypeDirectory:
		e.handleDirectoryOp(msg, fn, rest)
	case FTypeFile:
		e.handleFileOp(msg, fn, info1, info2, words, rest)
	default:
		e.log.Warn("filexfer: unknown ftype %d", ftype)
	}
}

// cur_offset recovers how many bytes Cursor c has consumed from the
// original slice b, so HandleFrame can hand the remainder ("variable
// data", spec.md §4.4) to the per-operation handler without a second
// cursor type for the fixed prefix.
func cur_offset(b []byte, c *wire.Cursor) int {
	return len(b) - c.Len()
}

func (e *Engine) handleDirectoryOp(msg wire.Message, fn Function, rest []byte) {
	switch fn {
	case FuncDirListRequest:
		e.sendDirListing(msg)
	case FuncDeleteRequest:
		name := string(rest)
		err := e.storage.Delete(name)
		if err != nil {
			e.log.Warn("filexfer: delete %q failed: %v", name, err)
		}
	case FuncDirExistsRequest:
		name := string(rest)
		exists := e.storage.Exists(name)
		var v uint16
		if exists {
			v = 1
		}
		e.reply(msg, FTypeDirectory, FuncDirExistsRequest, 0, 0, wire.AppendU16(nil, v))
	default:
		e.log.Debug("filexfer: unhandled directory function %#x", fn)
	}
}

func (e *Engine) sendDirListing(msg wire.Message) {
	entries, err := e.storage.ReadDir()
	if err != nil {
		e.log.Warn("filexfer: read dir failed: %v", err)
		return
	}
	e.progress.TransferStart(len(entries))
	for _, entry := range entries {
		var payload []byte
		payload = wire.AppendU16(payload, uint16(entry.Index))
		isDir := byte(0)
		if entry.IsDir {
			isDir = 1
		}
		payload = append(payload, isDir)
		payload = wire.AppendU32(payload, uint32(entry.Size))
		payload = wire.AppendU32(payload, uint32(entry.LastModified.Unix()))
		payload = wire.AppendString8(payload, []byte(entry.Name))
		e.reply(msg, FTypeFile, FuncMoreFilesFollow, 0, 0, payload)
	}
}

func (e *Engine) handleFileOp(msg wire.Message, fn Function, info1, info2 uint16, words [4]uint32, rest []byte) {
	switch fn {
	case FuncFileAnnounce:
		e.beginIncoming(msg, rest, words[0])
	case FuncFileChunk:
		e.receiveChunk(msg, rest)
	case FuncEndOfFile:
		e.finishIncoming(msg)
	case FuncFileRequestFromPanel:
		name := string(rest)
		e.beginOutgoing(msg, name)
	default:
		e.log.Debug("filexfer: unhandled file function %#x", fn)
	}
}

func (e *Engine) beginIncoming(msg wire.Message, rest []byte, size uint32) {
	cur := wire.NewCursor(rest)
	_, v, err := cur.DecodeTaggedValue()
	name := ""
	if err == nil {
		if raw, ok := v.([]byte); ok {
			name, _ = wire.DecodeToUTF8(raw, e.encoding, false)
		}
	}

	w, err := e.storage.CreateTemp(name)
	if err != nil {
		e.log.Error("filexfer: create temp for %q: %v", name, err)
		return
	}

	e.mu.Lock()
	e.incoming = &incomingTransfer{name: name, size: int64(size), w: w, tempName: name}
	e.mu.Unlock()

	e.progress.TransferStart(1)
	e.progress.FileStart(name, int64(size))

	e.reply(msg, FTypeFile, FuncFileChunk, 0, 0, nil) // "0x0103 start" ack, spec.md §8 scenario 6
}

func (e *Engine) receiveChunk(msg wire.Message, data []byte) {
	e.mu.Lock()
	t := e.incoming
	e.mu.Unlock()
	if t == nil {
		e.log.Warn("filexfer: chunk received with no active transfer")
		return
	}

	if _, err := t.buf.Write(data); err != nil {
		e.log.Error("filexfer: buffer write failed: %v", err)
		return
	}
	t.received += int64(len(data))

	if t.size > 0 {
		pct := int(t.received * 100 / t.size)
		if pct != t.lastPct {
			t.lastPct = pct
			e.progress.ChunkProgress(t.name, pct)
		}
	}

	e.reply(msg, FTypeFile, FuncRequestNextChunk, 0, 0, nil) // "0x0002 between chunks"
}

func (e *Engine) finishIncoming(msg wire.Message) {
	e.mu.Lock()
	t := e.incoming
	e.incoming = nil
	e.mu.Unlock()
	if t == nil {
		return
	}

	payload := t.buf.Bytes()
	var finalErr error
	if len(payload) >= 2 && payload[0] == 0x1f && payload[1] == 0x8b {
		gr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			finalErr = fmt.Errorf("filexfer: gzip open: %w", err)
		} else {
			if _, err := io.Copy(t.w, gr); err != nil {
				finalErr = fmt.Errorf("filexfer: gzip decompress: %w", err)
			}
			_ = gr.Close()
		}
	} else {
		if _, err := t.w.Write(payload); err != nil {
			finalErr = fmt.Errorf("filexfer: write: %w", err)
		}
	}
	_ = t.w.Close()

	if finalErr == nil {
		finalErr = e.storage.Finalize(t.tempName)
	}
	e.progress.FileEnd(t.name, finalErr)

	e.reply(msg, FTypeFile, FuncEndOfFileAck, 0, 0, nil) // "0x0005 end"
}

// beginOutgoing starts streaming name to the controller (spec.md §4.4
// "Sender reads up to the chunk cap, tracks pos/total, and emits
// 0x0003 (end) when pos == total").
func (e *Engine) beginOutgoing(msg wire.Message, name string) {
	r, size, err := e.storage.Open(name)
	if err != nil {
		e.log.Warn("filexfer: open %q for send: %v", name, err)
		return
	}
	defer r.Close()

	e.progress.TransferStart(1)
	e.progress.FileStart(name, size)

	announce := wire.AppendString8(nil, []byte(name))
	announce = wire.AppendU32(announce, uint32(size))
	e.reply(msg, FTypeFile, FuncFileAnnounce, 0, 0, announce)

	var pos int64
	lastPct := -1
	buf := make([]byte, e.chunkCapOrDefault())
	var sendErr error
	for pos < size {
		n, err := r.Read(buf)
		if n > 0 {
			e.reply(msg, FTypeFile, FuncFileChunk, 0, 0, append([]byte(nil), buf[:n]...))
			pos += int64(n)
			if size > 0 {
				pct := int(pos * 100 / size)
				if pct != lastPct {
					lastPct = pct
					e.progress.ChunkProgress(name, pct)
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				sendErr = err
			}
			break
		}
	}
	e.reply(msg, FTypeFile, FuncFileDataFromController, 0, 0, nil) // end-of-send marker, spec.md §4.4
	e.progress.FileEnd(name, sendErr)
}

func (e *Engine) reply(req wire.Message, ftype FType, fn Function, info1, info2 uint16, variable []byte) {
	var payload []byte
	payload = wire.AppendU16(payload, uint16(ftype))
	payload = wire.AppendU16(payload, uint16(fn))
	payload = wire.AppendU16(payload, info1)
	payload = wire.AppendU16(payload, info2)
	for i := 0; i < 4; i++ {
		payload = wire.AppendU32(payload, 0)
	}
	payload = append(payload, variable...)
	e.sender.SendRaw(req.DevSrc, req.PortSrc, mc.FileTransfer, payload)
}
