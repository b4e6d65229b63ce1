package engine

import (
	"github.com/amxpanel/icspcore/mc"
	"github.com/amxpanel/icspcore/wire"
)

// FileTransferSink receives every inbound MC 0x0204 message; the
// file-transfer sub-engine implements it (spec.md §4.4). It is given
// the whole decoded message because the embedded sub-protocol needs
// ftype/function/info1/info2/u32[4] from the payload, not just a
// forwarded byte slice.
type FileTransferSink interface {
	HandleFrame(msg wire.Message)
}

// SetFileTransferSink wires the file-transfer sub-engine.
func (e *Engine) SetFileTransferSink(sink FileTransferSink) { e.fileSink = sink }

// SendRaw lets an injected collaborator (file-transfer sub-engine,
// command interpreter query replies) emit an arbitrary message through
// this engine's outbound FIFO, preserving send-counter ordering (P8).
// Collaborators depend on a narrow interface with this method's
// signature, not on *Engine, so there is no import cycle.
func (e *Engine) SendRaw(devDst, portDst uint16, code mc.Code, payload []byte) {
	e.enqueue(wire.Message{
		DevSrc:  e.identity.Panel.DeviceID,
		DevDst:  devDst,
		PortDst: portDst,
		MC:      uint16(code),
		Payload: payload,
	})
}

// PushButton sends MC 0x0084 (spec.md §4.3, §8 scenario 4).
func (e *Engine) PushButton(port, channel int) {
	e.sendChannel(mc.PushButton, port, channel)
}

// ReleaseButton sends MC 0x0085.
func (e *Engine) ReleaseButton(port, channel int) {
	e.sendChannel(mc.ReleaseButton, port, channel)
}

// ChannelOn sends MC 0x0086.
func (e *Engine) ChannelOn(port, channel int) {
	e.sendChannel(mc.ChannelOn, port, channel)
}

// ChannelOff sends MC 0x0087.
func (e *Engine) ChannelOff(port, channel int) {
	e.sendChannel(mc.ChannelOff, port, channel)
}

func (e *Engine) sendChannel(code mc.Code, port, channel int) {
	payload := wire.AppendU16(nil, uint16(channel))
	e.enqueue(wire.Message{
		DevSrc:  e.identity.Panel.DeviceID,
		PortSrc: uint16(port),
		MC:      uint16(code),
		Payload: payload,
	})
}

// Level sends MC 0x008a, a u16 level number followed by the typed
// value spec.md §6.3 describes.
func (e *Engine) Level(port, level int, value uint16) {
	payload := wire.AppendU16(nil, uint16(level))
	payload = wire.AppendTaggedU16(payload, value)
	e.enqueue(wire.Message{
		DevSrc:  e.identity.Panel.DeviceID,
		PortSrc: uint16(port),
		MC:      uint16(mc.Level),
		Payload: payload,
	})
}

// SendString sends MC 0x008b.
func (e *Engine) SendString(port int, text string) {
	e.enqueue(wire.Message{
		DevSrc:  e.identity.Panel.DeviceID,
		PortSrc: uint16(port),
		MC:      uint16(mc.StringOut),
		Payload: wire.AppendString8(nil, []byte(text)),
	})
}

// SendCommand sends MC 0x008c.
func (e *Engine) SendCommand(port int, text string) {
	e.enqueue(wire.Message{
		DevSrc:  e.identity.Panel.DeviceID,
		PortSrc: uint16(port),
		MC:      uint16(mc.CommandOut),
		Payload: wire.AppendString8(nil, []byte(text)),
	})
}

// CustomEvent sends MC 0x008d with a caller-assembled payload; the
// event shape is project-specific (spec.md §4.3 "custom_event(…)").
func (e *Engine) CustomEvent(port int, payload []byte) {
	e.enqueue(wire.Message{
		DevSrc:  e.identity.Panel.DeviceID,
		PortSrc: uint16(port),
		MC:      uint16(mc.CustomEvent),
		Payload: payload,
	})
}
