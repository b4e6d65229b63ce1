package engine

import (
	"context"
	"time"

	"github.com/amxpanel/icspcore/mc"
	"github.com/amxpanel/icspcore/wire"
)

// FeedbackSink receives the channel/level events the dispatch table
// forwards per spec.md §4.3 ("forward to command callback"), distinct
// from CommandSink which only receives parsed command-strings.
type FeedbackSink interface {
	ChannelEvent(port, channel int, on bool)
	LevelEvent(port, level int, value float64)
}

// SetFeedbackSink wires the channel/level forwarding target.
func (e *Engine) SetFeedbackSink(sink FeedbackSink) { e.feedback = sink }

// StateQuery answers MC 0x000e/0x000f ("request level"/"request
// channel status", spec.md §4.3): the core replies with the button
// model's current value rather than merely forwarding the request.
type StateQuery interface {
	QueryLevel(port, level int) (value uint16, ok bool)
	QueryChannel(port, channel int) (on bool, ok bool)
}

// SetStateQuery wires the current-value lookup used to answer
// 0x000e/0x000f requests.
func (e *Engine) SetStateQuery(q StateQuery) { e.query = q }

// HeartbeatTick is the parsed payload of MC 0x0502 (spec.md §4.3, §8
// scenario 3).
type HeartbeatTick struct {
	Counter, LED         int
	Month, Day, Year     int
	Hour, Minute, Second int
	Weekday              time.Weekday
	ExternalTempC        uint16
	Extra                string
}

// dispatch routes one decoded inbound message: internal counter/ping
// replies happen here directly; command strings go to cmdQueue for the
// command-loop thread to apply (spec.md §4.3, §5).
func (e *Engine) dispatch(ctx context.Context, msg wire.Message, cmdQueue chan<- inboundCommand) {
	code := mc.Code(msg.MC)
	switch code {
	case mc.Ack, mc.Nak:
		e.log.Debug("engine: %s (ignored)", code)

	case mc.PushButton, mc.ReleaseButton, mc.ChannelOn, mc.ChannelOff,
		mc.ChannelStatus2, mc.ChannelStatus3, mc.OutputChannelOn, mc.OutputChannelOff:
		e.handleChannelEvent(code, msg)

	case mc.LevelValue:
		e.handleLevelValue(msg)

	case mc.StringValue, mc.CommandString:
		e.handleCommandString(msg, cmdQueue)

	case mc.RequestLevel:
		e.handleRequestLevel(msg)

	case mc.RequestChannelStatus:
		e.handleRequestChannelStatus(msg)

	case mc.RequestPortCount:
		e.sendValue(msg, mc.PortCountRsp, e.capacities.PortCount)
	case mc.RequestOutputChannelCount:
		e.sendValue(msg, mc.OutputChannelCountRsp, e.capacities.OutputChannelCount)
	case mc.RequestLevelCount:
		e.sendValue(msg, mc.LevelCountRsp, e.capacities.LevelCount)
	case mc.RequestStringSize:
		e.sendValue(msg, mc.StringSizeRsp, e.capacities.StringSize)
	case mc.RequestCommandSize:
		e.sendValue(msg, mc.CommandSizeRsp, e.capacities.CommandSize)
	case mc.RequestLevelSupport:
		e.sendValue(msg, mc.LevelSupportRsp, e.capacities.LevelSupport)
	case mc.RequestDeviceInfo:
		e.sendDeviceInfo(msg, e.identity.Panel)

	case mc.RequestStatusCode:
		e.sendOK(msg)

	case mc.DeviceInfo:
		e.handleDeviceInfoAnnounce(msg)

	case mc.StatusRequest:
		e.log.Debug("engine: status request stored")

	case mc.FileTransfer:
		if e.fileSink != nil {
			e.fileSink.HandleFrame(msg)
		} else {
			e.log.Warn("engine: file transfer message received with no sink wired")
		}

	case mc.Ping:
		e.handlePing(msg)

	case mc.Heartbeat:
		e.handleHeartbeat(msg)

	default:
		e.log.Debug("engine: unknown MC 0x%04x discarded", msg.MC)
	}
}

func (e *Engine) handleChannelEvent(code mc.Code, msg wire.Message) {
	if len(msg.Payload) < 2 || e.feedback == nil {
		return
	}
	channel := int(msg.Payload[0])<<8 | int(msg.Payload[1])
	on := code == mc.PushButton || code == mc.ChannelOn || code == mc.OutputChannelOn || code == mc.ChannelStatus2
	e.feedback.ChannelEvent(int(msg.PortDst), channel, on)
}

func (e *Engine) handleLevelValue(msg wire.Message) {
	if len(msg.Payload) < 3 || e.feedback == nil {
		return
	}
	cur := wire.NewCursor(msg.Payload)
	level, err := cur.DecodeU16()
	if err != nil {
		return
	}
	_, value, err := cur.DecodeTaggedValue()
	if err != nil {
		return
	}
	e.feedback.LevelEvent(int(msg.PortDst), int(level), toFloat(value))
}

// decodeLevelOrChannelRequest parses the device/port/system/value u16
// quadruple tamxnet.cpp's 0x000e/0x000f handler reads from buff_[0..7].
func decodeLevelOrChannelRequest(msg wire.Message) (port, value int, ok bool) {
	if len(msg.Payload) < 8 {
		return 0, 0, false
	}
	cur := wire.NewCursor(msg.Payload)
	if _, err := cur.DecodeU16(); err != nil { // device
		return 0, 0, false
	}
	p, err := cur.DecodeU16()
	if err != nil {
		return 0, 0, false
	}
	if _, err := cur.DecodeU16(); err != nil { // system
		return 0, 0, false
	}
	v, err := cur.DecodeU16()
	if err != nil {
		return 0, 0, false
	}
	return int(p), int(v), true
}

func (e *Engine) handleRequestLevel(msg wire.Message) {
	port, level, ok := decodeLevelOrChannelRequest(msg)
	if !ok || e.query == nil {
		return
	}
	value, ok := e.query.QueryLevel(port, level)
	if !ok {
		return
	}
	e.enqueue(wire.Message{
		Type:    msg.Type,
		DevSrc:  msg.DevDst,
		PortSrc: msg.PortDst,
		System:  msg.System,
		DevDst:  msg.DevSrc,
		PortDst: msg.PortSrc,
		MC:      uint16(mc.Level),
		Payload: wire.AppendTaggedU16(wire.AppendU16(nil, uint16(level)), value),
	})
}

func (e *Engine) handleRequestChannelStatus(msg wire.Message) {
	port, channel, ok := decodeLevelOrChannelRequest(msg)
	if !ok || e.query == nil {
		return
	}
	on, ok := e.query.QueryChannel(port, channel)
	if !ok {
		return
	}
	reply := mc.ChannelStatus3
	if on {
		reply = mc.ChannelStatus2
	}
	e.enqueue(wire.Message{
		Type:    msg.Type,
		DevSrc:  msg.DevDst,
		PortSrc: msg.PortDst,
		System:  msg.System,
		DevDst:  msg.DevSrc,
		PortDst: msg.PortSrc,
		MC:      uint16(reply),
		Payload: wire.AppendU16(nil, uint16(channel)),
	})
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case byte:
		return float64(n)
	case int8:
		return float64(n)
	case uint16:
		return float64(n)
	case int16:
		return float64(n)
	case uint32:
		return float64(n)
	case int32:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

// handleCommandString implements spec.md P9: a segment that doesn't
// begin with a recognized opcode prefix is appended to the pending
// buffer and only dispatched once a valid opcode is present.
func (e *Engine) handleCommandString(msg wire.Message, cmdQueue chan<- inboundCommand) {
	if len(msg.Payload) < 3 {
		return
	}
	cur := wire.NewCursor(msg.Payload)
	_, v, err := cur.DecodeTaggedValue()
	if err != nil {
		return
	}
	raw, ok := v.([]byte)
	if !ok {
		return
	}
	text := string(raw)
	complete, ready := e.concat.Feed(text)
	if !ready {
		return
	}
	select {
	case cmdQueue <- inboundCommand{sourcePort: int(msg.PortDst), text: complete}:
	default:
		e.log.Warn("engine: command queue full, dropping %q", complete)
	}
}

func (e *Engine) sendValue(req wire.Message, reply mc.Code, v uint16) {
	e.enqueue(wire.Message{
		Type:    req.Type,
		DevSrc:  req.DevDst,
		PortSrc: req.PortDst,
		System:  req.System,
		DevDst:  req.DevSrc,
		PortDst: req.PortSrc,
		MC:      uint16(reply),
		Payload: wire.AppendTaggedU16(nil, v),
	})
}

func (e *Engine) sendOK(req wire.Message) {
	e.enqueue(wire.Message{
		Type:    req.Type,
		DevSrc:  req.DevDst,
		PortSrc: req.PortDst,
		System:  req.System,
		DevDst:  req.DevSrc,
		PortDst: req.PortSrc,
		MC:      uint16(mc.StatusRsp),
		Payload: wire.AppendString8(nil, []byte("OK")),
	})
}

func (e *Engine) sendDeviceInfo(req wire.Message, d DeviceRecord) {
	e.enqueue(wire.Message{
		Type:    req.Type,
		DevSrc:  req.DevDst,
		PortSrc: req.PortDst,
		System:  req.System,
		DevDst:  req.DevSrc,
		PortDst: req.PortSrc,
		MC:      uint16(mc.DeviceInfo),
		Payload: marshalDeviceInfo(d),
	})
}

// handleDeviceInfoAnnounce runs the identification sequence spec.md
// §4.3 and §8 scenario 1 define: reply with both device records, then
// the capacity replies 0x0090..0x0094, then request the port count
// (0x0098), then transition to Ready.
func (e *Engine) handleDeviceInfoAnnounce(msg wire.Message) {
	e.setState(Identifying)

	swap := func(reply mc.Code, payload []byte) {
		e.enqueue(wire.Message{
			Type:    msg.Type,
			DevSrc:  msg.DevDst,
			PortSrc: msg.PortDst,
			System:  msg.System,
			DevDst:  msg.DevSrc,
			PortDst: msg.PortSrc,
			MC:      uint16(reply),
			Payload: payload,
		})
	}

	swap(mc.DeviceInfo, marshalDeviceInfo(e.identity.Panel))
	swap(mc.DeviceInfo, marshalDeviceInfo(e.identity.Kernel))
	swap(mc.PortCountRsp, wire.AppendTaggedU16(nil, e.capacities.PortCount))
	swap(mc.OutputChannelCountRsp, wire.AppendTaggedU16(nil, e.capacities.OutputChannelCount))
	swap(mc.LevelCountRsp, wire.AppendTaggedU16(nil, e.capacities.LevelCount))
	swap(mc.StringSizeRsp, wire.AppendTaggedU16(nil, e.capacities.StringSize))
	swap(mc.CommandSizeRsp, wire.AppendTaggedU16(nil, e.capacities.CommandSize))
	swap(mc.PortCountReq, nil)

	e.setState(Ready)
}

func (e *Engine) handlePing(msg wire.Message) {
	ip := e.identity.IPv4.To4()
	payload := []byte{0x02, 0x04}
	if ip == nil {
		ip = []byte{0, 0, 0, 0}
	}
	payload = append(payload, ip...)
	e.enqueue(wire.Message{
		Type:    msg.Type,
		DevSrc:  msg.DevDst,
		PortSrc: msg.PortDst,
		System:  msg.System,
		DevDst:  msg.DevSrc,
		PortDst: msg.PortSrc,
		MC:      uint16(mc.Pong),
		Payload: payload,
	})
}

// handleHeartbeat parses the date/time payload and notifies tick
// observers; it never sends a reply (spec.md §4.3, §8 scenario 3).
// Layout follows tamxnet.cpp's MC 0x0502 handler: heartbeat counter,
// LED, month, day, year (u16 BE), hour, minute, second, weekday,
// external temperature (u16 BE), then an optional trailing string.
func (e *Engine) handleHeartbeat(msg wire.Message) {
	p := msg.Payload
	if len(p) < 12 {
		return
	}
	tick := HeartbeatTick{
		Counter:       int(p[0]),
		LED:           int(p[1]),
		Month:         int(p[2]),
		Day:           int(p[3]),
		Year:          2000 + (int(p[4])<<8 | int(p[5])),
		Hour:          int(p[6]),
		Minute:        int(p[7]),
		Second:        int(p[8]),
		Weekday:       time.Weekday(p[9] % 7),
		ExternalTempC: uint16(p[10])<<8 | uint16(p[11]),
	}
	if len(p) > 12 {
		if _, v, err := wire.NewCursor(p[12:]).DecodeTaggedValue(); err == nil {
			if raw, ok := v.([]byte); ok {
				tick.Extra = string(raw)
			}
		}
	}
	e.tickObs.Notify(tick)
	e.onlineObs.Notify(1)
}

func marshalDeviceInfo(d DeviceRecord) []byte {
	var b []byte
	b = wire.AppendU16(b, d.ObjectID)
	b = wire.AppendU16(b, d.DeviceID)
	b = wire.AppendU16(b, d.ParentID)
	b = wire.AppendU16(b, d.ManufacturerID)
	b = append(b, d.Serial[:]...)
	b = wire.AppendU16(b, d.FirmwareID)
	b = wire.AppendString8(b, []byte(d.Version))
	b = wire.AppendString8(b, []byte(d.DeviceName))
	b = wire.AppendString8(b, []byte(d.ManufacturerName))
	return b
}
