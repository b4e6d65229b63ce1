package engine

import (
	"fmt"
	"net"
)

// SerialLen is the fixed, space-padded serial length spec.md §3
// requires ("Invariant: serial is exactly 16 bytes, space-padded").
const SerialLen = 16

// DeviceRecord is one of the two device records the panel reports to
// the controller: object id 0 is the panel itself, object id 2 is the
// embedded "kernel" (spec.md §3 "Panel identity").
type DeviceRecord struct {
	ObjectID         uint16
	DeviceID         uint16
	ParentID         uint16
	ManufacturerID   uint16
	Serial           [SerialLen]byte
	FirmwareID       uint16
	Version          string
	DeviceName       string
	ManufacturerName string
}

// NewSerial space-pads s to SerialLen, truncating if it is already
// longer; it never panics.
func NewSerial(s string) [SerialLen]byte {
	var out [SerialLen]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], s)
	return out
}

// Identity bundles both device records plus the panel's IPv4 address,
// which the ping reply (MC 0x0581) carries (spec.md §4.3, §8 scenario
// 2).
type Identity struct {
	Panel  DeviceRecord
	Kernel DeviceRecord
	IPv4   net.IP
}

// Capacities are the configured capacity constants echoed by the
// 0x0090..0x0094 replies during identification (spec.md §4.3, §8
// scenario 1); LevelSupport goes out in the 0x0095 reply, sent only
// when the controller requests it.
type Capacities struct {
	PortCount          uint16
	OutputChannelCount uint16
	LevelCount         uint16
	StringSize         uint16
	CommandSize        uint16
	LevelSupport       uint16
}

// DefaultCapacities matches the literal values spec.md §8 scenario 1
// expects in the handshake test: 0x0015, 0x0f75, 0x000d, 0x00c7,
// 0x00c7 for port count, output channel count, level count, string
// size and command size respectively (LevelSupport has no literal
// test value; it carries the same string-size convention real panels
// use).
func DefaultCapacities() Capacities {
	return Capacities{
		PortCount:          0x0015,
		OutputChannelCount: 0x0f75,
		LevelCount:         0x000d,
		StringSize:         0x00c7,
		CommandSize:        0x00c7,
		LevelSupport:       0x00c7,
	}
}

func (d DeviceRecord) String() string {
	return fmt.Sprintf("device<id=%d parent=%d mfr=%d fw=%d name=%q>",
		d.DeviceID, d.ParentID, d.ManufacturerID, d.FirmwareID, d.DeviceName)
}
