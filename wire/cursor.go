package wire

import "math"

// ValueTag identifies the wire representation of a typed value inside
// a level/channel-status payload, spec.md §6.3. All multi-byte values
// are big-endian.
type ValueTag byte

const (
	TagString8  ValueTag = 0x01
	TagString16 ValueTag = 0x02
	TagU8       ValueTag = 0x10
	TagI8       ValueTag = 0x11
	TagU16      ValueTag = 0x20
	TagI16      ValueTag = 0x21
	TagU32      ValueTag = 0x40
	TagI32      ValueTag = 0x41
	TagF32      ValueTag = 0x4f
	TagF64      ValueTag = 0x8f
)

// Cursor reads payload bytes in order through its Decode* methods
// (writing is done by the package's free Append* helpers): each call
// advances past what it consumed so callers chain reads without
// tracking an offset themselves.
type Cursor struct {
	b []byte
}

// NewCursor wraps payload for sequential decoding.
func NewCursor(payload []byte) *Cursor { return &Cursor{b: payload} }

// Len reports the number of unread bytes.
func (c *Cursor) Len() int { return len(c.b) }

// ErrShortPayload is returned by Decode* calls when fewer bytes remain
// than the value requires.
var ErrShortPayload = &FramingError{Reason: "payload shorter than the value it encodes"}

func (c *Cursor) take(n int) ([]byte, error) {
	if len(c.b) < n {
		return nil, ErrShortPayload
	}
	v := c.b[:n]
	c.b = c.b[n:]
	return v, nil
}

func (c *Cursor) DecodeU8() (byte, error) {
	v, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (c *Cursor) DecodeI8() (int8, error) {
	v, err := c.DecodeU8()
	return int8(v), err
}

func (c *Cursor) DecodeU16() (uint16, error) {
	v, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return uint16(v[0])<<8 | uint16(v[1]), nil
}

func (c *Cursor) DecodeI16() (int16, error) {
	v, err := c.DecodeU16()
	return int16(v), err
}

func (c *Cursor) DecodeU32() (uint32, error) {
	v, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return uint32(v[0])<<24 | uint32(v[1])<<16 | uint32(v[2])<<8 | uint32(v[3]), nil
}

func (c *Cursor) DecodeI32() (int32, error) {
	v, err := c.DecodeU32()
	return int32(v), err
}

func (c *Cursor) DecodeF32() (float32, error) {
	v, err := c.DecodeU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (c *Cursor) DecodeF64() (float64, error) {
	hi, err := c.DecodeU32()
	if err != nil {
		return 0, err
	}
	lo, err := c.DecodeU32()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(hi)<<32 | uint64(lo)), nil
}

// DecodeTaggedValue reads a one-byte ValueTag followed by its payload,
// returning the value as the matching Go type (spec.md §6.3). Strings
// are returned as the raw, still-encoded bytes; callers translate per
// the project's G4/G5 encoding (see DecodeToUTF8).
func (c *Cursor) DecodeTaggedValue() (ValueTag, interface{}, error) {
	tagByte, err := c.DecodeU8()
	if err != nil {
		return 0, nil, err
	}
	tag := ValueTag(tagByte)
	switch tag {
	case TagString8, TagString16:
		n, err := c.DecodeU16()
		if err != nil {
			return 0, nil, err
		}
		byteLen := int(n)
		if tag == TagString16 {
			byteLen *= 2
		}
		raw, err := c.take(byteLen)
		if err != nil {
			return 0, nil, err
		}
		return tag, append([]byte(nil), raw...), nil
	case TagU8:
		v, err := c.DecodeU8()
		return tag, v, err
	case TagI8:
		v, err := c.DecodeI8()
		return tag, v, err
	case TagU16:
		v, err := c.DecodeU16()
		return tag, v, err
	case TagI16:
		v, err := c.DecodeI16()
		return tag, v, err
	case TagU32:
		v, err := c.DecodeU32()
		return tag, v, err
	case TagI32:
		v, err := c.DecodeI32()
		return tag, v, err
	case TagF32:
		v, err := c.DecodeF32()
		return tag, v, err
	case TagF64:
		v, err := c.DecodeF64()
		return tag, v, err
	default:
		return 0, nil, &FramingError{Reason: "unknown value tag"}
	}
}

// AppendU16 appends v big-endian.
func AppendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

// AppendU32 appends v big-endian.
func AppendU32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// AppendTaggedU16 appends a TagU16-tagged value, the shape every
// level/value reply in §6.2 carries.
func AppendTaggedU16(b []byte, v uint16) []byte {
	b = append(b, byte(TagU16))
	return AppendU16(b, v)
}

// AppendString8 appends a length-prefixed 8-bit string with its
// TagString8 encoding tag (spec.md §4.1).
func AppendString8(b []byte, s []byte) []byte {
	b = append(b, byte(TagString8))
	b = AppendU16(b, uint16(len(s)))
	return append(b, s...)
}
