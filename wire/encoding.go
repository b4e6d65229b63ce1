package wire

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Origin tags a string with the project generation it came from, so
// callers know which charset converts it to UTF-8. G4 projects are
// CP1250; G5 projects are UTF-8 already. See spec.md §9 "mixed
// encodings" and the GLOSSARY entries for G4/G5.
type Origin int

const (
	OriginG4 Origin = iota
	OriginG5
)

// DecodeToUTF8 converts raw protocol bytes carrying a command-string
// argument, button text, or file-transfer path name into a UTF-8 Go
// string, per the string's Origin. G5 byte strings are UTF-8 already;
// wide (TagString16) payloads are always treated as UTF-16BE
// regardless of Origin, since the protocol's own 16-bit-wide tag
// (spec.md §4.1) already commits to a fixed width.
func DecodeToUTF8(raw []byte, origin Origin, wide bool) (string, error) {
	var enc encoding.Encoding
	switch {
	case wide:
		enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case origin == OriginG4:
		enc = charmap.Windows1250
	default:
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeFromUTF8 is the inverse of DecodeToUTF8, used when the panel
// itself emits a command-string or file name destined for a G4
// controller (spec.md §6.5 "Path encoding CP1250 for G4 panels").
func EncodeFromUTF8(s string, origin Origin) ([]byte, error) {
	if origin != OriginG4 {
		return []byte(s), nil
	}
	return charmap.Windows1250.NewEncoder().Bytes([]byte(s))
}
