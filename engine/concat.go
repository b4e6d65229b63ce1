package engine

import "strings"

// knownPrefixes are the opcode-introducing prefixes spec.md §4.3/§9
// names: a segment starting with one of these is a complete,
// dispatchable command; anything else is a continuation fragment of
// the previous segment (P9).
var knownPrefixes = []string{"^", "@", "?", "GET ", "SET "}

// knownBareNames covers the literal command names that carry no
// prefix character (spec.md §4.5 "System" family: ABEEP, ADBEEP, BEEP,
// DBEEP, and page-control's bare PAGE-/PAGE forms already start with a
// letter so they need an explicit allow-list too).
var knownBareNames = []string{"ABEEP", "ADBEEP", "BEEP", "DBEEP", "PAGE-", "PAGE"}

func hasKnownOpcode(s string) bool {
	return opcodeIndex(s) == 0
}

// opcodeIndex returns the earliest position at which a known prefix or
// bare name begins in s, or -1 if none occurs anywhere. A fragment that
// arrives ahead of its opcode (split mid-string by the transport) still
// carries the opcode somewhere in the eventual concatenation; scanning
// rather than anchoring to position 0 is what lets that concatenation
// ever become ready instead of wedging the buffer forever.
func opcodeIndex(s string) int {
	best := -1
	for _, p := range knownPrefixes {
		if i := strings.Index(s, p); i >= 0 && (best == -1 || i < best) {
			best = i
		}
	}
	upper := strings.ToUpper(s)
	for _, n := range knownBareNames {
		if i := strings.Index(upper, n); i >= 0 && (best == -1 || i < best) {
			best = i
		}
	}
	return best
}

// commandConcat implements spec.md P9: command-string segments that
// don't begin with a recognized opcode are concatenated onto the
// pending buffer rather than dispatched, and the buffer is only
// flushed once the (possibly still-fragmentary) concatenation contains
// a known opcode; the text returned starts at that opcode, discarding
// whatever noise preceded it so the result is always parseable on its
// own.
type commandConcat struct {
	pending string
}

func newCommandConcat() *commandConcat { return &commandConcat{} }

// Feed appends segment to the pending buffer as needed and reports the
// buffer plus whether it is ready to dispatch.
//
//   - If the buffer is empty and segment starts with a known opcode,
//     it is immediately ready.
//   - If the buffer is empty and segment does NOT start with a known
//     opcode, segment becomes the new pending buffer (not ready): a
//     lone fragment with no opcode anywhere is held until a later
//     segment supplies one, per spec.md §9's "best-effort" note.
//   - If the buffer is non-empty, segment is appended; the result is
//     ready once a known opcode appears anywhere in the concatenation,
//     and the dispatched text is trimmed to start at that opcode.
func (c *commandConcat) Feed(segment string) (text string, ready bool) {
	if c.pending == "" {
		if hasKnownOpcode(segment) {
			return segment, true
		}
		c.pending = segment
		return "", false
	}

	c.pending += segment
	if idx := opcodeIndex(c.pending); idx >= 0 {
		out := c.pending[idx:]
		c.pending = ""
		return out, true
	}
	return "", false
}
