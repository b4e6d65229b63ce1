package page

import "fmt"

// Type enumerates the button kinds spec.md §3 names. Most families
// (general, text_input, subpage_view) differ only in how the command
// interpreter and bargraph/joystick level mapping treat them; the
// state-record mechanics below are shared by all of them.
type Type int

const (
	TypeGeneral Type = iota
	TypeBargraph
	TypeJoystick
	TypeMultistateGeneral
	TypeMultistateBargraph
	TypeListbox
	TypeTextInput
	TypeSubpageView
)

// MakeHandle builds the stable (owning_page_id<<16)|button_index
// handle spec.md §3 and §6.6 define.
func MakeHandle(pageID, index int) uint32 {
	return uint32(pageID)<<16 | uint32(uint16(index))
}

// Button is one button on a page or popup, owned by its containing
// composition (spec.md §3, §9 "Buttons owned by their containing
// page/popup").
type Button struct {
	Index int
	Name  string
	Type  Type

	Geometry Rect

	Port    int
	Channel int

	AddressPort    int
	AddressChannel int

	LevelPort  int
	LevelChannel int
	LevelLow   int
	LevelHigh  int
	Level      int // current horizontal/primary level (bargraph, joystick)
	VLevel     int // joystick vertical level

	SR       []SR // 1-based in spec.md language; index 0 of this slice is state 1
	ActiveSR int  // 1-based; 0 means "use state 1" (spec.md §3)

	Opacity uint8
	Enabled bool
	Visible bool

	Handle       uint32
	ParentHandle uint32

	SubviewListID int
	SubviewIndex  int
}

// ErrNoSuchState is returned when a requested SR index falls outside
// [1, len(SR)] (spec.md §3 invariant "The active SR of a button is in
// [1, len(sr)]").
var ErrNoSuchState = fmt.Errorf("page: button state out of range")

// stateIndex resolves a 1-based, possibly-zero state number to a
// 0-based slice index, applying the "0 means state 1" rule spec.md §3
// gives for on/two-state buttons.
func (b *Button) stateIndex(state int) (int, error) {
	if state == 0 {
		state = 1
	}
	if state < 1 || state > len(b.SR) {
		return 0, ErrNoSuchState
	}
	return state - 1, nil
}

// State returns a pointer to the SR at the given 1-based state number
// (0 means state 1), or an error if out of range.
func (b *Button) State(state int) (*SR, error) {
	i, err := b.stateIndex(state)
	if err != nil {
		return nil, err
	}
	return &b.SR[i], nil
}

// Active returns the button's currently active SR, i.e. State(b.ActiveSR).
func (b *Button) Active() (*SR, error) {
	return b.State(b.ActiveSR)
}

// AdvanceState advances ActiveSR modulo len(SR), the multi-state
// button press behavior spec.md §4.7 describes ("Multi-state buttons
// advance active_sr on each press (modulo len(sr))"). It is a no-op
// for a button with fewer than two states.
func (b *Button) AdvanceState() {
	if len(b.SR) < 2 {
		return
	}
	cur := b.ActiveSR
	if cur == 0 {
		cur = 1
	}
	b.ActiveSR = cur%len(b.SR) + 1
}

// LevelFromPoint maps a touch point inside the button's rectangle to a
// (horizontal, vertical) level pair by linear interpolation between
// LevelLow and LevelHigh (spec.md §4.7 "pressing inside their
// rectangle translates (x, y) into (horizontal level, vertical level)
// by linear interpolation"). Vertical is only meaningful for
// TypeJoystick; bargraphs use only the horizontal value.
func (b *Button) LevelFromPoint(x, y int) (horizontal, vertical int) {
	span := b.LevelHigh - b.LevelLow
	if b.Geometry.W > 0 {
		frac := float64(x-b.Geometry.X) / float64(b.Geometry.W)
		horizontal = b.LevelLow + int(frac*float64(span))
	}
	if b.Geometry.H > 0 {
		frac := float64(y-b.Geometry.Y) / float64(b.Geometry.H)
		// Panel-coordinate y grows downward; joystick vertical level
		// grows upward, so invert the fraction.
		vertical = b.LevelLow + int((1-frac)*float64(span))
	}
	horizontal = clampLevel(horizontal, b.LevelLow, b.LevelHigh)
	vertical = clampLevel(vertical, b.LevelLow, b.LevelHigh)
	return horizontal, vertical
}

func clampLevel(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clickable reports whether the button currently accepts touch input
// (spec.md §4.5 "^ENA-<p>,<0/1>" toggles exactly this flag, combined
// with visibility).
func (b *Button) Clickable() bool {
	return b.Enabled && b.Visible
}
