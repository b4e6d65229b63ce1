package command

import (
	"fmt"

	"github.com/amxpanel/icspcore/page"
)

// colorKind selects which SR field a ^BCx/?BCx command family
// addresses (spec.md §4.5 "^BCF/BCB/BCT-... set border/background/text
// color; ? variants query").
type colorKind int

const (
	colorBorder colorKind = iota
	colorBackground
	colorText
)

func getColor(sr *page.SR, kind colorKind) string {
	switch kind {
	case colorBorder:
		return sr.BorderColor
	case colorBackground:
		return sr.BackgroundColor
	default:
		return sr.TextColor
	}
}

func setColor(sr *page.SR, kind colorKind, v string) {
	switch kind {
	case colorBorder:
		sr.BorderColor = v
	case colorBackground:
		sr.BackgroundColor = v
	default:
		sr.TextColor = v
	}
}

// cmdButtonText applies ^TXT-<port>,<state>,<text> (spec.md §4.5:
// "state 0 = all states").
func (ip *Interpreter) cmdButtonText(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^TXT: bad port: %v", err)
		return
	}
	state, _ := argInt(fields, 1)
	text := arg(fields, 2)
	ip.redrawAll(port, func(b *page.Button) bool { return setStateText(b, state, text) })
}

func setStateText(b *page.Button, state int, text string) bool {
	if state == 0 {
		changed := false
		for i := range b.SR {
			if b.SR[i].Text != text {
				b.SR[i].Text = text
				changed = true
			}
		}
		return changed
	}
	sr, err := b.State(state)
	if err != nil || sr.Text == text {
		return false
	}
	sr.Text = text
	return true
}

// cmdButtonBitmap applies ^BMP-<port>,<state>,<file> (spec.md §4.5).
func (ip *Interpreter) cmdButtonBitmap(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^BMP: bad port: %v", err)
		return
	}
	state, _ := argInt(fields, 1)
	file := arg(fields, 2)
	ip.redrawAll(port, func(b *page.Button) bool {
		sr, err := b.State(state)
		if err != nil || sr.Bitmap.File == file {
			return false
		}
		sr.Bitmap.File = file
		sr.BitmapStack = nil
		return true
	})
}

// cmdButtonIcon applies ^ICO-<p>,<s>,<index> (spec.md §4.5).
func (ip *Interpreter) cmdButtonIcon(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^ICO: bad port: %v", err)
		return
	}
	state, _ := argInt(fields, 1)
	index, err := argInt(fields, 2)
	if err != nil {
		ip.log.Warn("command: ^ICO: bad index: %v", err)
		return
	}
	ip.redrawAll(port, func(b *page.Button) bool {
		sr, err := b.State(state)
		if err != nil || sr.IconIndex == index {
			return false
		}
		sr.IconIndex = index
		return true
	})
}

// cmdButtonFont applies ^FON-<p>,<s>,<font> (spec.md §4.5).
func (ip *Interpreter) cmdButtonFont(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^FON: bad port: %v", err)
		return
	}
	state, _ := argInt(fields, 1)
	font, err := argInt(fields, 2)
	if err != nil {
		ip.log.Warn("command: ^FON: bad font: %v", err)
		return
	}
	ip.redrawAll(port, func(b *page.Button) bool {
		sr, err := b.State(state)
		if err != nil || sr.FontIndex == font {
			return false
		}
		sr.FontIndex = font
		return true
	})
}

// cmdButtonColor applies ^BCF/^BCB/^BCT-<p>,<s>,<color> (spec.md
// §4.5): color accepts every form command.ParseColor does.
func (ip *Interpreter) cmdButtonColor(cmd Command, kind colorKind) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: color command: bad port: %v", err)
		return
	}
	state, _ := argInt(fields, 1)
	normalized, err := ParseColor(arg(fields, 2))
	if err != nil {
		ip.log.Warn("command: %v", err)
		return
	}
	ip.redrawAll(port, func(b *page.Button) bool {
		sr, err := b.State(state)
		if err != nil || getColor(sr, kind) == normalized {
			return false
		}
		setColor(sr, kind, normalized)
		return true
	})
}

// cmdButtonColorQuery applies ?BCF/?BCB/?BCT-<p>,<s>: spec.md §4.5
// "Query commands ... produce an outbound command-string directed at
// the original source port, encoding the requested value." It answers
// using the first matching button's current color.
func (ip *Interpreter) cmdButtonColorQuery(sourcePort int, cmd Command, kind colorKind) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		return
	}
	state, _ := argInt(fields, 1)
	buttons := ip.manager.ResolveByAddress(port, nil)
	if len(buttons) == 0 {
		return
	}
	sr, err := buttons[0].State(state)
	if err != nil {
		return
	}
	ip.sender.SendCommand(sourcePort, fmt.Sprintf("%s-%d,%d,%s", cmd.Opcode[1:], port, state, getColor(sr, kind)))
}

// cmdButtonShow applies ^SHO-<p>,<0/1> (spec.md §4.5).
func (ip *Interpreter) cmdButtonShow(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^SHO: bad port: %v", err)
		return
	}
	show := arg(fields, 1) == "1"
	ip.redrawAll(port, func(b *page.Button) bool {
		if b.Visible == show {
			return false
		}
		b.Visible = show
		return true
	})
}

// cmdButtonEnable applies ^ENA-<p>,<0/1> (spec.md §4.5).
func (ip *Interpreter) cmdButtonEnable(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^ENA: bad port: %v", err)
		return
	}
	enable := arg(fields, 1) == "1"
	ip.redrawAll(port, func(b *page.Button) bool {
		if b.Enabled == enable {
			return false
		}
		b.Enabled = enable
		return true
	})
}
