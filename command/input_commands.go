package command

import "github.com/amxpanel/icspcore/page"

// cmdTextEditColor applies ^TEC-<port>,<color> (spec.md §4.5 "Input
// ^TEC/^TEF-... text-edit color/font"). It reuses the button's
// TextColor SR field: a text_input button has no separate edit-state
// color in spec.md §3, so the edit color and the rendered text color
// are the same SR field.
func (ip *Interpreter) cmdTextEditColor(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^TEC: bad port: %v", err)
		return
	}
	normalized, err := ParseColor(arg(fields, 1))
	if err != nil {
		ip.log.Warn("command: %v", err)
		return
	}
	ip.redrawAll(port, func(b *page.Button) bool {
		sr, err := b.Active()
		if err != nil || sr.TextColor == normalized {
			return false
		}
		sr.TextColor = normalized
		return true
	})
}

// cmdTextEditFont applies ^TEF-<port>,<font>.
func (ip *Interpreter) cmdTextEditFont(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^TEF: bad port: %v", err)
		return
	}
	font, err := argInt(fields, 1)
	if err != nil {
		ip.log.Warn("command: ^TEF: bad font: %v", err)
		return
	}
	ip.redrawAll(port, func(b *page.Button) bool {
		sr, err := b.Active()
		if err != nil || sr.FontIndex == font {
			return false
		}
		sr.FontIndex = font
		return true
	})
}

// cmdKeyboard applies @AKB-<init>;<prompt>, @AKP-... and @EKP-...
// (spec.md §4.5 "Keyboard"): keypad forms (numeric-only) and the
// full alpha keyboard both forward to KeyboardSink, an external GUI
// collaborator (spec.md §1); keypad is distinguished from keyboard by
// numeric.
func (ip *Interpreter) cmdKeyboard(cmd Command, numeric bool) {
	if ip.keyboard == nil {
		return
	}
	fields := cmd.Semi()
	initial := arg(fields, 0)
	prompt := arg(fields, 1)
	if numeric {
		ip.keyboard.ShowKeypad(initial, prompt)
	} else {
		ip.keyboard.ShowKeyboard(initial, prompt)
	}
}
