package command

import "github.com/amxpanel/icspcore/page"

// cmdBargraphLow applies ^BVL-<port>,<low> (spec.md §4.5 "Bargraph
// ^BVL/BVN/BVP/BVT-... level low/high/value/type").
func (ip *Interpreter) cmdBargraphLow(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^BVL: bad port: %v", err)
		return
	}
	low, err := argInt(fields, 1)
	if err != nil {
		ip.log.Warn("command: ^BVL: bad value: %v", err)
		return
	}
	ip.redrawAll(port, func(b *page.Button) bool {
		if b.LevelLow == low {
			return false
		}
		b.LevelLow = low
		return true
	})
}

// cmdBargraphHigh applies ^BVN-<port>,<high>.
func (ip *Interpreter) cmdBargraphHigh(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^BVN: bad port: %v", err)
		return
	}
	high, err := argInt(fields, 1)
	if err != nil {
		ip.log.Warn("command: ^BVN: bad value: %v", err)
		return
	}
	ip.redrawAll(port, func(b *page.Button) bool {
		if b.LevelHigh == high {
			return false
		}
		b.LevelHigh = high
		return true
	})
}

// cmdBargraphValue applies ^BVP-<port>,<value>, setting the current
// level without waiting for a touch event.
func (ip *Interpreter) cmdBargraphValue(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^BVP: bad port: %v", err)
		return
	}
	value, err := argInt(fields, 1)
	if err != nil {
		ip.log.Warn("command: ^BVP: bad value: %v", err)
		return
	}
	ip.redrawAll(port, func(b *page.Button) bool {
		if b.Level == value {
			return false
		}
		b.Level = value
		return true
	})
}

// cmdBargraphType applies ^BVT-<port>,<type>, switching the button
// between the bargraph/joystick type variants (spec.md §3's Button
// type enum).
func (ip *Interpreter) cmdBargraphType(cmd Command) {
	fields := cmd.CSV()
	port, err := parsePort(fields)
	if err != nil {
		ip.log.Warn("command: ^BVT: bad port: %v", err)
		return
	}
	typ, err := argInt(fields, 1)
	if err != nil {
		ip.log.Warn("command: ^BVT: bad type: %v", err)
		return
	}
	ip.redrawAll(port, func(b *page.Button) bool {
		next := page.Type(typ)
		if b.Type == next {
			return false
		}
		b.Type = next
		return true
	})
}
