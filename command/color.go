package command

import (
	"fmt"
	"strconv"
	"strings"
)

// namedPalette is the small built-in color name table spec.md §4.5
// names ("named palette entries"); a real project supplies a much
// larger palette loaded from project metadata, but the core ships a
// basic set so color commands resolve even before a project loads
// (confirmed against original_source/ tresources.cpp — see DESIGN.md).
var namedPalette = map[string]string{
	"BLACK":     "#000000FF",
	"WHITE":     "#FFFFFFFF",
	"RED":       "#FF0000FF",
	"GREEN":     "#00FF00FF",
	"BLUE":      "#0000FFFF",
	"YELLOW":    "#FFFF00FF",
	"CYAN":      "#00FFFFFF",
	"MAGENTA":   "#FF00FFFF",
	"GRAY":      "#808080FF",
	"TRANSPARENT": "#00000000",
}

// ParseColor normalizes a color argument from any of the forms
// spec.md §4.5 lists — "#rrggbbaa", "rrggbb", a named palette entry,
// or an integer palette index — into a canonical "#RRGGBBAA" string,
// or, for an index with no loaded palette to resolve against, the
// sentinel form "palette:<n>" that a rendering surface with its own
// palette table can still interpret. One parser serves every
// color-setting command family (^BCF/^BCB/^BCT and their query
// variants) rather than duplicating the logic per command, per
// original_source/ tresources.cpp (see DESIGN.md).
func ParseColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("command: empty color")
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		switch len(hex) {
		case 6:
			hex += "FF"
		case 8:
			// already has alpha
		default:
			return "", fmt.Errorf("command: color %q: expected 6 or 8 hex digits", s)
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return "", fmt.Errorf("command: color %q: %w", s, err)
		}
		return "#" + strings.ToUpper(hex), nil
	}

	if isHex(s) && (len(s) == 6 || len(s) == 8) {
		return ParseColor("#" + s)
	}

	if hex, ok := namedPalette[strings.ToUpper(s)]; ok {
		return hex, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf("palette:%d", n), nil
	}

	return "", fmt.Errorf("command: unrecognized color %q", s)
}

func isHex(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return len(s) > 0
}
