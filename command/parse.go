// Package command implements the command interpreter of spec.md §4.5:
// parsing a textual command out of a received command-string, resolving
// the buttons it addresses, and applying its mutation to the page/popup
// model (package page).
package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is one parsed command-string, spec.md §6.4's grammar:
//
//	cmd  := opcode ['-' arglist]
//	arglist := arg (',' arg)* | arg (';' arg)*
//
// Opcode keeps its introducing symbol (^, @, ?) or bare-word form
// uppercased; ArgString is the unsplit remainder after the first '-',
// since different command families split it on ',' or ';' (callers
// use CSV/Semi below per family).
type Command struct {
	Raw       string
	Opcode    string
	ArgString string
}

// parse implements spec.md §4.5 step 1: "The leading token up to the
// first '-' identifies the command; normalized to upper case."
func parse(raw string) (Command, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Command{}, fmt.Errorf("command: empty command string")
	}
	opcode := s
	argStr := ""
	if i := strings.IndexByte(s, '-'); i >= 0 {
		opcode = s[:i]
		argStr = s[i+1:]
	}
	return Command{Raw: raw, Opcode: strings.ToUpper(opcode), ArgString: argStr}, nil
}

// CSV splits ArgString on ',', the shape every button-state command
// (^TXT, ^BMP, ^BCF, ...) uses.
func (c Command) CSV() []string {
	if c.ArgString == "" {
		return nil
	}
	return strings.Split(c.ArgString, ",")
}

// Semi splits ArgString on ';', the shape popup commands use for their
// optional trailing page name (spec.md §4.5 "@PPN-<name>[;<page>]").
func (c Command) Semi() []string {
	if c.ArgString == "" {
		return nil
	}
	return strings.Split(c.ArgString, ";")
}

// arg fetches CSV field i, or "" if short.
func arg(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func argInt(fields []string, i int) (int, error) {
	s := arg(fields, i)
	return strconv.Atoi(s)
}
