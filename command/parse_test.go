package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParseCSVRoundTrip(t *testing.T) {
	c := Command{Opcode: "^TXT", ArgString: "1,2,hello"}
	assert.Equal(t, []string{"1", "2", "hello"}, c.CSV())
}

func TestParseSemiRoundTrip(t *testing.T) {
	c := Command{Opcode: "@PPN", ArgString: "A;Home"}
	assert.Equal(t, []string{"A", "Home"}, c.Semi())
}

// TestParseNeverPanicsAndUppercasesOpcode exercises the command-string
// grammar of spec.md §4.5 step 1 against arbitrary input: parse never
// panics, and whenever a '-' separator is present the opcode is
// exactly the upper-cased text ahead of it.
func TestParseNeverPanicsAndUppercasesOpcode(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.StringMatching(`[ -~]{0,40}`).Draw(t, "raw")

		cmd, err := parse(raw)
		if strings.TrimSpace(raw) == "" {
			if err == nil {
				t.Fatal("expected error for blank command string")
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}

		trimmed := strings.TrimSpace(raw)
		if i := strings.IndexByte(trimmed, '-'); i >= 0 {
			assert.Equal(t, strings.ToUpper(trimmed[:i]), cmd.Opcode)
			assert.Equal(t, trimmed[i+1:], cmd.ArgString)
		} else {
			assert.Equal(t, strings.ToUpper(trimmed), cmd.Opcode)
			assert.Empty(t, cmd.ArgString)
		}
	})
}
