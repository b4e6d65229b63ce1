package command

import (
	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/page"
	"github.com/amxpanel/icspcore/wire"
)

// Sender is the narrow outbound surface query commands reply through
// (spec.md §4.5 "Query commands ... produce an outbound command-string
// directed at the original source port"). *engine.Engine satisfies it
// structurally, so command never imports engine.
type Sender interface {
	SendCommand(port int, text string)
}

// KeyboardSink receives the virtual keyboard/keypad show requests of
// spec.md §4.5's "Keyboard" family (@AKB/@AKP/@EKP); it is an external
// GUI collaborator per spec.md §1, consumed only through this narrow
// interface.
type KeyboardSink interface {
	ShowKeyboard(initial, prompt string)
	ShowKeypad(initial, prompt string)
}

// PhoneSink forwards @PHN sub-commands to the SIP telephony client,
// an external collaborator spec.md §1 places entirely out of scope.
type PhoneSink interface {
	Handle(subCommand string)
}

// Interpreter is the command interpreter of spec.md §4.5. One
// Interpreter serves one session; Dispatch matches engine.CommandSink
// so *engine.Engine can wire it directly via SetCommandSink.
type Interpreter struct {
	manager  *page.Manager
	sender   Sender
	encoding wire.Origin
	log      clog.Clog

	keyboard KeyboardSink
	phone    PhoneSink
	shutdown func()
}

// New builds an Interpreter over manager, replying to query commands
// through sender. encoding selects CP1250 (G4) vs UTF-8 (G5) for
// command-string arguments (spec.md §6.4).
func New(manager *page.Manager, sender Sender, encoding wire.Origin, log clog.Clog) *Interpreter {
	return &Interpreter{manager: manager, sender: sender, encoding: encoding, log: log}
}

// SetKeyboardSink wires the virtual keyboard/keypad collaborator.
func (ip *Interpreter) SetKeyboardSink(k KeyboardSink) { ip.keyboard = k }

// SetPhoneSink wires the SIP telephony collaborator.
func (ip *Interpreter) SetPhoneSink(p PhoneSink) { ip.phone = p }

// SetShutdownFunc wires the orderly-shutdown request spec.md §4.5's
// "^STP" triggers; it is called at most once per Interpreter.
func (ip *Interpreter) SetShutdownFunc(fn func()) { ip.shutdown = fn }

// Dispatch implements engine.CommandSink: text is a complete,
// already-concatenated command string (P9 is handled upstream by
// engine's commandConcat); sourcePort is where any query reply is
// sent (spec.md §4.5 step 3, and the query-command note).
func (ip *Interpreter) Dispatch(sourcePort int, text string) {
	if decoded, err := wire.DecodeToUTF8([]byte(text), ip.encoding, false); err == nil {
		text = decoded
	}
	cmd, err := parse(text)
	if err != nil {
		ip.log.Debug("command: %v", err)
		return
	}
	ip.apply(sourcePort, cmd)
}

// apply routes one parsed Command to its family handler (spec.md
// §4.5's representative command table). Unknown opcodes are logged at
// trace level and ignored (spec.md §7).
func (ip *Interpreter) apply(sourcePort int, cmd Command) {
	switch cmd.Opcode {
	case "PAGE":
		ip.cmdPage(cmd)

	case "@PPN":
		ip.cmdPopupShow(cmd)
	case "@PPF":
		ip.cmdPopupHide(cmd)
	case "@PPG":
		ip.cmdPopupToggle(cmd)
	case "@PPK":
		ip.cmdPopupHideGroup(cmd)
	case "@PPX":
		ip.manager.HideAll()
	case "@PPM":
		ip.cmdPopupModal(cmd)
	case "@PPT":
		ip.cmdPopupTimeout(cmd)

	case "^TXT":
		ip.cmdButtonText(cmd)
	case "^BMP":
		ip.cmdButtonBitmap(cmd)
	case "^ICO":
		ip.cmdButtonIcon(cmd)
	case "^FON":
		ip.cmdButtonFont(cmd)
	case "^BCF":
		ip.cmdButtonColor(cmd, colorBorder)
	case "^BCB":
		ip.cmdButtonColor(cmd, colorBackground)
	case "^BCT":
		ip.cmdButtonColor(cmd, colorText)
	case "?BCF":
		ip.cmdButtonColorQuery(sourcePort, cmd, colorBorder)
	case "?BCB":
		ip.cmdButtonColorQuery(sourcePort, cmd, colorBackground)
	case "?BCT":
		ip.cmdButtonColorQuery(sourcePort, cmd, colorText)
	case "^SHO":
		ip.cmdButtonShow(cmd)
	case "^ENA":
		ip.cmdButtonEnable(cmd)

	case "^BVL":
		ip.cmdBargraphLow(cmd)
	case "^BVN":
		ip.cmdBargraphHigh(cmd)
	case "^BVP":
		ip.cmdBargraphValue(cmd)
	case "^BVT":
		ip.cmdBargraphType(cmd)

	case "^TEC":
		ip.cmdTextEditColor(cmd)
	case "^TEF":
		ip.cmdTextEditFont(cmd)

	case "ABEEP", "ADBEEP", "BEEP", "DBEEP":
		ip.cmdSystemSound(cmd)

	case "@AKB":
		ip.cmdKeyboard(cmd, false)
	case "@AKP", "@EKP":
		ip.cmdKeyboard(cmd, true)

	case "@PHN":
		if ip.phone != nil {
			ip.phone.Handle(cmd.ArgString)
		}

	case "^STP":
		if fn := ip.shutdown; fn != nil {
			ip.shutdown = nil
			fn()
		}

	default:
		ip.log.Debug("command: unknown opcode %q ignored", cmd.Opcode)
	}
}

// redrawAll resolves (port, nil channels — the wildcard case of
// spec.md §4.5 step 2) and applies mutate to every matching button,
// redrawing each one whose mutate reports a change.
func (ip *Interpreter) redrawAll(port int, mutate func(*page.Button) bool) {
	for _, b := range ip.manager.ResolveByAddress(port, nil) {
		if mutate(b) {
			ip.manager.Redraw(b)
		}
	}
}

func parsePort(fields []string) (int, error) {
	return argInt(fields, 0)
}
