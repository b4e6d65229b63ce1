package command

// systemSounds maps the bare system-sound opcodes of spec.md §4.5
// ("ABEEP, ADBEEP, BEEP, DBEEP | play system sound") to the file
// reference handed to the rendering surface's audio collaborator.
var systemSounds = map[string]string{
	"ABEEP":  "sounds/abeep.wav",
	"ADBEEP": "sounds/adbeep.wav",
	"BEEP":   "sounds/beep.wav",
	"DBEEP":  "sounds/dbeep.wav",
}

// cmdSystemSound applies one of ABEEP/ADBEEP/BEEP/DBEEP.
func (ip *Interpreter) cmdSystemSound(cmd Command) {
	if file, ok := systemSounds[cmd.Opcode]; ok {
		ip.manager.PlaySound(file)
	}
}
