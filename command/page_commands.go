package command

// cmdPage applies PAGE-<name> (spec.md §4.5): switch the active page,
// hiding the previous page's popups from display but retaining their
// cached state (spec.md §4.6 "Page switch").
func (ip *Interpreter) cmdPage(cmd Command) {
	name := cmd.ArgString
	if name == "" {
		ip.log.Warn("command: PAGE- with no name")
		return
	}
	if err := ip.manager.SetPage(name); err != nil {
		ip.log.Warn("command: PAGE-%s: %v", name, err)
	}
}
