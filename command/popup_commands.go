package command

import "strconv"

// popupTarget splits the "<name>[;<page>]" argument shape spec.md
// §4.5 gives for every popup command, defaulting page to the manager's
// current page name when omitted.
func (ip *Interpreter) popupTarget(cmd Command) (name, pageName string) {
	fields := cmd.Semi()
	name = arg(fields, 0)
	pageName = arg(fields, 1)
	if pageName == "" {
		if cur := ip.manager.CurrentPage(); cur != nil {
			pageName = cur.Name
		}
	}
	return name, pageName
}

// cmdPopupShow applies @PPN-<name>[;<page>] (spec.md §4.5, §4.6 "Popup
// show", §8 scenario 5).
func (ip *Interpreter) cmdPopupShow(cmd Command) {
	name, pg := ip.popupTarget(cmd)
	if name == "" {
		return
	}
	if err := ip.manager.ShowPopup(name, pg); err != nil {
		ip.log.Warn("command: @PPN-%s: %v", name, err)
	}
}

// cmdPopupHide applies @PPF-<name>[;<page>] (spec.md §4.5, §4.6 "Popup
// hide").
func (ip *Interpreter) cmdPopupHide(cmd Command) {
	name, _ := ip.popupTarget(cmd)
	if name == "" {
		return
	}
	if err := ip.manager.HidePopup(name); err != nil {
		ip.log.Warn("command: @PPF-%s: %v", name, err)
	}
}

// cmdPopupToggle applies @PPG-<name>[;<page>] (spec.md §4.5).
func (ip *Interpreter) cmdPopupToggle(cmd Command) {
	name, pg := ip.popupTarget(cmd)
	if name == "" {
		return
	}
	if err := ip.manager.TogglePopup(name, pg); err != nil {
		ip.log.Warn("command: @PPG-%s: %v", name, err)
	}
}

// cmdPopupHideGroup applies @PPK-<group> (spec.md §4.5 "hide all
// popups in group").
func (ip *Interpreter) cmdPopupHideGroup(cmd Command) {
	group := cmd.ArgString
	if group == "" {
		return
	}
	ip.manager.HideGroup(group)
}

// cmdPopupModal applies @PPM-<name>,<modal> (spec.md §4.5).
func (ip *Interpreter) cmdPopupModal(cmd Command) {
	fields := cmd.CSV()
	name := arg(fields, 0)
	modal := arg(fields, 1) == "1"
	if name == "" {
		return
	}
	if err := ip.manager.SetModal(name, modal); err != nil {
		ip.log.Warn("command: @PPM-%s: %v", name, err)
	}
}

// cmdPopupTimeout applies @PPT-<name>,<ds> (spec.md §4.5, deciseconds).
func (ip *Interpreter) cmdPopupTimeout(cmd Command) {
	fields := cmd.CSV()
	name := arg(fields, 0)
	if name == "" {
		return
	}
	ds, err := strconv.Atoi(arg(fields, 1))
	if err != nil {
		ip.log.Warn("command: @PPT-%s: bad timeout %q", name, arg(fields, 1))
		return
	}
	if err := ip.manager.SetTimeout(name, ds); err != nil {
		ip.log.Warn("command: @PPT-%s: %v", name, err)
	}
}
