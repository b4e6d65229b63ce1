package page

import (
	"fmt"
	"sort"
	"sync"

	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/render"
)

// Loader is the project-metadata parser abstraction spec.md §1 and §3
// place at the boundary ("On-disk XML loading of project files —
// consumed through a parser abstraction that returns typed records").
// Manager calls it exactly once per page/popup/subview list id, then
// caches the result for the life of the process.
type Loader interface {
	LoadPage(id int) (*Page, error)
	LoadPageByName(name string) (*Page, error)
	LoadPopup(name string) (*Popup, error)
	LoadSubviewList(id int) (*SubviewList, error)
}

// ErrNotFound is returned when a referenced page/popup/button doesn't
// exist; spec.md §7 treats this as "logged warning; command is a
// no-op", never a fatal condition.
var ErrNotFound = fmt.Errorf("page: not found")

// Manager is the process-wide PageManager singleton spec.md §3 and §9
// describe: it owns every loaded Page and Popup, the single active
// page, and the coarse lock spec.md §5 requires ("The page/popup model
// and the active-page pointer are protected by a single coarse lock
// held only inside command-loop and render-query sections; the lock is
// never held across I/O").
type Manager struct {
	loader  Loader
	surface render.Surface
	log     clog.Clog

	mu          sync.Mutex
	pagesByID   map[int]*Page
	pagesByName map[string]*Page
	popups      map[string]*Popup
	subviews    map[int]*SubviewList
	current     *Page
	// memory remembers, per page id, the ordered (ascending z) names
	// of popups that were visible on it last time it was the active
	// page, so SetPage can restore them (spec.md §3 "the new page's
	// popups are restored to whatever visibility state they last had
	// unless reset_pos is set").
	memory map[int][]string
}

// NewManager builds an empty Manager. surface may be render.NoopSurface{}
// until a real rasterizer is wired.
func NewManager(loader Loader, surface render.Surface, log clog.Clog) *Manager {
	return &Manager{
		loader:      loader,
		surface:     surface,
		log:         log,
		pagesByID:   make(map[int]*Page),
		pagesByName: make(map[string]*Page),
		popups:      make(map[string]*Popup),
		subviews:    make(map[int]*SubviewList),
		memory:      make(map[int][]string),
	}
}

// SetSurface rewires the rendering target, e.g. after filexfer
// receives a new project and the upper layer restarts the page
// manager's surface (spec.md §4.4 "receipt of a new surface may signal
// the upper layer to restart the page manager").
func (m *Manager) SetSurface(s render.Surface) {
	m.mu.Lock()
	m.surface = s
	m.mu.Unlock()
}

// Reset drops every cached page/popup and the current page, for reuse
// after a project reload (spec.md §4.4).
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pagesByID = make(map[int]*Page)
	m.pagesByName = make(map[string]*Page)
	m.popups = make(map[string]*Popup)
	m.subviews = make(map[int]*SubviewList)
	m.memory = make(map[int][]string)
	m.current = nil
}

// CurrentPage returns the active page, or nil if none has been set yet.
func (m *Manager) CurrentPage() *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) getPageByID(id int) (*Page, error) {
	if p, ok := m.pagesByID[id]; ok {
		return p, nil
	}
	p, err := m.loader.LoadPage(id)
	if err != nil {
		return nil, fmt.Errorf("page: load page %d: %w", id, err)
	}
	p.Handle = MakeHandle(p.ID, 0)
	for _, b := range p.Buttons {
		b.Handle = MakeHandle(p.ID, b.Index)
		b.ParentHandle = p.Handle
	}
	m.pagesByID[id] = p
	m.pagesByName[p.Name] = p
	return p, nil
}

func (m *Manager) getPageByName(name string) (*Page, error) {
	if p, ok := m.pagesByName[name]; ok {
		return p, nil
	}
	p, err := m.loader.LoadPageByName(name)
	if err != nil {
		return nil, fmt.Errorf("page: load page %q: %w", name, err)
	}
	p.Handle = MakeHandle(p.ID, 0)
	for _, b := range p.Buttons {
		b.Handle = MakeHandle(p.ID, b.Index)
		b.ParentHandle = p.Handle
	}
	m.pagesByID[p.ID] = p
	m.pagesByName[name] = p
	return p, nil
}

func (m *Manager) getPopup(name string) (*Popup, error) {
	if p, ok := m.popups[name]; ok {
		return p, nil
	}
	p, err := m.loader.LoadPopup(name)
	if err != nil {
		return nil, fmt.Errorf("page: load popup %q: %w", name, err)
	}
	p.defaultGeometry = p.Geometry
	p.ZOrder = -1
	p.Handle = MakeHandle(p.ID, 0)
	for _, b := range p.Buttons {
		b.Handle = MakeHandle(p.ID, b.Index)
		b.ParentHandle = p.Handle
	}
	m.popups[name] = p
	return p, nil
}

// GetSubviewList loads (and caches) a subview list by id.
func (m *Manager) GetSubviewList(id int) (*SubviewList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.subviews[id]; ok {
		return l, nil
	}
	l, err := m.loader.LoadSubviewList(id)
	if err != nil {
		return nil, err
	}
	m.subviews[id] = l
	return l, nil
}

// renderOp is a deferred rendering-surface call collected under the
// coarse lock and executed after it is released (spec.md §5 "No lock
// is held across callbacks into the rendering interface").
type renderOp func(render.Surface)

func (m *Manager) runOps(ops []renderOp) {
	m.mu.Lock()
	s := m.surface
	m.mu.Unlock()
	for _, op := range ops {
		op(s)
	}
}

// SetPage switches the active page to name (spec.md §4.5 "PAGE-<name>",
// §4.6 "Page switch"): loads it if needed, hides (dropping from
// display, keeping cache) every popup visible on the old page, remembers
// their z-ordered names, publishes the new page, then restores the
// target page's previously-visible popups unless ResetPos is set on
// one of them.
func (m *Manager) SetPage(name string) error {
	m.mu.Lock()
	target, err := m.getPageByName(name)
	if err != nil {
		m.mu.Unlock()
		m.log.Warn("page: SetPage(%q): %v", name, err)
		return err
	}

	var ops []renderOp
	oldPage := m.current
	if oldPage != nil {
		visible := m.visiblePopupNamesLocked()
		m.memory[oldPage.ID] = visible
		for _, n := range visible {
			p := m.popups[n]
			p.cancelTimeoutScope()
			p.Visible = false
			p.ZOrder = -1
			ops = append(ops, func(p *Popup) renderOp {
				return func(s render.Surface) { s.DropSubpage(p.Handle, oldPage.Handle, p.HideEffect) }
			}(p))
		}
	}

	m.current = target
	ops = append(ops, func(s render.Surface) { s.DisplayPage(target.Handle, target.Width, target.Height) })

	var restore []string
	for _, n := range m.memory[target.ID] {
		if p := m.popups[n]; p != nil && p.ResetPos {
			continue
		}
		restore = append(restore, n)
	}
	m.mu.Unlock()

	m.runOps(ops)

	for _, n := range restore {
		if err := m.ShowPopup(n, name); err != nil {
			m.log.Debug("page: restore popup %q on %q: %v", n, name, err)
		}
	}
	return nil
}

// visiblePopupNamesLocked returns the names of every popup currently
// visible, ordered ascending by z-order. Caller holds m.mu.
func (m *Manager) visiblePopupNamesLocked() []string {
	var names []string
	for n, p := range m.popups {
		if p.Visible {
			names = append(names, n)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return m.popups[names[i]].ZOrder < m.popups[names[j]].ZOrder
	})
	return names
}

// maxVisibleZLocked returns the highest z-order among visible popups,
// 0 if none are visible. Caller holds m.mu.
func (m *Manager) maxVisibleZLocked() int {
	max := 0
	for _, p := range m.popups {
		if p.Visible && p.ZOrder > max {
			max = p.ZOrder
		}
	}
	return max
}

// ShowPopup shows name on pageName (spec.md §4.5 "@PPN", §4.6 "Popup
// show"): validates existence, applies group-singleton policy (hiding
// the group's current occupant first), assigns the next z-order,
// marks visible, emits the show render op, and starts the timeout
// scope if TimeoutDS > 0.
func (m *Manager) ShowPopup(name, pageName string) error {
	m.mu.Lock()
	pg, err := m.getPageByName(pageName)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	popup, err := m.getPopup(name)
	if err != nil {
		m.mu.Unlock()
		m.log.Warn("page: ShowPopup(%q): %v", name, err)
		return err
	}
	if popup.Visible {
		m.mu.Unlock()
		return nil
	}

	priorMax := m.maxVisibleZLocked()

	var ops []renderOp
	if popup.Group != "" {
		for n, other := range m.popups {
			if n == name || !other.Visible || other.Group != popup.Group {
				continue
			}
			other.cancelTimeoutScope()
			other.Visible = false
			other.ZOrder = -1
			ops = append(ops, func(o *Popup) renderOp {
				return func(s render.Surface) { s.DropSubpage(o.Handle, pg.Handle, o.HideEffect) }
			}(other))
		}
	}

	if popup.ResetPos {
		popup.Geometry = popup.defaultGeometry
		popup.ResetPos = false
	}

	popup.ZOrder = priorMax + 1
	popup.Visible = true
	g := popup.Geometry
	ops = append(ops, func(s render.Surface) {
		s.SetSubpage(popup.Handle, pg.Handle, g.X, g.Y, g.W, g.H, popup.ShowEffect)
	})
	m.mu.Unlock()

	m.runOps(ops)

	if popup.TimeoutDS > 0 {
		popup.startTimeout(func() { _ = m.HidePopup(name) })
	}
	return nil
}

// HidePopup hides name (spec.md §4.5 "@PPF", §4.6 "Popup hide"):
// cancels any running timeout, applies the hide animation, and sets
// Visible=false, ZOrder=-1. Other popups keep their z-order (spec.md
// "no compaction — new shows pick max+1").
func (m *Manager) HidePopup(name string) error {
	m.mu.Lock()
	popup, ok := m.popups[name]
	if !ok || !popup.Visible {
		m.mu.Unlock()
		if !ok {
			return ErrNotFound
		}
		return nil
	}
	popup.cancelTimeoutScope()
	popup.Visible = false
	popup.ZOrder = -1
	parent := m.current
	m.mu.Unlock()

	if parent != nil {
		m.runOps([]renderOp{func(s render.Surface) { s.DropSubpage(popup.Handle, parent.Handle, popup.HideEffect) }})
	}
	return nil
}

// TogglePopup shows name if hidden, hides it if visible (spec.md §4.5
// "@PPG").
func (m *Manager) TogglePopup(name, pageName string) error {
	m.mu.Lock()
	popup, ok := m.popups[name]
	m.mu.Unlock()
	if !ok {
		var err error
		popup, err = func() (*Popup, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.getPopup(name)
		}()
		if err != nil {
			return err
		}
	}
	if popup.Visible {
		return m.HidePopup(name)
	}
	return m.ShowPopup(name, pageName)
}

// HideGroup hides every visible popup in group (spec.md §4.5 "@PPK").
func (m *Manager) HideGroup(group string) {
	m.mu.Lock()
	var names []string
	for n, p := range m.popups {
		if p.Visible && p.Group == group {
			names = append(names, n)
		}
	}
	m.mu.Unlock()
	for _, n := range names {
		_ = m.HidePopup(n)
	}
}

// HideAll hides every visible popup (spec.md §4.5 "@PPX").
func (m *Manager) HideAll() {
	m.mu.Lock()
	names := m.visiblePopupNamesLocked()
	m.mu.Unlock()
	for _, n := range names {
		_ = m.HidePopup(n)
	}
}

// SetModal sets a popup's modal flag (spec.md §4.5 "@PPM").
func (m *Manager) SetModal(name string, modal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.getPopup(name)
	if err != nil {
		return err
	}
	p.Modal = modal
	return nil
}

// SetTimeout sets a popup's timeout in deciseconds (spec.md §4.5
// "@PPT"). It does not restart an already-running timeout; the new
// value applies the next time the popup is shown.
func (m *Manager) SetTimeout(name string, ds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.getPopup(name)
	if err != nil {
		return err
	}
	p.TimeoutDS = ds
	return nil
}

// HitTest resolves (x, y) to the topmost clickable button, per spec.md
// §4.6 "Hit testing": iterate visible popups in descending z-order,
// the first popup whose rectangle contains the point receives the
// event and is scanned top-most-button-first; if no popup consumes
// it, the page's own buttons are scanned last.
func (m *Manager) HitTest(x, y int) (*Button, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := m.visiblePopupNamesLocked()
	for i := len(names) - 1; i >= 0; i-- {
		p := m.popups[names[i]]
		if !p.Geometry.Contains(x, y) {
			continue
		}
		for i := len(p.Buttons) - 1; i >= 0; i-- {
			b := p.Buttons[i]
			if b.Clickable() && b.Geometry.Contains(x, y) {
				return b, true
			}
		}
		// The popup consumed the event (it contains the point) even if
		// no button inside it was clickable at this location: spec.md
		// "the first match wins regardless of modality, since they're
		// already above".
		return nil, false
	}

	if m.current == nil {
		return nil, false
	}
	for i := len(m.current.Buttons) - 1; i >= 0; i-- {
		b := m.current.Buttons[i]
		if b.Clickable() && b.Geometry.Contains(x, y) {
			return b, true
		}
	}
	return nil, false
}

// Redraw emits one DisplayButton render call for b's current active
// state record (spec.md §4.7 "After any mutation the button produces
// one redraw request"). It is the command interpreter's only path to
// the rendering surface: commands never hold a Surface reference of
// their own.
func (m *Manager) Redraw(b *Button) {
	var file string
	if sr, err := b.Active(); err == nil {
		if bms := sr.Bitmaps(); len(bms) > 0 {
			file = bms[0].File
		}
	}
	m.mu.Lock()
	s := m.surface
	m.mu.Unlock()
	g := b.Geometry
	s.DisplayButton(b.Handle, b.ParentHandle, file, g.W, g.H, g.X, g.Y, !b.Clickable())
}

// IsPopupVisible reports whether the named popup is currently visible
// on the active page (spec.md §3 z-order invariants).
func (m *Manager) IsPopupVisible(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.popups[name]
	return ok && p.Visible
}

// PopupZOrder returns the named popup's current z-order (-1 if hidden
// or not yet loaded).
func (m *Manager) PopupZOrder(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.popups[name]
	if !ok {
		return -1
	}
	return p.ZOrder
}

// PlaySound asks the rendering surface's external audio collaborator
// to play file, e.g. one of the system sound effects spec.md §4.5's
// "System" command family (ABEEP/ADBEEP/BEEP/DBEEP) triggers.
func (m *Manager) PlaySound(file string) {
	m.mu.Lock()
	s := m.surface
	m.mu.Unlock()
	s.PlaySound(file)
}

// ResolveByAddress returns every button on the current page and every
// cached popup whose (AddressPort, AddressChannel) matches one of the
// requested channels on port (spec.md §4.5 step 2: "The addressed
// buttons are resolved as the set of all buttons on the current page
// and all cached popups whose (address_port, address_channel) match
// the command's target"). A nil channels slice matches every channel
// on port (the "wildcard channel list" case).
func (m *Manager) ResolveByAddress(port int, channels []int) []*Button {
	m.mu.Lock()
	defer m.mu.Unlock()

	match := func(b *Button) bool {
		if b.AddressPort != port {
			return false
		}
		if channels == nil {
			return true
		}
		for _, c := range channels {
			if b.AddressChannel == c {
				return true
			}
		}
		return false
	}

	var out []*Button
	if m.current != nil {
		for _, b := range m.current.Buttons {
			if match(b) {
				out = append(out, b)
			}
		}
	}
	for _, p := range m.popups {
		for _, b := range p.Buttons {
			if match(b) {
				out = append(out, b)
			}
		}
	}
	return out
}

// eachButtonLocked walks the current page's buttons and every cached
// popup's buttons, the same working set ResolveByAddress matches
// against, calling fn on each until it returns true. Caller holds m.mu.
func (m *Manager) eachButtonLocked(fn func(*Button) bool) *Button {
	if m.current != nil {
		for _, b := range m.current.Buttons {
			if fn(b) {
				return b
			}
		}
	}
	for _, p := range m.popups {
		for _, b := range p.Buttons {
			if fn(b) {
				return b
			}
		}
	}
	return nil
}

// QueryLevel implements engine.StateQuery, answering MC 0x000e
// ("request level") with the addressed button's current level.
func (m *Manager) QueryLevel(port, level int) (uint16, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.eachButtonLocked(func(b *Button) bool {
		return b.LevelPort == port && b.LevelChannel == level
	})
	if b == nil {
		return 0, false
	}
	return uint16(b.Level), true
}

// QueryChannel implements engine.StateQuery, answering MC 0x000f
// ("request channel status") with the addressed button's current
// on/off state, taken as ActiveSR > 1 (spec.md §3's "0 means state 1"
// two-state convention: state 1 is off, any other state is on).
func (m *Manager) QueryChannel(port, channel int) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.eachButtonLocked(func(b *Button) bool {
		return b.AddressPort == port && b.AddressChannel == channel
	})
	if b == nil {
		return false, false
	}
	return b.ActiveSR > 1, true
}
