package page

import (
	"context"
	"time"

	"github.com/amxpanel/icspcore/render"
)

// PopupType distinguishes a fixed overlay (subpage) from a
// scrollable-list overlay (subview), spec.md §3.
type PopupType int

const (
	PopupSubpage PopupType = iota
	PopupSubview
)

// Popup is one subpage/subview overlay record, cached process-wide by
// the Manager and referenced by name from any page (spec.md §3, §9
// "Pages and popups are owned by the PageManager (process-wide
// singleton)").
type Popup struct {
	ID   int
	Name string

	Geometry        Rect
	defaultGeometry Rect // loaded default, restored when ResetPos fires (spec.md §3, §9)

	Group string
	Modal bool
	Type  PopupType

	TimeoutDS int

	ShowEffect render.Animation
	HideEffect render.Animation

	Background SR
	Buttons    []*Button

	ZOrder  int // -1 when not visible (spec.md §3 invariant)
	Visible bool

	// ResetPos, when set, reloads Geometry from defaultGeometry the
	// next time the popup is shown rather than keeping whatever
	// geometry a prior drag/resize left it at (spec.md §3 "unless
	// reset_pos is set, in which case their geometry and state revert
	// to loaded defaults"; confirmed against original_source/
	// tsubpage.h — see DESIGN.md).
	ResetPos bool

	Handle uint32

	SubviewListID int

	cancelTimeout context.CancelFunc
}

// startTimeout starts the timeout scope spec.md §3 and §5 describe:
// a task scoped to this popup's visible lifetime that calls hide when
// TimeoutDS elapses, cancelled by any hide that happens first, and
// guaranteed not to outlive the popup (spec.md §3 "guaranteed to not
// outlive the popup"). hide is invoked with the manager's lock NOT
// held, matching §5 "no lock is held across callbacks".
func (p *Popup) startTimeout(hide func()) {
	if p.TimeoutDS <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancelTimeout = cancel
	d := time.Duration(p.TimeoutDS) * 100 * time.Millisecond
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			hide()
		}
	}()
}

// cancelTimeoutScope cancels any running timeout task, implementing
// P7: a popup hidden before its timeout elapses never has the timeout
// re-emit the hide.
func (p *Popup) cancelTimeoutScope() {
	if p.cancelTimeout != nil {
		p.cancelTimeout()
		p.cancelTimeout = nil
	}
}
