package page

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/render"
)

// propertyFixtureManager builds a Manager with five popups split across
// two non-empty groups plus one ungrouped popup, for randomized
// show/hide sequences.
func propertyFixtureManager(t *rapid.T) *Manager {
	home := &Page{ID: 1, Name: "Home", Width: 1920, Height: 1080}
	popups := map[string]*Popup{
		"A1": {ID: 101, Name: "A1", Group: "a", Geometry: Rect{0, 0, 10, 10}},
		"A2": {ID: 102, Name: "A2", Group: "a", Geometry: Rect{0, 0, 10, 10}},
		"B1": {ID: 103, Name: "B1", Group: "b", Geometry: Rect{0, 0, 10, 10}},
		"B2": {ID: 104, Name: "B2", Group: "b", Geometry: Rect{0, 0, 10, 10}},
		"U1": {ID: 105, Name: "U1", Geometry: Rect{0, 0, 10, 10}},
	}
	loader := &fakeLoader{
		pagesByID:   map[int]*Page{1: home},
		pagesByName: map[string]*Page{"Home": home},
		popups:      popups,
	}
	m := NewManager(loader, render.NoopSurface{}, clog.NewLogger("test"))
	require.NoError(t, m.SetPage("Home"))
	return m
}

var popupNames = []string{"A1", "A2", "B1", "B2", "U1"}

// TestPopupZOrderAndGroupInvariantsHoldUnderRandomSequences exercises
// P4 (z-order uniqueness) and P5 (group singleton): after any sequence
// of show/hide/toggle calls, visible popups on the active page have
// pairwise distinct z-orders and no non-empty group has more than one
// visible member.
func TestPopupZOrderAndGroupInvariantsHoldUnderRandomSequences(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := propertyFixtureManager(t)

		steps := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 30).Draw(t, "actions")
		names := rapid.SliceOfN(rapid.SampledFrom(popupNames), 1, 30).Draw(t, "targets")
		n := len(steps)
		if len(names) < n {
			n = len(names)
		}
		for i := 0; i < n; i++ {
			name := names[i]
			switch steps[i] {
			case 0:
				_ = m.ShowPopup(name, "Home")
			case 1:
				_ = m.HidePopup(name)
			case 2:
				_ = m.TogglePopup(name, "Home")
			}
		}

		m.mu.Lock()
		seenZ := map[int]string{}
		groupVisible := map[string]string{}
		for n, p := range m.popups {
			if !p.Visible {
				continue
			}
			if other, dup := seenZ[p.ZOrder]; dup {
				t.Fatalf("z-order %d shared by %q and %q", p.ZOrder, other, n)
			}
			seenZ[p.ZOrder] = n
			if p.Group != "" {
				if other, dup := groupVisible[p.Group]; dup {
					t.Fatalf("group %q has two visible popups: %q and %q", p.Group, other, n)
				}
				groupVisible[p.Group] = n
			}
		}
		m.mu.Unlock()
	})
}

// TestButtonHandlesAreUnique exercises P6: every button handle,
// derived from (page id, index), is unique across a page's buttons
// regardless of how many buttons or what indices are drawn, since
// MakeHandle packs both fields without overlap.
func TestButtonHandlesAreUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pageID := rapid.IntRange(0, 9999).Draw(t, "pageID")
		indices := rapid.SliceOfN(rapid.IntRange(0, 9999), 1, 50).Draw(t, "indices")

		seen := map[uint32]int{}
		for _, idx := range indices {
			h := MakeHandle(pageID, idx)
			if other, dup := seen[h]; dup && other != idx {
				t.Fatalf("handle collision: index %d and %d both map to %d", other, idx, h)
			}
			seen[h] = idx
		}
	})
}
