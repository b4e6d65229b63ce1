package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/render"
)

// fakeLoader backs Loader with an in-memory fixture, the way a real
// implementation backs it with a parsed project XML tree (spec.md §1
// "consumed through a parser abstraction that returns typed records").
type fakeLoader struct {
	pagesByID   map[int]*Page
	pagesByName map[string]*Page
	popups      map[string]*Popup
}

func (f *fakeLoader) LoadPage(id int) (*Page, error) {
	p, ok := f.pagesByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLoader) LoadPageByName(name string) (*Page, error) {
	p, ok := f.pagesByName[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLoader) LoadPopup(name string) (*Popup, error) {
	p, ok := f.popups[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLoader) LoadSubviewList(id int) (*SubviewList, error) {
	return nil, ErrNotFound
}

func newFixtureManager(t *testing.T) *Manager {
	t.Helper()
	home := &Page{ID: 1, Name: "Home", Width: 1920, Height: 1080}
	popupA := &Popup{ID: 101, Name: "A", Group: "nav", Geometry: Rect{0, 0, 100, 100}}
	popupB := &Popup{ID: 102, Name: "B", Group: "nav", Geometry: Rect{0, 0, 100, 100}}

	loader := &fakeLoader{
		pagesByID:   map[int]*Page{1: home},
		pagesByName: map[string]*Page{"Home": home},
		popups:      map[string]*Popup{"A": popupA, "B": popupB},
	}
	return NewManager(loader, render.NoopSurface{}, clog.NewLogger("test"))
}

func TestSetPageActivatesExactlyOnePage(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, m.SetPage("Home"))
	assert.Equal(t, "Home", m.CurrentPage().Name)
}

// TestPopupGroupSingleton exercises spec.md §8 scenario 5 and
// invariant P5: showing B in the same group as visible A hides A and
// assigns B the next z-order.
func TestPopupGroupSingleton(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, m.SetPage("Home"))
	require.NoError(t, m.ShowPopup("A", "Home"))
	require.NoError(t, m.ShowPopup("B", "Home"))

	m.mu.Lock()
	a, b := m.popups["A"], m.popups["B"]
	m.mu.Unlock()

	assert.False(t, a.Visible)
	assert.Equal(t, -1, a.ZOrder)
	assert.True(t, b.Visible)
	assert.Equal(t, 2, b.ZOrder)
}

func TestHidePopupNoCompaction(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, m.SetPage("Home"))
	require.NoError(t, m.ShowPopup("A", "Home"))
	require.NoError(t, m.HidePopup("A"))
	require.NoError(t, m.ShowPopup("A", "Home"))

	m.mu.Lock()
	z := m.popups["A"].ZOrder
	m.mu.Unlock()
	assert.Equal(t, 1, z, "first show after the only popup ever shown still gets z=1")
}

func TestHitTestPrefersTopmostVisiblePopup(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, m.SetPage("Home"))

	btn := &Button{Index: 1, Geometry: Rect{10, 10, 50, 50}, Enabled: true, Visible: true}
	m.mu.Lock()
	_, err := m.getPopup("A")
	require.NoError(t, err)
	m.popups["A"].Buttons = []*Button{btn}
	m.mu.Unlock()

	require.NoError(t, m.ShowPopup("A", "Home"))

	got, ok := m.HitTest(20, 20)
	require.True(t, ok)
	assert.Same(t, btn, got)
}

func TestResolveByAddressMatchesWildcardChannels(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, m.SetPage("Home"))
	b1 := &Button{AddressPort: 1, AddressChannel: 5}
	b2 := &Button{AddressPort: 1, AddressChannel: 6}
	b3 := &Button{AddressPort: 2, AddressChannel: 5}
	m.mu.Lock()
	m.current.Buttons = []*Button{b1, b2, b3}
	m.mu.Unlock()

	got := m.ResolveByAddress(1, nil)
	assert.ElementsMatch(t, []*Button{b1, b2}, got)
}
