package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/page"
	"github.com/amxpanel/icspcore/render"
	"github.com/amxpanel/icspcore/wire"
)

type fakeLoader struct {
	pages  map[string]*page.Page
	popups map[string]*page.Popup
}

func (f *fakeLoader) LoadPage(id int) (*page.Page, error) {
	for _, p := range f.pages {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, page.ErrNotFound
}

func (f *fakeLoader) LoadPageByName(name string) (*page.Page, error) {
	p, ok := f.pages[name]
	if !ok {
		return nil, page.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLoader) LoadPopup(name string) (*page.Popup, error) {
	p, ok := f.popups[name]
	if !ok {
		return nil, page.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLoader) LoadSubviewList(int) (*page.SubviewList, error) { return nil, page.ErrNotFound }

type fakeSender struct {
	sent []string
}

func (f *fakeSender) SendCommand(port int, text string) {
	f.sent = append(f.sent, text)
}

func newTestInterpreter(t *testing.T) (*Interpreter, *page.Manager, *fakeSender) {
	t.Helper()
	home := &page.Page{ID: 1, Name: "Home", Width: 1920, Height: 1080, Buttons: []*page.Button{
		{Index: 1, AddressPort: 1, AddressChannel: 10, Visible: true, Enabled: true,
			SR: []page.SR{{Number: 1, Text: "off"}, {Number: 2, Text: "on"}}, ActiveSR: 1},
	}}
	popupA := &page.Popup{ID: 101, Name: "A", Group: "nav"}
	popupB := &page.Popup{ID: 102, Name: "B", Group: "nav"}
	loader := &fakeLoader{
		pages:  map[string]*page.Page{"Home": home},
		popups: map[string]*page.Popup{"A": popupA, "B": popupB},
	}
	mgr := page.NewManager(loader, render.NoopSurface{}, clog.NewLogger("test"))
	require.NoError(t, mgr.SetPage("Home"))
	sender := &fakeSender{}
	ip := New(mgr, sender, wire.OriginG5, clog.NewLogger("test"))
	return ip, mgr, sender
}

func TestButtonTextCommand(t *testing.T) {
	ip, mgr, _ := newTestInterpreter(t)
	ip.Dispatch(1, "^TXT-1,2,Hello")

	btn := mgr.ResolveByAddress(1, []int{10})
	require.Len(t, btn, 1)
	sr, err := btn[0].State(2)
	require.NoError(t, err)
	assert.Equal(t, "Hello", sr.Text)
}

func TestButtonTextCommandStateZeroAppliesToAllStates(t *testing.T) {
	ip, mgr, _ := newTestInterpreter(t)
	ip.Dispatch(1, "^TXT-1,0,Both")

	btn := mgr.ResolveByAddress(1, []int{10})
	require.Len(t, btn, 1)
	for _, n := range []int{1, 2} {
		sr, err := btn[0].State(n)
		require.NoError(t, err)
		assert.Equal(t, "Both", sr.Text)
	}
}

func TestShowHideCommand(t *testing.T) {
	ip, mgr, _ := newTestInterpreter(t)
	ip.Dispatch(1, "^SHO-1,0")

	btn := mgr.ResolveByAddress(1, []int{10})
	require.Len(t, btn, 1)
	assert.False(t, btn[0].Visible)
}

func TestColorQueryReplies(t *testing.T) {
	ip, _, sender := newTestInterpreter(t)
	ip.Dispatch(1, "^BCF-1,1,#112233")
	ip.Dispatch(1, "?BCF-1,1")

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "#112233FF")
}

func TestUnknownOpcodeIsIgnored(t *testing.T) {
	ip, _, _ := newTestInterpreter(t)
	ip.Dispatch(1, "^ZZZ-1,2,3")
}

// TestPopupGroupReplaceViaCommand exercises spec.md §8 scenario 5
// through the command interpreter: @PPN-B replaces a visible A in the
// same group.
func TestPopupGroupReplaceViaCommand(t *testing.T) {
	ip, mgr, _ := newTestInterpreter(t)
	ip.Dispatch(1, "@PPN-A")
	ip.Dispatch(1, "@PPN-B")

	assert.False(t, mgr.IsPopupVisible("A"))
	assert.True(t, mgr.IsPopupVisible("B"))
	assert.Equal(t, 2, mgr.PopupZOrder("B"))
}
