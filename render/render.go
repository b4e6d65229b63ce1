// Package render defines the narrow interfaces the page/popup model
// and button state packages call into, and are called back from, but
// never implement: the pixel rasterizer, GUI toolkit and touch input
// capture are external collaborators per spec.md §1 and §6.6. Nothing
// in this module rasterizes a pixel; it only shapes the calls.
package render

// Animation is the show/hide transition a popup or button carries
// (spec.md §4.6 "Animations"). The model never executes one itself;
// it passes the spec through to Surface. A popup is marked hidden as
// soon as the hide call is issued; Surface has no end-event callback,
// so the model does not wait for a hide animation to finish.
type Animation struct {
	Effect     Effect
	DurationMS int
}

// Effect enumerates the transition kinds spec.md §4.6 names.
type Effect int

const (
	EffectNone Effect = iota
	EffectFade
	EffectSlideLeft
	EffectSlideRight
	EffectSlideTop
	EffectSlideBottom
	EffectSlideLeftFade
	EffectSlideRightFade
	EffectSlideTopFade
	EffectSlideBottomFade
)

// Surface is the abstract draw target the core produces calls on
// (spec.md §6.6). A host application backs it with an actual
// rasterizer; tests back it with a recording fake.
type Surface interface {
	// DisplayPage makes handle (a page handle) the full-screen
	// composition of the given pixel dimensions.
	DisplayPage(handle uint32, width, height int)

	// SetSubpage positions a popup/subpage handle over parent at the
	// given rectangle, running animation as it becomes visible.
	SetSubpage(handle, parent uint32, left, top, width, height int, animation Animation)

	// DropPage removes a page handle from display entirely (used only
	// during teardown; page switches never drop the active page
	// without installing a new one).
	DropPage(handle uint32)

	// DropSubpage removes a popup/subpage handle from parent's
	// display, running hide animation first.
	DropSubpage(handle, parent uint32, animation Animation)

	// DisplayButton (re)draws one button's current state-record onto
	// its owning page/popup handle. bitmapFile is the project-relative
	// image reference for the active SR's top-most bitmap, or "" if the
	// state carries none; decoding and blitting are the rasterizer's
	// job (spec.md §1 "pixel rasterizer ... out of scope").
	DisplayButton(handle, parent uint32, bitmapFile string, width, height, left, top int, passthrough bool)

	// SetBackground sets a page or popup's background fill: either an
	// image (bitmapFile non-empty) or a flat color, plus opacity.
	SetBackground(handle uint32, bitmapFile string, width, height int, color string, opacity uint8)

	// PlayVideo starts a video stream inside a button's rectangle
	// (spec.md §6.6; media playback is an external collaborator).
	PlayVideo(handle, parent uint32, left, top, width, height int, url, user, password string)

	// PlaySound/StopSound/MuteSound/SetVolume drive the external audio
	// collaborator spec.md §1 places out of scope.
	PlaySound(file string)
	StopSound()
	MuteSound(mute bool)
	SetVolume(percent int)
}

// InputSink receives input events the Surface's host toolkit captures
// (spec.md §6.6 "Input events are consumed from the surface"). No type
// in this module implements it; page.Manager.HitTest resolves a point
// to a button, but nothing here turns mouse or key events into
// press/release, bargraph dragging or keyboard actions.
type InputSink interface {
	MouseEvent(x, y int, pressed bool)
	KeyEvent(key string)
}

// NoopSurface discards every call; it is useful as a zero-value
// default so callers that haven't wired a real rasterizer yet don't
// need a nil check at every call site.
type NoopSurface struct{}

func (NoopSurface) DisplayPage(uint32, int, int)                                         {}
func (NoopSurface) SetSubpage(uint32, uint32, int, int, int, int, Animation)             {}
func (NoopSurface) DropPage(uint32)                                                      {}
func (NoopSurface) DropSubpage(uint32, uint32, Animation)                               {}
func (NoopSurface) DisplayButton(uint32, uint32, string, int, int, int, int, bool)       {}
func (NoopSurface) SetBackground(uint32, string, int, int, string, uint8)                {}
func (NoopSurface) PlayVideo(uint32, uint32, int, int, int, int, string, string, string) {}
func (NoopSurface) PlaySound(string)                                                     {}
func (NoopSurface) StopSound()                                                           {}
func (NoopSurface) MuteSound(bool)                                                       {}
func (NoopSurface) SetVolume(int)                                                        {}
