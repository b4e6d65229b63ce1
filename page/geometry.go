package page

// Rect is a panel-coordinate rectangle in pixels, used for page,
// popup and button geometry alike (spec.md §3).
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) falls inside r, used by HitTest
// (spec.md §4.6).
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
