package page

// Page is the full-screen composition; exactly one Page is active at
// any time (spec.md §3 invariant P3).
type Page struct {
	ID     int
	Name   string
	Width  int
	Height int

	Background SR
	Buttons    []*Button

	ZOrder int
	Handle uint32
}

// SetupPageThreshold is the conventional id floor spec.md §3 names:
// "Pages with id in the system range (≥ a configured threshold,
// conventionally 5000) are setup pages."
const SetupPageThreshold = 5000

// IsSetupPage reports whether id falls in the system/setup-page range.
func IsSetupPage(id int) bool {
	return id >= SetupPageThreshold
}
