// Package comparator holds the before/after viewer state: momentary reveal, zoom and drag-pan.
package comparator

// Zoom limits and step.
const (
	MinScale = 1.0
	MaxScale = 4.0
	ZoomStep = 0.5
)

// Point is a 2D offset in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewState is the transient viewer state.
type ViewState struct {
	Scale          float64 `json:"scale"`
	Pan            Point   `json:"pan"`
	RevealOriginal bool    `json:"reveal_original"`
}

// DefaultViewState is the state after any reset.
func DefaultViewState() ViewState {
	return ViewState{Scale: MinScale}
}

// View is the interactive comparator over an original and a generated image.
// It is not safe for concurrent use.
type View struct {
	state    ViewState
	dragging bool
	origin   Point // pointer position minus pan at drag start
	resultID uint64
}

// NewView returns a view at the default state.
func NewView() *View {
	return &View{state: DefaultViewState()}
}

// State returns the current view state.
func (v *View) State() ViewState {
	return v.state
}

// Dragging reports whether a pan drag is active.
func (v *View) Dragging() bool {
	return v.dragging
}

// Observe records the identity of the displayed result. A change forces the view back to defaults.
func (v *View) Observe(resultID uint64) {
	if resultID == v.resultID {
		return
	}
	v.resultID = resultID
	v.Reset()
	v.state.RevealOriginal = false
}

// Press shows the original image while held.
func (v *View) Press() {
	v.state.RevealOriginal = true
}

// Release returns to the generated image. Leaving the control counts as a release.
func (v *View) Release() {
	v.state.RevealOriginal = false
}

// ZoomIn increases the scale by one step, up to MaxScale.
func (v *View) ZoomIn() {
	v.setScale(v.state.Scale + ZoomStep)
}

// ZoomOut decreases the scale by one step, down to MinScale.
func (v *View) ZoomOut() {
	v.setScale(v.state.Scale - ZoomStep)
}

// Reset restores scale 1 and zero pan.
func (v *View) Reset() {
	v.state.Scale = MinScale
	v.state.Pan = Point{}
	v.dragging = false
}

// PointerDown starts a drag when zoomed in.
func (v *View) PointerDown(x, y float64) {
	if v.state.Scale <= MinScale {
		return
	}
	v.dragging = true
	v.origin = Point{X: x - v.state.Pan.X, Y: y - v.state.Pan.Y}
}

// PointerMove pans relative to the drag start while dragging.
func (v *View) PointerMove(x, y float64) {
	if !v.dragging {
		return
	}
	v.state.Pan = Point{X: x - v.origin.X, Y: y - v.origin.Y}
}

// PointerUp ends the drag.
func (v *View) PointerUp() {
	v.dragging = false
}

func (v *View) setScale(s float64) {
	s = min(max(s, MinScale), MaxScale)
	v.state.Scale = s
	if s == MinScale {
		v.state.Pan = Point{}
		v.dragging = false
	}
}
