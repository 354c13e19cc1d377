package geom

// Viewport is one physical monitor: its full rectangle and the work area
// left after the configured border gap.
type Viewport struct {
	ID   int
	View Rect
	Work Rect
}

// NewViewport builds a viewport for a monitor rectangle.
func NewViewport(id int, view Rect, gap BorderGap) Viewport {
	return Viewport{ID: id, View: view, Work: view.Shrink(gap)}
}

// Contains reports whether p (root coordinates) is on this monitor.
func (v Viewport) Contains(p Point) bool {
	return v.View.Contains(p, Root)
}

// Area resolves the monitor rectangle under p. When no viewport contains
// p, fallback is used (typically the whole screen). The gap is applied on
// request.
func Area(viewports []Viewport, fallback Rect, p Point, gap BorderGap, withGap bool) Rect {
	area := fallback
	for _, v := range viewports {
		if v.Contains(p) {
			area = v.View
			break
		}
	}
	if withGap {
		area = area.Shrink(gap)
	}
	return area
}
