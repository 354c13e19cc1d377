// Package geom holds the rectangle arithmetic shared by the window manager:
// placement, clamping, snapping, and size-hint application. Nothing here
// talks to the X server.
package geom

// Direction is a bit set of compass directions. Zero means "follow the
// pointer" for interactive operations.
type Direction uint8

const (
	North Direction = 1 << iota
	South
	West
	East

	NorthWest = North | West
	NorthEast = North | East
	SouthWest = South | West
	SouthEast = South | East
)

// Coordinates selects the frame of reference for point queries.
type Coordinates int

const (
	// Root means coordinates relative to the root window.
	Root Coordinates = iota
	// Window means coordinates relative to the rectangle's own origin.
	Window
)

// Point is a position in pixels.
type Point struct {
	X int
	Y int
}

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// BorderGap is the space reserved on each side of a monitor, e.g. for a bar.
type BorderGap struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// Center returns the middle of r in the requested frame.
func (r Rect) Center(c Coordinates) Point {
	if c == Root {
		return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
	}
	return Point{X: r.Width / 2, Y: r.Height / 2}
}

// Contains reports whether p lies inside r. In Window coordinates the
// origin of r is treated as (0,0).
func (r Rect) Contains(p Point, c Coordinates) bool {
	if c == Root {
		return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
	}
	return p.X >= 0 && p.X < r.Width && p.Y >= 0 && p.Y < r.Height
}

// Intersects reports whether a window with geometry r and the given border
// width overlaps view at all.
func (r Rect) Intersects(view Rect, border int) bool {
	if r.X+r.Width+2*border-1 < view.X {
		return false
	}
	if r.Y+r.Height+2*border-1 < view.Y {
		return false
	}
	if view.X+view.Width < r.X {
		return false
	}
	if view.Y+view.Height < r.Y {
		return false
	}
	return true
}

// Shrink returns r with gap removed from each side.
func (r Rect) Shrink(gap BorderGap) Rect {
	return Rect{
		X:      r.X + gap.Left,
		Y:      r.Y + gap.Top,
		Width:  r.Width - (gap.Left + gap.Right),
		Height: r.Height - (gap.Top + gap.Bottom),
	}
}

// Inset returns r reduced so that a window with the given border width
// fits exactly inside it.
func (r Rect) Inset(border int) Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width - 2*border, Height: r.Height - 2*border}
}

// MoveInside clamps p into the window-relative bounds of r.
func (p Point) MoveInside(r Rect) Point {
	if p.X < 0 {
		p.X = 0
	} else if p.X > r.Width-1 {
		p.X = r.Width - 1
	}
	if p.Y < 0 {
		p.Y = 0
	} else if p.Y > r.Height-1 {
		p.Y = r.Height - 1
	}
	return p
}
