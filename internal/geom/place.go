package geom

// placementOffset nudges a freshly placed window away from the exact
// pointer-centered position so stacked windows don't perfectly overlap.
const placementOffset = 10

// Place centers r on p, keeping it inside area when it fits.
func (r Rect) Place(p Point, area Rect, border int) Rect {
	xpos := max(max(p.X, area.X)-r.Width/2, area.X) + placementOffset
	ypos := max(max(p.Y, area.Y)-r.Height/2, area.Y) + placementOffset

	xspace := area.X + area.Width - r.Width - 2*border
	yspace := area.Y + area.Height - r.Height - 2*border

	if xspace >= area.X {
		r.X = max(min(xpos, xspace), area.X)
	} else {
		r.X = area.X
	}
	if yspace >= area.Y {
		r.Y = max(min(ypos, yspace), area.Y)
	} else {
		r.Y = area.Y
	}
	return r
}

// PlaceUser keeps a client-requested position, only pulling the window
// back when it would be entirely off view.
func (r Rect) PlaceUser(view Rect, border int) Rect {
	if r.X >= view.Width {
		r.X = view.Width - border - 1
	}
	if r.X+r.Width+border <= 0 {
		r.X = -(r.Width - border - 1)
	}
	if r.Y >= view.Height {
		r.Y = view.Height - border - 1
	}
	if r.Y+r.Height+border <= 0 {
		r.Y = -(r.Height - border - 1)
	}
	return r
}

// Move shifts r by step pixels in dir and clamps it so at least a sliver
// stays on view.
func (r Rect) Move(dir Direction, step int, view Rect, border int) Rect {
	if dir&West != 0 {
		r.X -= step
	}
	if dir&East != 0 {
		r.X += step
	}
	if dir&North != 0 {
		r.Y -= step
	}
	if dir&South != 0 {
		r.Y += step
	}

	if r.X < -(r.Width - border - 1) {
		r.X = -(r.Width - border - 1)
	}
	if r.X > view.Width-border-1 {
		r.X = view.Width - border - 1
	}
	if r.Y < -(r.Height - border - 1) {
		r.Y = -(r.Height - border - 1)
	}
	if r.Y > view.Height-border-1 {
		r.Y = view.Height - border - 1
	}
	return r
}

// Resize grows or shrinks r in dir. Windows with a resize increment move by
// one increment, others by step pixels.
func (r Rect) Resize(dir Direction, step int, hints SizeHints, border int) Rect {
	amt := 1
	if hints.Flags&PResizeInc == 0 {
		amt = step
	}

	var mx, my int
	if dir&West != 0 {
		mx = -amt
	}
	if dir&East != 0 {
		mx = amt
	}
	if dir&North != 0 {
		my = -amt
	}
	if dir&South != 0 {
		my = amt
	}

	if r.Width += mx * hints.IncWidth; r.Width < hints.MinWidth {
		r.Width = hints.MinWidth
	}
	if r.Height += my * hints.IncHeight; r.Height < hints.MinHeight {
		r.Height = hints.MinHeight
	}
	if r.X+r.Width+border-1 < 0 {
		r.X = -(r.Width + border - 1)
	}
	if r.Y+r.Height+border-1 < 0 {
		r.Y = -(r.Height + border - 1)
	}
	return r
}

// WarpToEdge pushes r against the edges of area named by dir.
func (r Rect) WarpToEdge(dir Direction, area Rect, border int) Rect {
	if dir&West != 0 {
		r.X = area.X
	}
	if dir&East != 0 {
		r.X = area.X + area.Width - r.Width - border
	}
	if dir&North != 0 {
		r.Y = area.Y
	}
	if dir&South != 0 {
		r.Y = area.Y + area.Height - r.Height - border
	}
	return r
}

// SnapToEdge aligns r with any edge of area closer than dist pixels. When
// both opposite edges are in range the nearer one wins.
func (r Rect) SnapToEdge(area Rect, dist int) Rect {
	var left, right, top, bottom int

	if abs(r.X-area.X) <= dist {
		left = area.X - r.X
	}
	if abs(r.Y-area.Y) <= dist {
		top = area.Y - r.Y
	}
	if abs(r.X+r.Width-area.X-area.Width) <= dist {
		right = area.X + area.Width - r.X - r.Width
	}
	if abs(r.Y+r.Height-area.Y-area.Height) <= dist {
		bottom = area.Y + area.Height - r.Y - r.Height
	}

	r.X += nearest(left, right)
	r.Y += nearest(top, bottom)
	return r
}

func nearest(a, b int) int {
	switch {
	case a != 0 && b != 0:
		if abs(a) < abs(b) {
			return a
		}
		return b
	case a != 0:
		return a
	default:
		return b
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
