package wm

import (
	"slices"

	"github.com/1broseidon/tilewm/internal/geom"
)

// layoutArea is the work area of the monitor under the pointer.
func (d *Desktop) layoutArea() geom.Rect {
	s := d.screen
	return s.Area(s.pointer(), true)
}

// showFloating maps and raises the desktop's clients that stay out of
// tiling, other than those in except.
func (d *Desktop) showFloating(except ...*Client) {
	for _, c := range d.clients() {
		if slices.Contains(except, c) {
			continue
		}
		if c.states.Has(NoTile) || c.states.Has(FullScreen) {
			c.Show()
			c.Raise()
		}
	}
}

// layoutStacked returns every client to its free-floating geometry.
func (d *Desktop) layoutStacked() {
	for _, c := range d.clients() {
		if c.states.Has(FullScreen) {
			c.Show()
			continue
		}
		c.clearStates(Tiled | Frozen | Hidden | Maximized)
		c.setStackedGeom()
		c.Show()
	}
}

// layoutMonocle maximizes the head of the tile order; every other tiled
// client is hidden. A fullscreen head stays as it is and still counts as
// the one visible window.
func (d *Desktop) layoutMonocle() {
	area := d.layoutArea()
	b := d.screen.mgr.cfg.TiledBorder
	full := geom.Rect{X: area.X, Y: area.Y, Width: area.Width - 2*b, Height: area.Height - 2*b}

	var covered []*Client
	for i, c := range d.tileClients() {
		switch {
		case i == 0 && c.states.Has(FullScreen):
		case i == 0:
			c.setStates(Tiled | Maximized | Frozen)
			c.clearStates(Hidden)
			c.setTiledGeom(full)
			c.Show()
			if c.states.Has(Active) {
				c.publishTitle()
			}
		case c.states.Has(FullScreen):
			covered = append(covered, c)
			c.Hide()
		default:
			c.setStates(Tiled | Maximized | Frozen)
			c.Hide()
		}
	}
	d.showFloating(covered...)
}

// layoutVertical puts the master on the left, split of the width, and
// stacks the rest evenly on the right.
func (d *Desktop) layoutVertical() {
	area := d.layoutArea()
	b := d.screen.mgr.cfg.TiledBorder
	tiled := d.tiled()
	n := len(tiled)

	mw := area.Width
	var x, y, w, h int
	if n > 1 {
		mw = int(float64(area.Width) * d.split)
		x = area.X + mw
		y = area.Y
		w = area.Width - mw
		h = area.Height / (n - 1)
	}

	master := geom.Rect{X: area.X, Y: area.Y, Width: mw - 2*b, Height: area.Height - 2*b}
	for i, c := range tiled {
		c.setStates(Tiled | Frozen)
		c.clearStates(HMaximized)
		if i == 0 {
			c.setStates(VMaximized)
			c.setTiledGeom(master)
		} else {
			c.clearStates(VMaximized)
			c.setTiledGeom(geom.Rect{X: x, Y: y, Width: w - 2*b, Height: h - 2*b})
			y += h
		}
		c.Show()
	}
	d.showFloating()
}

// layoutHorizontal puts the master on top, split of the height, and lines
// the rest up evenly below.
func (d *Desktop) layoutHorizontal() {
	area := d.layoutArea()
	b := d.screen.mgr.cfg.TiledBorder
	tiled := d.tiled()
	n := len(tiled)

	mh := area.Height
	var x, y, w, h int
	if n > 1 {
		mh = int(float64(area.Height) * d.split)
		x = area.X
		y = area.Y + mh
		w = area.Width / (n - 1)
		h = area.Height - mh
	}

	master := geom.Rect{X: area.X, Y: area.Y, Width: area.Width - 2*b, Height: mh - 2*b}
	for i, c := range tiled {
		c.setStates(Tiled | Frozen)
		c.clearStates(VMaximized)
		if i == 0 {
			c.setStates(HMaximized)
			c.setTiledGeom(master)
		} else {
			c.clearStates(HMaximized)
			c.setTiledGeom(geom.Rect{X: x, Y: y, Width: w - 2*b, Height: h - 2*b})
			x += w
		}
		c.Show()
	}
	d.showFloating()
}

// layoutGrid fills rows x cols cells in row-major order. Clients beyond
// the last cell are hidden.
func (d *Desktop) layoutGrid(rows, cols int) {
	rows, cols = max(rows, 1), max(cols, 1)
	area := d.layoutArea()
	b := d.screen.mgr.cfg.TiledBorder
	cw := area.Width / cols
	ch := area.Height / rows

	for i, c := range d.tiled() {
		c.setStates(Tiled | Frozen)
		c.clearStates(Maximized)
		if i >= rows*cols {
			c.Hide()
			continue
		}
		r, col := i/cols, i%cols
		c.setTiledGeom(geom.Rect{
			X:      area.X + col*cw,
			Y:      area.Y + r*ch,
			Width:  cw - 2*b,
			Height: ch - 2*b,
		})
		c.Show()
	}
	d.showFloating()
}
