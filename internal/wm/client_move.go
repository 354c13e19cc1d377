package wm

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
)

// MoveByKeyboard shifts the window one step in dir and snaps it to nearby
// edges of its monitor. Frozen windows do not move.
func (c *Client) MoveByKeyboard(dir geom.Direction) {
	if c.states.Has(Frozen) {
		return
	}
	cfg := c.screen.mgr.cfg
	c.geom = c.geom.Move(dir, cfg.MoveAmount, c.screen.view, c.border)
	area := c.screen.Area(c.geom.Center(geom.Root), true)
	c.geom = c.geom.SnapToEdge(area, cfg.SnapDistance)

	c.moveWindow()
	c.movePointerInside()
	c.stackGeom = c.geom
}

// ResizeByKeyboard grows or shrinks the window in dir.
func (c *Client) ResizeByKeyboard(dir geom.Direction) {
	if c.states.Any(Frozen | NoResize) {
		return
	}
	c.geom = c.geom.Resize(dir, c.screen.mgr.cfg.MoveAmount, c.hints, c.border)
	c.resizeWindow()
	c.movePointerInside()
	c.stackGeom = c.geom
}

// Snap pushes the window against the monitor edge named by dir.
func (c *Client) Snap(dir geom.Direction) {
	if c.states.Has(Frozen) {
		return
	}
	area := c.screen.Area(c.geom.Center(geom.Root), true)
	c.geom = c.geom.WarpToEdge(dir, area, c.border)
	c.moveWindow()
	c.movePointerInside()
	c.stackGeom = c.geom
}

func positionLabel(r geom.Rect) string {
	return fmt.Sprintf("%d . %d", r.X, r.Y)
}

func (c *Client) sizeLabel() string {
	w, h := c.hints.Units(c.geom)
	return fmt.Sprintf("%d x %d", w, h)
}

// MoveByPointer drags the window until the button is released. A refused
// pointer grab leaves the window where it was.
func (c *Client) MoveByPointer() {
	if c.states.Has(Frozen) {
		return
	}
	c.Raise()
	c.movePointerInside()

	s := c.screen
	moved := false
	err := c.x().Drag(c.frame, platform.CursorMove, positionLabel(c.geom), func(m platform.Motion) string {
		moved = true
		c.geom.X = m.Root.X - c.ptr.X - c.border
		c.geom.Y = m.Root.Y - c.ptr.Y - c.border
		area := s.Area(c.geom.Center(geom.Root), true)
		c.geom = c.geom.SnapToEdge(area, s.mgr.cfg.SnapDistance)
		c.moveWindow()
		return positionLabel(c.geom)
	})
	if err != nil {
		s.mgr.log.Debug("pointer move aborted", "window", c.window, "err", err)
		return
	}
	if moved {
		c.moveWindow()
	}
	c.stackGeom = c.geom
}

// resizeHandle picks the edge or corner a pointer resize drags, from the
// quadrant of the frame the pointer is in. Zero means the middle: the
// window is moved instead.
func resizeHandle(p geom.Point, r geom.Rect) (geom.Direction, platform.Cursor) {
	left, right := r.Width/4, 3*r.Width/4
	top, bottom := r.Height/4, 3*r.Height/4

	switch {
	case p.X > right && p.Y > bottom:
		return geom.SouthEast, platform.CursorSouthEast
	case p.X > right && p.Y <= top:
		return geom.NorthEast, platform.CursorNorthEast
	case p.X <= left && p.Y > bottom:
		return geom.SouthWest, platform.CursorSouthWest
	case p.X <= left && p.Y <= top:
		return geom.NorthWest, platform.CursorNorthWest
	case p.X > left && p.X < right && p.Y < top:
		return geom.North, platform.CursorNorth
	case p.X > left && p.X < right && p.Y > bottom:
		return geom.South, platform.CursorSouth
	case p.Y > top && p.Y < bottom && p.X < left:
		return geom.West, platform.CursorWest
	case p.Y > top && p.Y < bottom && p.X > right:
		return geom.East, platform.CursorEast
	}
	return 0, platform.CursorMove
}

// ResizeByPointer drags the edge or corner nearest the pointer. Every
// intermediate size goes through the size hints.
func (c *Client) ResizeByPointer() {
	if c.states.Any(Frozen | NoResize) {
		return
	}
	c.Raise()
	if p, err := c.x().QueryPointer(c.frame); err == nil {
		c.ptr = p
	}
	dir, cursor := resizeHandle(c.ptr, c.geom)

	xmax := c.geom.X + c.geom.Width
	ymax := c.geom.Y + c.geom.Height
	resized := false
	err := c.x().Drag(c.frame, cursor, c.sizeLabel(), func(m platform.Motion) string {
		resized = true
		if dir == 0 {
			c.geom.X = m.Root.X - c.ptr.X - c.border
			c.geom.Y = m.Root.Y - c.ptr.Y - c.border
		}
		if dir&geom.North != 0 {
			c.geom.Y = m.Root.Y
			c.geom.Height = ymax - c.geom.Y
		}
		if dir&geom.South != 0 {
			c.geom.Height = m.Local.Y
		}
		if dir&geom.West != 0 {
			c.geom.X = m.Root.X
			c.geom.Width = xmax - c.geom.X
		}
		if dir&geom.East != 0 {
			c.geom.Width = m.Local.X
		}
		c.geom = c.hints.Apply(c.geom)
		c.resizeWindow()
		c.stackGeom = c.geom
		return c.sizeLabel()
	})
	if err != nil {
		c.screen.mgr.log.Debug("pointer resize aborted", "window", c.window, "err", err)
		return
	}
	if resized {
		c.resizeWindow()
	}
	c.movePointerInside()
}
