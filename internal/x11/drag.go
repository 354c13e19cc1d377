package x11

import (
	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/mousebind"
)

// dragInterval is the minimum time between two handled motion samples,
// in milliseconds.
const dragInterval = 1000 / 60

// Drag grabs the pointer on win and feeds motion to fn until a button is
// released. Events that are not part of the drag are set aside and
// returned by Deferred afterwards.
func (c *Connection) Drag(win platform.WindowID, cursor platform.Cursor, text string, fn platform.DragFunc) error {
	w := xproto.Window(win)
	ok, err := mousebind.GrabPointer(c.XUtil, w, xproto.WindowNone, c.cursors[cursor])
	if err != nil || !ok {
		if err != nil {
			c.log.Debug("grab pointer", "window", win, "err", err)
		}
		return platform.ErrGrabFailed
	}
	defer mousebind.UngrabPointer(c.XUtil)
	defer c.hideLabel()

	c.showLabel(w, text)
	var th throttle
	apply := func(e platform.MotionNotify) {
		c.showLabel(w, fn(platform.Motion{Root: e.Root, Local: e.Local}))
	}
	for ev := range c.events {
		switch e := ev.(type) {
		case platform.MotionNotify:
			if th.admit(e) {
				apply(e)
			}
		case platform.ButtonRelease:
			if m, ok := th.flush(); ok {
				apply(m)
			}
			return nil
		default:
			c.deferred = append(c.deferred, ev)
		}
	}
	return nil
}

// throttle rate-limits drag motion to one sample per dragInterval. The
// newest skipped sample is kept so the drag can end on it.
type throttle struct {
	last    uint32
	started bool
	pending *platform.MotionNotify
}

// admit reports whether e should be handled now. A rejected sample
// replaces the pending one.
func (t *throttle) admit(e platform.MotionNotify) bool {
	if t.started && e.Time-t.last <= dragInterval {
		t.pending = &e
		return false
	}
	t.started = true
	t.last = e.Time
	t.pending = nil
	return true
}

// flush returns the sample skipped since the last admitted one, if any.
func (t *throttle) flush() (platform.MotionNotify, bool) {
	if t.pending == nil {
		return platform.MotionNotify{}, false
	}
	e := *t.pending
	t.pending = nil
	return e, true
}

// Deferred returns the events set aside during the last drag.
func (c *Connection) Deferred() []platform.Event {
	out := c.deferred
	c.deferred = nil
	return out
}

// showLabel centers text on the current geometry of w.
func (c *Connection) showLabel(w xproto.Window, text string) {
	if c.label == nil {
		return
	}
	g, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(w)).Reply()
	if err != nil {
		return
	}
	r := geom.Rect{X: int(g.X), Y: int(g.Y), Width: int(g.Width), Height: int(g.Height)}
	c.label.show(text, r.Center(geom.Root))
}

func (c *Connection) hideLabel() {
	if c.label != nil {
		c.label.hide()
	}
}
