package x11

import (
	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Events returns the decoded event stream. It is closed when the
// connection to the server goes away.
func (c *Connection) Events() <-chan platform.Event {
	return c.events
}

// startPump reads events from the server in the background. xevent's
// main loop is not used because it exits the process when the
// connection closes; the manager needs to run its shutdown path instead.
func (c *Connection) startPump() {
	if c.pumping {
		return
	}
	c.pumping = true
	go c.pump()
}

func (c *Connection) pump() {
	defer close(c.events)
	conn := c.XUtil.Conn()
	for {
		ev, err := conn.WaitForEvent()
		if ev == nil && err == nil {
			c.log.Debug("X connection closed")
			return
		}
		if err != nil {
			c.events <- platform.ProtocolError{Err: err}
			continue
		}
		if out := c.decode(ev); out != nil {
			c.events <- out
		}
	}
}

// decode converts the server events the manager handles. Everything
// else is dropped.
func (c *Connection) decode(ev xgb.Event) platform.Event {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		return platform.KeyPress{
			Root:    platform.WindowID(e.Root),
			Window:  platform.WindowID(e.Event),
			Keycode: byte(e.Detail),
			State:   e.State,
			Time:    uint32(e.Time),
		}
	case xproto.KeyReleaseEvent:
		return platform.KeyRelease{
			Root:    platform.WindowID(e.Root),
			Window:  platform.WindowID(e.Event),
			Keycode: byte(e.Detail),
			State:   e.State,
			Time:    uint32(e.Time),
		}
	case xproto.ButtonPressEvent:
		return platform.ButtonPress{
			Root:   platform.WindowID(e.Root),
			Window: platform.WindowID(e.Event),
			Button: uint8(e.Detail),
			State:  e.State,
			Time:   uint32(e.Time),
			Pos:    geom.Point{X: int(e.RootX), Y: int(e.RootY)},
		}
	case xproto.ButtonReleaseEvent:
		return platform.ButtonRelease{Button: uint8(e.Detail), Time: uint32(e.Time)}
	case xproto.MotionNotifyEvent:
		return platform.MotionNotify{
			Root:  geom.Point{X: int(e.RootX), Y: int(e.RootY)},
			Local: geom.Point{X: int(e.EventX), Y: int(e.EventY)},
			Time:  uint32(e.Time),
		}
	case xproto.EnterNotifyEvent:
		return platform.EnterNotify{Window: platform.WindowID(e.Event), Time: uint32(e.Time)}
	case xproto.ExposeEvent:
		return platform.Expose{Window: platform.WindowID(e.Window), Count: int(e.Count)}
	case xproto.MapRequestEvent:
		return platform.MapRequest{Parent: platform.WindowID(e.Parent), Window: platform.WindowID(e.Window)}
	case xproto.UnmapNotifyEvent:
		// xgb drops the send_event bit. Once a client is framed the root
		// only hears about the frame, the reparenting unmap of a window
		// found at startup, or a client's synthetic withdraw notice.
		return platform.UnmapNotify{
			Event:     platform.WindowID(e.Event),
			Window:    platform.WindowID(e.Window),
			Synthetic: e.Event == c.Root,
		}
	case xproto.DestroyNotifyEvent:
		return platform.DestroyNotify{Window: platform.WindowID(e.Window)}
	case xproto.ConfigureRequestEvent:
		return platform.ConfigureRequestEvent{
			Parent: platform.WindowID(e.Parent),
			Request: platform.ConfigureRequest{
				Window:      platform.WindowID(e.Window),
				ValueMask:   e.ValueMask,
				X:           int(e.X),
				Y:           int(e.Y),
				Width:       int(e.Width),
				Height:      int(e.Height),
				BorderWidth: int(e.BorderWidth),
				Sibling:     platform.WindowID(e.Sibling),
				StackMode:   e.StackMode,
			},
		}
	case xproto.PropertyNotifyEvent:
		name, err := xprop.AtomName(c.XUtil, e.Atom)
		if err != nil {
			return nil
		}
		return platform.PropertyNotify{
			Window:  platform.WindowID(e.Window),
			Atom:    name,
			Deleted: e.State == xproto.PropertyDelete,
			Time:    uint32(e.Time),
		}
	case xproto.ClientMessageEvent:
		return c.decodeClientMessage(e)
	case xproto.MappingNotifyEvent:
		return platform.MappingNotify{
			Keyboard: e.Request == xproto.MappingKeyboard || e.Request == xproto.MappingModifier,
		}
	case randr.ScreenChangeNotifyEvent:
		return platform.ScreenChange{
			Root:   platform.WindowID(e.Root),
			Width:  int(e.Width),
			Height: int(e.Height),
		}
	}
	return nil
}

func (c *Connection) decodeClientMessage(e xproto.ClientMessageEvent) platform.Event {
	if e.Format != 32 {
		return nil
	}
	typ, err := xprop.AtomName(c.XUtil, e.Type)
	if err != nil {
		return nil
	}
	msg := platform.ClientMessage{Window: platform.WindowID(e.Window), Type: typ}
	copy(msg.Data[:], e.Data.Data32)
	if typ == "_NET_WM_STATE" {
		for _, a := range msg.Data[1:3] {
			if a == 0 {
				continue
			}
			if name, err := xprop.AtomName(c.XUtil, xproto.Atom(a)); err == nil {
				msg.Atoms = append(msg.Atoms, name)
			}
		}
	}
	return msg
}
