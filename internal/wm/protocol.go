package wm

import (
	"slices"

	"github.com/1broseidon/tilewm/internal/platform"
)

// _NET_WM_STATE client message actions.
const (
	StateRemove = 0
	StateAdd    = 1
	StateToggle = 2
)

// stateAtoms is the fixed mapping between state bits and _NET_WM_STATE atoms.
var stateAtoms = []struct {
	atom string
	bit  State
}{
	{"_NET_WM_STATE_STICKY", Sticky},
	{"_NET_WM_STATE_MAXIMIZED_VERT", VMaximized},
	{"_NET_WM_STATE_MAXIMIZED_HORZ", HMaximized},
	{"_NET_WM_STATE_HIDDEN", Hidden},
	{"_NET_WM_STATE_FULLSCREEN", FullScreen},
	{"_NET_WM_STATE_DEMANDS_ATTENTION", Urgent},
	{"_NET_WM_STATE_SKIP_PAGER", SkipPager},
	{"_NET_WM_STATE_SKIP_TASKBAR", SkipTaskbar},
}

// NetStates renders s as the _NET_WM_STATE atom list.
func NetStates(s State) []string {
	var out []string
	for _, sa := range stateAtoms {
		if s&sa.bit != 0 {
			out = append(out, sa.atom)
		}
	}
	return out
}

// StatesFromNet is the inverse of NetStates. Unknown atoms are ignored.
func StatesFromNet(atoms []string) State {
	var s State
	for _, sa := range stateAtoms {
		if slices.Contains(atoms, sa.atom) {
			s |= sa.bit
		}
	}
	return s
}

// Window types with a default state.
var windowTypes = []struct {
	atom   string
	states State
}{
	{"_NET_WM_WINDOW_TYPE_DOCK", Docked},
	{"_NET_WM_WINDOW_TYPE_DIALOG", NoTile},
	{"_NET_WM_WINDOW_TYPE_SPLASH", NoTile | NoResize},
	{"_NET_WM_WINDOW_TYPE_TOOLBAR", NoTile},
	{"_NET_WM_WINDOW_TYPE_UTILITY", NoTile},
}

// typeStates returns the states implied by the first recognized type.
func typeStates(types []string) State {
	for _, t := range types {
		for _, wt := range windowTypes {
			if t == wt.atom {
				return wt.states
			}
		}
	}
	return 0
}

func protocolStates(protocols []string) State {
	var s State
	for _, p := range protocols {
		switch p {
		case "WM_DELETE_WINDOW":
			s |= WMDeleteWindow
		case "WM_TAKE_FOCUS":
			s |= WMTakeFocus
		}
	}
	return s
}

// publishStates writes the canonical _NET_WM_STATE for c.
func (c *Client) publishStates() {
	c.x().SetNetWMState(c.window, NetStates(c.states))
}

// ChangeStates applies a _NET_WM_STATE request for up to two atoms and
// republishes the result, even when nothing changed.
func (c *Client) ChangeStates(action int, atoms ...string) {
	for _, sa := range stateAtoms {
		if !slices.Contains(atoms, sa.atom) {
			continue
		}
		switch action {
		case StateAdd:
			if !c.states.Has(sa.bit) {
				c.ToggleState(sa.bit)
			}
		case StateRemove:
			if c.states.Has(sa.bit) {
				c.ToggleState(sa.bit)
			}
		case StateToggle:
			c.ToggleState(sa.bit)
		}
	}
	c.publishStates()
}

// ClientMessage is a decoded X ClientMessage. Atoms holds the names of
// Data[1] and Data[2] for _NET_WM_STATE.
type ClientMessage = platform.ClientMessage

const allDesktops = 0xFFFFFFFF

// layoutStates are the bits whose change moves windows on the desktop.
const layoutStates = Sticky | FullScreen | HMaximized | VMaximized

// HandleClientMessage applies an EWMH/ICCCM request. Messages for windows
// the manager does not track are dropped.
func (m *Manager) HandleClientMessage(msg ClientMessage) {
	if msg.Type == "_NET_CURRENT_DESKTOP" {
		if s := m.ScreenForRoot(msg.Window); s != nil {
			if i := int(msg.Data[0]); i >= 0 && i < len(s.desktops) {
				s.SwitchToDesktop(i)
			}
		}
		return
	}

	c := m.FindClient(msg.Window)
	if c == nil {
		return
	}
	s := c.screen

	switch msg.Type {
	case "WM_CHANGE_STATE":
		if platform.WMState(msg.Data[0]) == platform.IconicState {
			c.Hide()
		}
	case "_NET_CLOSE_WINDOW":
		c.Close()
	case "_NET_ACTIVE_WINDOW":
		s.ActivateClient(c)
	case "_NET_WM_DESKTOP":
		if msg.Data[0] == allDesktops {
			if !c.states.Has(Sticky) {
				c.ToggleState(Sticky)
			}
		} else if i := int(msg.Data[0]); i >= 0 && i < len(s.desktops) {
			if c.states.Has(Sticky) {
				c.ToggleState(Sticky)
			}
			s.MoveClientToDesktop(c, i)
		}
		c.x().SetNetWMDesktop(c.window, c.desktop)
	case "_NET_WM_STATE":
		before := c.states
		c.ChangeStates(int(msg.Data[0]), msg.Atoms...)
		if (before^c.states)&layoutStates != 0 && !c.states.Has(FullScreen) {
			s.ShowDesktop()
		}
	default:
		m.log.Debug("ignored client message", "type", msg.Type, "window", msg.Window)
	}
}

// HandlePropertyChange refreshes cached client data after a property
// change. Root property changes are handled for _NET_DESKTOP_NAMES.
func (m *Manager) HandlePropertyChange(win platform.WindowID, atom string) {
	c := m.FindClient(win)
	if c == nil {
		if atom == "_NET_DESKTOP_NAMES" {
			if s := m.ScreenForRoot(win); s != nil {
				s.readDesktopNames()
			}
		}
		return
	}

	switch atom {
	case "WM_NORMAL_HINTS":
		c.readNormalHints()
	case "WM_NAME", "_NET_WM_NAME":
		c.name = c.x().Title(c.window)
		if c.states.Has(Active) {
			c.publishTitle()
		}
	case "WM_HINTS":
		c.readHints()
		c.DrawBorder()
	case "WM_TRANSIENT_FOR":
		c.readTransient()
		c.DrawBorder()
		if c.desktop == c.screen.active {
			c.screen.ShowDesktop()
		}
	}
}
