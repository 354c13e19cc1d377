package x11

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// supportedAtoms is advertised in _NET_SUPPORTED.
var supportedAtoms = []string{
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_SHOWING_DESKTOP",
	"_NET_WM_NAME",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_DESKTOP_NAMES",
	"_NET_CURRENT_DESKTOP",
	"_NET_DESKTOP_GEOMETRY",
	"_NET_DESKTOP_VIEWPORT",
	"_NET_WORKAREA",
	"_NET_CLIENT_LIST",
	"_NET_CLIENT_LIST_STACKING",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLOSE_WINDOW",
	"_NET_WM_DESKTOP",
	"_NET_WM_STATE",
	"_NET_WM_STATE_STICKY",
	"_NET_WM_STATE_MAXIMIZED_VERT",
	"_NET_WM_STATE_MAXIMIZED_HORZ",
	"_NET_WM_STATE_HIDDEN",
	"_NET_WM_STATE_FULLSCREEN",
	"_NET_WM_STATE_DEMANDS_ATTENTION",
	"_NET_WM_STATE_SKIP_PAGER",
	"_NET_WM_STATE_SKIP_TASKBAR",
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_WINDOW_TYPE_DOCK",
	"_NET_WM_WINDOW_TYPE_DIALOG",
	"_NET_WM_WINDOW_TYPE_SPLASH",
	"_NET_WM_WINDOW_TYPE_TOOLBAR",
	"_NET_WM_WINDOW_TYPE_UTILITY",
	"_NET_WM_WINDOW_TYPE_DESKTOP",
}

// InitRootHints creates the supporting WM check window and publishes the
// supported atom list and the manager name. Virtual roots are not used.
func (c *Connection) InitRootHints(root platform.WindowID, wmName string) error {
	if c.check == 0 {
		win, err := xwindow.Generate(c.XUtil)
		if err != nil {
			return fmt.Errorf("generate check window: %w", err)
		}
		if err := win.CreateChecked(xproto.Window(root), -1, -1, 1, 1, 0); err != nil {
			return fmt.Errorf("create check window: %w", err)
		}
		c.check = win.Id
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, xproto.Window(root), c.check); err != nil {
		return fmt.Errorf("set supporting wm check: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, c.check, c.check); err != nil {
		return fmt.Errorf("set supporting wm check: %w", err)
	}
	if err := ewmh.WmNameSet(c.XUtil, c.check, wmName); err != nil {
		return fmt.Errorf("set wm name: %w", err)
	}
	if err := ewmh.SupportedSet(c.XUtil, supportedAtoms); err != nil {
		return fmt.Errorf("set supported atoms: %w", err)
	}
	c.logErr("set showing desktop", ewmh.ShowingDesktopSet(c.XUtil, false))
	if atom, err := xprop.Atm(c.XUtil, "_NET_VIRTUAL_ROOTS"); err == nil {
		xproto.DeleteProperty(c.XUtil.Conn(), xproto.Window(root), atom)
	}
	return nil
}

func (c *Connection) SetNumberOfDesktops(_ platform.WindowID, n int) {
	c.logErr("set number of desktops", ewmh.NumberOfDesktopsSet(c.XUtil, uint(n)))
}

func (c *Connection) DesktopNames(platform.WindowID) ([]string, error) {
	names, err := ewmh.DesktopNamesGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get desktop names: %w", err)
	}
	return names, nil
}

func (c *Connection) SetDesktopNames(_ platform.WindowID, names []string) {
	c.logErr("set desktop names", ewmh.DesktopNamesSet(c.XUtil, names))
}

// CurrentDesktop returns _NET_CURRENT_DESKTOP as left by a previous
// manager instance.
func (c *Connection) CurrentDesktop(platform.WindowID) (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

func (c *Connection) SetCurrentDesktop(_ platform.WindowID, index int) {
	c.logErr("set current desktop", ewmh.CurrentDesktopSet(c.XUtil, uint(index)))
}

func (c *Connection) SetDesktopGeometry(_ platform.WindowID, width, height int) {
	c.logErr("set desktop geometry", ewmh.DesktopGeometrySet(c.XUtil,
		&ewmh.DesktopGeometry{Width: width, Height: height}))
}

// SetDesktopViewport publishes a single viewport at the origin. Desktops
// never scroll.
func (c *Connection) SetDesktopViewport(platform.WindowID) {
	c.logErr("set desktop viewport", ewmh.DesktopViewportSet(c.XUtil,
		[]ewmh.DesktopViewport{{X: 0, Y: 0}}))
}

// SetWorkarea publishes the same area for every desktop.
func (c *Connection) SetWorkarea(_ platform.WindowID, desktops int, area geom.Rect) {
	areas := make([]ewmh.Workarea, desktops)
	for i := range areas {
		areas[i] = ewmh.Workarea{
			X:      area.X,
			Y:      area.Y,
			Width:  uint(area.Width),
			Height: uint(area.Height),
		}
	}
	c.logErr("set workarea", ewmh.WorkareaSet(c.XUtil, areas))
}

func (c *Connection) SetClientList(_ platform.WindowID, wins []platform.WindowID) {
	c.logErr("set client list", ewmh.ClientListSet(c.XUtil, toXWindows(wins)))
}

func (c *Connection) SetClientListStacking(_ platform.WindowID, wins []platform.WindowID) {
	c.logErr("set client list stacking", ewmh.ClientListStackingSet(c.XUtil, toXWindows(wins)))
}

func (c *Connection) SetActiveWindow(_ platform.WindowID, win platform.WindowID) {
	c.logErr("set active window", ewmh.ActiveWindowSet(c.XUtil, xproto.Window(win)))
}

// SetWMState writes the ICCCM WM_STATE property.
func (c *Connection) SetWMState(win platform.WindowID, state platform.WMState) {
	err := icccm.WmStateSet(c.XUtil, xproto.Window(win), &icccm.WmState{State: uint(state)})
	c.logErr("set WM_STATE", err)
}

func (c *Connection) SetNetWMState(win platform.WindowID, states []string) {
	c.logErr("set _NET_WM_STATE", ewmh.WmStateSet(c.XUtil, xproto.Window(win), states))
}

// SetNetWMDesktop writes _NET_WM_DESKTOP; a negative index means all
// desktops.
func (c *Connection) SetNetWMDesktop(win platform.WindowID, index int) {
	desk := uint(stickyDesktop)
	if index >= 0 {
		desk = uint(index)
	}
	c.logErr("set _NET_WM_DESKTOP", ewmh.WmDesktopSet(c.XUtil, xproto.Window(win), desk))
}

// DeleteWindowState removes the EWMH per-window state so a withdrawn
// window starts clean when it is mapped again.
func (c *Connection) DeleteWindowState(win platform.WindowID) {
	for _, name := range []string{"_NET_WM_STATE", "_NET_WM_DESKTOP"} {
		atom, err := xprop.Atm(c.XUtil, name)
		if err != nil {
			continue
		}
		xproto.DeleteProperty(c.XUtil.Conn(), xproto.Window(win), atom)
	}
}

func (c *Connection) logErr(what string, err error) {
	if err != nil {
		c.log.Debug(what, "err", err)
	}
}

func toXWindows(wins []platform.WindowID) []xproto.Window {
	out := make([]xproto.Window, len(wins))
	for i, w := range wins {
		out[i] = xproto.Window(w)
	}
	return out
}
