// Package x11 is the X server side of the window manager: it implements
// platform.Backend and platform.EventSource on top of xgb and xgbutil.
package x11

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// ErrOtherWM is returned by TakeOver when another client already selects
// SubstructureRedirect on the root window.
var ErrOtherWM = errors.New("another window manager is running")

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	log      *slog.Logger
	randr    bool
	xinerama bool
	cursors  map[platform.Cursor]xproto.Cursor
	check    xproto.Window
	label    *label

	events   chan platform.Event
	deferred []platform.Event
	pumping  bool

	closeOnce sync.Once
}

var (
	_ platform.Backend     = (*Connection)(nil)
	_ platform.EventSource = (*Connection)(nil)
)

// NewConnection establishes a connection to the X11 server and initializes required extensions
func NewConnection(logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("open display: %w", err)
	}

	keybind.Initialize(xu)
	configureIgnoreMods(xu)

	c := &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		log:     logger,
		cursors: make(map[platform.Cursor]xproto.Cursor),
		events:  make(chan platform.Event, 256),
	}
	if err := randr.Init(xu.Conn()); err == nil {
		c.randr = true
	} else {
		logger.Debug("randr unavailable", "err", err)
	}
	if err := xinerama.Init(xu.Conn()); err == nil {
		c.xinerama = true
	} else {
		logger.Debug("xinerama unavailable", "err", err)
	}
	return c, nil
}

// TakeOver selects SubstructureRedirect on the root window. Only one
// client may hold it, so a failure means another manager owns the display.
// Once it succeeds the cursors are created and the event pump starts;
// later protocol errors are only logged.
func (c *Connection) TakeOver() error {
	err := xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), c.Root,
		xproto.CwEventMask, []uint32{xproto.EventMaskSubstructureRedirect}).Check()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOtherWM, err)
	}
	c.createCursors()
	c.internAtoms()
	c.label = newLabel(c.XUtil, c.Root)
	c.startPump()
	return nil
}

// Screens returns the default screen of the display. xgbutil binds its
// EWMH helpers to that root. The size is read from the root window so it
// follows RandR changes.
func (c *Connection) Screens() []platform.ScreenInfo {
	s := c.XUtil.Screen()
	info := platform.ScreenInfo{
		Index:  c.XUtil.Conn().DefaultScreen,
		Root:   platform.WindowID(c.Root),
		Width:  int(s.WidthInPixels),
		Height: int(s.HeightInPixels),
	}
	if g, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply(); err == nil {
		info.Width, info.Height = int(g.Width), int(g.Height)
	}
	return []platform.ScreenInfo{info}
}

// SetupRoot selects the events the manager handles on the root, sets the
// default cursor and asks RandR for screen changes.
func (c *Connection) SetupRoot(root platform.WindowID) error {
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify |
		xproto.EventMaskEnterWindow | xproto.EventMaskPropertyChange | xproto.EventMaskButtonPress)
	err := xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), xproto.Window(root),
		xproto.CwEventMask|xproto.CwCursor, []uint32{mask, uint32(c.cursors[platform.CursorNormal])}).Check()
	if err != nil {
		return fmt.Errorf("select root events: %w", err)
	}
	if c.randr {
		randr.SelectInput(c.XUtil.Conn(), xproto.Window(root), randr.NotifyMaskScreenChange)
	}
	return nil
}

// TopLevelWindows lists the children of root, bottom to top.
func (c *Connection) TopLevelWindows(root platform.WindowID) ([]platform.WindowID, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), xproto.Window(root)).Reply()
	if err != nil {
		return nil, fmt.Errorf("query tree: %w", err)
	}
	wins := make([]platform.WindowID, len(tree.Children))
	for i, w := range tree.Children {
		wins[i] = platform.WindowID(w)
	}
	return wins, nil
}

func (c *Connection) GrabServer() {
	xproto.GrabServer(c.XUtil.Conn())
}

func (c *Connection) UngrabServer() {
	xproto.UngrabServer(c.XUtil.Conn())
	c.sync()
}

// sync waits for the server to process everything sent so far.
func (c *Connection) sync() {
	xproto.GetInputFocus(c.XUtil.Conn()).Reply()
}

// Close releases the label, cursors and check window and cleanly
// disconnects from the X11 server. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		conn := c.XUtil.Conn()
		if c.label != nil {
			c.label.destroy()
		}
		for _, cur := range c.cursors {
			xproto.FreeCursor(conn, cur)
		}
		if c.check != 0 {
			xproto.DestroyWindow(conn, c.check)
		}
		c.sync()
		conn.Close()
	})
}
