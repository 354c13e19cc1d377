package x11

import (
	"fmt"
	"slices"

	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WM_HINTS flag bits.
const (
	hintInput   = 1 << 0
	hintState   = 1 << 1
	hintUrgency = 1 << 8
)

// stickyDesktop is the _NET_WM_DESKTOP value for all desktops.
const stickyDesktop = 0xFFFFFFFF

// WindowInfo reads everything the manager needs to decide how to manage
// win. Missing optional properties are left at their zero values.
func (c *Connection) WindowInfo(win platform.WindowID) (platform.WindowInfo, error) {
	conn := c.XUtil.Conn()
	w := xproto.Window(win)

	attrs, err := xproto.GetWindowAttributes(conn, w).Reply()
	if err != nil {
		return platform.WindowInfo{}, fmt.Errorf("get window attributes %#x: %w", win, err)
	}
	g, err := xproto.GetGeometry(conn, xproto.Drawable(w)).Reply()
	if err != nil {
		return platform.WindowInfo{}, fmt.Errorf("get geometry %#x: %w", win, err)
	}

	info := platform.WindowInfo{
		OverrideRedirect: attrs.OverrideRedirect,
		Viewable:         attrs.MapState == xproto.MapStateViewable,
		Geometry: geom.Rect{
			X:      int(g.X),
			Y:      int(g.Y),
			Width:  int(g.Width),
			Height: int(g.Height),
		},
		BorderWidth:  int(g.BorderWidth),
		Name:         c.Title(win),
		Hints:        c.Hints(win),
		Normal:       c.NormalHints(win),
		TransientFor: c.TransientFor(win),
		NetDesktop:   -1,
	}

	if class, err := icccm.WmClassGet(c.XUtil, w); err == nil {
		info.ResName, info.ResClass = class.Instance, class.Class
	}
	if types, err := ewmh.WmWindowTypeGet(c.XUtil, w); err == nil {
		info.Types = types
	}
	if protos, err := icccm.WmProtocolsGet(c.XUtil, w); err == nil {
		info.Protocols = protos
	}
	if mh, err := motif.WmHintsGet(c.XUtil, w); err == nil {
		info.NoDecorations = mh.Flags&motif.HintDecorations != 0 &&
			mh.Decoration&(motif.DecorationAll|motif.DecorationBorder) == 0
	}
	if states, err := ewmh.WmStateGet(c.XUtil, w); err == nil {
		info.NetStates = states
	}
	if desk, err := ewmh.WmDesktopGet(c.XUtil, w); err == nil {
		info.HasDesktop = true
		if desk != stickyDesktop {
			info.NetDesktop = int(desk)
		}
	}
	return info, nil
}

// Title prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) Title(win platform.WindowID) string {
	if name, err := ewmh.WmNameGet(c.XUtil, xproto.Window(win)); err == nil && name != "" {
		return name
	}
	name, _ := icccm.WmNameGet(c.XUtil, xproto.Window(win))
	return name
}

func (c *Connection) NormalHints(win platform.WindowID) geom.NormalHints {
	nh, err := icccm.WmNormalHintsGet(c.XUtil, xproto.Window(win))
	if err != nil {
		return geom.NormalHints{}
	}
	return geom.NormalHints{
		Flags:        nh.Flags,
		MinWidth:     int(nh.MinWidth),
		MinHeight:    int(nh.MinHeight),
		MaxWidth:     int(nh.MaxWidth),
		MaxHeight:    int(nh.MaxHeight),
		WidthInc:     int(nh.WidthInc),
		HeightInc:    int(nh.HeightInc),
		MinAspectNum: int(nh.MinAspectNum),
		MinAspectDen: int(nh.MinAspectDen),
		MaxAspectNum: int(nh.MaxAspectNum),
		MaxAspectDen: int(nh.MaxAspectDen),
		BaseWidth:    int(nh.BaseWidth),
		BaseHeight:   int(nh.BaseHeight),
	}
}

func (c *Connection) Hints(win platform.WindowID) platform.Hints {
	h, err := icccm.WmHintsGet(c.XUtil, xproto.Window(win))
	if err != nil {
		return platform.Hints{}
	}
	out := platform.Hints{
		Input:  h.Flags&hintInput != 0 && h.Input != 0,
		Urgent: h.Flags&hintUrgency != 0,
	}
	if h.Flags&hintState != 0 {
		out.InitialState = int(h.InitialState)
	}
	return out
}

func (c *Connection) TransientFor(win platform.WindowID) platform.WindowID {
	owner, err := icccm.WmTransientForGet(c.XUtil, xproto.Window(win))
	if err != nil {
		return platform.None
	}
	return platform.WindowID(owner)
}

// SelectClientInput asks for the client events the manager follows.
func (c *Connection) SelectClientInput(win platform.WindowID) {
	mask := uint32(xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange | xproto.EventMaskEnterWindow)
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), xproto.Window(win), xproto.CwEventMask, []uint32{mask})
}

// CreateFrame creates the override-redirect parent a client is reparented
// into.
func (c *Connection) CreateFrame(root platform.WindowID, r geom.Rect, border int, pixel uint32) (platform.WindowID, error) {
	frame, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return platform.None, fmt.Errorf("generate frame id: %w", err)
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify |
		xproto.EventMaskButtonPress | xproto.EventMaskEnterWindow)
	s := c.XUtil.Screen()
	err = xproto.CreateWindowChecked(c.XUtil.Conn(), s.RootDepth, frame.Id, xproto.Window(root),
		int16(r.X), int16(r.Y), uint16(max(r.Width, 1)), uint16(max(r.Height, 1)), uint16(border),
		xproto.WindowClassInputOutput, s.RootVisual,
		xproto.CwBorderPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{pixel, 1, mask}).Check()
	if err != nil {
		return platform.None, fmt.Errorf("create frame: %w", err)
	}
	return platform.WindowID(frame.Id), nil
}

func (c *Connection) Reparent(win, parent platform.WindowID, x, y int) {
	xproto.ReparentWindow(c.XUtil.Conn(), xproto.Window(win), xproto.Window(parent), int16(x), int16(y))
}

func (c *Connection) AddToSaveSet(win platform.WindowID) {
	xproto.ChangeSaveSet(c.XUtil.Conn(), xproto.SetModeInsert, xproto.Window(win))
}

func (c *Connection) RemoveFromSaveSet(win platform.WindowID) {
	xproto.ChangeSaveSet(c.XUtil.Conn(), xproto.SetModeDelete, xproto.Window(win))
}

func (c *Connection) DestroyWindow(win platform.WindowID) {
	xproto.DestroyWindow(c.XUtil.Conn(), xproto.Window(win))
}

func (c *Connection) SetBorderWidth(win platform.WindowID, width int) {
	xproto.ConfigureWindow(c.XUtil.Conn(), xproto.Window(win),
		xproto.ConfigWindowBorderWidth, []uint32{uint32(width)})
}

func (c *Connection) SetBorderColor(win platform.WindowID, pixel uint32) {
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), xproto.Window(win),
		xproto.CwBorderPixel, []uint32{pixel})
}

func (c *Connection) MoveResize(win platform.WindowID, r geom.Rect) {
	xwindow.New(c.XUtil, xproto.Window(win)).MoveResize(r.X, r.Y, max(r.Width, 1), max(r.Height, 1))
}

func (c *Connection) Move(win platform.WindowID, x, y int) {
	xwindow.New(c.XUtil, xproto.Window(win)).Move(x, y)
}

func (c *Connection) Map(win platform.WindowID) {
	xproto.MapWindow(c.XUtil.Conn(), xproto.Window(win))
}

func (c *Connection) Unmap(win platform.WindowID) {
	xproto.UnmapWindow(c.XUtil.Conn(), xproto.Window(win))
}

func (c *Connection) Raise(win platform.WindowID) {
	xwindow.New(c.XUtil, xproto.Window(win)).Stack(xproto.StackModeAbove)
}

func (c *Connection) Lower(win platform.WindowID) {
	xwindow.New(c.XUtil, xproto.Window(win)).Stack(xproto.StackModeBelow)
}

// Restack places each window directly below the one before it.
func (c *Connection) Restack(wins []platform.WindowID) {
	for i := 1; i < len(wins); i++ {
		xwindow.New(c.XUtil, xproto.Window(wins[i])).
			StackSibling(xproto.Window(wins[i-1]), xproto.StackModeBelow)
	}
}

// SendConfigureNotify tells the client its root geometry, as ICCCM
// requires after a move that did not resize it.
func (c *Connection) SendConfigureNotify(win platform.WindowID, r geom.Rect) {
	w := xproto.Window(win)
	ev := xevent.NewConfigureNotify(w, w, 0, r.X, r.Y, r.Width, r.Height, 0, false)
	xproto.SendEvent(c.XUtil.Conn(), false, w, xproto.EventMaskStructureNotify, string(ev.Bytes()))
}

// ConfigureUnmanaged passes a request from a window the manager does not
// own straight to the server. Stacking requests are turned into a plain
// raise.
func (c *Connection) ConfigureUnmanaged(req platform.ConfigureRequest) {
	var (
		mask   uint16
		values []uint32
	)
	add := func(bit uint16, v uint32) {
		if req.ValueMask&bit != 0 {
			mask |= bit
			values = append(values, v)
		}
	}
	add(xproto.ConfigWindowX, uint32(int32(req.X)))
	add(xproto.ConfigWindowY, uint32(int32(req.Y)))
	add(xproto.ConfigWindowWidth, uint32(req.Width))
	add(xproto.ConfigWindowHeight, uint32(req.Height))
	add(xproto.ConfigWindowBorderWidth, uint32(req.BorderWidth))
	if req.ValueMask&xproto.ConfigWindowStackMode != 0 {
		mask |= xproto.ConfigWindowStackMode
		values = append(values, xproto.StackModeAbove)
	}
	xproto.ConfigureWindow(c.XUtil.Conn(), xproto.Window(req.Window), mask, values)
}

func (c *Connection) InstallColormap(win platform.WindowID) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), xproto.Window(win)).Reply()
	if err != nil || attrs.Colormap == 0 {
		return
	}
	xproto.InstallColormap(c.XUtil.Conn(), attrs.Colormap)
}

func (c *Connection) Focus(win platform.WindowID) {
	xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, xproto.Window(win), xproto.TimeCurrentTime)
}

func (c *Connection) FocusPointerRoot() {
	xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, xproto.InputFocusPointerRoot, xproto.TimeCurrentTime)
}

// SendTakeFocus sends WM_TAKE_FOCUS stamped with the last event time.
func (c *Connection) SendTakeFocus(win platform.WindowID, time uint32) {
	c.sendProtocol(win, "WM_TAKE_FOCUS", time)
}

// SendDelete asks the client to close through WM_DELETE_WINDOW.
func (c *Connection) SendDelete(win platform.WindowID) {
	c.sendProtocol(win, "WM_DELETE_WINDOW", xproto.TimeCurrentTime)
}

func (c *Connection) sendProtocol(win platform.WindowID, protocol string, time uint32) {
	protocols, err := xprop.Atm(c.XUtil, "WM_PROTOCOLS")
	if err != nil {
		c.log.Debug("intern WM_PROTOCOLS", "err", err)
		return
	}
	atom, err := xprop.Atm(c.XUtil, protocol)
	if err != nil {
		c.log.Debug("intern protocol", "protocol", protocol, "err", err)
		return
	}
	w := xproto.Window(win)
	ev, err := xevent.NewClientMessage(32, w, protocols, int(atom), int(time))
	if err != nil {
		c.log.Debug("build client message", "protocol", protocol, "err", err)
		return
	}
	xproto.SendEvent(c.XUtil.Conn(), false, w, xproto.EventMaskNoEvent, string(ev.Bytes()))
}

func (c *Connection) Kill(win platform.WindowID) {
	xproto.KillClient(c.XUtil.Conn(), uint32(win))
}

// QueryPointer returns the pointer position relative to win.
func (c *Connection) QueryPointer(win platform.WindowID) (geom.Point, error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), xproto.Window(win)).Reply()
	if err != nil {
		return geom.Point{}, fmt.Errorf("query pointer: %w", err)
	}
	return geom.Point{X: int(reply.WinX), Y: int(reply.WinY)}, nil
}

func (c *Connection) WarpPointer(win platform.WindowID, p geom.Point) {
	xproto.WarpPointer(c.XUtil.Conn(), xproto.WindowNone, xproto.Window(win), 0, 0, 0, 0, int16(p.X), int16(p.Y))
}

// internAtoms primes xprop's atom cache with the names the event pump
// decodes most often.
func (c *Connection) internAtoms() {
	names := slices.Concat(supportedAtoms, []string{
		"WM_PROTOCOLS", "WM_DELETE_WINDOW", "WM_TAKE_FOCUS", "WM_CHANGE_STATE",
		"WM_NAME", "WM_HINTS", "WM_NORMAL_HINTS", "WM_TRANSIENT_FOR",
	})
	for _, name := range names {
		if _, err := xprop.Atm(c.XUtil, name); err != nil {
			c.log.Debug("intern atom", "name", name, "err", err)
		}
	}
}
