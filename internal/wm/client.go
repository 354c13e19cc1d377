package wm

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/bindings"
	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Client is one managed window and the frame it was reparented into.
// Clients are owned by their Screen; desktops refer to them by window id.
type Client struct {
	screen *Screen
	window platform.WindowID
	frame  platform.WindowID

	desktop int
	states  State

	geom      geom.Rect
	stackGeom geom.Rect
	fullGeom  geom.Rect

	border     int
	origBorder int
	hints      geom.SizeHints

	name     string
	resName  string
	resClass string

	// ptr is the saved pointer position relative to the frame.
	ptr          geom.Point
	ignoreUnmap  bool
	initialState int
}

// newClient reads the window's properties, applies the manage-time policy
// and reparents it into a frame. existing marks windows found at startup.
func newClient(s *Screen, win platform.WindowID, info platform.WindowInfo, existing bool) (*Client, error) {
	m := s.mgr
	c := &Client{
		screen:      s,
		window:      win,
		desktop:     -1,
		border:      m.cfg.StackedBorder,
		origBorder:  info.BorderWidth,
		geom:        info.Geometry,
		name:        info.Name,
		resName:     info.ResName,
		resClass:    info.ResClass,
		hints:       geom.NewSizeHints(info.Normal),
		ignoreUnmap: existing,
	}

	x := m.x
	x.GrabServer()
	defer x.UngrabServer()

	c.states |= typeStates(info.Types)
	if info.Hints.Input {
		c.states |= Input
	}
	if info.Hints.Urgent {
		c.states |= Urgent
	}
	c.initialState = info.Hints.InitialState
	c.states |= protocolStates(info.Protocols)
	c.applyTransient(info.TransientFor)
	if info.NoDecorations {
		c.states |= NoTile | NoBorder
	}

	appStates, appDesktop := m.appDefaults(c.resName, c.resClass)
	c.states |= appStates

	if c.states.Has(NoBorder) {
		c.border = 0
	}
	c.ptr = c.geom.Center(geom.Window)

	if !info.Viewable {
		c.initialPlacement()
		x.SetWMState(win, platform.IconicState)
	}
	c.stackGeom = c.geom

	c.sendConfigure()

	netStates := StatesFromNet(info.NetStates)
	wantFull := netStates.Has(FullScreen)
	c.states |= netStates &^ FullScreen

	index := -1
	if !c.states.Has(Sticky) {
		if !existing {
			index = appDesktop
		} else if info.HasDesktop {
			index = min(info.NetDesktop, len(s.desktops)-1)
		}
		if index < 0 || index >= len(s.desktops) {
			index = s.active
		}
	}

	if err := c.reparent(); err != nil {
		return nil, err
	}
	// Selected after reparenting so a window found mapped at startup
	// reports its reparenting unmap once, on the root.
	x.SelectClientInput(win)
	s.assignClientToDesktop(c, index)

	if wantFull {
		c.toggleFullscreen()
	}
	return c, nil
}

func (c *Client) x() platform.Backend { return c.screen.mgr.x }

// Window returns the client's own window.
func (c *Client) Window() platform.WindowID { return c.window }

// Frame returns the decoration window the client was reparented into.
func (c *Client) Frame() platform.WindowID { return c.frame }

// Desktop returns the assigned desktop index, -1 for sticky clients.
func (c *Client) Desktop() int { return c.desktop }

// States returns the state bitmask.
func (c *Client) States() State { return c.states }

// Has reports whether every bit of f is set.
func (c *Client) Has(f State) bool { return c.states.Has(f) }

// Geometry returns the current frame geometry.
func (c *Client) Geometry() geom.Rect { return c.geom }

// Border returns the current border width.
func (c *Client) Border() int { return c.border }

// Name returns the cached window title.
func (c *Client) Name() string { return c.name }

// Class returns WM_CLASS as name and class.
func (c *Client) Class() (string, string) { return c.resName, c.resClass }

// Screen returns the owning screen.
func (c *Client) Screen() *Screen { return c.screen }

// HasWindow reports whether win is the client or its frame.
func (c *Client) HasWindow(win platform.WindowID) bool {
	return win != platform.None && (win == c.window || win == c.frame)
}

// IgnoreUnmap consumes the one-shot flag set for windows found at startup,
// whose reparenting produces an UnmapNotify.
func (c *Client) IgnoreUnmap() bool {
	if c.ignoreUnmap {
		c.ignoreUnmap = false
		return true
	}
	return false
}

func (c *Client) setStates(f State)   { c.states |= f }
func (c *Client) clearStates(f State) { c.states &^= f }

func (c *Client) applyTransient(owner platform.WindowID) {
	if owner == platform.None {
		return
	}
	tc := c.screen.mgr.FindClient(owner)
	if tc != nil && tc.states.IsIgnored() {
		c.setStates(NoTile | Ignored)
		c.border = tc.border
	}
}

func (c *Client) readTransient() {
	c.applyTransient(c.x().TransientFor(c.window))
}

func (c *Client) readNormalHints() {
	c.hints = geom.NewSizeHints(c.x().NormalHints(c.window))
}

func (c *Client) readHints() {
	h := c.x().Hints(c.window)
	if h.Input {
		c.setStates(Input)
	}
	if h.Urgent && !c.states.Has(Active) {
		c.setStates(Urgent)
	}
}

// initialPlacement positions a window that was not yet mapped: honoring a
// user or program position, otherwise centered on the pointer.
func (c *Client) initialPlacement() {
	s := c.screen
	if c.hints.Flags&(geom.USPosition|geom.PPosition) != 0 {
		c.geom = c.geom.PlaceUser(s.view, c.border)
	} else {
		p := s.pointer()
		c.geom = c.geom.Place(p, s.Area(p, true), c.border)
	}
	c.x().MoveResize(c.window, c.geom)
}

func (c *Client) reparent() error {
	s := c.screen
	x := c.x()
	frame, err := x.CreateFrame(s.root, c.geom, c.border, s.palette.inactive)
	if err != nil {
		return fmt.Errorf("create frame for %#x: %w", c.window, err)
	}
	c.frame = frame
	x.AddToSaveSet(c.window)
	x.SetBorderWidth(c.window, 0)
	x.Reparent(c.window, frame, 0, 0)
	c.grabButtons()
	return nil
}

// grabButtons grabs the window-context mouse bindings on the frame.
func (c *Client) grabButtons() {
	var window []bindings.Binding
	for _, b := range c.screen.mgr.binds.Buttons() {
		if b.Action.Context() == bindings.ContextWindow {
			window = append(window, b)
		}
	}
	c.x().UngrabButtons(c.frame)
	c.x().GrabButtons(c.frame, window)
}

// release hands the window back to the root. withdrawn is set when the
// client unmapped itself, so its WM properties are cleared too.
func (c *Client) release(withdrawn bool) {
	m := c.screen.mgr
	x := m.x
	x.GrabServer()
	defer x.UngrabServer()

	x.UngrabButtons(c.frame)
	if m.status != Running && c.states.Has(Tiled) {
		c.clearStates(Frozen)
		c.setStackedGeom()
	}
	if withdrawn {
		x.SetWMState(c.window, platform.WithdrawnState)
		x.DeleteWindowState(c.window)
	}
	x.Reparent(c.window, c.screen.root, c.geom.X, c.geom.Y)
	x.SetBorderWidth(c.window, c.origBorder)
	x.RemoveFromSaveSet(c.window)
	x.DestroyWindow(c.frame)
}

// DrawBorder sets the border width and the color matching the state.
func (c *Client) DrawBorder() {
	p := c.screen.palette
	pixel := p.inactive
	switch {
	case c.states.Has(Urgent):
		pixel = p.urgent
	case c.states.Has(Active):
		pixel = p.active
	}
	c.x().SetBorderWidth(c.frame, c.border)
	c.x().SetBorderColor(c.frame, pixel|0xff<<24)
}

func (c *Client) sendConfigure() {
	c.x().SendConfigureNotify(c.window, c.geom)
}

func (c *Client) publishTitle() {
	c.screen.mgr.publish("window_active=" + c.name)
}

// Activate focuses the client. Hidden and docked clients are refused.
// This is the only place the Active bit is set, and it clears the bit on
// every other client of the screen first.
func (c *Client) Activate() {
	if c.states.Has(Hidden) || c.states.IsDocked() {
		return
	}
	s := c.screen
	x := c.x()

	x.InstallColormap(c.window)
	if c.states.Has(Input) || !c.states.Has(WMTakeFocus) {
		x.Focus(c.window)
	}
	if c.states.Has(WMTakeFocus) {
		x.SendTakeFocus(c.window, s.mgr.lastTime)
	}

	for _, other := range s.clients {
		if other != c && other.states.Has(Active) {
			other.clearStates(Active)
			other.DrawBorder()
		}
	}

	c.setStates(Active)
	c.clearStates(Urgent)
	c.DrawBorder()
	s.raiseClient(c)
	x.SetActiveWindow(s.root, c.window)
	c.publishTitle()
}

// Show maps the client and clears Hidden.
func (c *Client) Show() {
	x := c.x()
	c.clearStates(Hidden)
	c.publishStates()
	x.SetWMState(c.window, platform.NormalState)
	x.Map(c.frame)
	x.Map(c.window)
	c.DrawBorder()
}

// Hide unmaps the client and sets Hidden. An active client gives up the
// active-window property.
func (c *Client) Hide() {
	x := c.x()
	x.Unmap(c.frame)
	if c.states.Has(Active) {
		c.clearStates(Active)
		x.SetActiveWindow(c.screen.root, platform.None)
	}
	c.setStates(Hidden)
	c.publishStates()
	x.SetWMState(c.window, platform.IconicState)
}

// Close asks the client to close via WM_DELETE_WINDOW, or kills it.
func (c *Client) Close() {
	if c.states.Has(WMDeleteWindow) {
		c.x().SendDelete(c.window)
		return
	}
	c.x().Kill(c.window)
}

// Raise puts the client on top of its desktop.
func (c *Client) Raise() {
	c.screen.raiseClient(c)
	c.x().Raise(c.frame)
}

// Lower puts the client at the bottom of the X stack.
func (c *Client) Lower() {
	c.x().Lower(c.frame)
}

// Configure honors a client's own size request unless a layout owns the
// geometry.
func (c *Client) Configure(req platform.ConfigureRequest) {
	if c.states.Has(Frozen) {
		c.sendConfigure()
		return
	}
	if req.ValueMask&configWidth != 0 {
		c.geom.Width = req.Width
	}
	if req.ValueMask&configHeight != 0 {
		c.geom.Height = req.Height
	}
	c.resizeWindow()
}

// ConfigureWindow value mask bits (core protocol).
const (
	configWidth  = 1 << 2
	configHeight = 1 << 3
)

func (c *Client) moveWindow() {
	c.x().Move(c.frame, c.geom.X, c.geom.Y)
	c.sendConfigure()
}

func (c *Client) resizeWindow() {
	x := c.x()
	x.MoveResize(c.frame, c.geom)
	x.MoveResize(c.window, geom.Rect{Width: c.geom.Width, Height: c.geom.Height})
	c.DrawBorder()
	c.sendConfigure()
}

func (c *Client) setStackedGeom() {
	c.geom = c.stackGeom
	c.border = c.stackedBorder()
	c.resizeWindow()
}

func (c *Client) setTiledGeom(r geom.Rect) {
	c.geom = r
	c.border = c.screen.mgr.cfg.TiledBorder
	c.resizeWindow()
}

func (c *Client) stackedBorder() int {
	if c.states.Has(NoBorder) {
		return 0
	}
	return c.screen.mgr.cfg.StackedBorder
}

// setNoTile takes the client out of automatic layout.
func (c *Client) setNoTile() {
	if c.states.Has(FullScreen) {
		c.removeFullscreen()
	}
	c.clearStates(Tiled | Frozen | Maximized)
	c.setStates(NoTile)
	c.geom = c.stackGeom
	c.border = c.stackedBorder()
	c.resizeWindow()
}

// ToggleState flips one state flag with its side effects, then
// republishes _NET_WM_STATE.
func (c *Client) ToggleState(flag State) {
	s := c.screen
	switch flag {
	case Urgent:
		if !c.states.Has(Active) || c.states.Has(Urgent) {
			c.states ^= Urgent
		}
	case Hidden, SkipPager, SkipTaskbar:
		c.states ^= flag
	case Sticky:
		if c.states.Has(Sticky) {
			s.assignClientToDesktop(c, s.active)
		} else {
			s.assignClientToDesktop(c, -1)
		}
		c.states ^= Sticky
	case NoTile:
		if c.states.Has(NoTile) {
			c.clearStates(NoTile)
			s.addTile(c)
		} else {
			s.removeTile(c)
			c.setNoTile()
		}
	case FullScreen:
		c.toggleFullscreen()
	case HMaximized, VMaximized:
		c.toggleMaximized(flag)
	}
	c.publishStates()
}

// toggleFullscreen is refused while a layout is moving the window, unless
// it is already fullscreen or tiled.
func (c *Client) toggleFullscreen() {
	if c.states.Has(Frozen) && !c.states.Any(FullScreen|Tiled) {
		return
	}
	if c.states.Has(FullScreen) {
		c.removeFullscreen()
	} else {
		area := c.screen.Area(c.geom.Center(geom.Root), false)
		c.fullGeom = c.geom
		c.border = 0
		c.geom = area
		c.setStates(FullScreen | Frozen)
		c.Raise()
	}
	c.resizeWindow()
	c.movePointerInside()
}

func (c *Client) removeFullscreen() {
	c.border = c.stackedBorder()
	c.geom = c.fullGeom
	if c.states.Has(Tiled) {
		c.border = c.screen.mgr.cfg.TiledBorder
	} else {
		c.clearStates(Frozen)
	}
	c.clearStates(FullScreen)
}

// toggleMaximized stretches a floating window along one axis of its work
// area, or restores the saved geometry on that axis.
func (c *Client) toggleMaximized(flag State) {
	if c.states.Has(Frozen) {
		return
	}
	area := c.screen.Area(c.geom.Center(geom.Root), true)
	if c.states.Has(flag) {
		c.clearStates(flag)
		if flag == HMaximized {
			c.geom.X, c.geom.Width = c.stackGeom.X, c.stackGeom.Width
		} else {
			c.geom.Y, c.geom.Height = c.stackGeom.Y, c.stackGeom.Height
		}
	} else {
		c.setStates(flag)
		if flag == HMaximized {
			c.geom.X, c.geom.Width = area.X, area.Width-2*c.border
		} else {
			c.geom.Y, c.geom.Height = area.Y, area.Height-2*c.border
		}
	}
	c.resizeWindow()
}

// movePointerInside clamps the pointer into the frame and remembers it.
func (c *Client) movePointerInside() {
	p, err := c.x().QueryPointer(c.frame)
	if err != nil {
		return
	}
	c.ptr = p.MoveInside(c.geom)
	c.x().WarpPointer(c.frame, c.ptr)
}

// warpPointer restores the saved pointer position.
func (c *Client) warpPointer() {
	c.x().WarpPointer(c.frame, c.ptr)
}

// savePointer remembers where the pointer is, or the center when it is
// outside the frame.
func (c *Client) savePointer() {
	p, err := c.x().QueryPointer(c.frame)
	if err == nil && c.geom.Contains(p, geom.Window) {
		c.ptr = p
		return
	}
	c.ptr = c.geom.Center(geom.Window)
}
