package wm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
)

type palette struct {
	active   uint32
	inactive uint32
	urgent   uint32
}

// Screen is one X screen: its root window, monitors, desktops and the
// clients it manages. Clients are keyed by their own window id; order
// keeps them oldest first and stack bottom to top.
type Screen struct {
	mgr   *Manager
	index int
	root  platform.WindowID

	view      geom.Rect
	work      geom.Rect
	gap       geom.BorderGap
	viewports []geom.Viewport

	desktops []*Desktop
	active   int
	last     int
	cycling  bool

	clients map[platform.WindowID]*Client
	frames  map[platform.WindowID]platform.WindowID
	order   []platform.WindowID
	stack   []platform.WindowID

	theme   string
	palette palette
}

func newScreen(m *Manager, info platform.ScreenInfo) (*Screen, error) {
	cfg := m.cfg
	x := m.x
	s := &Screen{
		mgr:     m,
		index:   info.Index,
		root:    info.Root,
		view:    geom.Rect{Width: info.Width, Height: info.Height},
		gap:     cfg.BorderGap,
		clients: make(map[platform.WindowID]*Client),
		frames:  make(map[platform.WindowID]platform.WindowID),
		theme:   cfg.Theme,
	}
	s.loadPalette()
	for i, def := range cfg.Desktops {
		s.desktops = append(s.desktops, newDesktop(s, i, def))
	}
	if len(s.desktops) == 0 {
		s.desktops = append(s.desktops, newDesktop(s, 0, config.Desktop{Name: "one", Split: 0.5}))
	}

	if err := x.InitRootHints(s.root, cfg.WMName); err != nil {
		return nil, fmt.Errorf("root hints: %w", err)
	}
	x.SetNumberOfDesktops(s.root, len(s.desktops))
	if names, err := x.DesktopNames(s.root); err == nil && len(names) > 0 {
		s.applyDesktopNames(names)
	} else {
		x.SetDesktopNames(s.root, s.desktopNames())
	}
	if cur, err := x.CurrentDesktop(s.root); err == nil && cur >= 0 && cur < len(s.desktops) {
		s.active = cur
	} else {
		x.SetCurrentDesktop(s.root, 0)
	}
	s.last = s.active

	s.GrabKeys()
	s.UpdateGeometry()
	if err := x.SetupRoot(s.root); err != nil {
		return nil, fmt.Errorf("setup root: %w", err)
	}
	return s, nil
}

// manageExisting adopts the windows that were mapped before the manager
// started, then shows the active desktop and focuses the window under the
// pointer.
func (s *Screen) manageExisting() {
	x := s.mgr.x
	wins, err := x.TopLevelWindows(s.root)
	if err != nil {
		s.mgr.log.Warn("query existing windows", "screen", s.index, "err", err)
		return
	}
	for _, win := range wins {
		info, err := x.WindowInfo(win)
		if err != nil || info.OverrideRedirect || !info.Viewable {
			continue
		}
		s.manage(win, info, true)
	}
	s.updateClientLists()
	for _, d := range s.desktops {
		if d.index != s.active {
			d.hide()
		}
	}
	s.ShowDesktop()
	s.publishDesktopList()

	if c := s.clientAt(s.pointer()); c != nil && !c.states.IsIgnored() {
		c.Activate()
	}
}

func (s *Screen) manage(win platform.WindowID, info platform.WindowInfo, existing bool) *Client {
	c, err := newClient(s, win, info, existing)
	if err != nil {
		s.mgr.log.Warn("manage window", "window", win, "err", err)
		return nil
	}
	s.clients[win] = c
	s.frames[c.frame] = win
	s.order = append(s.order, win)
	s.stack = append(s.stack, win)
	s.mgr.log.Debug("managed window", "window", win, "frame", c.frame, "class", c.resClass, "desktop", c.desktop, "states", c.states)
	return c
}

// teardown hands every client back to the root.
func (s *Screen) teardown() {
	for _, win := range slices.Clone(s.order) {
		if c := s.clients[win]; c != nil {
			c.release(false)
		}
	}
	s.clients = make(map[platform.WindowID]*Client)
	s.frames = make(map[platform.WindowID]platform.WindowID)
	s.order, s.stack = nil, nil
	s.mgr.x.UngrabKeys(s.root)
}

// Index returns the X screen number.
func (s *Screen) Index() int { return s.index }

// Root returns the root window.
func (s *Screen) Root() platform.WindowID { return s.root }

// Desktops returns the fixed desktop list.
func (s *Screen) Desktops() []*Desktop { return s.desktops }

// Active returns the active desktop index.
func (s *Screen) Active() int { return s.active }

// Last returns the previously active desktop index.
func (s *Screen) Last() int { return s.last }

// View returns the full screen rectangle.
func (s *Screen) View() geom.Rect { return s.view }

// Viewports returns the current monitors.
func (s *Screen) Viewports() []geom.Viewport { return slices.Clone(s.viewports) }

// IsCycling reports whether a window cycle is waiting for its modifier
// to be released.
func (s *Screen) IsCycling() bool { return s.cycling }

// Clients returns the managed clients, oldest first.
func (s *Screen) Clients() []*Client {
	out := make([]*Client, 0, len(s.order))
	for _, win := range s.order {
		if c := s.clients[win]; c != nil {
			out = append(out, c)
		}
	}
	return out
}

// ActiveClient returns the client holding Active, or nil.
func (s *Screen) ActiveClient() *Client {
	for _, c := range s.clients {
		if c.states.Has(Active) {
			return c
		}
	}
	return nil
}

func (s *Screen) findClient(win platform.WindowID) *Client {
	if c := s.clients[win]; c != nil {
		return c
	}
	if owner, ok := s.frames[win]; ok {
		return s.clients[owner]
	}
	return nil
}

// clientAt returns the topmost visible client of the active desktop under
// p, in root coordinates.
func (s *Screen) clientAt(p geom.Point) *Client {
	for i := len(s.stack) - 1; i >= 0; i-- {
		c := s.clients[s.stack[i]]
		if c == nil || c.states.Has(Hidden) {
			continue
		}
		if c.desktop >= 0 && c.desktop != s.active {
			continue
		}
		r := c.geom
		r.Width += 2 * c.border
		r.Height += 2 * c.border
		if r.Contains(p, geom.Root) {
			return c
		}
	}
	return nil
}

// Area returns the monitor under p, shrunk by the border gap when gap is
// set. Outside every monitor the whole screen is used.
func (s *Screen) Area(p geom.Point, gap bool) geom.Rect {
	return geom.Area(s.viewports, s.view, p, s.gap, gap)
}

// pointer returns the pointer position on the root window.
func (s *Screen) pointer() geom.Point {
	p, err := s.mgr.x.QueryPointer(s.root)
	if err != nil {
		return s.view.Center(geom.Root)
	}
	return p
}

func (s *Screen) loadPalette() {
	p := s.mgr.cfg.Colors.Dark
	if s.theme == "light" {
		p = s.mgr.cfg.Colors.Light
	}
	s.palette = palette{
		active:   s.color(p.Active),
		inactive: s.color(p.Inactive),
		urgent:   s.color(p.Urgent),
	}
}

func (s *Screen) color(hex string) uint32 {
	v, err := config.ParseColor(hex)
	if err != nil {
		s.mgr.log.Warn("invalid border color", "color", hex, "err", err)
		return 0
	}
	return v
}

// SetTheme switches the border palette and redraws every border.
func (s *Screen) SetTheme(name string) {
	if name == s.theme {
		return
	}
	s.theme = name
	s.loadPalette()
	for _, c := range s.Clients() {
		c.DrawBorder()
	}
}

// GrabKeys replaces the root key grabs with the current bindings.
func (s *Screen) GrabKeys() {
	x := s.mgr.x
	x.UngrabKeys(s.root)
	x.GrabKeys(s.root, s.mgr.binds.Keys())
}

func (s *Screen) desktopNames() []string {
	names := make([]string, len(s.desktops))
	for i, d := range s.desktops {
		names[i] = d.name
	}
	return names
}

func (s *Screen) applyDesktopNames(names []string) {
	for i, name := range names {
		if i >= len(s.desktops) {
			break
		}
		if name != "" {
			s.desktops[i].name = name
		}
	}
}

// readDesktopNames picks up names another program wrote to the root.
func (s *Screen) readDesktopNames() {
	names, err := s.mgr.x.DesktopNames(s.root)
	if err != nil {
		return
	}
	s.applyDesktopNames(names)
}

func (s *Screen) clearTitle() {
	s.mgr.publish("no_window_active")
}

func (s *Screen) updateClientLists() {
	x := s.mgr.x
	x.SetClientList(s.root, slices.Clone(s.order))
	x.SetClientListStacking(s.root, slices.Clone(s.stack))
}

// publishDesktopList reports the active, urgent and occupied desktops.
func (s *Screen) publishDesktopList() {
	var b strings.Builder
	for i, d := range s.desktops {
		n := i + 1
		switch {
		case i == s.active:
			fmt.Fprintf(&b, "+%d ", n)
		case d.urgent():
			fmt.Fprintf(&b, "!%d ", n)
		case !d.empty():
			fmt.Fprintf(&b, " %d ", n)
		}
	}
	s.mgr.publish("desktop_list=" + b.String())
}

// AddClient manages a window that asked to be mapped. Windows already
// managed, or that opt out via override-redirect, are left alone.
func (s *Screen) AddClient(win platform.WindowID) *Client {
	if c := s.mgr.FindClient(win); c != nil {
		return c
	}
	info, err := s.mgr.x.WindowInfo(win)
	if err != nil {
		s.mgr.log.Debug("window vanished before manage", "window", win, "err", err)
		return nil
	}
	if info.OverrideRedirect {
		return nil
	}
	c := s.manage(win, info, false)
	if c == nil {
		return nil
	}
	s.updateClientLists()

	switch {
	case c.desktop < 0:
		c.Show()
	case c.desktop == s.active:
		s.ShowDesktop()
	default:
		s.SwitchToDesktop(c.desktop)
	}
	if !c.states.IsIgnored() {
		c.warpPointer()
		c.Raise()
		c.Activate()
	}
	s.publishDesktopList()
	return c
}

// RemoveClient stops managing c. withdrawn is set when the client
// unmapped itself rather than being destroyed.
func (s *Screen) RemoveClient(c *Client, withdrawn bool) {
	if s.clients[c.window] != c {
		return
	}
	wasActive := c.states.Has(Active)
	s.removeTile(c)
	c.release(withdrawn)

	delete(s.clients, c.window)
	delete(s.frames, c.frame)
	s.order = slices.DeleteFunc(s.order, func(w platform.WindowID) bool { return w == c.window })
	s.stack = slices.DeleteFunc(s.stack, func(w platform.WindowID) bool { return w == c.window })
	s.updateClientLists()

	if wasActive {
		x := s.mgr.x
		x.FocusPointerRoot()
		x.SetActiveWindow(s.root, platform.None)
		s.clearTitle()
	}
	s.ShowDesktop()
	s.publishDesktopList()
	s.mgr.log.Debug("released window", "window", c.window, "withdrawn", withdrawn)
}

// assignClientToDesktop moves c between tile lists; -1 makes it sticky.
func (s *Screen) assignClientToDesktop(c *Client, index int) {
	s.removeTile(c)
	c.desktop = index
	s.mgr.x.SetNetWMDesktop(c.window, index)
	s.addTile(c)
}

func (s *Screen) desktopOf(c *Client) *Desktop {
	if c.desktop < 0 || c.desktop >= len(s.desktops) {
		return nil
	}
	return s.desktops[c.desktop]
}

func (s *Screen) addTile(c *Client) {
	if d := s.desktopOf(c); d != nil {
		d.addTile(c)
	}
}

func (s *Screen) removeTile(c *Client) {
	if d := s.desktopOf(c); d != nil {
		d.removeTile(c)
	}
}

// raiseClient moves c to the top of the stacking order. It is left alone
// while cycling, off the active desktop, or when a layout owns it.
func (s *Screen) raiseClient(c *Client) {
	if s.cycling || c.states.Has(Tiled) {
		return
	}
	if c.desktop >= 0 && c.desktop != s.active {
		return
	}
	i := slices.Index(s.stack, c.window)
	if i < 0 || i == len(s.stack)-1 {
		return
	}
	s.stack = append(slices.Delete(s.stack, i, i+1), c.window)
	s.mgr.x.SetClientListStacking(s.root, slices.Clone(s.stack))
}

// MoveClientToDesktop sends c to desktop index and redraws the active
// desktop. Sticky clients lose Sticky.
func (s *Screen) MoveClientToDesktop(c *Client, index int) {
	if index < 0 || index >= len(s.desktops) || index == c.desktop {
		return
	}
	c.Hide()
	c.clearStates(Sticky)
	s.assignClientToDesktop(c, index)
	s.ShowDesktop()
	s.publishDesktopList()
}

// ShowDesktop lays out the active desktop.
func (s *Screen) ShowDesktop() { s.desktops[s.active].show() }

// HideDesktop unmaps every client of the active desktop.
func (s *Screen) HideDesktop() { s.desktops[s.active].hide() }

// CloseDesktop asks every client of the active desktop to close.
func (s *Screen) CloseDesktop() { s.desktops[s.active].close() }

// SelectMode switches the active desktop to mode i (0-based).
func (s *Screen) SelectMode(i int) { s.desktops[s.active].selectMode(i) }

// RotateMode steps the active desktop's mode forward or back.
func (s *Screen) RotateMode(dir int) { s.desktops[s.active].rotateMode(dir) }

// RotateTiles rotates the active desktop's tiled order.
func (s *Screen) RotateTiles(dir int) { s.desktops[s.active].rotateTiles(dir) }

// MasterResize nudges the active desktop's split.
func (s *Screen) MasterResize(dir int) { s.desktops[s.active].masterResize(dir) }

// SwitchToDesktop hides the active desktop and shows desktop i.
func (s *Screen) SwitchToDesktop(i int) {
	if i < 0 || i >= len(s.desktops) || i == s.active {
		return
	}
	s.HideDesktop()
	s.last = s.active
	s.active = i
	s.ShowDesktop()
	s.mgr.x.SetCurrentDesktop(s.root, i)
	s.publishDesktopList()
}

// SwitchToLast returns to the previously active desktop.
func (s *Screen) SwitchToLast() { s.SwitchToDesktop(s.last) }

// ActivateClient brings c forward on request from a pager or the command
// socket, switching to its desktop first.
func (s *Screen) ActivateClient(c *Client) {
	s.SaveActivePointer()
	if c.desktop >= 0 && c.desktop != s.active {
		s.SwitchToDesktop(c.desktop)
	}
	c.Show()
	c.warpPointer()
	c.Activate()
}

// SaveActivePointer remembers the pointer position inside the active
// client so it can be restored when the client is activated again.
func (s *Screen) SaveActivePointer() {
	if c := s.ActiveClient(); c != nil {
		c.savePointer()
	}
}

// CycleDesktops switches to the next non-empty desktop in dir. Without
// one the active desktop stays.
func (s *Screen) CycleDesktops(dir int) {
	n := len(s.desktops)
	for step := 1; step < n; step++ {
		i := ((s.active+dir*step)%n + n) % n
		if !s.desktops[i].empty() {
			s.SwitchToDesktop(i)
			return
		}
	}
}

// beginCycle grabs the keyboard so the release of the held modifier is
// seen, and marks the screen as cycling.
func (s *Screen) beginCycle() *Client {
	c := s.ActiveClient()
	if c == nil {
		return nil
	}
	if err := s.mgr.x.GrabKeyboard(s.root); err != nil {
		s.mgr.log.Debug("keyboard grab refused", "err", err)
		return nil
	}
	s.cycling = true
	return c
}

// CycleWindows activates the next or previous window of the active
// desktop.
func (s *Screen) CycleWindows(dir int) {
	if c := s.beginCycle(); c != nil {
		s.desktops[s.active].cycle(c, dir)
	}
}

// SwapTiles swaps the active client with its neighbor in tiled order.
func (s *Screen) SwapTiles(dir int) {
	if c := s.beginCycle(); c != nil {
		s.desktops[s.active].swapTiles(c, dir)
	}
}

// StopCycling ends a cycle and raises the window it settled on.
func (s *Screen) StopCycling() {
	if !s.cycling {
		return
	}
	s.cycling = false
	if c := s.ActiveClient(); c != nil {
		c.Raise()
	}
}

// UpdateGeometry re-reads the screen size and monitors and republishes
// the desktop geometry properties.
func (s *Screen) UpdateGeometry() {
	x := s.mgr.x
	for _, info := range x.Screens() {
		if info.Root == s.root {
			s.view = geom.Rect{Width: info.Width, Height: info.Height}
		}
	}
	s.work = s.view.Shrink(s.gap)

	s.viewports = s.viewports[:0]
	mons, err := x.Monitors(s.root)
	if err != nil {
		s.mgr.log.Debug("monitor query failed", "err", err)
	}
	for i, r := range mons {
		s.viewports = append(s.viewports, geom.NewViewport(i, r, s.gap))
	}
	if len(s.viewports) == 0 {
		s.viewports = append(s.viewports, geom.NewViewport(0, s.view, s.gap))
	}

	x.SetDesktopGeometry(s.root, s.view.Width, s.view.Height)
	x.SetDesktopViewport(s.root)
	x.SetWorkarea(s.root, len(s.desktops), s.work)
	s.mgr.log.Debug("screen geometry", "screen", s.index, "view", s.view, "monitors", len(s.viewports))
}

// EnsureClientsVisible pulls back clients left outside the screen, e.g.
// after a monitor went away.
func (s *Screen) EnsureClientsVisible() {
	for _, c := range s.Clients() {
		if c.geom.Intersects(s.view, c.border) {
			continue
		}
		c.geom.X = s.gap.Left
		c.geom.Y = s.gap.Top
		if !c.states.Has(Tiled) {
			c.stackGeom.X, c.stackGeom.Y = c.geom.X, c.geom.Y
		}
		c.moveWindow()
	}
}

// HandleScreenChange reacts to a monitor configuration change.
func (s *Screen) HandleScreenChange() {
	s.UpdateGeometry()
	s.EnsureClientsVisible()
	s.ShowDesktop()
}
