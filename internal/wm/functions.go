package wm

import (
	"fmt"
	"strconv"

	"github.com/1broseidon/tilewm/internal/bindings"
	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
)

type screenFunc func(s *Screen, param string)

type windowFunc func(c *Client, param string)

type callFunc func(m *Manager)

var (
	screenFuncs = map[string]screenFunc{
		"desktop-close":              func(s *Screen, _ string) { s.CloseDesktop() },
		"desktop-hide":               func(s *Screen, _ string) { s.HideDesktop() },
		"desktop-mode-next":          func(s *Screen, _ string) { s.RotateMode(1) },
		"desktop-mode-prev":          func(s *Screen, _ string) { s.RotateMode(-1) },
		"desktop-set-light-theme":    func(s *Screen, _ string) { s.SetTheme("light") },
		"desktop-set-dark-theme":     func(s *Screen, _ string) { s.SetTheme("dark") },
		"desktop-switch-last":        func(s *Screen, _ string) { s.SwitchToLast() },
		"desktop-switch-next":        func(s *Screen, _ string) { s.CycleDesktops(1) },
		"desktop-switch-prev":        func(s *Screen, _ string) { s.CycleDesktops(-1) },
		"activate-client":            activateClient,
		"desktop-window-focus-next":  func(s *Screen, _ string) { s.CycleWindows(1) },
		"desktop-window-focus-prev":  func(s *Screen, _ string) { s.CycleWindows(-1) },
		"desktop-window-rotate-next": func(s *Screen, _ string) { s.RotateTiles(1) },
		"desktop-window-rotate-prev": func(s *Screen, _ string) { s.RotateTiles(-1) },
		"desktop-window-swap-next":   func(s *Screen, _ string) { s.SwapTiles(1) },
		"desktop-window-swap-prev":   func(s *Screen, _ string) { s.SwapTiles(-1) },
		"desktop-window-master-incr": func(s *Screen, _ string) { s.MasterResize(1) },
		"desktop-window-master-decr": func(s *Screen, _ string) { s.MasterResize(-1) },
	}

	windowFuncs = map[string]windowFunc{
		"window-lower": func(c *Client, _ string) {
			c.savePointer()
			c.Lower()
		},
		"window-hide":              func(c *Client, _ string) { c.Hide() },
		"window-raise":             func(c *Client, _ string) { c.Raise() },
		"window-close":             func(c *Client, _ string) { c.Close() },
		"window-snap-up":           func(c *Client, _ string) { c.Snap(geom.North) },
		"window-snap-down":         func(c *Client, _ string) { c.Snap(geom.South) },
		"window-snap-left":         func(c *Client, _ string) { c.Snap(geom.West) },
		"window-snap-right":        func(c *Client, _ string) { c.Snap(geom.East) },
		"window-move":              func(c *Client, _ string) { c.MoveByPointer() },
		"window-move-up":           func(c *Client, _ string) { c.MoveByKeyboard(geom.North) },
		"window-move-down":         func(c *Client, _ string) { c.MoveByKeyboard(geom.South) },
		"window-move-left":         func(c *Client, _ string) { c.MoveByKeyboard(geom.West) },
		"window-move-right":        func(c *Client, _ string) { c.MoveByKeyboard(geom.East) },
		"window-resize":            func(c *Client, _ string) { c.ResizeByPointer() },
		"window-resize-up":         func(c *Client, _ string) { c.ResizeByKeyboard(geom.North) },
		"window-resize-down":       func(c *Client, _ string) { c.ResizeByKeyboard(geom.South) },
		"window-resize-left":       func(c *Client, _ string) { c.ResizeByKeyboard(geom.West) },
		"window-resize-right":      func(c *Client, _ string) { c.ResizeByKeyboard(geom.East) },
		"window-toggle-fullscreen": toggleWindowState(FullScreen),
		"window-toggle-sticky":     toggleWindowState(Sticky),
		"window-toggle-tiled":      toggleWindowState(NoTile),
	}

	callFuncs = map[string]callFunc{
		"terminal": func(m *Manager) { m.launch(m.cfg.ResolveTerminal()) },
		"restart":  func(m *Manager) { m.Restart() },
		"quit":     func(m *Manager) { m.Quit() },
	}
)

func init() {
	for i := 1; i <= 9; i++ {
		mode := i - 1
		f := func(s *Screen, _ string) { s.SelectMode(mode) }
		screenFuncs["desktop-mode-"+strconv.Itoa(i)] = f
		screenFuncs["desktop-layout-"+strconv.Itoa(i)] = f
	}
	screenFuncs["desktop-layout-next"] = screenFuncs["desktop-mode-next"]
	screenFuncs["desktop-layout-prev"] = screenFuncs["desktop-mode-prev"]

	for i := 1; i <= 10; i++ {
		index := i - 1
		screenFuncs["desktop-switch-"+strconv.Itoa(i)] = func(s *Screen, _ string) { s.SwitchToDesktop(index) }
		windowFuncs["window-move-to-desktop-"+strconv.Itoa(i)] = func(c *Client, _ string) {
			c.screen.MoveClientToDesktop(c, index)
		}
	}
}

// toggleWindowState flips flag and relays out the active desktop unless
// the client ended up fullscreen.
func toggleWindowState(flag State) windowFunc {
	return func(c *Client, _ string) {
		c.ToggleState(flag)
		if !c.states.Has(FullScreen) {
			c.screen.ShowDesktop()
		}
	}
}

func activateClient(s *Screen, param string) {
	id, err := strconv.ParseUint(param, 0, 32)
	if err != nil {
		s.mgr.log.Debug("activate-client: bad window id", "param", param, "err", err)
		return
	}
	if c := s.findClient(platform.WindowID(id)); c != nil {
		s.ActivateClient(c)
	}
}

// LookupFunction reports the invocation context of a function name.
func LookupFunction(name string) (bindings.Context, bool) {
	if _, ok := screenFuncs[name]; ok {
		return bindings.ContextScreen, true
	}
	if _, ok := windowFuncs[name]; ok {
		return bindings.ContextWindow, true
	}
	if _, ok := callFuncs[name]; ok {
		return bindings.ContextCall, true
	}
	if name == "exec" {
		return bindings.ContextLaunch, true
	}
	return 0, false
}

// Execute runs a bound action. Window actions without a client are
// dropped.
func (m *Manager) Execute(action bindings.Action, s *Screen, c *Client) {
	m.log.Debug("execute", "action", action.String())
	switch a := action.(type) {
	case bindings.ScreenAction:
		if f := screenFuncs[a.Function]; f != nil && s != nil {
			f(s, a.Param)
		}
	case bindings.WindowAction:
		if f := windowFuncs[a.Function]; f != nil && c != nil {
			f(c, a.Param)
		}
	case bindings.CallAction:
		if f := callFuncs[a.Function]; f != nil {
			f(m)
		}
	case bindings.LaunchAction:
		m.launch(a.Command)
	}
}

// ExecCommand runs a screen function received on the command socket.
func (m *Manager) ExecCommand(screen int, function, param string) error {
	s := m.Screen(screen)
	if s == nil {
		return fmt.Errorf("no screen %d", screen)
	}
	f := screenFuncs[function]
	if f == nil {
		return fmt.Errorf("%w %q", bindings.ErrUnknownFunction, function)
	}
	f(s, param)
	return nil
}

func (m *Manager) launch(command string) {
	if command == "" || m.spawn == nil {
		return
	}
	if err := m.spawn.Start(command); err != nil {
		m.log.Warn("spawn failed", "command", command, "err", err)
	}
}
