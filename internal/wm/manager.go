// Package wm is the window manager core: managed clients, desktops and
// their layouts, screens with their monitors, and the EWMH/ICCCM state
// published for other programs. Every X request goes through a
// platform.Backend; the package itself never blocks on I/O.
package wm

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/tilewm/internal/bindings"
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Publisher receives status lines such as "desktop_list=+1  2 ".
type Publisher interface {
	Publish(line string)
}

// Spawner starts launcher commands without waiting for them.
type Spawner interface {
	Start(command string) error
}

// RunStatus tells the event loop whether to keep going.
type RunStatus int

const (
	Running RunStatus = iota
	Restarting
	Quitting
)

func (s RunStatus) String() string {
	switch s {
	case Restarting:
		return "restarting"
	case Quitting:
		return "quitting"
	default:
		return "running"
	}
}

// Options configures a Manager.
type Options struct {
	Backend   platform.Backend
	Config    *config.Config
	Publisher Publisher
	Spawner   Spawner
	Logger    *slog.Logger
}

// Manager is the process-wide window manager context. It owns the screens
// and the binding table and is driven by the event dispatcher from a
// single goroutine.
type Manager struct {
	x      platform.Backend
	cfg    *config.Config
	pub    Publisher
	spawn  Spawner
	log    *slog.Logger
	binds  *bindings.Table
	modes  []config.ModeSpec
	states []appStateRule
	descs  []appDesktopRule

	screens  []*Screen
	lastTime uint32
	status   RunStatus
	started  bool
	stopped  bool
}

type appStateRule struct {
	match  config.Match
	states State
}

type appDesktopRule struct {
	match config.Match
	index int
}

// New builds a manager. Start must be called before events are fed in.
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m := &Manager{
		x:     opts.Backend,
		pub:   opts.Publisher,
		spawn: opts.Spawner,
		log:   logger,
	}
	m.applyConfig(cfg)
	return m
}

// applyConfig caches everything derived from cfg.
func (m *Manager) applyConfig(cfg *config.Config) {
	m.cfg = cfg
	m.modes = cfg.Modes()
	if len(m.modes) == 0 {
		m.modes = []config.ModeSpec{{Kind: config.ModeStacked}}
	}
	m.binds = bindings.Build(cfg.Keys, cfg.UnbindKeys, cfg.Mouse, cfg.UnbindMouse,
		LookupFunction, m.x, m.log)

	m.states = m.states[:0]
	for _, a := range cfg.AppStates {
		var s State
		for _, name := range a.States {
			if v, ok := AppState(name); ok {
				s |= v
			}
		}
		m.states = append(m.states, appStateRule{match: config.ParseMatch(a.Match), states: s})
	}
	m.descs = m.descs[:0]
	for _, a := range cfg.AppDesktops {
		m.descs = append(m.descs, appDesktopRule{match: config.ParseMatch(a.Match), index: a.Desktop - 1})
	}
}

// Start takes over every screen: root hints, desktops, monitors, key
// grabs, and windows that are already mapped.
func (m *Manager) Start() error {
	if m.started {
		return nil
	}
	infos := m.x.Screens()
	if len(infos) == 0 {
		return fmt.Errorf("no X screens")
	}
	for _, info := range infos {
		s, err := newScreen(m, info)
		if err != nil {
			return fmt.Errorf("screen %d: %w", info.Index, err)
		}
		m.screens = append(m.screens, s)
	}
	m.started = true
	for _, s := range m.screens {
		s.manageExisting()
	}
	m.log.Info("window manager started", "screens", len(m.screens), "desktops", len(m.cfg.Desktops))
	return nil
}

// Shutdown reverts tiled clients to their stacked geometry, hands every
// window back to the root, releases grabs and closes the display. It is
// safe to call more than once.
func (m *Manager) Shutdown() {
	if m.stopped {
		return
	}
	m.stopped = true
	if m.status == Running {
		m.status = Quitting
	}
	for _, s := range m.screens {
		s.teardown()
	}
	m.x.UngrabKeyboard()
	m.x.FocusPointerRoot()
	m.x.Close()
	m.log.Info("window manager stopped", "status", m.status)
}

// Status reports whether the event loop should continue.
func (m *Manager) Status() RunStatus { return m.status }

// Restart asks the event loop to stop and the process to re-exec.
func (m *Manager) Restart() { m.status = Restarting }

// Quit asks the event loop to stop.
func (m *Manager) Quit() { m.status = Quitting }

// Config returns the active configuration.
func (m *Manager) Config() *config.Config { return m.cfg }

// Bindings returns the active binding table.
func (m *Manager) Bindings() *bindings.Table { return m.binds }

// Screens returns the managed screens in X screen order.
func (m *Manager) Screens() []*Screen { return m.screens }

// Screen returns screen i, or nil.
func (m *Manager) Screen(i int) *Screen {
	if i < 0 || i >= len(m.screens) {
		return nil
	}
	return m.screens[i]
}

// ScreenForRoot returns the screen owning root, or nil.
func (m *Manager) ScreenForRoot(root platform.WindowID) *Screen {
	for _, s := range m.screens {
		if s.root == root {
			return s
		}
	}
	return nil
}

// FindClient resolves a client window or its frame to its client.
func (m *Manager) FindClient(win platform.WindowID) *Client {
	if win == platform.None {
		return nil
	}
	for _, s := range m.screens {
		if c := s.findClient(win); c != nil {
			return c
		}
	}
	return nil
}

// SetLastTime records the server time of the latest user event, used for
// WM_TAKE_FOCUS.
func (m *Manager) SetLastTime(t uint32) {
	if t != 0 {
		m.lastTime = t
	}
}

// ConfigureRequest applies a client's geometry request. Requests from
// windows the manager does not own are passed through.
func (m *Manager) ConfigureRequest(req platform.ConfigureRequest) {
	if c := m.FindClient(req.Window); c != nil {
		c.Configure(req)
		return
	}
	m.x.ConfigureUnmanaged(req)
}

// Reconfigure swaps in a new configuration: bindings are rebuilt and
// regrabbed, borders and the theme are redrawn. The desktop count and
// names stay as they were at startup.
func (m *Manager) Reconfigure(cfg *config.Config) {
	m.applyConfig(cfg)
	for _, s := range m.screens {
		s.theme = cfg.Theme
		s.loadPalette()
		s.gap = cfg.BorderGap
		s.UpdateGeometry()
		s.GrabKeys()
		for _, c := range s.Clients() {
			c.grabButtons()
			c.DrawBorder()
		}
		s.ShowDesktop()
	}
	m.log.Info("configuration reloaded", "keys", len(m.binds.Keys()), "buttons", len(m.binds.Buttons()))
}

// RegrabKeys refreshes the keyboard mapping and grabs again, e.g. after
// a MappingNotify.
func (m *Manager) RegrabKeys() {
	m.x.RefreshKeyboard()
	for _, s := range m.screens {
		s.GrabKeys()
	}
}

func (m *Manager) publish(line string) {
	if m.pub != nil {
		m.pub.Publish(line)
	}
}

// appDefaults returns configured states and desktop (-1 if none) for a
// window with the given WM_CLASS.
func (m *Manager) appDefaults(name, class string) (State, int) {
	var states State
	index := -1
	for _, r := range m.states {
		if r.match.Matches(name, class) {
			states |= r.states
		}
	}
	for _, r := range m.descs {
		if r.match.Matches(name, class) {
			index = r.index
		}
	}
	return states, index
}
