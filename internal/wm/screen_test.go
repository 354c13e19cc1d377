package wm

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/platform/platformtest"
)

type recorder struct {
	lines []string
}

func (r *recorder) Publish(line string) { r.lines = append(r.lines, line) }

// last returns the most recent line starting with prefix.
func (r *recorder) last(prefix string) string {
	for i := len(r.lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(r.lines[i], prefix) {
			return r.lines[i]
		}
	}
	return ""
}

type spawned struct {
	commands []string
}

func (s *spawned) Start(command string) error {
	s.commands = append(s.commands, command)
	return nil
}

func startManager(t *testing.T, f *platformtest.Fake, edit func(*config.Config)) (*Manager, *recorder) {
	t.Helper()
	cfg := config.DefaultConfig()
	if edit != nil {
		edit(cfg)
	}
	pub := &recorder{}
	m := New(Options{
		Backend:   f,
		Config:    cfg,
		Publisher: pub,
		Spawner:   &spawned{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return m, pub
}

func mapWindow(t *testing.T, m *Manager, f *platformtest.Fake, id platform.WindowID) *Client {
	t.Helper()
	f.AddWindow(id, platform.WindowInfo{Name: "win", ResName: "test", ResClass: "Test"})
	c := m.Screen(0).AddClient(id)
	if c == nil {
		t.Fatalf("AddClient(%#x) returned nil", id)
	}
	return c
}

func activeCount(s *Screen) int {
	n := 0
	for _, c := range s.Clients() {
		if c.Has(Active) {
			n++
		}
	}
	return n
}

func TestScreen_StartPublishesRootHints(t *testing.T) {
	f := platformtest.New(1000, 800)
	startManager(t, f, nil)

	root := f.Roots[platformtest.RootID]
	if root.WMName != "tilewm" {
		t.Fatalf("WMName = %q", root.WMName)
	}
	if root.NumberOfDesktops != 10 || len(root.DesktopNames) != 10 || root.DesktopNames[0] != "one" {
		t.Fatalf("desktops = %d %v", root.NumberOfDesktops, root.DesktopNames)
	}
	if !root.HasCurrent || root.CurrentDesktop != 0 {
		t.Fatalf("current desktop = %d (set %v)", root.CurrentDesktop, root.HasCurrent)
	}
	if root.DesktopGeometry != [2]int{1000, 800} {
		t.Fatalf("desktop geometry = %v", root.DesktopGeometry)
	}
}

func TestScreen_ExistingRootPropertiesWin(t *testing.T) {
	f := platformtest.New(1000, 800)
	f.Roots[platformtest.RootID].DesktopNames = []string{"web", "mail"}
	f.SetCurrentDesktop(platformtest.RootID, 4)

	m, _ := startManager(t, f, nil)
	s := m.Screen(0)
	if s.Active() != 4 {
		t.Fatalf("active desktop = %d, want 4", s.Active())
	}
	if s.Desktops()[0].Name() != "web" || s.Desktops()[1].Name() != "mail" || s.Desktops()[2].Name() != "three" {
		t.Fatalf("names = %q %q %q", s.Desktops()[0].Name(), s.Desktops()[1].Name(), s.Desktops()[2].Name())
	}
}

func TestScreen_ManagesExistingWindowsOnTheirDesktop(t *testing.T) {
	f := platformtest.New(1000, 800)
	f.AddWindow(0x10, platform.WindowInfo{Viewable: true, HasDesktop: true, NetDesktop: 3})
	f.AddWindow(0x11, platform.WindowInfo{Viewable: true})
	f.AddWindow(0x12, platform.WindowInfo{Viewable: true, OverrideRedirect: true})

	m, _ := startManager(t, f, nil)
	s := m.Screen(0)
	if len(s.Clients()) != 2 {
		t.Fatalf("managed %d windows, want 2", len(s.Clients()))
	}
	c := m.FindClient(0x10)
	if c.Desktop() != 3 || !c.Has(Hidden) || f.Win(c.Frame()).Mapped {
		t.Fatalf("client on desktop %d hidden=%v mapped=%v", c.Desktop(), c.Has(Hidden), f.Win(c.Frame()).Mapped)
	}
	if !c.IgnoreUnmap() || c.IgnoreUnmap() {
		t.Fatalf("IgnoreUnmap should fire exactly once for adopted windows")
	}
	if other := m.FindClient(0x11); other.Desktop() != 0 || !f.Win(other.Frame()).Mapped {
		t.Fatalf("window without desktop should land on the active one")
	}
	if m.FindClient(0x12) != nil {
		t.Fatalf("override-redirect window was managed")
	}
	if got := f.Roots[platformtest.RootID].ClientList; len(got) != 2 || got[0] != 0x10 || got[1] != 0x11 {
		t.Fatalf("client list = %v", got)
	}
}

func TestScreen_AddClientReparentsAndActivates(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, pub := startManager(t, f, nil)

	c := mapWindow(t, m, f, 0x10)
	if f.Win(0x10).Parent != c.Frame() || !f.Win(0x10).InSaveSet {
		t.Fatalf("window not reparented into its frame")
	}
	if !c.Has(Active) || f.Focused != 0x10 || f.Roots[platformtest.RootID].Active != 0x10 {
		t.Fatalf("new window not active: states=%v focused=%#x", c.States(), f.Focused)
	}
	if m.FindClient(c.Frame()) != c {
		t.Fatalf("frame does not resolve to its client")
	}
	if got := pub.last("desktop_list="); got != "desktop_list=+1 " {
		t.Fatalf("desktop list = %q", got)
	}
	if got := pub.last("window_active="); got != "window_active=win" {
		t.Fatalf("title = %q", got)
	}
	if f.Win(0x10).WMState != platform.NormalState {
		t.Fatalf("WM_STATE = %d", f.Win(0x10).WMState)
	}
}

func TestScreen_AppDesktopSwitchesToTarget(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, func(cfg *config.Config) {
		cfg.AppDesktops = []config.AppDesktop{{Match: ":Test", Desktop: 3}}
	})

	c := mapWindow(t, m, f, 0x10)
	if c.Desktop() != 2 || m.Screen(0).Active() != 2 {
		t.Fatalf("desktop = %d active = %d, want 2", c.Desktop(), m.Screen(0).Active())
	}
	if f.Win(0x10).NetDesktop != 2 {
		t.Fatalf("_NET_WM_DESKTOP = %d", f.Win(0x10).NetDesktop)
	}
}

func TestScreen_ExactlyOneActive(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	s := m.Screen(0)

	a := mapWindow(t, m, f, 0x10)
	b := mapWindow(t, m, f, 0x11)
	mapWindow(t, m, f, 0x12)
	if n := activeCount(s); n != 1 {
		t.Fatalf("%d active clients after add", n)
	}
	a.Activate()
	if n := activeCount(s); n != 1 || !a.Has(Active) {
		t.Fatalf("%d active clients after Activate", n)
	}
	b.Hide()
	b.Activate()
	if b.Has(Active) || !a.Has(Active) {
		t.Fatalf("hidden client took focus")
	}
	s.CycleWindows(1)
	s.StopCycling()
	if n := activeCount(s); n != 1 {
		t.Fatalf("%d active clients after cycle", n)
	}
}

func TestScreen_RemoveActiveClearsActiveWindow(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, pub := startManager(t, f, nil)
	s := m.Screen(0)
	s.SwitchToDesktop(2)

	c := mapWindow(t, m, f, 0x10)
	if c.Desktop() != 2 || !c.Has(Active) {
		t.Fatalf("client desktop=%d active=%v", c.Desktop(), c.Has(Active))
	}
	frame := c.Frame()
	s.RemoveClient(c, true)

	if s.ActiveClient() != nil || activeCount(s) != 0 {
		t.Fatalf("a client is still active")
	}
	if f.Roots[platformtest.RootID].Active != platform.None || !f.FocusRoot {
		t.Fatalf("active window = %#x focusRoot = %v", f.Roots[platformtest.RootID].Active, f.FocusRoot)
	}
	if pub.last("no_window_active") == "" {
		t.Fatalf("no_window_active was not published")
	}
	if !f.Win(frame).Destroyed || f.Win(0x10).Parent != platformtest.RootID {
		t.Fatalf("window not handed back to the root")
	}
	if f.Win(0x10).WMState != platform.WithdrawnState || f.Win(0x10).HasDesktop {
		t.Fatalf("withdrawn window kept its WM properties")
	}
	if len(f.Roots[platformtest.RootID].ClientList) != 0 {
		t.Fatalf("client list = %v", f.Roots[platformtest.RootID].ClientList)
	}
}

func TestScreen_CycleDesktopsSkipsEmpty(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	s := m.Screen(0)

	mapWindow(t, m, f, 0x10)
	s.CycleDesktops(1)
	if s.Active() != 0 {
		t.Fatalf("cycled to empty desktop %d", s.Active())
	}

	c := mapWindow(t, m, f, 0x11)
	s.MoveClientToDesktop(c, 6)
	s.CycleDesktops(1)
	if s.Active() != 6 {
		t.Fatalf("active = %d, want 6", s.Active())
	}
	s.CycleDesktops(1)
	if s.Active() != 0 {
		t.Fatalf("active = %d, want wrap to 0", s.Active())
	}
}

func TestScreen_SwitchToDesktopHidesAndShows(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, pub := startManager(t, f, nil)
	s := m.Screen(0)

	c := mapWindow(t, m, f, 0x10)
	s.SwitchToDesktop(1)
	if !c.Has(Hidden) || f.Win(c.Frame()).Mapped {
		t.Fatalf("client still visible after switching away")
	}
	if f.Roots[platformtest.RootID].CurrentDesktop != 1 || s.Last() != 0 {
		t.Fatalf("current=%d last=%d", f.Roots[platformtest.RootID].CurrentDesktop, s.Last())
	}
	if got := pub.last("desktop_list="); got != "desktop_list= 1 +2 " {
		t.Fatalf("desktop list = %q", got)
	}

	before := len(pub.lines)
	s.SwitchToDesktop(1)
	if len(pub.lines) != before {
		t.Fatalf("switching to the active desktop published %v", pub.lines[before:])
	}

	s.SwitchToLast()
	if s.Active() != 0 || c.Has(Hidden) || !f.Win(c.Frame()).Mapped {
		t.Fatalf("client not shown after switching back")
	}
}

func TestScreen_UrgentDesktopToken(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, pub := startManager(t, f, nil)
	s := m.Screen(0)

	c := mapWindow(t, m, f, 0x10)
	s.MoveClientToDesktop(c, 1)
	c.ToggleState(Urgent)
	s.publishDesktopList()
	if got := pub.last("desktop_list="); got != "desktop_list=+1 !2 " {
		t.Fatalf("desktop list = %q", got)
	}
}

func TestScreen_StickyClientFollowsDesktops(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	s := m.Screen(0)

	c := mapWindow(t, m, f, 0x10)
	c.ToggleState(Sticky)
	if c.Desktop() != -1 || f.Win(0x10).NetDesktop != -1 || !c.Has(Sticky) {
		t.Fatalf("sticky client desktop = %d", c.Desktop())
	}
	s.SwitchToDesktop(4)
	if c.Has(Hidden) || !f.Win(c.Frame()).Mapped {
		t.Fatalf("sticky client hidden on desktop switch")
	}
	c.ToggleState(Sticky)
	if c.Desktop() != 4 || c.Has(Sticky) {
		t.Fatalf("unsticky client desktop = %d", c.Desktop())
	}
}

func TestScreen_EnsureClientsVisible(t *testing.T) {
	f := platformtest.New(2000, 800)
	f.MonitorList = nil
	m, _ := startManager(t, f, func(cfg *config.Config) {
		cfg.BorderGap.Top = 20
		cfg.BorderGap.Left = 5
	})
	s := m.Screen(0)
	c := mapWindow(t, m, f, 0x10)
	c.geom.X = 1500
	c.stackGeom = c.geom

	f.ScreenList[0].Width = 1000
	s.HandleScreenChange()
	if c.Geometry().X != 5 || c.Geometry().Y != 20 {
		t.Fatalf("geometry = %+v, want moved to the gap corner", c.Geometry())
	}
	if len(s.Viewports()) != 1 || s.Viewports()[0].View.Width != 1000 {
		t.Fatalf("viewports = %+v", s.Viewports())
	}
	if f.Roots[platformtest.RootID].Workarea.Y != 20 {
		t.Fatalf("workarea = %+v", f.Roots[platformtest.RootID].Workarea)
	}
}

func TestScreen_AreaFollowsPointer(t *testing.T) {
	f := platformtest.New(2000, 800)
	f.MonitorList[0].Width = 1000
	f.MonitorList = append(f.MonitorList, f.MonitorList[0])
	f.MonitorList[1].X = 1000
	m, _ := startManager(t, f, func(cfg *config.Config) { cfg.BorderGap.Top = 30 })
	s := m.Screen(0)

	if got := s.Area(f.Pointer, true); got.X != 0 || got.Y != 30 || got.Width != 1000 || got.Height != 770 {
		t.Fatalf("left area = %+v", got)
	}
	f.Pointer.X = 1500
	if got := s.Area(f.Pointer, false); got.X != 1000 || got.Height != 800 {
		t.Fatalf("right area = %+v", got)
	}
}

func TestManager_ShutdownRestoresStackedGeometry(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, func(cfg *config.Config) { cfg.Desktops[0].Mode = "VTiled" })

	c := mapWindow(t, m, f, 0x10)
	stacked := c.stackGeom
	if !c.Has(Tiled) {
		t.Fatalf("client not tiled: %v", c.States())
	}
	m.Quit()
	m.Shutdown()
	m.Shutdown()

	w := f.Win(0x10)
	if w.Parent != platformtest.RootID || w.Geometry.X != stacked.X || w.Geometry.Y != stacked.Y {
		t.Fatalf("window parent=%#x geometry=%+v, want stacked %+v", w.Parent, w.Geometry, stacked)
	}
	if !f.Closed || !f.FocusRoot || len(f.Roots[platformtest.RootID].Keys) != 0 {
		t.Fatalf("shutdown left display state behind")
	}
	if m.Status() != Quitting {
		t.Fatalf("status = %v", m.Status())
	}
}
