package wm

import (
	"slices"
	"testing"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/platform/platformtest"
)

func withMode(mode string) func(*config.Config) {
	return func(cfg *config.Config) {
		if !slices.Contains(cfg.DesktopModes, mode) {
			cfg.DesktopModes = append(cfg.DesktopModes, mode)
		}
		cfg.Desktops[0].Mode = mode
	}
}

func TestDesktop_VTiledSplitsMasterAndStack(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, pub := startManager(t, f, withMode("VTiled"))

	a := mapWindow(t, m, f, 0x10)
	b := mapWindow(t, m, f, 0x11)
	c := mapWindow(t, m, f, 0x12)

	want := map[*Client]geom.Rect{
		c: {X: 0, Y: 0, Width: 496, Height: 796},
		b: {X: 500, Y: 0, Width: 496, Height: 396},
		a: {X: 500, Y: 400, Width: 496, Height: 396},
	}
	for cl, r := range want {
		if cl.Geometry() != r {
			t.Fatalf("%#x geometry = %+v, want %+v", cl.Window(), cl.Geometry(), r)
		}
		if cl.Border() != 2 || !cl.Has(Tiled|Frozen) {
			t.Fatalf("%#x border=%d states=%v", cl.Window(), cl.Border(), cl.States())
		}
		if f.Win(cl.Frame()).Geometry != r {
			t.Fatalf("%#x frame geometry = %+v", cl.Window(), f.Win(cl.Frame()).Geometry)
		}
	}
	if !c.Has(VMaximized) || b.Has(VMaximized) {
		t.Fatalf("master marker: master=%v slave=%v", c.States(), b.States())
	}
	if got := pub.last("desktop_mode="); got != "desktop_mode=VTiled" {
		t.Fatalf("mode status = %q", got)
	}
}

func TestDesktop_HTiledSplitsMasterAndStack(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, withMode("HTiled"))

	a := mapWindow(t, m, f, 0x10)
	b := mapWindow(t, m, f, 0x11)

	if got := b.Geometry(); got != (geom.Rect{X: 0, Y: 0, Width: 996, Height: 396}) {
		t.Fatalf("master = %+v", got)
	}
	if got := a.Geometry(); got != (geom.Rect{X: 0, Y: 400, Width: 996, Height: 396}) {
		t.Fatalf("slave = %+v", got)
	}
	if !b.Has(HMaximized) || a.Has(HMaximized) {
		t.Fatalf("master marker: master=%v slave=%v", b.States(), a.States())
	}
}

func TestDesktop_SingleTiledWindowFillsArea(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, func(cfg *config.Config) {
		withMode("VTiled")(cfg)
		cfg.BorderGap = geom.BorderGap{Top: 20}
	})

	a := mapWindow(t, m, f, 0x10)
	if got := a.Geometry(); got != (geom.Rect{X: 0, Y: 20, Width: 996, Height: 776}) {
		t.Fatalf("geometry = %+v", got)
	}
}

func TestDesktop_MonocleShowsOnlyHead(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, withMode("Monocle"))
	s := m.Screen(0)

	for id := platform.WindowID(0x10); id < 0x13; id++ {
		mapWindow(t, m, f, id)
	}
	d := s.Desktops()[0]

	check := func(step string) {
		t.Helper()
		var visible []platform.WindowID
		for _, c := range d.tiled() {
			if !c.Has(Hidden) {
				visible = append(visible, c.Window())
			}
		}
		if len(visible) != 1 || visible[0] != d.Tiles()[0] {
			t.Fatalf("%s: visible = %v, head = %#x", step, visible, d.Tiles()[0])
		}
		head := m.FindClient(visible[0])
		if head.Geometry() != (geom.Rect{Width: 996, Height: 796}) || !head.Has(Maximized) {
			t.Fatalf("%s: head geometry %+v states %v", step, head.Geometry(), head.States())
		}
	}
	check("after add")
	s.RotateTiles(1)
	check("after rotate")
	m.FindClient(0x10).ToggleState(NoTile)
	s.ShowDesktop()
	check("after float")
}

func TestDesktop_MonocleFullscreenHeadStaysOnlyVisible(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, withMode("Monocle"))
	s := m.Screen(0)
	for id := platform.WindowID(0x10); id < 0x13; id++ {
		mapWindow(t, m, f, id)
	}
	d := s.Desktops()[0]

	visible := func() []platform.WindowID {
		var out []platform.WindowID
		for _, c := range d.tileClients() {
			if !c.Has(Hidden) {
				out = append(out, c.Window())
			}
		}
		return out
	}

	head := m.FindClient(d.Tiles()[0])
	head.ToggleState(FullScreen)
	s.ShowDesktop()
	if got := visible(); len(got) != 1 || got[0] != head.Window() {
		t.Fatalf("fullscreen head: visible = %v, head = %#x", got, head.Window())
	}
	if !head.Has(FullScreen) || head.Geometry() != (geom.Rect{Width: 1000, Height: 800}) {
		t.Fatalf("head lost fullscreen: %+v %v", head.Geometry(), head.States())
	}

	mapWindow(t, m, f, 0x13)
	if got := visible(); len(got) != 1 || got[0] != 0x13 || d.Tiles()[0] != 0x13 {
		t.Fatalf("after add: visible = %v, tiles = %v", got, d.Tiles())
	}
	if !head.Has(Hidden) {
		t.Fatalf("covered fullscreen client still shown: %v", head.States())
	}
}

func TestDesktop_MonoclePromotesActiveClient(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	s := m.Screen(0)

	a := mapWindow(t, m, f, 0x10)
	mapWindow(t, m, f, 0x11)
	a.Activate()

	s.SelectMode(1)
	d := s.Desktops()[0]
	if d.Mode().Kind != config.ModeMonocle {
		t.Fatalf("mode = %v", d.Mode())
	}
	if d.Tiles()[0] != 0x10 || a.Has(Hidden) {
		t.Fatalf("active client not promoted: tiles=%v", d.Tiles())
	}
}

func TestDesktop_GridHidesOverflow(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, pub := startManager(t, f, withMode("1x2"))

	a := mapWindow(t, m, f, 0x10)
	b := mapWindow(t, m, f, 0x11)
	c := mapWindow(t, m, f, 0x12)

	if got := c.Geometry(); got != (geom.Rect{X: 0, Y: 0, Width: 496, Height: 796}) {
		t.Fatalf("first cell = %+v", got)
	}
	if got := b.Geometry(); got != (geom.Rect{X: 500, Y: 0, Width: 496, Height: 796}) {
		t.Fatalf("second cell = %+v", got)
	}
	if !a.Has(Hidden) || f.Win(a.Frame()).Mapped {
		t.Fatalf("overflow window visible: %v", a.States())
	}
	if got := pub.last("desktop_mode="); got != "desktop_mode=1x2" {
		t.Fatalf("mode status = %q", got)
	}
}

func TestDesktop_NewTiledWindowBecomesMaster(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, withMode("VTiled"))

	mapWindow(t, m, f, 0x10)
	mapWindow(t, m, f, 0x11)
	d := m.Screen(0).Desktops()[0]
	if got := d.Tiles(); !slices.Equal(got, []platform.WindowID{0x11, 0x10}) {
		t.Fatalf("tiles = %v", got)
	}
}

func TestDesktop_NoTileWindowsStayOutOfTiles(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, withMode("VTiled"))

	f.AddWindow(0x10, platform.WindowInfo{Types: []string{"_NET_WM_WINDOW_TYPE_DIALOG"}})
	dialog := m.Screen(0).AddClient(0x10)
	mapWindow(t, m, f, 0x11)

	d := m.Screen(0).Desktops()[0]
	if slices.Contains(d.Tiles(), dialog.Window()) || dialog.Has(Tiled) {
		t.Fatalf("dialog was tiled: tiles=%v states=%v", d.Tiles(), dialog.States())
	}
	dialog.ToggleState(NoTile)
	if !slices.Contains(d.Tiles(), dialog.Window()) {
		t.Fatalf("toggle tiled did not add the window")
	}
	dialog.ToggleState(NoTile)
	if slices.Contains(d.Tiles(), dialog.Window()) || dialog.Has(Tiled) {
		t.Fatalf("toggle floating left the window tiled")
	}
}

func TestDesktop_MasterResizeClampsSplit(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, withMode("VTiled"))
	s := m.Screen(0)
	d := s.Desktops()[0]

	for range 100 {
		s.MasterResize(1)
	}
	if d.Split() != maxSplit {
		t.Fatalf("split = %v, want %v", d.Split(), maxSplit)
	}
	for range 200 {
		s.MasterResize(-1)
	}
	if d.Split() != minSplit {
		t.Fatalf("split = %v, want %v", d.Split(), minSplit)
	}

	s.SelectMode(0)
	s.MasterResize(1)
	if d.Split() != minSplit {
		t.Fatalf("stacked mode changed split to %v", d.Split())
	}
}

func TestDesktop_ConfiguredSplitIsClamped(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, func(cfg *config.Config) { cfg.Desktops[1].Split = 2 })
	if got := m.Screen(0).Desktops()[1].Split(); got != maxSplit {
		t.Fatalf("split = %v", got)
	}
}

func TestDesktop_RotateModeWraps(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	s := m.Screen(0)
	d := s.Desktops()[0]

	s.RotateMode(-1)
	if d.Mode().Kind != config.ModeHTiled {
		t.Fatalf("mode = %v, want HTiled", d.Mode())
	}
	s.RotateMode(1)
	if d.Mode().Kind != config.ModeStacked {
		t.Fatalf("mode = %v, want Stacked", d.Mode())
	}
	s.SelectMode(42)
	if d.Mode().Kind != config.ModeStacked {
		t.Fatalf("out of range mode selected")
	}
}

func TestDesktop_RotateTiles(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, withMode("VTiled"))
	s := m.Screen(0)
	for id := platform.WindowID(0x10); id < 0x13; id++ {
		mapWindow(t, m, f, id)
	}
	d := s.Desktops()[0]

	s.RotateTiles(1)
	if got := d.Tiles(); !slices.Equal(got, []platform.WindowID{0x11, 0x10, 0x12}) {
		t.Fatalf("rotate next = %v", got)
	}
	s.RotateTiles(-1)
	if got := d.Tiles(); !slices.Equal(got, []platform.WindowID{0x12, 0x11, 0x10}) {
		t.Fatalf("rotate prev = %v", got)
	}
	if got := m.FindClient(0x12).Geometry(); got.X != 0 || got.Width != 496 {
		t.Fatalf("master after rotation = %+v", got)
	}
}

func TestDesktop_SwapTilesGrabsUntilRelease(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, withMode("VTiled"))
	s := m.Screen(0)
	a := mapWindow(t, m, f, 0x10)
	b := mapWindow(t, m, f, 0x11)

	s.SwapTiles(1)
	if got := s.Desktops()[0].Tiles(); !slices.Equal(got, []platform.WindowID{0x10, 0x11}) {
		t.Fatalf("tiles = %v", got)
	}
	if !s.IsCycling() || !f.KeyboardGrabbed {
		t.Fatalf("swap did not start a keyboard grab")
	}
	if b.Geometry().X != 500 || a.Geometry().X != 0 {
		t.Fatalf("geometries not swapped: a=%+v b=%+v", a.Geometry(), b.Geometry())
	}
	if !b.Geometry().Contains(f.Pointer, geom.Root) {
		t.Fatalf("pointer %+v not inside swapped client %+v", f.Pointer, b.Geometry())
	}
	s.StopCycling()
	if s.IsCycling() {
		t.Fatalf("still cycling")
	}
}

func TestDesktop_CycleReachesStickyClients(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	s := m.Screen(0)

	a := mapWindow(t, m, f, 0x10)
	sticky := mapWindow(t, m, f, 0x11)
	sticky.ToggleState(Sticky)
	c := mapWindow(t, m, f, 0x12)
	if sticky.Desktop() != -1 || !c.Has(Active) {
		t.Fatalf("setup: desktop %d, active %v", sticky.Desktop(), c.States())
	}

	s.CycleWindows(1)
	if !sticky.Has(Active) {
		t.Fatalf("cycle skipped the sticky client; a=%v", a.States())
	}
	s.CycleWindows(1)
	if !a.Has(Active) {
		t.Fatalf("cycle from the sticky client did not move on")
	}
	s.StopCycling()
}

func TestDesktop_CycleSkipsHiddenAndIgnored(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	s := m.Screen(0)

	a := mapWindow(t, m, f, 0x10)
	f.AddWindow(0x11, platform.WindowInfo{})
	ignored := s.AddClient(0x11)
	ignored.ToggleState(SkipPager)
	ignored.ToggleState(SkipTaskbar)
	c := mapWindow(t, m, f, 0x12)
	if !c.Has(Active) {
		t.Fatalf("last mapped window not active")
	}

	s.CycleWindows(1)
	if !a.Has(Active) || ignored.Has(Active) {
		t.Fatalf("cycle landed on %v / ignored %v", a.States(), ignored.States())
	}
	s.StopCycling()

	f.GrabFails = true
	s.CycleWindows(1)
	if !a.Has(Active) || s.IsCycling() {
		t.Fatalf("cycle ran without a keyboard grab")
	}
}
