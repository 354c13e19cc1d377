package wm

import (
	"errors"
	"slices"
	"testing"

	"github.com/1broseidon/tilewm/internal/bindings"
	"github.com/1broseidon/tilewm/internal/platform/platformtest"
)

func TestLookupFunction_Contexts(t *testing.T) {
	cases := map[string]bindings.Context{
		"desktop-layout-4":          bindings.ContextScreen,
		"desktop-mode-9":            bindings.ContextScreen,
		"desktop-switch-10":         bindings.ContextScreen,
		"activate-client":           bindings.ContextScreen,
		"window-move-to-desktop-10": bindings.ContextWindow,
		"window-toggle-tiled":       bindings.ContextWindow,
		"terminal":                  bindings.ContextCall,
		"exec":                      bindings.ContextLaunch,
	}
	for name, want := range cases {
		got, ok := LookupFunction(name)
		if !ok || got != want {
			t.Fatalf("LookupFunction(%q) = %v %v, want %v", name, got, ok, want)
		}
	}
	if _, ok := LookupFunction("desktop-switch-11"); ok {
		t.Fatalf("desktop-switch-11 should be unknown")
	}
}

func TestDefaultBindings_AllFunctionsResolve(t *testing.T) {
	for _, spec := range append(bindings.DefaultKeys(), bindings.DefaultMouse()...) {
		name, _ := bindings.ParseFunction(spec.Function)
		if _, ok := LookupFunction(name); !ok {
			t.Fatalf("default binding %q uses unknown function %q", spec.Bind, spec.Function)
		}
	}
}

func TestExecCommand_ScreenFunctionsOnly(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)

	if err := m.ExecCommand(0, "desktop-switch-3", ""); err != nil {
		t.Fatalf("ExecCommand: %v", err)
	}
	if m.Screen(0).Active() != 2 {
		t.Fatalf("active desktop = %d", m.Screen(0).Active())
	}
	if err := m.ExecCommand(0, "window-close", ""); !errors.Is(err, bindings.ErrUnknownFunction) {
		t.Fatalf("window function accepted: %v", err)
	}
	if err := m.ExecCommand(3, "desktop-hide", ""); err == nil {
		t.Fatalf("unknown screen accepted")
	}
}

func TestExecCommand_ActivateClientByID(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	a := mapWindow(t, m, f, 0x10)
	mapWindow(t, m, f, 0x11)

	if err := m.ExecCommand(0, "activate-client", "0x10"); err != nil {
		t.Fatalf("ExecCommand: %v", err)
	}
	if !a.Has(Active) {
		t.Fatalf("client not activated")
	}
	if err := m.ExecCommand(0, "activate-client", "bogus"); err != nil {
		t.Fatalf("bad id should be ignored, got %v", err)
	}
}

func TestExecute_DispatchesByContext(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	sp := m.spawn.(*spawned)
	s := m.Screen(0)
	c := mapWindow(t, m, f, 0x10)

	m.Execute(bindings.WindowAction{Function: "window-move-to-desktop-4"}, s, c)
	if c.Desktop() != 3 {
		t.Fatalf("desktop = %d", c.Desktop())
	}
	m.Execute(bindings.WindowAction{Function: "window-close"}, s, nil)
	if len(f.Killed) != 0 {
		t.Fatalf("window action ran without a client")
	}

	m.Execute(bindings.ScreenAction{Function: "desktop-mode-3"}, s, nil)
	if s.Desktops()[0].Mode().String() != "VTiled" {
		t.Fatalf("mode = %v", s.Desktops()[0].Mode())
	}

	m.Execute(bindings.LaunchAction{Command: "rofi -show run"}, s, nil)
	if !slices.Equal(sp.commands, []string{"rofi -show run"}) {
		t.Fatalf("spawned = %v", sp.commands)
	}

	m.Execute(bindings.CallAction{Function: "restart"}, s, nil)
	if m.Status() != Restarting {
		t.Fatalf("status = %v", m.Status())
	}
	m.Execute(bindings.CallAction{Function: "quit"}, s, nil)
	if m.Status() != Quitting {
		t.Fatalf("status = %v", m.Status())
	}
}

func TestExecute_ToggleTiledRelaysOut(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, withMode("VTiled"))
	s := m.Screen(0)
	a := mapWindow(t, m, f, 0x10)
	b := mapWindow(t, m, f, 0x11)

	m.Execute(bindings.WindowAction{Function: "window-toggle-tiled"}, s, b)
	if b.Has(Tiled) || !b.Has(NoTile) {
		t.Fatalf("floated client states %v", b.States())
	}
	if got := a.Geometry(); got.Width != 996 || got.Height != 796 {
		t.Fatalf("remaining tile = %+v, want full area", got)
	}
}

func TestExecute_ThemeSwitchRedrawsBorders(t *testing.T) {
	f := platformtest.New(1000, 800)
	m, _ := startManager(t, f, nil)
	s := m.Screen(0)
	c := mapWindow(t, m, f, 0x10)
	dark := f.Win(c.Frame()).BorderColor

	m.Execute(bindings.ScreenAction{Function: "desktop-set-light-theme"}, s, nil)
	light := f.Win(c.Frame()).BorderColor
	if light == dark || light != 0xffd2b48c {
		t.Fatalf("border color = %#x (was %#x)", light, dark)
	}
}
