package config

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if len(cfg.Desktops) != 10 || cfg.Desktops[0].Name != "one" || cfg.Desktops[9].Name != "ten" {
		t.Fatalf("unexpected default desktops: %+v", cfg.Desktops)
	}
	if cfg.StackedBorder != 4 || cfg.TiledBorder != 2 || cfg.MoveAmount != 10 || cfg.SnapDistance != 9 {
		t.Fatalf("unexpected default geometry settings: %+v", cfg)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.WMName != "tilewm" || len(res.Files) != 0 {
		t.Fatalf("expected defaults, got %+v files=%v", res.Config, res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Theme != "dark" {
		t.Fatalf("expected theme dark, got %q", res.Config.Theme)
	}
}

func TestLoadFromPath_OverridesScalarsAndDesktops(t *testing.T) {
	data := strings.Join([]string{
		"stacked_border: 1",
		"border_gap:",
		"  top: 24",
		"desktop_modes: [Stacked, VTiled, 2x3]",
		"desktops:",
		"  - name: web",
		"    mode: 2x3",
		"    split: 0.6",
		"  - mode: VTiled",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.StackedBorder != 1 || cfg.TiledBorder != 2 {
		t.Fatalf("borders = %d/%d", cfg.StackedBorder, cfg.TiledBorder)
	}
	if cfg.BorderGap.Top != 24 || cfg.BorderGap.Left != 0 {
		t.Fatalf("border_gap = %+v", cfg.BorderGap)
	}
	if len(cfg.Desktops) != 2 {
		t.Fatalf("desktops = %+v", cfg.Desktops)
	}
	if cfg.Desktops[1].Name != "two" || cfg.Desktops[1].Split != 0.5 {
		t.Fatalf("second desktop should inherit defaults, got %+v", cfg.Desktops[1])
	}
	if got := cfg.ModeIndex(cfg.Desktops[0]); got != 2 {
		t.Fatalf("ModeIndex(web) = %d, want 2", got)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), "config.yaml") {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceLine(t *testing.T) {
	data := "desktops:\n  - name: a\n    split: 0.95\n"
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "desktops.0.split" {
		t.Fatalf("path = %q", verr.Path)
	}
	if verr.Source.Line != 3 {
		t.Fatalf("source line = %d, want 3 (%v)", verr.Source.Line, err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "conf.d/10-a.yaml", "move_amount: 20\nsnap_distance: 3\n")
	writeConfig(t, dir, "conf.d/20-b.yaml", "move_amount: 30\n")
	path := writeConfig(t, dir, "config.yaml", "include: conf.d\nsnap_distance: 5\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.MoveAmount != 30 {
		t.Fatalf("move_amount = %d, want 30 (later include wins)", res.Config.MoveAmount)
	}
	if res.Config.SnapDistance != 5 {
		t.Fatalf("snap_distance = %d, want 5 (main file wins)", res.Config.SnapDistance)
	}
	if len(res.Files) != 3 || !strings.HasSuffix(res.Files[2], "config.yaml") {
		t.Fatalf("files = %v", res.Files)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestLoadFromPath_KeysAndAppRules(t *testing.T) {
	data := strings.Join([]string{
		"unbind_keys: [all]",
		"keys:",
		"  - bind: C-Return",
		"    function: exec",
		"    command: alacritty -e tmux",
		"app_desktops:",
		"  - match: \":Firefox\"",
		"    desktop: 2",
		"app_states:",
		"  - match: \"xclock:\"",
		"    states: [float, sticky]",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if len(cfg.Keys) != 1 || cfg.Keys[0].Command != "alacritty -e tmux" {
		t.Fatalf("keys = %+v", cfg.Keys)
	}
	if !ParseMatch(cfg.AppDesktops[0].Match).Matches("Navigator", "Firefox") {
		t.Fatalf("class-only match should ignore the name")
	}
	if ParseMatch(cfg.AppStates[0].Match).Matches("xterm", "XTerm") {
		t.Fatalf("name match should reject other names")
	}
}

func TestLoadFromPath_RejectsUnknownAppState(t *testing.T) {
	data := "app_states:\n  - match: \"a:b\"\n    states: [floating]\n"
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	if _, err := LoadFromPath(path); err == nil || !strings.Contains(err.Error(), "floating") {
		t.Fatalf("expected unknown state error, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("3x2")
	if err != nil || m.Kind != ModeGrid || m.Rows != 3 || m.Cols != 2 {
		t.Fatalf("ParseMode(3x2) = %+v, %v", m, err)
	}
	if m, err := ParseMode("vtiled"); err != nil || m.Kind != ModeVTiled {
		t.Fatalf("ParseMode(vtiled) = %+v, %v", m, err)
	}
	for _, bad := range []string{"0x2", "10x1", "3-2", "Spiral"} {
		if _, err := ParseMode(bad); err == nil {
			t.Fatalf("ParseMode(%q) should fail", bad)
		}
	}
}

func TestParseColor(t *testing.T) {
	px, err := ParseColor("#228b22")
	if err != nil || px != 0x228b22 {
		t.Fatalf("ParseColor = %#x, %v", px, err)
	}
	if _, err := ParseColor("green"); err == nil {
		t.Fatalf("expected error for color name")
	}
}

func TestExplain_SourceAndDefault(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "theme: light\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	v, src, err := Explain(res, "theme")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if v != "light" || src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("theme = %v from %+v", v, src)
	}

	v, src, err = Explain(res, "desktops.2.name")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if v != "three" || src.Kind != SourceDefault {
		t.Fatalf("desktops.2.name = %v from %+v", v, src)
	}

	if _, _, err := Explain(res, "nope.nested"); err == nil {
		t.Fatalf("expected error for unknown path")
	}
}

func TestResolveTerminal_ConfiguredEnvFallbackOrder(t *testing.T) {
	origLookPath := execLookPath
	t.Cleanup(func() { execLookPath = origLookPath })

	installedSet := map[string]bool{"alacritty": true, "kitty": true, "xterm": true}
	execLookPath = func(file string) (string, error) {
		if installedSet[file] {
			return "/usr/bin/" + file, nil
		}
		return "", exec.ErrNotFound
	}

	cfg := DefaultConfig()
	cfg.Terminal = "alacritty -e tmux"
	t.Setenv("TERMINAL", "kitty")
	if got := cfg.ResolveTerminal(); got != "alacritty -e tmux" {
		t.Fatalf("expected configured terminal, got %q", got)
	}

	cfg.Terminal = "ghostty"
	if got := cfg.ResolveTerminal(); got != "kitty" {
		t.Fatalf("expected $TERMINAL, got %q", got)
	}

	t.Setenv("TERMINAL", "")
	delete(installedSet, "kitty")
	if got := cfg.ResolveTerminal(); got != "alacritty" {
		t.Fatalf("expected first installed fallback, got %q", got)
	}
}
