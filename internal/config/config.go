package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/1broseidon/tilewm/internal/bindings"
	"github.com/1broseidon/tilewm/internal/geom"
	"gopkg.in/yaml.v3"
)

// ModeKind names a desktop layout mode.
type ModeKind string

const (
	ModeStacked ModeKind = "Stacked"
	ModeMonocle ModeKind = "Monocle"
	ModeVTiled  ModeKind = "VTiled"
	ModeHTiled  ModeKind = "HTiled"
	ModeGrid    ModeKind = "Grid"
)

// ModeSpec is a parsed desktop_modes entry. Rows and Cols are set for Grid.
type ModeSpec struct {
	Kind ModeKind
	Rows int
	Cols int
}

func (m ModeSpec) String() string {
	if m.Kind == ModeGrid {
		return fmt.Sprintf("%dx%d", m.Rows, m.Cols)
	}
	return string(m.Kind)
}

// ParseMode accepts Stacked, Monocle, VTiled, HTiled or "RxC" where R and C
// are single digits 1..9.
func ParseMode(s string) (ModeSpec, error) {
	s = strings.TrimSpace(s)
	for _, k := range []ModeKind{ModeStacked, ModeMonocle, ModeVTiled, ModeHTiled} {
		if strings.EqualFold(s, string(k)) {
			return ModeSpec{Kind: k}, nil
		}
	}
	if len(s) == 3 && (s[1] == 'x' || s[1] == 'X') {
		rows, rerr := strconv.Atoi(s[:1])
		cols, cerr := strconv.Atoi(s[2:])
		if rerr == nil && cerr == nil && rows >= 1 && cols >= 1 {
			return ModeSpec{Kind: ModeGrid, Rows: rows, Cols: cols}, nil
		}
	}
	return ModeSpec{}, fmt.Errorf("invalid mode %q (want Stacked, Monocle, VTiled, HTiled or RxC)", s)
}

// Desktop configures one virtual desktop. An empty Mode selects the first
// entry of desktop_modes.
type Desktop struct {
	Name  string  `yaml:"name"`
	Mode  string  `yaml:"mode,omitempty"`
	Split float64 `yaml:"split"`
}

// Palette holds border colors as #rrggbb.
type Palette struct {
	Active   string `yaml:"active"`
	Inactive string `yaml:"inactive"`
	Urgent   string `yaml:"urgent"`
}

type Colors struct {
	Dark  Palette `yaml:"dark"`
	Light Palette `yaml:"light"`
}

// AppDesktop sends windows matching "name:class" to a 1-based desktop.
type AppDesktop struct {
	Match   string `yaml:"match"`
	Desktop int    `yaml:"desktop"`
}

// AppStates applies default states to windows matching "name:class".
type AppStates struct {
	Match  string   `yaml:"match"`
	States []string `yaml:"states"`
}

// AppStateNames are the accepted app_states entries.
var AppStateNames = []string{"docked", "float", "frozen", "ignored", "noborder", "noresize", "sticky"}

// Config holds the window manager configuration.
type Config struct {
	LogLevel       string `yaml:"log_level"`
	LogFile        string `yaml:"log_file,omitempty"`
	LogMaxSizeMB   int    `yaml:"log_max_size_mb"`
	LogMaxFiles    int    `yaml:"log_max_files"`
	WMName         string `yaml:"wm_name"`
	Terminal       string `yaml:"terminal"`
	StartupScript  string `yaml:"startup_script,omitempty"`
	ShutdownScript string `yaml:"shutdown_script,omitempty"`
	MessageSocket  string `yaml:"message_socket,omitempty"`
	CommandSocket  string `yaml:"command_socket,omitempty"`
	StatusHTTP     string `yaml:"status_http,omitempty"`

	StackedBorder int            `yaml:"stacked_border"`
	TiledBorder   int            `yaml:"tiled_border"`
	MoveAmount    int            `yaml:"move_amount"`
	SnapDistance  int            `yaml:"snap_distance"`
	BorderGap     geom.BorderGap `yaml:"border_gap"`

	DesktopModes []string  `yaml:"desktop_modes"`
	Desktops     []Desktop `yaml:"desktops"`
	Theme        string    `yaml:"theme"`
	Colors       Colors    `yaml:"colors"`

	Keys        []bindings.Spec `yaml:"keys,omitempty"`
	UnbindKeys  []string        `yaml:"unbind_keys,omitempty"`
	Mouse       []bindings.Spec `yaml:"mouse,omitempty"`
	UnbindMouse []string        `yaml:"unbind_mouse,omitempty"`

	AppDesktops []AppDesktop `yaml:"app_desktops,omitempty"`
	AppStates   []AppStates  `yaml:"app_states,omitempty"`
}

var defaultDesktopNames = []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

func DefaultConfig() *Config {
	desktops := make([]Desktop, len(defaultDesktopNames))
	for i, name := range defaultDesktopNames {
		desktops[i] = Desktop{Name: name, Split: 0.5}
	}
	return &Config{
		LogLevel:      "info",
		LogMaxSizeMB:  10,
		LogMaxFiles:   3,
		WMName:        "tilewm",
		Terminal:      "xterm",
		StackedBorder: 4,
		TiledBorder:   2,
		MoveAmount:    10,
		SnapDistance:  9,
		DesktopModes:  []string{"Stacked", "Monocle", "VTiled", "HTiled"},
		Desktops:      desktops,
		Theme:         "dark",
		Colors: Colors{
			Dark:  Palette{Active: "#228b22", Inactive: "#2f4f4f", Urgent: "#ff8c00"},
			Light: Palette{Active: "#d2b48c", Inactive: "#6c7b8b", Urgent: "#ffa500"},
		},
	}
}

// DefaultConfigPath is $XDG_CONFIG_HOME/tilewm/config.yaml, falling back to
// ~/.config/tilewm/config.yaml.
func DefaultConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, "tilewm", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "tilewm", "config.yaml"), nil
}

// Modes parses desktop_modes. Validate guarantees it succeeds.
func (c *Config) Modes() []ModeSpec {
	out := make([]ModeSpec, 0, len(c.DesktopModes))
	for _, s := range c.DesktopModes {
		if m, err := ParseMode(s); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// ModeIndex returns the position of a desktop's mode in desktop_modes.
func (c *Config) ModeIndex(d Desktop) int {
	if strings.TrimSpace(d.Mode) == "" || strings.EqualFold(d.Mode, "default") {
		return 0
	}
	want, err := ParseMode(d.Mode)
	if err != nil {
		return 0
	}
	for i, m := range c.Modes() {
		if m == want {
			return i
		}
	}
	return 0
}

// ActivePalette returns the palette of the configured theme.
func (c *Config) ActivePalette() Palette {
	if c.Theme == "light" {
		return c.Colors.Light
	}
	return c.Colors.Dark
}

// ParseColor converts #rrggbb to a 24-bit TrueColor pixel.
func ParseColor(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("color %q must be #rrggbb", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return uint32(v), nil
}

// Match is a parsed "name:class" window matcher. Empty parts match anything.
type Match struct {
	Name  string
	Class string
}

func ParseMatch(s string) Match {
	name, class, _ := strings.Cut(s, ":")
	return Match{Name: strings.TrimSpace(name), Class: strings.TrimSpace(class)}
}

func (m Match) Matches(name, class string) bool {
	if m.Name != "" && m.Name != name {
		return false
	}
	if m.Class != "" && m.Class != class {
		return false
	}
	return true
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.LogMaxSizeMB < 0 {
		return &ValidationError{Path: "log_max_size_mb", Err: fmt.Errorf("log_max_size_mb must be >= 0")}
	}
	if c.LogMaxFiles < 0 {
		return &ValidationError{Path: "log_max_files", Err: fmt.Errorf("log_max_files must be >= 0")}
	}
	if strings.TrimSpace(c.WMName) == "" {
		return &ValidationError{Path: "wm_name", Err: fmt.Errorf("wm_name is required")}
	}
	if strings.TrimSpace(c.Terminal) == "" {
		return &ValidationError{Path: "terminal", Err: fmt.Errorf("terminal is required")}
	}
	if c.StackedBorder < 0 {
		return &ValidationError{Path: "stacked_border", Err: fmt.Errorf("stacked_border must be >= 0")}
	}
	if c.TiledBorder < 0 {
		return &ValidationError{Path: "tiled_border", Err: fmt.Errorf("tiled_border must be >= 0")}
	}
	if c.MoveAmount <= 0 {
		return &ValidationError{Path: "move_amount", Err: fmt.Errorf("move_amount must be > 0")}
	}
	if c.SnapDistance < 0 {
		return &ValidationError{Path: "snap_distance", Err: fmt.Errorf("snap_distance must be >= 0")}
	}
	g := c.BorderGap
	if g.Top < 0 || g.Bottom < 0 || g.Left < 0 || g.Right < 0 {
		return &ValidationError{Path: "border_gap", Err: fmt.Errorf("border_gap values must be >= 0")}
	}

	if len(c.DesktopModes) == 0 {
		return &ValidationError{Path: "desktop_modes", Err: fmt.Errorf("desktop_modes must not be empty")}
	}
	for _, s := range c.DesktopModes {
		if _, err := ParseMode(s); err != nil {
			return &ValidationError{Path: "desktop_modes", Err: err}
		}
	}

	if len(c.Desktops) == 0 {
		return &ValidationError{Path: "desktops", Err: fmt.Errorf("desktops must not be empty")}
	}
	modes := c.Modes()
	for i, d := range c.Desktops {
		path := fmt.Sprintf("desktops.%d", i)
		if strings.TrimSpace(d.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("desktop name is required")}
		}
		if d.Split < 0.1 || d.Split > 0.9 {
			return &ValidationError{Path: path + ".split", Err: fmt.Errorf("split must be within [0.1, 0.9]")}
		}
		if m := strings.TrimSpace(d.Mode); m != "" && !strings.EqualFold(m, "default") {
			want, err := ParseMode(m)
			if err != nil {
				return &ValidationError{Path: path + ".mode", Err: err}
			}
			found := false
			for _, have := range modes {
				found = found || have == want
			}
			if !found {
				return &ValidationError{Path: path + ".mode", Err: fmt.Errorf("mode %q is not listed in desktop_modes", m)}
			}
		}
	}

	if c.Theme != "dark" && c.Theme != "light" {
		return &ValidationError{Path: "theme", Err: fmt.Errorf("theme must be one of: dark, light")}
	}
	for name, p := range map[string]Palette{"dark": c.Colors.Dark, "light": c.Colors.Light} {
		for field, v := range map[string]string{"active": p.Active, "inactive": p.Inactive, "urgent": p.Urgent} {
			if _, err := ParseColor(v); err != nil {
				return &ValidationError{Path: "colors." + name + "." + field, Err: err}
			}
		}
	}

	for i, s := range c.Keys {
		if _, _, err := bindings.SplitCombo(s.Bind); err != nil {
			return &ValidationError{Path: fmt.Sprintf("keys.%d.bind", i), Err: err}
		}
		if strings.TrimSpace(s.Function) == "" {
			return &ValidationError{Path: fmt.Sprintf("keys.%d.function", i), Err: fmt.Errorf("function is required")}
		}
	}
	for i, s := range c.Mouse {
		if _, _, err := bindings.SplitCombo(s.Bind); err != nil {
			return &ValidationError{Path: fmt.Sprintf("mouse.%d.bind", i), Err: err}
		}
	}

	for i, a := range c.AppDesktops {
		if a.Desktop < 1 || a.Desktop > len(c.Desktops) {
			return &ValidationError{Path: fmt.Sprintf("app_desktops.%d.desktop", i), Err: fmt.Errorf("desktop must be within 1..%d", len(c.Desktops))}
		}
	}
	for i, a := range c.AppStates {
		for _, s := range a.States {
			if !validAppState(s) {
				return &ValidationError{
					Path: fmt.Sprintf("app_states.%d.states", i),
					Err:  fmt.Errorf("unknown state %q (want one of: %s)", s, strings.Join(AppStateNames, ", ")),
				}
			}
		}
	}
	return nil
}

func validAppState(s string) bool {
	for _, name := range AppStateNames {
		if s == name {
			return true
		}
	}
	return false
}
