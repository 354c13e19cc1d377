package wm

import "strings"

// State is the per-client bitmask. Only primitive flags are stored; the
// composites below are queried through the predicate methods.
type State uint32

const (
	Active State = 1 << iota
	Hidden
	Sticky
	Urgent
	Frozen
	SkipPager
	SkipTaskbar
	Input
	FullScreen
	HMaximized
	VMaximized
	Tiled
	NoTile
	NoResize
	NoBorder
)

// Protocol capabilities read from WM_PROTOCOLS.
const (
	WMDeleteWindow State = 0x10000 << iota
	WMTakeFocus
)

// Composite states.
const (
	Maximized = HMaximized | VMaximized
	Ignored   = SkipPager | SkipTaskbar
	SkipCycle = Hidden | Ignored
	Docked    = Sticky | Frozen | Ignored | NoBorder
)

// Has reports whether every bit of f is set.
func (s State) Has(f State) bool { return s&f == f }

// Any reports whether at least one bit of f is set.
func (s State) Any(f State) bool { return s&f != 0 }

// IsIgnored reports a window hidden from pagers and taskbars.
func (s State) IsIgnored() bool { return s.Has(Ignored) }

// IsDocked reports a dock-like window that never takes focus.
func (s State) IsDocked() bool { return s.Has(Docked) }

// SkipsCycle reports a window that focus cycling passes over.
func (s State) SkipsCycle() bool { return s.Any(Hidden) || s.IsIgnored() }

var stateNames = []struct {
	bit  State
	name string
}{
	{Active, "active"}, {Hidden, "hidden"}, {Sticky, "sticky"}, {Urgent, "urgent"},
	{Frozen, "frozen"}, {SkipPager, "skip-pager"}, {SkipTaskbar, "skip-taskbar"},
	{Input, "input"}, {FullScreen, "fullscreen"}, {HMaximized, "hmax"},
	{VMaximized, "vmax"}, {Tiled, "tiled"}, {NoTile, "notile"},
	{NoResize, "noresize"}, {NoBorder, "noborder"},
}

func (s State) String() string {
	var parts []string
	for _, n := range stateNames {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// appStates maps the app_states vocabulary of the config file.
var appStates = map[string]State{
	"docked":   Docked,
	"float":    NoTile,
	"frozen":   Frozen,
	"ignored":  Ignored,
	"noborder": NoBorder,
	"noresize": NoResize,
	"sticky":   Sticky,
}

// AppState resolves a configured state name.
func AppState(name string) (State, bool) {
	s, ok := appStates[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}
