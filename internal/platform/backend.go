package platform

import (
	"errors"

	"github.com/1broseidon/tilewm/internal/bindings"
	"github.com/1broseidon/tilewm/internal/geom"
)

// WindowID is an X window identifier.
type WindowID uint32

// None is the null window.
const None WindowID = 0

// ErrGrabFailed is returned when an exclusive pointer or keyboard grab is
// refused by the server.
var ErrGrabFailed = errors.New("grab failed")

// ScreenInfo describes one X screen.
type ScreenInfo struct {
	Index  int
	Root   WindowID
	Width  int
	Height int
}

// WMState is the ICCCM WM_STATE value.
type WMState int

const (
	WithdrawnState WMState = 0
	NormalState    WMState = 1
	IconicState    WMState = 3
)

// Cursor selects one of the cursors created at startup.
type Cursor int

const (
	CursorNormal Cursor = iota
	CursorMove
	CursorNorth
	CursorEast
	CursorSouth
	CursorWest
	CursorNorthEast
	CursorSouthEast
	CursorSouthWest
	CursorNorthWest
)

// Hints is the subset of WM_HINTS the manager acts on.
type Hints struct {
	Input        bool
	Urgent       bool
	InitialState int
}

// WindowInfo is everything read from a window when it is first managed.
type WindowInfo struct {
	OverrideRedirect bool
	Viewable         bool
	Geometry         geom.Rect
	BorderWidth      int

	Name      string
	ResName   string
	ResClass  string
	Types     []string
	Hints     Hints
	Protocols []string
	Normal    geom.NormalHints

	TransientFor WindowID

	// NoDecorations is set when _MOTIF_WM_HINTS asks for neither full
	// decorations nor a border.
	NoDecorations bool

	NetStates []string
	// NetDesktop is the _NET_WM_DESKTOP value, or -1 when unset or sticky.
	NetDesktop int
	HasDesktop bool
}

// ConfigureRequest mirrors an X ConfigureRequest for windows the manager
// does not own.
type ConfigureRequest struct {
	Window      WindowID
	ValueMask   uint16
	X, Y        int
	Width       int
	Height      int
	BorderWidth int
	Sibling     WindowID
	StackMode   byte
}

// Motion is one sampled pointer position during a drag.
type Motion struct {
	Root  geom.Point
	Local geom.Point
}

// DragFunc handles a motion sample and returns the label text to show.
type DragFunc func(m Motion) string

// Backend is every X request the window manager core issues. The Linux
// implementation talks to the server; tests use platformtest.Fake.
type Backend interface {
	bindings.KeysymResolver

	Screens() []ScreenInfo
	Monitors(root WindowID) ([]geom.Rect, error)
	SetupRoot(root WindowID) error
	TopLevelWindows(root WindowID) ([]WindowID, error)

	InitRootHints(root WindowID, wmName string) error
	SetNumberOfDesktops(root WindowID, n int)
	DesktopNames(root WindowID) ([]string, error)
	SetDesktopNames(root WindowID, names []string)
	CurrentDesktop(root WindowID) (int, error)
	SetCurrentDesktop(root WindowID, index int)
	SetDesktopGeometry(root WindowID, width, height int)
	SetDesktopViewport(root WindowID)
	SetWorkarea(root WindowID, desktops int, area geom.Rect)
	SetClientList(root WindowID, wins []WindowID)
	SetClientListStacking(root WindowID, wins []WindowID)
	SetActiveWindow(root WindowID, win WindowID)

	WindowInfo(win WindowID) (WindowInfo, error)
	Title(win WindowID) string
	NormalHints(win WindowID) geom.NormalHints
	Hints(win WindowID) Hints
	TransientFor(win WindowID) WindowID
	SetWMState(win WindowID, state WMState)
	SetNetWMState(win WindowID, states []string)
	SetNetWMDesktop(win WindowID, index int)
	DeleteWindowState(win WindowID)
	SelectClientInput(win WindowID)

	CreateFrame(root WindowID, r geom.Rect, border int, pixel uint32) (WindowID, error)
	Reparent(win, parent WindowID, x, y int)
	AddToSaveSet(win WindowID)
	RemoveFromSaveSet(win WindowID)
	DestroyWindow(win WindowID)
	SetBorderWidth(win WindowID, width int)
	SetBorderColor(win WindowID, pixel uint32)
	MoveResize(win WindowID, r geom.Rect)
	Move(win WindowID, x, y int)
	Map(win WindowID)
	Unmap(win WindowID)
	Raise(win WindowID)
	Lower(win WindowID)
	// Restack orders windows top first, in one pass.
	Restack(wins []WindowID)
	SendConfigureNotify(win WindowID, r geom.Rect)
	ConfigureUnmanaged(req ConfigureRequest)
	GrabServer()
	UngrabServer()

	InstallColormap(win WindowID)
	Focus(win WindowID)
	FocusPointerRoot()
	SendTakeFocus(win WindowID, time uint32)
	SendDelete(win WindowID)
	Kill(win WindowID)

	// QueryPointer returns the pointer position relative to win.
	QueryPointer(win WindowID) (geom.Point, error)
	WarpPointer(win WindowID, p geom.Point)
	// Drag grabs the pointer on win and feeds rate-limited motion to fn
	// until the button is released. label is shown at the window center
	// and replaced by what fn returns.
	Drag(win WindowID, cursor Cursor, label string, fn DragFunc) error

	GrabKeys(root WindowID, keys []bindings.Binding)
	UngrabKeys(root WindowID)
	GrabButtons(win WindowID, buttons []bindings.Binding)
	UngrabButtons(win WindowID)
	GrabKeyboard(root WindowID) error
	UngrabKeyboard()
	// KeyLevels returns the canonical keysym names at shift levels 0 and 1.
	KeyLevels(keycode byte) (string, string)
	RefreshKeyboard()

	Close()
}
