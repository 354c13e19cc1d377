// Package platformtest provides an in-memory platform.Backend that records
// the requests the window manager issues.
package platformtest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/1broseidon/tilewm/internal/bindings"
	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Window is the recorded server-side state of one window.
type Window struct {
	Info        platform.WindowInfo
	Geometry    geom.Rect
	Border      int
	BorderColor uint32
	Parent      platform.WindowID
	Mapped      bool
	Destroyed   bool
	InSaveSet   bool
	WMState     platform.WMState
	NetStates   []string
	NetDesktop  int
	HasDesktop  bool
	Buttons     []bindings.Binding
}

// Root is the recorded state of a root window's EWMH properties.
type Root struct {
	WMName           string
	NumberOfDesktops int
	DesktopNames     []string
	CurrentDesktop   int
	HasCurrent       bool
	DesktopGeometry  [2]int
	Workarea         geom.Rect
	ClientList       []platform.WindowID
	Stacking         []platform.WindowID
	Active           platform.WindowID
	Keys             []bindings.Binding
}

// Fake is a single-screen backend. The zero value is not usable; call New.
type Fake struct {
	ScreenList  []platform.ScreenInfo
	MonitorList []geom.Rect
	Roots       map[platform.WindowID]*Root
	Windows     map[platform.WindowID]*Window

	Focused         platform.WindowID
	FocusRoot       bool
	Pointer         geom.Point
	Restacks        [][]platform.WindowID
	Deleted         []platform.WindowID
	Killed          []platform.WindowID
	TakeFocus       []platform.WindowID
	Raised          []platform.WindowID
	Lowered         []platform.WindowID
	Unmanaged       []platform.ConfigureRequest
	KeyboardGrabbed bool
	GrabFails       bool
	Closed          bool

	// KeyMap maps a keycode to its level 0 and level 1 keysym names.
	KeyMap map[byte][2]string
	// DragMotions is replayed by Drag.
	DragMotions []platform.Motion
	Labels      []string

	nextID platform.WindowID
}

var _ platform.Backend = (*Fake)(nil)

// RootID is the root window of the fake screen.
const RootID platform.WindowID = 1

// New returns a fake with one screen of the given size and one monitor
// covering it.
func New(width, height int) *Fake {
	return &Fake{
		ScreenList:  []platform.ScreenInfo{{Index: 0, Root: RootID, Width: width, Height: height}},
		MonitorList: []geom.Rect{{Width: width, Height: height}},
		Roots:       map[platform.WindowID]*Root{RootID: {}},
		Windows:     map[platform.WindowID]*Window{},
		KeyMap:      map[byte][2]string{},
		nextID:      0x1000,
	}
}

// AddWindow registers a client window as the X server would know it
// before the manager touches it.
func (f *Fake) AddWindow(id platform.WindowID, info platform.WindowInfo) {
	if info.Geometry.Width == 0 {
		info.Geometry.Width = 200
	}
	if info.Geometry.Height == 0 {
		info.Geometry.Height = 100
	}
	if !info.HasDesktop {
		info.NetDesktop = -1
	}
	f.Windows[id] = &Window{
		Info:       info,
		Geometry:   info.Geometry,
		Border:     info.BorderWidth,
		Parent:     RootID,
		Mapped:     info.Viewable,
		NetStates:  slices.Clone(info.NetStates),
		NetDesktop: info.NetDesktop,
		HasDesktop: info.HasDesktop,
	}
}

// Win returns the recorded window or fails loudly.
func (f *Fake) Win(id platform.WindowID) *Window {
	w, ok := f.Windows[id]
	if !ok {
		panic(fmt.Sprintf("platformtest: unknown window %#x", id))
	}
	return w
}

func (f *Fake) win(id platform.WindowID) *Window {
	if w, ok := f.Windows[id]; ok && !w.Destroyed {
		return w
	}
	return nil
}

func (f *Fake) root(id platform.WindowID) *Root {
	r, ok := f.Roots[id]
	if !ok {
		r = &Root{}
		f.Roots[id] = r
	}
	return r
}

// HasNetState reports whether win's _NET_WM_STATE contains atom.
func (f *Fake) HasNetState(win platform.WindowID, atom string) bool {
	w := f.win(win)
	return w != nil && slices.Contains(w.NetStates, atom)
}

func (f *Fake) CanonicalKeysym(name string) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	switch name {
	case "greater":
		return ">", true
	case "less":
		return "<", true
	case "period":
		return ".", true
	case "comma":
		return ",", true
	}
	return name, true
}

func (f *Fake) Screens() []platform.ScreenInfo { return slices.Clone(f.ScreenList) }

func (f *Fake) Monitors(platform.WindowID) ([]geom.Rect, error) {
	return slices.Clone(f.MonitorList), nil
}

func (f *Fake) SetupRoot(platform.WindowID) error { return nil }

func (f *Fake) TopLevelWindows(root platform.WindowID) ([]platform.WindowID, error) {
	var out []platform.WindowID
	for id, w := range f.Windows {
		if w.Parent == root && !w.Destroyed {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (f *Fake) InitRootHints(root platform.WindowID, wmName string) error {
	f.root(root).WMName = wmName
	return nil
}

func (f *Fake) SetNumberOfDesktops(root platform.WindowID, n int) { f.root(root).NumberOfDesktops = n }

func (f *Fake) DesktopNames(root platform.WindowID) ([]string, error) {
	names := f.root(root).DesktopNames
	if len(names) == 0 {
		return nil, fmt.Errorf("no desktop names")
	}
	return slices.Clone(names), nil
}

func (f *Fake) SetDesktopNames(root platform.WindowID, names []string) {
	f.root(root).DesktopNames = slices.Clone(names)
}

func (f *Fake) CurrentDesktop(root platform.WindowID) (int, error) {
	r := f.root(root)
	if !r.HasCurrent {
		return 0, fmt.Errorf("no current desktop")
	}
	return r.CurrentDesktop, nil
}

func (f *Fake) SetCurrentDesktop(root platform.WindowID, index int) {
	r := f.root(root)
	r.CurrentDesktop, r.HasCurrent = index, true
}

func (f *Fake) SetDesktopGeometry(root platform.WindowID, width, height int) {
	f.root(root).DesktopGeometry = [2]int{width, height}
}

func (f *Fake) SetDesktopViewport(platform.WindowID) {}

func (f *Fake) SetWorkarea(root platform.WindowID, _ int, area geom.Rect) {
	f.root(root).Workarea = area
}

func (f *Fake) SetClientList(root platform.WindowID, wins []platform.WindowID) {
	f.root(root).ClientList = slices.Clone(wins)
}

func (f *Fake) SetClientListStacking(root platform.WindowID, wins []platform.WindowID) {
	f.root(root).Stacking = slices.Clone(wins)
}

func (f *Fake) SetActiveWindow(root platform.WindowID, win platform.WindowID) {
	f.root(root).Active = win
}

func (f *Fake) WindowInfo(win platform.WindowID) (platform.WindowInfo, error) {
	w := f.win(win)
	if w == nil {
		return platform.WindowInfo{}, fmt.Errorf("bad window %#x", win)
	}
	info := w.Info
	info.Geometry = w.Geometry
	info.Viewable = w.Mapped
	info.NetStates = slices.Clone(w.NetStates)
	info.NetDesktop, info.HasDesktop = w.NetDesktop, w.HasDesktop
	return info, nil
}

func (f *Fake) Title(win platform.WindowID) string {
	if w := f.win(win); w != nil {
		return w.Info.Name
	}
	return ""
}

func (f *Fake) NormalHints(win platform.WindowID) geom.NormalHints {
	if w := f.win(win); w != nil {
		return w.Info.Normal
	}
	return geom.NormalHints{}
}

func (f *Fake) Hints(win platform.WindowID) platform.Hints {
	if w := f.win(win); w != nil {
		return w.Info.Hints
	}
	return platform.Hints{}
}

func (f *Fake) TransientFor(win platform.WindowID) platform.WindowID {
	if w := f.win(win); w != nil {
		return w.Info.TransientFor
	}
	return platform.None
}

func (f *Fake) SetWMState(win platform.WindowID, state platform.WMState) {
	if w := f.win(win); w != nil {
		w.WMState = state
	}
}

func (f *Fake) SetNetWMState(win platform.WindowID, states []string) {
	if w := f.win(win); w != nil {
		w.NetStates = slices.Clone(states)
	}
}

func (f *Fake) SetNetWMDesktop(win platform.WindowID, index int) {
	if w := f.win(win); w != nil {
		w.NetDesktop, w.HasDesktop = index, true
	}
}

func (f *Fake) DeleteWindowState(win platform.WindowID) {
	if w := f.win(win); w != nil {
		w.NetStates = nil
		w.NetDesktop, w.HasDesktop = -1, false
	}
}

func (f *Fake) SelectClientInput(platform.WindowID) {}

func (f *Fake) CreateFrame(root platform.WindowID, r geom.Rect, border int, pixel uint32) (platform.WindowID, error) {
	f.nextID++
	id := f.nextID
	f.Windows[id] = &Window{Geometry: r, Border: border, BorderColor: pixel, Parent: root, NetDesktop: -1}
	return id, nil
}

func (f *Fake) Reparent(win, parent platform.WindowID, x, y int) {
	if w := f.win(win); w != nil {
		w.Parent = parent
		w.Geometry.X, w.Geometry.Y = x, y
	}
}

func (f *Fake) AddToSaveSet(win platform.WindowID) {
	if w := f.win(win); w != nil {
		w.InSaveSet = true
	}
}

func (f *Fake) RemoveFromSaveSet(win platform.WindowID) {
	if w := f.win(win); w != nil {
		w.InSaveSet = false
	}
}

func (f *Fake) DestroyWindow(win platform.WindowID) {
	if w := f.win(win); w != nil {
		w.Destroyed = true
		w.Mapped = false
	}
}

func (f *Fake) SetBorderWidth(win platform.WindowID, width int) {
	if w := f.win(win); w != nil {
		w.Border = width
	}
}

func (f *Fake) SetBorderColor(win platform.WindowID, pixel uint32) {
	if w := f.win(win); w != nil {
		w.BorderColor = pixel
	}
}

func (f *Fake) MoveResize(win platform.WindowID, r geom.Rect) {
	if w := f.win(win); w != nil {
		w.Geometry = r
	}
}

func (f *Fake) Move(win platform.WindowID, x, y int) {
	if w := f.win(win); w != nil {
		w.Geometry.X, w.Geometry.Y = x, y
	}
}

func (f *Fake) Map(win platform.WindowID) {
	if w := f.win(win); w != nil {
		w.Mapped = true
	}
}

func (f *Fake) Unmap(win platform.WindowID) {
	if w := f.win(win); w != nil {
		w.Mapped = false
	}
}

func (f *Fake) Raise(win platform.WindowID) { f.Raised = append(f.Raised, win) }
func (f *Fake) Lower(win platform.WindowID) { f.Lowered = append(f.Lowered, win) }

func (f *Fake) Restack(wins []platform.WindowID) {
	f.Restacks = append(f.Restacks, slices.Clone(wins))
}

func (f *Fake) SendConfigureNotify(platform.WindowID, geom.Rect) {}

func (f *Fake) ConfigureUnmanaged(req platform.ConfigureRequest) {
	f.Unmanaged = append(f.Unmanaged, req)
}

func (f *Fake) GrabServer()   {}
func (f *Fake) UngrabServer() {}

func (f *Fake) InstallColormap(platform.WindowID) {}

func (f *Fake) Focus(win platform.WindowID) {
	f.Focused, f.FocusRoot = win, false
}

func (f *Fake) FocusPointerRoot() {
	f.Focused, f.FocusRoot = platform.None, true
}

func (f *Fake) SendTakeFocus(win platform.WindowID, _ uint32) {
	f.TakeFocus = append(f.TakeFocus, win)
}

func (f *Fake) SendDelete(win platform.WindowID) { f.Deleted = append(f.Deleted, win) }
func (f *Fake) Kill(win platform.WindowID)       { f.Killed = append(f.Killed, win) }

// origin returns the root position of win's top-left corner.
func (f *Fake) origin(win platform.WindowID) geom.Point {
	if _, ok := f.Roots[win]; ok {
		return geom.Point{}
	}
	w := f.win(win)
	if w == nil {
		return geom.Point{}
	}
	p := geom.Point{X: w.Geometry.X, Y: w.Geometry.Y}
	if w.Parent != RootID {
		parent := f.origin(w.Parent)
		p.X += parent.X
		p.Y += parent.Y
	}
	return p
}

func (f *Fake) QueryPointer(win platform.WindowID) (geom.Point, error) {
	o := f.origin(win)
	return geom.Point{X: f.Pointer.X - o.X, Y: f.Pointer.Y - o.Y}, nil
}

func (f *Fake) WarpPointer(win platform.WindowID, p geom.Point) {
	o := f.origin(win)
	f.Pointer = geom.Point{X: o.X + p.X, Y: o.Y + p.Y}
}

func (f *Fake) Drag(win platform.WindowID, _ platform.Cursor, label string, fn platform.DragFunc) error {
	if f.GrabFails {
		return platform.ErrGrabFailed
	}
	f.Labels = append(f.Labels, label)
	for _, m := range f.DragMotions {
		f.Pointer = m.Root
		f.Labels = append(f.Labels, fn(m))
	}
	return nil
}

func (f *Fake) GrabKeys(root platform.WindowID, keys []bindings.Binding) {
	f.root(root).Keys = slices.Clone(keys)
}

func (f *Fake) UngrabKeys(root platform.WindowID) { f.root(root).Keys = nil }

func (f *Fake) GrabButtons(win platform.WindowID, buttons []bindings.Binding) {
	if w := f.win(win); w != nil {
		w.Buttons = slices.Clone(buttons)
	}
}

func (f *Fake) UngrabButtons(win platform.WindowID) {
	if w := f.win(win); w != nil {
		w.Buttons = nil
	}
}

func (f *Fake) GrabKeyboard(platform.WindowID) error {
	if f.GrabFails {
		return platform.ErrGrabFailed
	}
	f.KeyboardGrabbed = true
	return nil
}

func (f *Fake) UngrabKeyboard() { f.KeyboardGrabbed = false }

func (f *Fake) KeyLevels(keycode byte) (string, string) {
	l := f.KeyMap[keycode]
	return l[0], l[1]
}

func (f *Fake) RefreshKeyboard() {}

func (f *Fake) Close() { f.Closed = true }
