package platform

import "github.com/1broseidon/tilewm/internal/geom"

// Event is one decoded server event. The concrete types below are the
// only ones the dispatcher acts on; everything else is dropped at decode.
type Event interface {
	isEvent()
}

// KeyPress is a grabbed key going down.
type KeyPress struct {
	Root    WindowID
	Window  WindowID
	Keycode byte
	State   uint16
	Time    uint32
}

// KeyRelease is a key going up while the keyboard is grabbed or a grab
// is active on the root.
type KeyRelease struct {
	Root    WindowID
	Window  WindowID
	Keycode byte
	State   uint16
	Time    uint32
}

// ButtonPress is a grabbed button press on a frame or the root.
type ButtonPress struct {
	Root   WindowID
	Window WindowID
	Button uint8
	State  uint16
	Time   uint32
	Pos    geom.Point
}

// ButtonRelease ends a drag.
type ButtonRelease struct {
	Button uint8
	Time   uint32
}

// MotionNotify is a pointer sample during a drag.
type MotionNotify struct {
	Root  geom.Point
	Local geom.Point
	Time  uint32
}

// EnterNotify is the pointer crossing into a window.
type EnterNotify struct {
	Window WindowID
	Time   uint32
}

// Expose asks for a window to be redrawn. Count is the number of Expose
// events still to follow.
type Expose struct {
	Window WindowID
	Count  int
}

// MapRequest is a top-level window asking to be mapped.
type MapRequest struct {
	Parent WindowID
	Window WindowID
}

// UnmapNotify reports a window being unmapped. Synthetic is set when the
// event was reported on the root rather than on a frame or the window.
type UnmapNotify struct {
	Event     WindowID
	Window    WindowID
	Synthetic bool
}

// DestroyNotify reports a destroyed window.
type DestroyNotify struct {
	Window WindowID
}

// ConfigureRequestEvent carries a client's geometry request.
type ConfigureRequestEvent struct {
	Parent  WindowID
	Request ConfigureRequest
}

// PropertyNotify reports a changed property by atom name.
type PropertyNotify struct {
	Window  WindowID
	Atom    string
	Deleted bool
	Time    uint32
}

// ClientMessage is a format-32 client message. Atoms holds the names of
// Data[1] and Data[2] for _NET_WM_STATE.
type ClientMessage struct {
	Window WindowID
	Type   string
	Data   [5]uint32
	Atoms  []string
}

// MappingNotify reports a keyboard or pointer mapping change.
type MappingNotify struct {
	Keyboard bool
}

// ScreenChange is a RandR screen change on Root.
type ScreenChange struct {
	Root   WindowID
	Width  int
	Height int
}

// ProtocolError is an asynchronous X error from an unchecked request.
type ProtocolError struct {
	Err error
}

func (KeyPress) isEvent()              {}
func (KeyRelease) isEvent()            {}
func (ButtonPress) isEvent()           {}
func (ButtonRelease) isEvent()         {}
func (MotionNotify) isEvent()          {}
func (EnterNotify) isEvent()           {}
func (Expose) isEvent()                {}
func (MapRequest) isEvent()            {}
func (UnmapNotify) isEvent()           {}
func (DestroyNotify) isEvent()         {}
func (ConfigureRequestEvent) isEvent() {}
func (PropertyNotify) isEvent()        {}
func (ClientMessage) isEvent()         {}
func (MappingNotify) isEvent()         {}
func (ScreenChange) isEvent()          {}
func (ProtocolError) isEvent()         {}

// EventSource feeds decoded events to the dispatcher.
type EventSource interface {
	// Events is closed when the connection to the server is lost.
	Events() <-chan Event
	// Deferred returns, and forgets, events that arrived during a drag
	// and were set aside so they are handled in order afterwards.
	Deferred() []Event
}
