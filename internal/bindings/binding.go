// Package bindings models key and mouse bindings: the modifier/symbol combo,
// what the binding invokes, and the table the event dispatcher consults.
package bindings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// X11 modifier mask bits (core protocol values).
const (
	ModShift   uint16 = 1 << 0
	ModLock    uint16 = 1 << 1
	ModControl uint16 = 1 << 2
	Mod1       uint16 = 1 << 3
	Mod2       uint16 = 1 << 4
	Mod3       uint16 = 1 << 5
	Mod4       uint16 = 1 << 6
	Mod5       uint16 = 1 << 7
)

var (
	ErrInvalidModifier = errors.New("invalid modifier")
	ErrUnknownKeysym   = errors.New("unknown keysym")
	ErrInvalidButton   = errors.New("invalid mouse button")
	ErrUnknownFunction = errors.New("unknown function")
	ErrMissingCommand  = errors.New("exec binding needs a command")
)

// Context is the invocation shape of a bound function.
type Context int

const (
	// ContextScreen functions act on the screen the event arrived on.
	ContextScreen Context = iota
	// ContextWindow functions need a client; they are skipped without one.
	ContextWindow
	// ContextCall functions take no target (terminal, restart, quit).
	ContextCall
	// ContextLaunch runs a command line.
	ContextLaunch
)

func (c Context) String() string {
	switch c {
	case ContextScreen:
		return "screen"
	case ContextWindow:
		return "window"
	case ContextCall:
		return "call"
	case ContextLaunch:
		return "launch"
	default:
		return "unknown"
	}
}

// Action is what a binding invokes. It is one of ScreenAction,
// WindowAction, CallAction or LaunchAction.
type Action interface {
	Context() Context
	String() string
}

// ScreenAction invokes a screen-wide function.
type ScreenAction struct {
	Function string
	Param    string
}

// WindowAction invokes a function on the target client.
type WindowAction struct {
	Function string
	Param    string
}

// CallAction invokes a parameterless process-level function.
type CallAction struct {
	Function string
}

// LaunchAction spawns Command.
type LaunchAction struct {
	Command string
}

func (ScreenAction) Context() Context { return ContextScreen }
func (WindowAction) Context() Context { return ContextWindow }
func (CallAction) Context() Context   { return ContextCall }
func (LaunchAction) Context() Context { return ContextLaunch }

func (a ScreenAction) String() string { return withParam(a.Function, a.Param) }
func (a WindowAction) String() string { return withParam(a.Function, a.Param) }
func (a CallAction) String() string   { return a.Function }
func (a LaunchAction) String() string { return "exec " + a.Command }

func withParam(fn, param string) string {
	if param == "" {
		return fn
	}
	return fn + "=" + param
}

// Binding ties a modifier mask plus a keysym name (keys) or a button
// number (mouse) to an Action.
type Binding struct {
	Combo  string
	Mods   uint16
	Keysym string
	Button uint8
	Action Action
}

// FunctionLookup reports the context of a named function, or false when
// the name is unknown.
type FunctionLookup func(name string) (Context, bool)

// KeysymResolver maps a keysym name to the canonical name the event
// dispatcher will compare against, or false if the name is unknown.
type KeysymResolver interface {
	CanonicalKeysym(name string) (string, bool)
}

// AnyKeysym accepts every non-empty keysym name unchanged. It is used when
// validating configuration without a display.
type AnyKeysym struct{}

func (AnyKeysym) CanonicalKeysym(name string) (string, bool) {
	return name, name != ""
}

// SplitCombo separates the modifier letters from the symbol. Modifiers are
// the letters before the first '-': S Shift, C Control, M Mod1, 4 Mod4,
// 5 Mod5. A combo without '-' has no modifiers.
func SplitCombo(combo string) (uint16, string, error) {
	idx := strings.IndexByte(combo, '-')
	if idx < 0 {
		return 0, combo, nil
	}
	var mods uint16
	for _, r := range combo[:idx] {
		switch r {
		case 'S':
			mods |= ModShift
		case 'C':
			mods |= ModControl
		case 'M':
			mods |= Mod1
		case '4':
			mods |= Mod4
		case '5':
			mods |= Mod5
		default:
			return 0, "", fmt.Errorf("%w %q in %q", ErrInvalidModifier, r, combo)
		}
	}
	return mods, combo[idx+1:], nil
}

// ParseFunction splits "name=param".
func ParseFunction(s string) (string, string) {
	name, param, _ := strings.Cut(strings.TrimSpace(s), "=")
	return name, param
}

// NewAction builds the action for a function name. The special name
// "exec" produces a LaunchAction for command.
func NewAction(function, command string, funcs FunctionLookup) (Action, error) {
	name, param := ParseFunction(function)
	if name == "exec" {
		if strings.TrimSpace(command) == "" {
			return nil, ErrMissingCommand
		}
		return LaunchAction{Command: command}, nil
	}
	ctx, ok := funcs(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFunction, name)
	}
	switch ctx {
	case ContextScreen:
		return ScreenAction{Function: name, Param: param}, nil
	case ContextWindow:
		return WindowAction{Function: name, Param: param}, nil
	case ContextCall:
		return CallAction{Function: name}, nil
	default:
		return LaunchAction{Command: command}, nil
	}
}

// ParseKey builds a key binding from its textual combo.
func ParseKey(combo, function, command string, funcs FunctionLookup, keysyms KeysymResolver) (Binding, error) {
	mods, sym, err := SplitCombo(combo)
	if err != nil {
		return Binding{}, err
	}
	canon, ok := keysyms.CanonicalKeysym(sym)
	if !ok {
		return Binding{}, fmt.Errorf("%w %q in %q", ErrUnknownKeysym, sym, combo)
	}
	action, err := NewAction(function, command, funcs)
	if err != nil {
		return Binding{}, err
	}
	return Binding{Combo: combo, Mods: mods, Keysym: canon, Action: action}, nil
}

// ParseButton builds a mouse binding. Buttons are 1 through 5.
func ParseButton(combo, function string, funcs FunctionLookup) (Binding, error) {
	mods, sym, err := SplitCombo(combo)
	if err != nil {
		return Binding{}, err
	}
	button, err := strconv.Atoi(sym)
	if err != nil || button < 1 || button > 5 {
		return Binding{}, fmt.Errorf("%w %q in %q", ErrInvalidButton, sym, combo)
	}
	action, err := NewAction(function, "", funcs)
	if err != nil {
		return Binding{}, err
	}
	if action.Context() == ContextLaunch {
		return Binding{}, fmt.Errorf("%w: exec is not available on mouse bindings", ErrUnknownFunction)
	}
	return Binding{Combo: combo, Mods: mods, Button: uint8(button), Action: action}, nil
}
