// Package events routes decoded X events, command socket lines and
// process signals to the window manager from a single goroutine.
package events

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"syscall"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

// ErrConnectionLost is returned by Run when the event stream ends.
var ErrConnectionLost = errors.New("connection to X server lost")

// modifierKeys end a window cycle when released.
var modifierKeys = map[string]bool{
	"Alt_L":            true,
	"Alt_R":            true,
	"Super_L":          true,
	"Super_R":          true,
	"Control_L":        true,
	"Control_R":        true,
	"ISO_Level3_Shift": true,
}

// Dispatcher feeds events to a Manager.
type Dispatcher struct {
	m   *wm.Manager
	x   platform.Backend
	src platform.EventSource
	log *slog.Logger
}

// New creates a dispatcher. x is the backend the manager was built with.
func New(m *wm.Manager, x platform.Backend, src platform.EventSource, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{m: m, x: x, src: src, log: logger}
}

// Inputs are the sources Run multiplexes with the X event stream. Any of
// them may be nil.
type Inputs struct {
	Commands <-chan ipc.Request
	Reloads  <-chan *config.LoadResult
	Signals  <-chan os.Signal
}

// Run handles input until the manager stops running, ctx is done or the
// X connection goes away.
func (d *Dispatcher) Run(ctx context.Context, in Inputs) error {
	events := d.src.Events()
	for d.m.Status() == wm.Running {
		select {
		case <-ctx.Done():
			d.m.Quit()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				d.m.Quit()
				return ErrConnectionLost
			}
			d.Handle(ev)
		case req := <-in.Commands:
			c := req.Command
			req.Reply <- d.m.ExecCommand(c.Screen, c.Function, c.Param)
		case res := <-in.Reloads:
			if res != nil && res.Config != nil {
				d.m.Reconfigure(res.Config)
			}
		case sig := <-in.Signals:
			d.handleSignal(sig)
		}
	}
	d.log.Debug("event loop stopped", "status", d.m.Status())
	return nil
}

func (d *Dispatcher) handleSignal(sig os.Signal) {
	d.log.Info("received signal", "signal", sig)
	switch sig {
	case syscall.SIGHUP:
		d.m.Restart()
	case syscall.SIGINT, syscall.SIGTERM:
		d.m.Quit()
	}
}

// Handle processes one event, then whatever a drag it started set aside.
func (d *Dispatcher) Handle(ev platform.Event) {
	d.handle(ev)
	for pending := d.src.Deferred(); len(pending) > 0; pending = d.src.Deferred() {
		for _, ev := range pending {
			d.handle(ev)
		}
	}
}

func (d *Dispatcher) handle(ev platform.Event) {
	switch e := ev.(type) {
	case platform.KeyPress:
		d.keyPress(e)
	case platform.KeyRelease:
		d.keyRelease(e)
	case platform.ButtonPress:
		d.buttonPress(e)
	case platform.EnterNotify:
		d.m.SetLastTime(e.Time)
		if c := d.m.FindClient(e.Window); c != nil {
			c.Activate()
		}
	case platform.Expose:
		if e.Count != 0 {
			return
		}
		if c := d.m.FindClient(e.Window); c != nil {
			c.DrawBorder()
		}
	case platform.MapRequest:
		d.mapRequest(e)
	case platform.UnmapNotify:
		d.unmapNotify(e)
	case platform.DestroyNotify:
		if c := d.m.FindClient(e.Window); c != nil {
			c.Screen().RemoveClient(c, false)
		}
	case platform.ConfigureRequestEvent:
		d.m.ConfigureRequest(e.Request)
	case platform.PropertyNotify:
		if !e.Deleted {
			d.m.HandlePropertyChange(e.Window, e.Atom)
		}
	case platform.ClientMessage:
		d.m.HandleClientMessage(e)
	case platform.MappingNotify:
		if e.Keyboard {
			d.m.RegrabKeys()
		}
	case platform.ScreenChange:
		if s := d.m.ScreenForRoot(e.Root); s != nil {
			s.HandleScreenChange()
		}
	case platform.ProtocolError:
		d.log.Debug("X error", "err", e.Err)
	}
}

// keyPress resolves a grabbed key against the binding table. The target
// client is the one under the event, else the active one.
func (d *Dispatcher) keyPress(e platform.KeyPress) {
	d.m.SetLastTime(e.Time)
	s := d.m.ScreenForRoot(e.Root)
	if s == nil {
		return
	}
	c := d.m.FindClient(e.Window)
	if c == nil {
		c = s.ActiveClient()
	}
	keysym, shifted := d.x.KeyLevels(e.Keycode)
	b, ok := d.m.Bindings().MatchKey(keysym, shifted, e.State, c != nil)
	if !ok {
		d.log.Debug("unbound key", "keysym", keysym, "state", e.State)
		return
	}
	d.m.Execute(b.Action, s, c)
}

func (d *Dispatcher) keyRelease(e platform.KeyRelease) {
	s := d.m.ScreenForRoot(e.Root)
	if s == nil || !s.IsCycling() {
		return
	}
	keysym, _ := d.x.KeyLevels(e.Keycode)
	if !modifierKeys[keysym] {
		return
	}
	s.StopCycling()
	d.x.UngrabKeyboard()
}

func (d *Dispatcher) buttonPress(e platform.ButtonPress) {
	d.m.SetLastTime(e.Time)
	c := d.m.FindClient(e.Window)
	s := d.m.ScreenForRoot(e.Root)
	if s == nil && c != nil {
		s = c.Screen()
	}
	if s == nil {
		return
	}
	b, ok := d.m.Bindings().MatchButton(e.Button, e.State, c != nil)
	if !ok {
		return
	}
	d.m.Execute(b.Action, s, c)
}

func (d *Dispatcher) mapRequest(e platform.MapRequest) {
	s := d.m.ScreenForRoot(e.Parent)
	if s == nil {
		d.log.Debug("map request outside a root", "window", e.Window, "parent", e.Parent)
		return
	}
	s.SaveActivePointer()
	s.AddClient(e.Window)
}

// unmapNotify stops managing a client that withdrew itself. Unmaps the
// manager caused, of frames or of hidden clients, are ignored.
func (d *Dispatcher) unmapNotify(e platform.UnmapNotify) {
	c := d.m.FindClient(e.Window)
	if c == nil {
		return
	}
	if e.Synthetic {
		switch {
		case c.Frame() == e.Window:
		case c.IgnoreUnmap():
			// reparenting a window that was mapped at startup
		default:
			d.x.SetWMState(e.Window, platform.WithdrawnState)
		}
		return
	}
	if c.Has(wm.Hidden) || c.IgnoreUnmap() {
		return
	}
	c.Screen().RemoveClient(c, true)
}
