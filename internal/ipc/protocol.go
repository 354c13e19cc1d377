package ipc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedCommand is returned for a command line that is not
// "<screen>;<function>[=<param>]".
var ErrMalformedCommand = errors.New("malformed command")

// Command is one line received on the command socket.
type Command struct {
	Screen   int
	Function string
	Param    string
}

// ParseCommand parses "<screen>;<function>[=<param>]". Surrounding
// whitespace and a trailing newline are ignored.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	screen, rest, ok := strings.Cut(line, ";")
	if !ok {
		return Command{}, fmt.Errorf("%w: %q: missing ';'", ErrMalformedCommand, line)
	}
	n, err := strconv.Atoi(strings.TrimSpace(screen))
	if err != nil || n < 0 {
		return Command{}, fmt.Errorf("%w: %q: bad screen id", ErrMalformedCommand, line)
	}
	function, param, _ := strings.Cut(strings.TrimSpace(rest), "=")
	function = strings.TrimSpace(function)
	if function == "" {
		return Command{}, fmt.Errorf("%w: %q: missing function", ErrMalformedCommand, line)
	}
	return Command{Screen: n, Function: function, Param: strings.TrimSpace(param)}, nil
}

// String renders the command in wire form, without the newline.
func (c Command) String() string {
	if c.Param == "" {
		return fmt.Sprintf("%d;%s", c.Screen, c.Function)
	}
	return fmt.Sprintf("%d;%s=%s", c.Screen, c.Function, c.Param)
}

// Request is a parsed command waiting for the event loop. The loop sends
// exactly one value on Reply.
type Request struct {
	Command Command
	Reply   chan<- error
}

// Reply lines written back on the command socket.
const (
	replyOK    = "ok"
	replyError = "error: "
)

// StatusData is the latest published status, served by GET /status.
type StatusData struct {
	DesktopList  string `json:"desktop_list"`
	WindowActive string `json:"window_active,omitempty"`
	DesktopMode  string `json:"desktop_mode,omitempty"`
}

// apply folds one status line into the snapshot.
func (s *StatusData) apply(line string) {
	if line == "no_window_active" {
		s.WindowActive = ""
		return
	}
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	switch key {
	case "desktop_list":
		s.DesktopList = value
	case "window_active":
		s.WindowActive = value
	case "desktop_mode":
		s.DesktopMode = value
	}
}

// lines renders the snapshot as the status lines that produced it.
func (s StatusData) lines() []string {
	var out []string
	if s.DesktopList != "" {
		out = append(out, "desktop_list="+s.DesktopList)
	}
	if s.DesktopMode != "" {
		out = append(out, "desktop_mode="+s.DesktopMode)
	}
	if s.WindowActive != "" {
		out = append(out, "window_active="+s.WindowActive)
	}
	return out
}
