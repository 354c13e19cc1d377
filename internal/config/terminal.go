package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/1broseidon/tilewm/internal/spawn"
)

var (
	execLookPath = exec.LookPath
	evalSymlinks = filepath.EvalSymlinks
)

// fallbackTerminals is the probe order when neither the configured terminal
// nor $TERMINAL is installed.
var fallbackTerminals = []string{"x-terminal-emulator", "kitty", "alacritty", "wezterm", "foot", "urxvt", "st", "xterm"}

// ResolveTerminal returns the command line the "terminal" function runs:
// the configured terminal when its program is on PATH, else $TERMINAL, else
// the first installed fallback. The configured value is returned unchanged
// when nothing is found.
func (c *Config) ResolveTerminal() string {
	if c == nil {
		return ""
	}
	if installed(c.Terminal) {
		return c.Terminal
	}
	if env := strings.TrimSpace(os.Getenv("TERMINAL")); env != "" && installed(env) {
		return env
	}
	for _, exe := range fallbackTerminals {
		path, err := execLookPath(exe)
		if err != nil {
			continue
		}
		if exe == "x-terminal-emulator" {
			if real, err := evalSymlinks(path); err == nil && real != "" {
				return real
			}
		}
		return exe
	}
	return c.Terminal
}

func installed(command string) bool {
	argv, err := spawn.Split(command)
	if err != nil || len(argv) == 0 {
		return false
	}
	_, err = execLookPath(argv[0])
	return err == nil
}
