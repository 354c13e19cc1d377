// Package spawn starts external programs on behalf of the window manager.
package spawn

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/mattn/go-shellwords"
)

var ErrEmptyCommand = errors.New("empty command")

// Split breaks a command line into arguments, honoring quotes and
// backslash escapes. Environment variables are expanded.
func Split(command string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = true
	argv, err := p.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", command, err)
	}
	return argv, nil
}

func command(line string) (*exec.Cmd, error) {
	argv, err := Split(line)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd, nil
}

// Start runs line in a new session without waiting for it. The child is
// reaped in the background.
func Start(line string) error {
	cmd, err := command(line)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to spawn %q: %w", line, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Run runs line in a new session and waits for it to exit. Output goes to
// the window manager's stdout and stderr.
func Run(line string) error {
	cmd, err := command(line)
	if err != nil {
		return err
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%q: %w", line, err)
	}
	return nil
}

// Reexec replaces the current process with a fresh copy of itself, keeping
// the original arguments and environment. It only returns on failure.
func Reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	return syscall.Exec(exe, os.Args, os.Environ())
}
