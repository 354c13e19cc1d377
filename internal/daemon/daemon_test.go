package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/platform/platformtest"
	"github.com/1broseidon/tilewm/internal/wm"
)

type source struct {
	ch chan platform.Event
}

func (s *source) Events() <-chan platform.Event { return s.ch }
func (s *source) Deferred() []platform.Event    { return nil }

type result struct {
	status wm.RunStatus
	err    error
}

func newRunner(t *testing.T, f *platformtest.Fake, cfg *config.Config) (*Runner, chan os.Signal, *source, *[]string) {
	t.Helper()
	if cfg.CommandSocket == "" {
		cfg.CommandSocket = filepath.Join(t.TempDir(), "sock")
	}
	signals := make(chan os.Signal, 1)
	src := &source{ch: make(chan platform.Event)}
	var scripts []string
	r := &Runner{
		Config:  cfg,
		Backend: f,
		Events:  src,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Signals: signals,
		Spawner: spawnFunc(func(string) error { return nil }),
		RunScript: func(command string) error {
			scripts = append(scripts, command)
			return nil
		},
	}
	return r, signals, src, &scripts
}

func start(r *Runner) <-chan result {
	done := make(chan result, 1)
	go func() {
		status, err := r.Run(context.Background())
		done <- result{status, err}
	}()
	return done
}

func wait(t *testing.T, done <-chan result) result {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return")
		return result{}
	}
}

func waitForSocket(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", addr); err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("command socket %s never came up", addr)
}

func TestRunner_ScriptsAroundLifetime(t *testing.T) {
	f := platformtest.New(1000, 800)
	cfg := config.DefaultConfig()
	cfg.StartupScript = "xsetroot -solid black"
	cfg.ShutdownScript = "notify-send bye"
	r, signals, _, scripts := newRunner(t, f, cfg)

	done := start(r)
	signals <- syscall.SIGTERM
	res := wait(t, done)

	if res.err != nil || res.status != wm.Quitting {
		t.Fatalf("Run = (%v, %v), want (quitting, nil)", res.status, res.err)
	}
	if len(*scripts) != 2 || (*scripts)[0] != cfg.StartupScript || (*scripts)[1] != cfg.ShutdownScript {
		t.Fatalf("scripts = %q", *scripts)
	}
	if !f.Closed {
		t.Fatalf("display not closed on shutdown")
	}
}

func TestRunner_CommandSocketThenRestart(t *testing.T) {
	f := platformtest.New(1000, 800)
	cfg := config.DefaultConfig()
	r, signals, _, _ := newRunner(t, f, cfg)

	done := start(r)
	waitForSocket(t, cfg.CommandSocket)
	if err := ipc.NewClient(cfg.CommandSocket).Send(ipc.Command{Screen: 0, Function: "desktop-switch-3"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := ipc.NewClient(cfg.CommandSocket).Send(ipc.Command{Screen: 4, Function: "desktop-switch-3"}); err == nil {
		t.Fatalf("expected an error for a missing screen")
	}
	signals <- syscall.SIGHUP
	res := wait(t, done)

	if res.status != wm.Restarting {
		t.Fatalf("status = %v, want restarting", res.status)
	}
	if got := f.Roots[platformtest.RootID].CurrentDesktop; got != 2 {
		t.Fatalf("_NET_CURRENT_DESKTOP = %d, want 2", got)
	}
	if _, err := os.Stat(cfg.CommandSocket); !os.IsNotExist(err) {
		t.Fatalf("command socket left behind: %v", err)
	}
}

func TestRunner_ConnectionLostShutsDown(t *testing.T) {
	f := platformtest.New(1000, 800)
	r, _, src, _ := newRunner(t, f, config.DefaultConfig())

	done := start(r)
	close(src.ch)
	res := wait(t, done)

	if !errors.Is(res.err, events.ErrConnectionLost) {
		t.Fatalf("Run error = %v, want ErrConnectionLost", res.err)
	}
	if res.status != wm.Quitting || !f.Closed {
		t.Fatalf("status = %v closed = %v", res.status, f.Closed)
	}
}
