package ipc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
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
	t.Fatalf("socket %s never came up", addr)
}

// startServer runs a server on a temp socket and answers requests with
// answer. Received commands are sent on the returned channel.
func startServer(t *testing.T, answer func(Command) error) (string, <-chan Command) {
	t.Helper()
	addr := filepath.Join(t.TempDir(), "sock")
	s, err := NewServer(addr, quietLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	got := make(chan Command, 8)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-s.Requests():
				got <- req.Command
				req.Reply <- answer(req.Command)
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	})
	waitForSocket(t, addr)
	return addr, got
}

func TestServer_RunsCommandAndRepliesOK(t *testing.T) {
	addr, got := startServer(t, func(Command) error { return nil })

	if err := NewClient(addr).Send(Command{Screen: 0, Function: "desktop-switch-2"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	cmd := <-got
	if cmd.Function != "desktop-switch-2" || cmd.Screen != 0 {
		t.Fatalf("server received %+v", cmd)
	}
}

func TestServer_ReportsCommandError(t *testing.T) {
	addr, _ := startServer(t, func(c Command) error {
		return errors.New(`unknown function "` + c.Function + `"`)
	})

	err := NewClient(addr).Send(Command{Function: "nope"})
	if err == nil || !strings.Contains(err.Error(), `unknown function "nope"`) {
		t.Fatalf("Send error = %v", err)
	}
}

func TestServer_RejectsMalformedLine(t *testing.T) {
	addr, got := startServer(t, func(Command) error { return nil })

	conn, err := net.Dial("unix", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("garbage\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	reply, _ := bufio.NewReader(conn).ReadString('\n')
	if !strings.HasPrefix(reply, replyError) {
		t.Fatalf("reply = %q, want an error", reply)
	}
	select {
	case cmd := <-got:
		t.Fatalf("malformed line reached the event loop as %+v", cmd)
	default:
	}
}

func TestServer_SocketIsOwnerOnly(t *testing.T) {
	addr, _ := startServer(t, func(Command) error { return nil })

	info, err := os.Stat(addr)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("socket mode = %o, want 600", perm)
	}
}

func TestClient_NoServer(t *testing.T) {
	addr := filepath.Join(t.TempDir(), "missing")
	if err := NewClient(addr).Send(Command{Function: "quit"}); err == nil {
		t.Fatalf("expected a connection error")
	}
}
