package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/tilewm/internal/runtimepath"
)

// requestTimeout bounds one command connection, including the wait for
// the event loop to run the command.
const requestTimeout = 5 * time.Second

// Server accepts command lines on a unix socket or TCP address and hands
// them to the event loop through Requests.
type Server struct {
	addr     string
	requests chan Request
	log      *slog.Logger
}

// NewServer creates a server for addr. An empty addr uses the default
// socket path.
func NewServer(addr string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(addr) == "" {
		path, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve command socket path: %w", err)
		}
		addr = path
	}
	return &Server{
		addr:     addr,
		requests: make(chan Request),
		log:      logger,
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string { return s.addr }

// Requests delivers parsed commands. The receiver must answer each one
// on its Reply channel.
func (s *Server) Requests() <-chan Request { return s.requests }

func (s *Server) String() string { return "command-socket" }

// Serve listens until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := listen(s.addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("command socket listening", "addr", s.addr)
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("command socket accept: %w", err)
		}
		go s.handleConnection(ctx, conn)
	}
}

// handleConnection reads one line, runs it and writes a one-line reply.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(requestTimeout))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		s.log.Debug("command socket read", "err", err)
		return
	}
	if strings.TrimSpace(line) == "" {
		return
	}

	cmd, err := ParseCommand(line)
	if err == nil {
		err = s.dispatch(ctx, cmd)
	}
	if err != nil {
		s.log.Debug("command failed", "line", strings.TrimSpace(line), "err", err)
		fmt.Fprintf(conn, "%s%v\n", replyError, err)
		return
	}
	fmt.Fprintln(conn, replyOK)
}

func (s *Server) dispatch(ctx context.Context, cmd Command) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reply := make(chan error, 1)
	select {
	case s.requests <- Request{Command: cmd, Reply: reply}:
	case <-ctx.Done():
		return fmt.Errorf("window manager busy: %w", ctx.Err())
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return fmt.Errorf("window manager busy: %w", ctx.Err())
	}
}

// listen opens addr. A path gets its directory created and the socket
// restricted to the owner; anything else is a TCP host:port.
func listen(addr string) (net.Listener, error) {
	if !runtimepath.IsUnixPath(addr) {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		return ln, nil
	}

	if err := os.MkdirAll(filepath.Dir(addr), 0700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}
	// Remove a stale socket from a previous run.
	os.Remove(addr)

	ln, err := net.Listen("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create command socket: %w", err)
	}
	if err := os.Chmod(addr, 0600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}
	return ln, nil
}

// network returns the dial network for addr.
func network(addr string) string {
	if runtimepath.IsUnixPath(addr) {
		return "unix"
	}
	return "tcp"
}
