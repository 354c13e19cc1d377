package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/1broseidon/tilewm/internal/runtimepath"
)

// Client sends commands to a running window manager.
type Client struct {
	addr    string
	timeout time.Duration
}

// NewClient creates a client for addr, or for the default socket path
// when addr is empty.
func NewClient(addr string) *Client {
	if strings.TrimSpace(addr) == "" {
		path, err := runtimepath.SocketPath()
		if err != nil {
			// Keep constructor non-failing; Send surfaces connection errors.
			path = ""
		}
		addr = path
	}
	return &Client{
		addr:    addr,
		timeout: requestTimeout + time.Second,
	}
}

// Send writes cmd and waits for the reply line. A command the window
// manager rejected comes back as an error carrying its message.
func (c *Client) Send(cmd Command) error {
	conn, err := net.DialTimeout(network(c.addr), c.addr, c.timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to window manager: %w (is tilewm running?)", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := fmt.Fprintln(conn, cmd.String()); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return fmt.Errorf("failed to read reply: %w", err)
	}
	reply = strings.TrimSpace(reply)
	switch {
	case reply == replyOK:
		return nil
	case strings.HasPrefix(reply, replyError):
		return errors.New(strings.TrimPrefix(reply, replyError))
	default:
		return fmt.Errorf("unexpected reply %q", reply)
	}
}
