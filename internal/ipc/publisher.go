package ipc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	publishQueue  = 64
	subscriberBuf = 16
	writeTimeout  = time.Second
)

// Publisher receives status lines from the window manager. Lines are
// written to the message socket, one connection per line, and fanned out
// to stream subscribers. Publish never blocks; lines that cannot be
// delivered are dropped.
type Publisher struct {
	addr  string
	log   *slog.Logger
	queue chan string

	mu     sync.Mutex
	status StatusData
	subs   map[chan string]struct{}
}

// NewPublisher creates a publisher. An empty messageSocket disables the
// socket writer.
func NewPublisher(messageSocket string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		addr: messageSocket,
		log:  logger,
		subs: make(map[chan string]struct{}),
	}
	if messageSocket != "" {
		p.queue = make(chan string, publishQueue)
	}
	return p
}

// Publish records line and hands it to every sink.
func (p *Publisher) Publish(line string) {
	p.mu.Lock()
	p.status.apply(line)
	for ch := range p.subs {
		select {
		case ch <- line:
		default:
		}
	}
	p.mu.Unlock()

	if p.queue == nil {
		return
	}
	select {
	case p.queue <- line:
	default:
		p.log.Debug("status queue full, dropping line", "line", line)
	}
}

// Status returns the latest published status.
func (p *Publisher) Status() StatusData {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// subscribe registers a stream subscriber and returns the current status
// as it was at registration.
func (p *Publisher) subscribe() (chan string, StatusData) {
	ch := make(chan string, subscriberBuf)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[ch] = struct{}{}
	return ch, p.status
}

func (p *Publisher) unsubscribe(ch chan string) {
	p.mu.Lock()
	delete(p.subs, ch)
	p.mu.Unlock()
}

func (p *Publisher) String() string { return "status-socket" }

// Serve writes queued lines to the message socket until ctx is done.
// Failures are logged and the line is dropped.
func (p *Publisher) Serve(ctx context.Context) error {
	if p.queue == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line := <-p.queue:
			if err := p.write(line); err != nil {
				p.log.Debug("status socket write failed", "addr", p.addr, "err", err)
			}
		}
	}
}

func (p *Publisher) write(line string) error {
	conn, err := net.DialTimeout(network(p.addr), p.addr, writeTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(writeTimeout))
	_, err = fmt.Fprintln(conn, line)
	return err
}
