package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
)

// StatusServer serves the publisher over HTTP: GET /status returns the
// latest status as JSON and /events streams status lines over a
// websocket.
type StatusServer struct {
	addr string
	pub  *Publisher
	log  *slog.Logger
}

func NewStatusServer(addr string, pub *Publisher, logger *slog.Logger) *StatusServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusServer{addr: addr, pub: pub, log: logger}
}

func (s *StatusServer) String() string { return "status-http" }

// Handler returns the router.
func (s *StatusServer) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	return router
}

// Serve listens until ctx is done.
func (s *StatusServer) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 16,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	})
	defer stop()

	s.log.Info("status http listening", "addr", s.addr)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return fmt.Errorf("status http: %w", err)
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(s.pub.Status()); err != nil {
		s.log.Debug("status encode", "err", err)
	}
}

// handleEvents sends the current status, then every published line,
// until the peer goes away.
func (s *StatusServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Debug("websocket accept", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	lines, status := s.pub.subscribe()
	defer s.pub.unsubscribe(lines)

	ctx := c.CloseRead(r.Context())
	for _, line := range status.lines() {
		if err := c.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case line := <-lines:
			if err := c.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
				return
			}
		}
	}
}
