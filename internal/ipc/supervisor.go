package ipc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/thejerf/suture/v4"
)

// Service is a named supervised service.
type Service interface {
	String() string
	suture.Service
}

// NewSupervisor returns the supervisor that runs the socket services.
// Services are restarted with backoff when they fail; the window
// manager itself never depends on them being up.
func NewSupervisor(logger *slog.Logger) *suture.Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return suture.New("ipc", suture.Spec{EventHook: eventHook(logger)})
}

// Add registers svc with sup.
func Add(sup *suture.Supervisor, svc Service) suture.ServiceToken {
	return sup.Add(sanitized{Service: svc})
}

func eventHook(logger *slog.Logger) suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventStopTimeout:
			logger.Info("service failed to stop in time", "supervisor", e.SupervisorName, "service", e.ServiceName)
		case suture.EventServicePanic:
			logger.Warn("service panic", "service", e.ServiceName, "panic", e.PanicMsg)
			logger.Debug(e.Stacktrace)
		case suture.EventServiceTerminate:
			logger.Warn("service failed", "service", e.ServiceName, "err", e.Err)
		case suture.EventBackoff:
			logger.Debug("too many service failures, backing off", "supervisor", e.SupervisorName)
		case suture.EventResume:
			logger.Debug("leaving backoff", "supervisor", e.SupervisorName)
		}
	}
}

type sanitized struct {
	Service
}

func (s sanitized) Serve(ctx context.Context) error {
	return sanitizeError(ctx, s.Service.Serve(ctx))
}

// sanitizeError keeps a service error from being read as a context error
// unless ctx really is done; suture stops restarting a service that
// returns one.
func sanitizeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.New(err.Error())
}
