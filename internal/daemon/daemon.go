// Package daemon runs one window manager process lifetime: it wires the
// manager to the X connection, the socket services, config reloads and
// signals, and runs the startup and shutdown scripts around it.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/logging"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/spawn"
	"github.com/1broseidon/tilewm/internal/wm"
	"github.com/1broseidon/tilewm/internal/x11"
)

// Options configures Start.
type Options struct {
	// ConfigPath overrides the default config location.
	ConfigPath string
	// Debug forces debug logging.
	Debug bool
}

// Start loads the configuration, takes over the display and runs the
// window manager until it quits or asks to restart. The returned status
// tells the caller whether to re-exec.
func Start(ctx context.Context, opts Options) (wm.RunStatus, error) {
	path := opts.ConfigPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return wm.Quitting, err
		}
		path = p
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return wm.Quitting, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config

	level := cfg.LogLevel
	if opts.Debug {
		level = "debug"
	}
	logger, closer, err := logging.New(logging.Options{
		Level:     level,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
		MaxFiles:  cfg.LogMaxFiles,
	})
	if err != nil {
		return wm.Quitting, fmt.Errorf("failed to open log: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	conn, err := x11.NewConnection(logger)
	if err != nil {
		return wm.Quitting, fmt.Errorf("failed to connect to display: %w", err)
	}
	if err := conn.TakeOver(); err != nil {
		conn.Close()
		if errors.Is(err, x11.ErrOtherWM) {
			return wm.Quitting, errors.New("another window manager is running")
		}
		return wm.Quitting, err
	}
	logger.Info("display acquired", "config", path)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	r := &Runner{
		Config:     cfg,
		ConfigPath: path,
		Backend:    conn,
		Events:     conn,
		Logger:     logger,
		Signals:    sigCh,
	}
	return r.Run(ctx)
}

// Runner wires a Manager to a backend and its inputs.
type Runner struct {
	Config *config.Config
	// ConfigPath is watched for changes when set.
	ConfigPath string
	Backend    platform.Backend
	Events     platform.EventSource
	Logger     *slog.Logger
	Signals    <-chan os.Signal
	// Spawner defaults to spawn.Start.
	Spawner wm.Spawner
	// RunScript runs the startup and shutdown scripts; defaults to spawn.Run.
	RunScript func(command string) error
}

type spawnFunc func(command string) error

func (f spawnFunc) Start(command string) error { return f(command) }

// Run starts the manager, serves until it stops and shuts it down. The
// shutdown path runs whichever way the loop ended.
func (r *Runner) Run(ctx context.Context) (wm.RunStatus, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := r.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	spawner := r.Spawner
	if spawner == nil {
		spawner = spawnFunc(spawn.Start)
	}
	runScript := r.RunScript
	if runScript == nil {
		runScript = spawn.Run
	}

	r.script(runScript, "startup", cfg.StartupScript, logger)

	pub := ipc.NewPublisher(cfg.MessageSocket, logger)
	m := wm.New(wm.Options{
		Backend:   r.Backend,
		Config:    cfg,
		Publisher: pub,
		Spawner:   spawner,
		Logger:    logger,
	})
	if err := m.Start(); err != nil {
		m.Shutdown()
		return wm.Quitting, fmt.Errorf("failed to start window manager: %w", err)
	}

	svcCtx, stopServices := context.WithCancel(ctx)
	defer stopServices()
	in, svcDone := r.startServices(svcCtx, cfg, pub, logger)

	watcher, reloads := r.watchConfig(logger)
	in.Reloads = reloads
	in.Signals = r.Signals

	d := events.New(m, r.Backend, r.Events, logger)
	runErr := d.Run(ctx, in)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	status := m.Status()
	if watcher != nil {
		watcher.Stop()
	}
	stopServices()
	<-svcDone
	m.Shutdown()

	r.script(runScript, "shutdown", cfg.ShutdownScript, logger)
	return status, runErr
}

// startServices runs the socket services under a supervisor. The
// returned channel is closed once they have stopped.
func (r *Runner) startServices(ctx context.Context, cfg *config.Config, pub *ipc.Publisher, logger *slog.Logger) (events.Inputs, <-chan struct{}) {
	var in events.Inputs
	sup := ipc.NewSupervisor(logger)

	server, err := ipc.NewServer(cfg.CommandSocket, logger)
	if err != nil {
		logger.Warn("command socket disabled", "err", err)
	} else {
		ipc.Add(sup, server)
		in.Commands = server.Requests()
	}
	ipc.Add(sup, pub)
	if addr := strings.TrimSpace(cfg.StatusHTTP); addr != "" {
		ipc.Add(sup, ipc.NewStatusServer(addr, pub, logger))
	}

	done := make(chan struct{})
	errCh := sup.ServeBackground(ctx)
	go func() {
		defer close(done)
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("socket services stopped", "err", err)
		}
	}()
	return in, done
}

// watchConfig forwards successful reloads of the config file. Failed
// loads keep the running configuration.
func (r *Runner) watchConfig(logger *slog.Logger) (*config.Watcher, <-chan *config.LoadResult) {
	if r.ConfigPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(r.ConfigPath); err != nil {
		logger.Debug("config file not watched", "path", r.ConfigPath, "err", err)
		return nil, nil
	}
	reloads := make(chan *config.LoadResult, 1)
	w, err := config.Watch(r.ConfigPath, logger, func(res *config.LoadResult, err error) {
		if err != nil {
			logger.Warn("config reload failed, keeping current configuration", "err", err)
			return
		}
		select {
		case reloads <- res:
		default:
			logger.Debug("config reload already pending")
		}
	})
	if err != nil {
		logger.Warn("config watch disabled", "err", err)
		return nil, nil
	}
	return w, reloads
}

func (r *Runner) script(run func(string) error, which, command string, logger *slog.Logger) {
	if strings.TrimSpace(command) == "" {
		return
	}
	logger.Info("running "+which+" script", "command", command)
	if err := run(command); err != nil {
		logger.Warn(which+" script failed", "command", command, "err", err)
	}
}
