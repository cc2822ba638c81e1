package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"mailscout/internal/config"
	"mailscout/internal/logging"
	"mailscout/internal/services"
	"mailscout/internal/tasks"
	"mailscout/internal/workflow"
)

// Daemon coordinates the analysis workflow and the HTTP API, and
// enforces single-instance execution through a file lock.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   tasks.Store
	manager *workflow.Manager

	lockPath string
	lock     *flock.Flock

	logHub     *logging.StreamHub
	logArchive *logging.EventArchive

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	Workflow     WorkflowStatus
	Components   []services.Health
}

// WorkflowStatus summarizes analysis execution state for status views.
type WorkflowStatus struct {
	Running   bool
	Provider  string
	TaskStats map[tasks.Status]int
}

// New constructs a daemon with initialized dependencies. The stream hub
// and archive may be nil; the logs endpoint then serves empty pages.
func New(cfg *config.Config, store tasks.Store, logger *slog.Logger, manager *workflow.Manager, hub *logging.StreamHub, archive *logging.EventArchive) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || manager == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "mailscoutd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		manager:    manager,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		logHub:     hub,
		logArchive: archive,
		shutdown:   make(chan struct{}),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, launches the workflow manager, and
// brings up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mailscout daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.manager.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if err := d.api.start(d.ctx); err != nil {
		d.manager.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("mailscout daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("mailscout daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.logArchive != nil {
		return d.logArchive.Close()
	}
	return nil
}

// RequestShutdown asks the daemon process to exit. Safe to call more
// than once; the first call wins.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)
	})
}

// ShutdownRequested is closed once a stop has been requested through the
// API. The process entrypoint selects on it alongside signal delivery.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// Running reports whether the daemon has started and not yet stopped.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LogStream exposes the in-memory log hub for the API layer.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logHub
}

// LogArchive exposes the on-disk event archive for the API layer.
func (d *Daemon) LogArchive() *logging.EventArchive {
	return d.logArchive
}

// APIAddr returns the bound listen address, or empty before Start.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status reports daemon runtime information including component health.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		Workflow: WorkflowStatus{
			Running:   d.manager.Running(),
			Provider:  d.manager.ProviderName(),
			TaskStats: d.manager.Stats(),
		},
		Components: d.manager.Health(ctx),
	}
}
