package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"substudio/internal/config"
	"substudio/internal/logging"
	"substudio/internal/session"
)

// ErrAlreadyRunning is returned when another host holds the session lock.
var ErrAlreadyRunning = errors.New("another substudio session is already running")

// Options describes how the hosted session was wired.
type Options struct {
	// Scanner names the scan source: "backend" or "local".
	Scanner    string
	BackendURL string
}

// Daemon owns the session lock and the hosted session.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	session *session.Session
	opts    Options
	logPath string

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	started  time.Time
	shutdown chan struct{}
	stopOnce sync.Once
}

// Status represents host runtime information.
type Status struct {
	Running    bool
	PID        int
	Started    time.Time
	LockPath   string
	LogPath    string
	Scanner    string
	BackendURL string
}

// New constructs a host around sess.
func New(cfg *config.Config, sess *session.Session, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || sess == nil {
		return nil, errors.New("daemon requires config and session")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.Paths.LockPath
	if lockPath == "" {
		lockPath = filepath.Join(cfg.Paths.LogDir, "substudio.lock")
	}
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		session:  sess,
		opts:     opts,
		logPath:  filepath.Join(cfg.Paths.LogDir, logging.LogFileName),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		shutdown: make(chan struct{}),
	}, nil
}

// Start acquires the session lock.
func (d *Daemon) Start(_ context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	d.started = time.Now()
	d.running.Store(true)
	d.logger.Info("substudio session started",
		logging.String("lock", d.lockPath),
		logging.String("scanner", d.opts.Scanner),
		logging.String("backend", d.opts.BackendURL),
	)
	return nil
}

// Stop releases the session lock. The session itself stays usable until Close.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release session lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the next session start may report a running session"),
			logging.String(logging.FieldErrorHint, "remove the lock file if no session is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("substudio session stopped")
}

// Close stops the host and tears the session down.
func (d *Daemon) Close() error {
	d.Stop()
	d.session.Close()
	return nil
}

// Session returns the hosted session.
func (d *Daemon) Session() *session.Session {
	return d.session
}

// Config returns the host configuration.
func (d *Daemon) Config() *config.Config {
	return d.cfg
}

// RequestShutdown asks the runtime loop to exit. It is safe to call repeatedly.
func (d *Daemon) RequestShutdown() {
	d.stopOnce.Do(func() {
		d.logger.Info("shutdown requested")
		close(d.shutdown)
	})
}

// ShutdownRequested is closed once RequestShutdown has been called.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// Status returns host runtime information.
func (d *Daemon) Status(_ context.Context) Status {
	return Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		Started:    d.started,
		LockPath:   d.lockPath,
		LogPath:    d.logPath,
		Scanner:    d.opts.Scanner,
		BackendURL: d.opts.BackendURL,
	}
}
