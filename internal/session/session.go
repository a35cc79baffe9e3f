package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"substudio/internal/api"
	"substudio/internal/backend"
	"substudio/internal/eventloop"
	"substudio/internal/logging"
	"substudio/internal/media"
	"substudio/internal/selection"
	"substudio/internal/settings"
	"substudio/internal/stream"
)

var (
	// ErrNothingToProcess is returned when a process request has no eligible files.
	ErrNothingToProcess = errors.New("nothing to process")
	// ErrUnknownItem is returned for identifiers that are not in the tree.
	ErrUnknownItem = errors.New("unknown item")
	// ErrSessionClosed is returned once Close has been called.
	ErrSessionClosed = errors.New("session closed")
)

// Scanner lists a library directory.
type Scanner interface {
	Scan(ctx context.Context, path string, recursive bool) (api.ScanResponse, error)
}

// Backend is the remote processing pipeline.
type Backend interface {
	Scanner
	stream.Source
	StartJobs(ctx context.Context, req api.ProcessRequest) (api.Ack, error)
	Cancel(ctx context.Context, jobID string) error
	Abort(ctx context.Context) error
	UploadSubtitle(ctx context.Context, upload backend.Upload) (string, error)
}

// Options configures a Session.
type Options struct {
	Backend Backend
	// Scanner replaces the backend as the source of scan snapshots.
	Scanner  Scanner
	Settings settings.Global
	Logger   *slog.Logger

	LogBufferLines    int
	InitialProgress   int
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration

	// NewCorrelationID overrides the batch identifier generator.
	NewCorrelationID func() string
}

// Session is the orchestrator behind every operator command.
type Session struct {
	loop            *eventloop.Loop
	backend         Backend
	scanner         Scanner
	logger          *slog.Logger
	initialProgress int
	newID           func() string
	started         time.Time

	// Owned by the loop goroutine.
	tree      *media.Tree
	selection *selection.Set
	registry  *settings.Registry
	logs      *stream.Logs
	mux       *stream.Multiplexer
	batches   map[string]*batch
	lastBatch string

	closeOnce sync.Once
}

// batch tracks the jobs of one start-job request. A job maps to its terminal
// status once the stream reports it, and to "" while it is still running.
type batch struct {
	correlationID string
	jobs          map[string]media.Status
	submitted     time.Time
}

// New builds a session and starts its event loop.
func New(opts Options) (*Session, error) {
	if opts.Backend == nil {
		return nil, errors.New("session requires a backend")
	}
	registry, err := settings.NewRegistry(opts.Settings)
	if err != nil {
		return nil, fmt.Errorf("session settings: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	scanner := opts.Scanner
	if scanner == nil {
		scanner = opts.Backend
	}
	initial := opts.InitialProgress
	if initial <= 0 || initial > 100 {
		initial = 5
	}
	newID := opts.NewCorrelationID
	if newID == nil {
		newID = uuid.NewString
	}

	s := &Session{
		loop:            eventloop.New(256),
		backend:         opts.Backend,
		scanner:         scanner,
		logger:          logging.NewComponentLogger(logger, "session"),
		initialProgress: initial,
		newID:           newID,
		started:         time.Now(),
		tree:            media.NewTree(),
		selection:       selection.New(),
		registry:        registry,
		logs:            stream.NewLogs(opts.LogBufferLines),
		batches:         make(map[string]*batch),
	}
	s.mux = stream.NewMultiplexer(opts.Backend, s.tree, s.logs, s.loop, logger, stream.Options{
		ReconnectDelay:    opts.ReconnectDelay,
		ReconnectMaxDelay: opts.ReconnectMaxDelay,
		OnTerminal:        s.jobFinished,
	})
	s.loop.Start(context.Background())
	return s, nil
}

// Started returns when the session was created.
func (s *Session) Started() time.Time {
	return s.started
}

// Close closes every stream, stops the loop and waits for the stream
// goroutines. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		closed := 0
		_ = s.loop.Do(context.Background(), func() {
			closed = s.mux.UnsubscribeAll()
		})
		s.loop.Close()
		s.loop.Wait()
		s.mux.Wait()
		s.logger.Info("session closed", logging.Int("streams_closed", closed))
	})
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.loop.Done()
}

func (s *Session) do(ctx context.Context, fn func()) error {
	err := s.loop.Do(ctx, fn)
	if errors.Is(err, eventloop.ErrClosed) {
		return ErrSessionClosed
	}
	return err
}

func (s *Session) open() error {
	select {
	case <-s.loop.Done():
		return ErrSessionClosed
	default:
		return nil
	}
}

func unknownItem(id string) error {
	return fmt.Errorf("%w: %s", ErrUnknownItem, id)
}

// jobFinished runs on the loop when a stream reports a terminal status. Each
// batch logs its summary once all of its jobs have finished.
func (s *Session) jobFinished(jobID string, status media.Status) {
	for id, b := range s.batches {
		recorded, ok := b.jobs[jobID]
		if !ok || recorded != "" {
			continue
		}
		b.jobs[jobID] = status
		if !b.finished() {
			continue
		}
		var done, failed, cancelled int
		for _, st := range b.jobs {
			switch st {
			case media.StatusDone:
				done++
			case media.StatusCancelled:
				cancelled++
			default:
				failed++
			}
		}
		s.logger.Info("batch finished",
			logging.String(logging.FieldCorrelationID, b.correlationID),
			logging.Int("jobs", len(b.jobs)),
			logging.Int("done", done),
			logging.Int("failed", failed),
			logging.Int("cancelled", cancelled),
			logging.Duration("elapsed", time.Since(b.submitted)),
			logging.String("last_status", string(status)),
		)
		delete(s.batches, id)
	}
}

func (b *batch) finished() bool {
	for _, status := range b.jobs {
		if status == "" {
			return false
		}
	}
	return true
}
