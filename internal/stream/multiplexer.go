package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"substudio/internal/logging"
	"substudio/internal/media"
)

// Source opens the live event channel for one job. Stream blocks until ctx
// is cancelled or the connection ends, calling emit on the calling goroutine
// for every raw event payload.
type Source interface {
	Stream(ctx context.Context, jobID string, emit func(data []byte)) error
}

// Poster schedules a closure on the goroutine that owns the tree.
type Poster interface {
	Post(fn func()) bool
}

// Options tunes reconnect behaviour.
type Options struct {
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
	// OnTerminal runs on the owning goroutine after a job reaches a terminal status.
	OnTerminal func(jobID string, status media.Status)
}

// HandleInfo describes one open subscription.
type HandleInfo struct {
	JobID      string
	Opened     time.Time
	LastEvent  time.Time
	Events     int
	Reconnects int
}

type handle struct {
	jobID      string
	cancel     context.CancelFunc
	opened     time.Time
	lastEvent  time.Time
	events     int
	reconnects int
}

// Multiplexer owns the subscription registry. Every method except Wait must
// be called on the goroutine behind the Poster.
type Multiplexer struct {
	source  Source
	tree    *media.Tree
	logs    *Logs
	poster  Poster
	logger  *slog.Logger
	opts    Options
	handles map[string]*handle
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewMultiplexer wires a multiplexer that patches tree and appends to logs.
func NewMultiplexer(source Source, tree *media.Tree, logs *Logs, poster Poster, logger *slog.Logger, opts Options) *Multiplexer {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 500 * time.Millisecond
	}
	if opts.ReconnectMaxDelay < opts.ReconnectDelay {
		opts.ReconnectMaxDelay = opts.ReconnectDelay
	}
	if logs == nil {
		logs = NewLogs(DefaultLogLines)
	}
	return &Multiplexer{
		source:  source,
		tree:    tree,
		logs:    logs,
		poster:  poster,
		logger:  logging.NewComponentLogger(logger, "stream"),
		opts:    opts,
		handles: make(map[string]*handle),
		now:     time.Now,
	}
}

// Subscribe opens the job's stream, closing any previous handle first.
func (m *Multiplexer) Subscribe(jobID string) {
	m.Unsubscribe(jobID)

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{jobID: jobID, cancel: cancel, opened: m.now()}
	m.handles[jobID] = h
	m.logger.Debug("stream subscribed", logging.String(logging.FieldJobID, jobID))

	m.wg.Add(1)
	go m.pump(ctx, h)
}

// Unsubscribe closes the job's stream. It reports whether one was open.
func (m *Multiplexer) Unsubscribe(jobID string) bool {
	h, ok := m.handles[jobID]
	if !ok {
		return false
	}
	m.close(h)
	return true
}

// UnsubscribeAll closes every open stream and returns how many were open.
func (m *Multiplexer) UnsubscribeAll() int {
	count := len(m.handles)
	for _, h := range m.handles {
		m.close(h)
	}
	return count
}

// Subscribed reports whether the job has an open stream.
func (m *Multiplexer) Subscribed(jobID string) bool {
	_, ok := m.handles[jobID]
	return ok
}

// Active lists the open streams sorted by job identifier.
func (m *Multiplexer) Active() []HandleInfo {
	out := make([]HandleInfo, 0, len(m.handles))
	for _, h := range m.handles {
		out = append(out, HandleInfo{
			JobID:      h.jobID,
			Opened:     h.opened,
			LastEvent:  h.lastEvent,
			Events:     h.events,
			Reconnects: h.reconnects,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}

// Logs returns the log collection fed by log events.
func (m *Multiplexer) Logs() *Logs {
	return m.logs
}

// Wait blocks until every stream goroutine has exited. Call it off the
// owning goroutine after the streams were closed.
func (m *Multiplexer) Wait() {
	m.wg.Wait()
}

func (m *Multiplexer) close(h *handle) {
	h.cancel()
	if m.handles[h.jobID] == h {
		delete(m.handles, h.jobID)
	}
}

func (m *Multiplexer) pump(ctx context.Context, h *handle) {
	defer m.wg.Done()
	delay := m.opts.ReconnectDelay
	for {
		received := false
		err := m.source.Stream(ctx, h.jobID, func(data []byte) {
			received = true
			payload := append([]byte(nil), data...)
			m.poster.Post(func() { m.deliver(h, payload) })
		})
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("stream ended by server")
		}
		if received {
			delay = m.opts.ReconnectDelay
		}
		wait := delay
		if !m.poster.Post(func() { m.transportError(h, err, wait) }) {
			return
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay *= 2
		if delay > m.opts.ReconnectMaxDelay {
			delay = m.opts.ReconnectMaxDelay
		}
	}
}

func (m *Multiplexer) current(h *handle) bool {
	return m.handles[h.jobID] == h
}

func (m *Multiplexer) deliver(h *handle, data []byte) {
	if !m.current(h) {
		return
	}
	event, err := DecodeEvent(data)
	if err != nil {
		logging.WarnWithContext(m.logger, "stream event dropped", "stream_decode",
			logging.String(logging.FieldJobID, h.jobID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "backend sent an unexpected payload"),
			logging.String(logging.FieldImpact, "one progress update was skipped"),
		)
		m.logs.Append(h.jobID, LogLine{
			Time:    m.now(),
			Level:   "warn",
			Message: fmt.Sprintf("dropped unreadable event: %v", err),
		})
		return
	}
	if event.FileID != "" && event.FileID != h.jobID {
		m.logger.Debug("stream event for another job ignored",
			logging.String(logging.FieldJobID, h.jobID),
			logging.String("event_file_id", event.FileID),
		)
		return
	}

	h.lastEvent = m.now()
	h.events++

	switch event.Type {
	case TypeLog:
		m.logs.Append(h.jobID, LogLine{Time: h.lastEvent, Level: event.Level, Message: event.Message})
	case TypeStatus:
		status := event.Status
		patch := media.Patch{Status: &status, Progress: event.Progress}
		if event.Message != "" {
			text := event.Message
			patch.StatusText = &text
		}
		if !m.tree.Update(h.jobID, patch) {
			m.logger.Debug("status for unknown item ignored", logging.String(logging.FieldJobID, h.jobID))
		}
		if status.IsTerminal() {
			m.close(h)
			m.logger.Info("job finished",
				logging.String(logging.FieldJobID, h.jobID),
				logging.String("status", string(status)),
				logging.Int("events", h.events),
			)
			if m.opts.OnTerminal != nil {
				m.opts.OnTerminal(h.jobID, status)
			}
		}
	}
}

func (m *Multiplexer) transportError(h *handle, err error, retry time.Duration) {
	if !m.current(h) {
		return
	}
	h.reconnects++
	logging.WarnWithContext(m.logger, "stream connection lost", "stream_reconnect",
		logging.String(logging.FieldJobID, h.jobID),
		logging.Error(err),
		logging.Duration("retry_in", retry),
		logging.Int("reconnects", h.reconnects),
		logging.String(logging.FieldErrorHint, "check that the backend is reachable"),
		logging.String(logging.FieldImpact, "progress updates are delayed until the stream reconnects"),
	)
	m.logs.Append(h.jobID, LogLine{
		Time:    m.now(),
		Level:   "warn",
		Message: fmt.Sprintf("connection lost (%v); reconnecting in %s", err, retry),
	})
}
