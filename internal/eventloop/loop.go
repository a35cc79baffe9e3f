// Package eventloop runs closures one at a time on a dedicated goroutine.
//
// State owned by a loop is only touched from inside posted closures, so the
// owner needs no locks. Blocking work (network calls) belongs outside the
// loop; its results are posted back.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when work is submitted after the loop stopped.
var ErrClosed = errors.New("event loop closed")

// Loop serializes closures onto a single goroutine.
type Loop struct {
	queue chan func()
	done  chan struct{}

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	finished chan struct{}
}

// New creates a loop with the given queue depth. Call Run to start it.
func New(depth int) *Loop {
	if depth <= 0 {
		depth = 64
	}
	return &Loop{
		queue:    make(chan func(), depth),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Run processes closures until ctx is cancelled or Close is called.
// It returns immediately when called a second time.
func (l *Loop) Run(ctx context.Context) {
	if !l.claim() {
		return
	}
	l.run(ctx)
}

func (l *Loop) claim() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return false
	}
	l.started = true
	return true
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.finished)
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start(ctx context.Context) {
	if l.claim() {
		go l.run(ctx)
	}
}

// Post enqueues fn without waiting for it to run. It reports false when the
// loop is closed. Post never blocks once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. When ctx ends or the
// loop closes before fn has started, fn is skipped and never runs; once fn
// has started Do waits for it and returns nil. Calling Do from inside a
// posted closure deadlocks; use the state directly there.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var state atomic.Int32
	ran := make(chan struct{})
	if !l.Post(func() {
		if !state.CompareAndSwap(pending, running) {
			return
		}
		defer close(ran)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		if state.CompareAndSwap(pending, abandoned) {
			return ErrClosed
		}
		<-ran
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(pending, abandoned) {
			return ctx.Err()
		}
		<-ran
		return nil
	}
}

const (
	pending int32 = iota
	running
	abandoned
)

// Close stops the loop. Pending closures are discarded.
func (l *Loop) Close() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Done is closed once Close has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until a started Run has returned.
func (l *Loop) Wait() {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if started {
		<-l.finished
	}
}
