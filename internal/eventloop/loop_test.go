package eventloop_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"substudio/internal/eventloop"
)

func TestDoRunsInSubmissionOrder(t *testing.T) {
	loop := eventloop.New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop.Start(ctx)
	defer loop.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		if !loop.Post(func() { order = append(order, i) }) {
			t.Fatal("post failed on a running loop")
		}
	}
	var got []int
	if err := loop.Do(ctx, func() { got = append(got, order...) }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("unexpected order %v", got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 closures to run, got %d", len(got))
	}
}

func TestConcurrentPostsNeedNoLocks(t *testing.T) {
	loop := eventloop.New(4)
	ctx := context.Background()
	loop.Start(ctx)
	defer loop.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = loop.Do(ctx, func() { counter++ })
		}()
	}
	wg.Wait()
	var got int
	if err := loop.Do(ctx, func() { got = counter }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != 50 {
		t.Fatalf("expected 50 increments, got %d", got)
	}
}

func TestClosedLoopRejectsWork(t *testing.T) {
	loop := eventloop.New(1)
	loop.Start(context.Background())
	loop.Close()
	loop.Wait()

	if loop.Post(func() {}) {
		t.Fatal("expected post to fail after close")
	}
	if err := loop.Do(context.Background(), func() {}); !errors.Is(err, eventloop.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestContextCancellationStopsLoop(t *testing.T) {
	loop := eventloop.New(1)
	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)
	cancel()

	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after context cancellation")
	}
	loop.Wait()
}

func TestWaitWithoutRunReturns(t *testing.T) {
	loop := eventloop.New(1)
	loop.Wait()
}

func TestCancelledDoNeverRunsClosure(t *testing.T) {
	loop := eventloop.New(4)
	loop.Start(context.Background())
	defer loop.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	loop.Post(func() {
		close(entered)
		<-release
	})
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ran := false
	if err := loop.Do(ctx, func() { ran = true }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	close(release)

	var got bool
	if err := loop.Do(context.Background(), func() { got = ran }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got {
		t.Fatal("expected closure of a cancelled Do to be skipped")
	}
}

func TestDoWaitsForClosureThatAlreadyStarted(t *testing.T) {
	loop := eventloop.New(1)
	loop.Start(context.Background())
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	err := loop.Do(ctx, func() {
		cancel()
		time.Sleep(10 * time.Millisecond)
		ran = true
	})
	if err != nil {
		t.Fatalf("expected started closure to report success, got %v", err)
	}
	if !ran {
		t.Fatal("expected Do to return only after the closure finished")
	}
}
