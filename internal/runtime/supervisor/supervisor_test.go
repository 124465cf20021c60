package supervisor

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoRestartGivesUpAfterMaxRestarts(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var runs int32
	s.GoRestart("flaky", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("boom")
	}, WithRestartBackoff(time.Millisecond, 2*time.Millisecond), WithMaxRestarts(2), WithPublishFirstError(true))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Fatal("expected published error after giving up")
	}
	if got := atomic.LoadInt32(&runs); got != 3 {
		t.Fatalf("runs = %d, want 3 (initial + 2 restarts)", got)
	}
}

func TestGoRestartStopsOnCleanExitByDefault(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var runs int32
	s.GoRestart("oneshot", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, WithRestartBackoff(time.Millisecond, 2*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Fatalf("runs = %d, want 1", got)
	}
}

func TestGoRestartRestartsCleanExitWhenConfigured(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var runs int32
	done := make(chan struct{})
	s.GoRestart("loop", func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1) == 3 {
			close(done)
		}
		return nil
	}, WithRestartBackoff(time.Millisecond, 2*time.Millisecond), WithStopOnCleanExit(false))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop was not restarted after clean exits")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}

func TestGoPanicIsRecovered(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	s.Go("panicky", func(ctx context.Context) error {
		panic("kaboom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if err == nil {
		t.Fatal("expected error from panicking goroutine")
	}
	if !strings.Contains(err.Error(), "panic") {
		t.Fatalf("err = %v, want panic mention", err)
	}
}

func TestCancelOnError(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithCancelOnError(true))
	s.Go("fails", func(ctx context.Context) error { return errors.New("fatal") })

	select {
	case <-s.Context().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor context was not canceled after error")
	}
	if err := s.Err(); err == nil {
		t.Fatal("expected first error to be recorded")
	}
}
