package worker_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keygate/backend-go/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPool(t *testing.T) {
	pool := worker.NewPool(testLogger())

	if pool == nil {
		t.Fatal("expected non-nil pool")
	}
	if pool.Context() == nil {
		t.Fatal("expected non-nil context")
	}
}

func TestPoolSubmit(t *testing.T) {
	pool := worker.NewPool(testLogger())

	var counter int32

	for i := 0; i < 10; i++ {
		pool.Submit(func(ctx context.Context) {
			atomic.AddInt32(&counter, 1)
		})
	}

	pool.Shutdown(5 * time.Second)

	if atomic.LoadInt32(&counter) != 10 {
		t.Errorf("expected counter to be 10, got %d", counter)
	}
}

func TestPoolSubmitWithTimeout(t *testing.T) {
	pool := worker.NewPool(testLogger())

	var completed int32
	done := make(chan struct{})

	pool.SubmitWithTimeout(1*time.Second, func(ctx context.Context) {
		select {
		case <-ctx.Done():
		case <-time.After(100 * time.Millisecond):
			atomic.AddInt32(&completed, 1)
		}
		close(done)
	})

	<-done

	pool.Shutdown(5 * time.Second)

	if atomic.LoadInt32(&completed) != 1 {
		t.Errorf("expected task to complete, got %d", completed)
	}
}

func TestPoolSubmitPeriodic(t *testing.T) {
	pool := worker.NewPool(testLogger())

	var runs int32
	pool.SubmitPeriodic(10*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	time.Sleep(100 * time.Millisecond)
	pool.Shutdown(5 * time.Second)

	got := atomic.LoadInt32(&runs)
	if got < 2 {
		t.Errorf("expected periodic task to run at least twice, got %d", got)
	}

	// No further ticks after shutdown
	after := atomic.LoadInt32(&runs)
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&runs) != after {
		t.Error("periodic task ran after shutdown")
	}
}

func TestPoolContext(t *testing.T) {
	pool := worker.NewPool(testLogger())

	ctx := pool.Context()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be done")
	default:
	}

	pool.Shutdown(1 * time.Second)

	select {
	case <-ctx.Done():
	default:
		t.Fatal("context should be done after shutdown")
	}
}
