package taskz

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not reached before deadline")
	}
}

func TestWorkerPool(t *testing.T) {
	t.Run("Rejects Invalid Worker Counts", func(t *testing.T) {
		if _, err := NewWorkerPool(0); err == nil {
			t.Error("expected error for zero workers")
		}
		if _, err := NewWorkerPool(-3); err == nil {
			t.Error("expected error for negative workers")
		}
	})

	t.Run("Runs Every Queued Job", func(t *testing.T) {
		pool, err := NewWorkerPool(4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer pool.Close() //nolint:errcheck

		const jobs = 500
		var executed atomic.Int64
		for i := 0; i < jobs; i++ {
			pool.Queue(EmptySchedulingContext(), func(SchedulingContext) { executed.Add(1) })
		}

		waitFor(t, 5*time.Second, func() bool { return executed.Load() == jobs })
	})

	t.Run("Pinned Jobs Queue On The Pinned Worker And Run With Its Context", func(t *testing.T) {
		pool, err := NewWorkerPool(4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Affinity is advisory: a running peer may steal the pinned job.
		// Stop the workers first so the placement can be inspected.
		if err := pool.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		var observed atomic.Int64
		observed.Store(-1)
		pool.Queue(PinnedSchedulingContext(2), func(ctx SchedulingContext) {
			if id, ok := ctx.WorkerID(); ok {
				observed.Store(int64(id))
			}
		})

		if pool.global.Len() != 0 || pool.workers[2].queue.Len() != 1 {
			t.Fatalf("expected the job on worker 2's queue, global=%d worker2=%d",
				pool.global.Len(), pool.workers[2].queue.Len())
		}
		job, ok := pool.workers[2].queue.Dequeue()
		if !ok {
			t.Fatal("expected job")
		}
		pool.workers[2].run(job)
		if observed.Load() != 2 {
			t.Errorf("expected worker 2's context, got %d", observed.Load())
		}
	})

	t.Run("Idle Workers Steal Pinned Backlog", func(t *testing.T) {
		pool, err := NewWorkerPool(4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer pool.Close() //nolint:errcheck

		// Pile slow work onto one worker; its idle peers have nothing to do
		// but steal it.
		const jobs = 100
		var executed atomic.Int64
		for i := 0; i < jobs; i++ {
			pool.Queue(PinnedSchedulingContext(0), func(SchedulingContext) {
				time.Sleep(2 * time.Millisecond)
				executed.Add(1)
			})
		}

		waitFor(t, 10*time.Second, func() bool { return executed.Load() == jobs })
		if pool.Metrics().Counter(WorkerPoolStolenTotal).Value() == 0 {
			t.Error("expected at least one steal from the loaded worker")
		}
	})

	t.Run("A Panicking Job Does Not Kill Its Worker", func(t *testing.T) {
		pool, err := NewWorkerPool(2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer pool.Close() //nolint:errcheck

		var hooked atomic.Int64
		if err := pool.OnJobPanic(func(_ context.Context, ev PoolEvent) error {
			if ev.Panic != nil {
				hooked.Add(1)
			}
			return nil
		}); err != nil {
			t.Fatalf("hook registration failed: %v", err)
		}

		pool.Queue(EmptySchedulingContext(), func(SchedulingContext) { panic("boom") })

		var executed atomic.Int64
		pool.Queue(EmptySchedulingContext(), func(SchedulingContext) { executed.Add(1) })

		waitFor(t, 5*time.Second, func() bool { return executed.Load() == 1 })
		waitFor(t, 5*time.Second, func() bool {
			return pool.Metrics().Counter(WorkerPoolPanicsTotal).Value() == 1
		})
		waitFor(t, 5*time.Second, func() bool { return hooked.Load() == 1 })
	})

	t.Run("Close Is Idempotent", func(t *testing.T) {
		pool, err := NewWorkerPool(2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := pool.Close(); err != nil {
			t.Errorf("first close: %v", err)
		}
		if err := pool.Close(); err != nil {
			t.Errorf("second close: %v", err)
		}
	})
}
