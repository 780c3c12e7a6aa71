package taskz

import "sync"

// WriteOnceCell is the workhorse cell: it can be written to once and read
// from any number of times. Writes race freely; exactly one wins. The
// winning write dispatches every registered callback as a scheduler job
// carrying the writer's scheduling context, so continuations land on the
// worker that produced the value.
//
// Callbacks are never invoked inline under the cell's lock. Running them
// through the scheduler prevents unbounded stack growth on long Map/Bind
// chains and preserves the scheduler's worker-affinity discipline.
type WriteOnceCell[T any] struct {
	queue Queuer

	mu        sync.RWMutex
	filled    bool
	result    Result[T]
	callbacks []Callback[T]
	settled   *sync.Cond
}

// NewWriteOnceCell builds an empty cell that dispatches its continuations
// through queue. The queuer must outlive the cell.
func NewWriteOnceCell[T any](queue Queuer) *WriteOnceCell[T] {
	c := &WriteOnceCell[T]{queue: queue}
	c.settled = sync.NewCond(c.mu.RLocker())
	return c
}

// Read snapshots the cell's contents.
func (c *WriteOnceCell[T]) Read() (Result[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result, c.filled
}

// Write attempts to settle the cell with value. It reports whether the
// write took effect; false means the cell was already settled and nothing
// changed. Every dispatched continuation is queued with ctx.
func (c *WriteOnceCell[T]) Write(ctx SchedulingContext, value T) bool {
	return c.settle(ctx, Ok(value))
}

// Error attempts to settle the cell with err, under the same once-only
// contract as Write.
func (c *WriteOnceCell[T]) Error(ctx SchedulingContext, err error) bool {
	return c.settle(ctx, Fail[T](err))
}

func (c *WriteOnceCell[T]) settle(ctx SchedulingContext, res Result[T]) bool {
	c.mu.Lock()
	if c.filled {
		c.mu.Unlock()
		return false
	}
	c.result = res
	c.filled = true

	// Drain the pending list under the exclusive lock; only the winning
	// writer ever does this, so each callback is dispatched exactly once.
	// Clearing the list promptly releases anything the callbacks captured.
	pending := c.callbacks
	c.callbacks = nil
	for _, cb := range pending {
		cb := cb
		c.queue.Queue(ctx, func(jctx SchedulingContext) { cb(jctx, res) })
	}
	c.mu.Unlock()

	// Wake blocked readers after releasing the lock so they can take it.
	c.settled.Broadcast()
	return true
}

// Await registers cb to run with the settled result. If the cell is already
// settled, cb is dispatched immediately — still through the scheduler, with
// an empty context.
func (c *WriteOnceCell[T]) Await(cb Callback[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filled {
		res := c.result
		c.queue.Queue(EmptySchedulingContext(), func(ctx SchedulingContext) { cb(ctx, res) })
		return
	}
	c.callbacks = append(c.callbacks, cb)
}

// Block parks the calling goroutine until the cell settles. The wait loops
// on the condition, so a wake never returns an empty cell.
func (c *WriteOnceCell[T]) Block() Result[T] {
	c.mu.RLock()
	for !c.filled {
		c.settled.Wait()
	}
	res := c.result
	c.mu.RUnlock()
	return res
}
