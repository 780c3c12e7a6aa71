package taskz

import "sync"

// TrackingOnceCell is a read-only cell that adopts a backing cell exactly
// once via Track and thereafter forwards every operation to it. Until a
// backing cell arrives, callbacks are buffered locally.
//
// Bind is the sole client: the dependent computation's own cell only exists
// once the antecedent has resolved, so Bind hands out a tracking cell up
// front and points it at the real cell later.
type TrackingOnceCell[T any] struct {
	mu        sync.RWMutex
	tracked   Cell[T]
	callbacks []Callback[T]
	adopted   *sync.Cond
}

// NewTrackingOnceCell builds a tracking cell with no backing cell yet.
func NewTrackingOnceCell[T any]() *TrackingOnceCell[T] {
	c := &TrackingOnceCell[T]{}
	c.adopted = sync.NewCond(c.mu.RLocker())
	return c
}

// Read delegates to the backing cell; while untracked it reports empty.
func (c *TrackingOnceCell[T]) Read() (Result[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tracked == nil {
		var zero Result[T]
		return zero, false
	}
	return c.tracked.Read()
}

// Await registers cb against the backing cell, buffering it until one is
// adopted.
func (c *TrackingOnceCell[T]) Await(cb Callback[T]) {
	c.mu.Lock()
	if c.tracked == nil {
		c.callbacks = append(c.callbacks, cb)
		c.mu.Unlock()
		return
	}
	tracked := c.tracked
	c.mu.Unlock()

	// Forward outside our lock; the backing cell takes its own.
	tracked.Await(cb)
}

// Track adopts the backing cell. It reports whether the adoption took
// effect; false means a cell was already being tracked. Buffered callbacks
// are forwarded to the adopted cell and the buffer is cleared.
func (c *TrackingOnceCell[T]) Track(cell Cell[T]) bool {
	c.mu.Lock()
	if c.tracked != nil {
		c.mu.Unlock()
		return false
	}
	c.tracked = cell
	pending := c.callbacks
	c.callbacks = nil
	c.mu.Unlock()

	for _, cb := range pending {
		cell.Await(cb)
	}
	c.adopted.Broadcast()
	return true
}

// Block waits until a backing cell is adopted, then delegates to its Block.
// The tracked cell is re-checked after every wake; the adopted cell itself
// may still be unsettled at that point, and its own Block handles that.
func (c *TrackingOnceCell[T]) Block() Result[T] {
	c.mu.RLock()
	for c.tracked == nil {
		c.adopted.Wait()
	}
	tracked := c.tracked
	c.mu.RUnlock()
	return tracked.Block()
}
