package taskz

import "sync/atomic"

// WhenAnyCell resolves with the first success among its input cells, and
// fails only when every input has failed. Ties between simultaneous
// successes are broken by the underlying cell's write ordering: whichever
// continuation wins the exclusive lock first publishes its value, the rest
// become no-ops.
//
// The publication slot is a shared WriteOnceCell rather than a field so the
// WhenAnyCell itself may be dropped before all input callbacks have fired;
// the input cells' callback lists keep the slot alive until then.
type WhenAnyCell[T any] struct {
	underlying *WriteOnceCell[T]
	cells      []Cell[T]
}

// NewWhenAnyCell builds the combinator over cells. An empty input set can
// never resolve, so it fails immediately with ErrRejected.
func NewWhenAnyCell[T any](queue Queuer, cells []Cell[T]) *WhenAnyCell[T] {
	underlying := NewWriteOnceCell[T](queue)
	c := &WhenAnyCell[T]{underlying: underlying, cells: cells}

	total := int64(len(cells))
	if total == 0 {
		underlying.Error(EmptySchedulingContext(), ErrRejected)
		return c
	}

	var errored atomic.Int64
	for _, cell := range cells {
		cell.Await(func(ctx SchedulingContext, res Result[T]) {
			if res.OK() {
				underlying.Write(ctx, res.Value())
				return
			}
			// Only the final failure publishes; any earlier success has
			// already made the write a no-op anyway.
			if errored.Add(1) == total {
				underlying.Error(ctx, res.Err())
			}
		})
	}
	return c
}

// Read delegates to the publication slot.
func (c *WhenAnyCell[T]) Read() (Result[T], bool) { return c.underlying.Read() }

// Await delegates to the publication slot.
func (c *WhenAnyCell[T]) Await(cb Callback[T]) { c.underlying.Await(cb) }

// Block delegates to the publication slot.
func (c *WhenAnyCell[T]) Block() Result[T] { return c.underlying.Block() }
