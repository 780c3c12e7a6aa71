package taskz

import "sync/atomic"

// whenAllState is shared by every input's continuation. It outlives the
// WhenAllCell itself for the same reason the publication slot does: the
// combinator may be dropped while input callbacks are still pending.
type whenAllState[T any] struct {
	resolved atomic.Int64
	slots    []T
	total    int64
}

// WhenAllCell resolves with the slice of all inputs' successes — in input
// order, regardless of resolution order — once every input has succeeded.
// The first input failure settles the cell with that error; later outcomes
// are ignored.
type WhenAllCell[T any] struct {
	underlying *WriteOnceCell[[]T]
	cells      []Cell[T]
}

// NewWhenAllCell builds the combinator over cells. An empty input set is
// vacuously complete and resolves immediately with an empty slice.
func NewWhenAllCell[T any](queue Queuer, cells []Cell[T]) *WhenAllCell[T] {
	underlying := NewWriteOnceCell[[]T](queue)
	c := &WhenAllCell[T]{underlying: underlying, cells: cells}

	state := &whenAllState[T]{
		slots: make([]T, len(cells)),
		total: int64(len(cells)),
	}
	if state.total == 0 {
		underlying.Write(EmptySchedulingContext(), state.slots)
		return c
	}

	for i, cell := range cells {
		i := i
		cell.Await(func(ctx SchedulingContext, res Result[T]) {
			if !res.OK() {
				// First error wins; the WriteOnceCell makes the rest no-ops.
				underlying.Error(ctx, res.Err())
				return
			}

			// Each input owns slot i exclusively, so the write needs no
			// lock; the fetch-add below publishes it to whichever
			// continuation performs the final increment.
			state.slots[i] = res.Value()
			if state.resolved.Add(1) == state.total {
				underlying.Write(ctx, state.slots)
			}
		})
	}
	return c
}

// Read delegates to the publication slot.
func (c *WhenAllCell[T]) Read() (Result[[]T], bool) { return c.underlying.Read() }

// Await delegates to the publication slot.
func (c *WhenAllCell[T]) Await(cb Callback[[]T]) { c.underlying.Await(cb) }

// Block delegates to the publication slot.
func (c *WhenAllCell[T]) Block() Result[[]T] { return c.underlying.Block() }
