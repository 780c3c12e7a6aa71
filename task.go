package taskz

// Task is the user-facing handle over a cell. Tasks are cheap values: they
// carry a shared reference to their cell and the queuer that schedules their
// continuations. A task cannot write its own cell — the only mutation paths
// are the constructors and sources — so many tasks may safely share one
// underlying cell.
//
// A note on lifetimes: in a chain like
//
//	Map(Map(Map(t, f1), f2), f3)
//
// the intermediate tasks are unreachable the moment the expression ends,
// but no update is ever missed. Every continuation closes over the cell it
// writes into, so each producer cell's callback list holds the next cell in
// the chain alive until the final resolution.
type Task[T any] struct {
	cell  Cell[T]
	queue Queuer
}

// fromCell wraps an existing cell. Cells are an implementation detail, so
// construction from one is restricted to the package (sources use this).
func fromCell[T any](queue Queuer, cell Cell[T]) Task[T] {
	return Task[T]{cell: cell, queue: queue}
}

// NewTask schedules fn on the worker pool and returns a task that resolves
// with its result.
func NewTask[T any](queue Queuer, fn func() T) Task[T] {
	cell := NewWriteOnceCell[T](queue)
	queue.Queue(EmptySchedulingContext(), func(ctx SchedulingContext) {
		cell.Write(ctx, fn())
	})
	return fromCell[T](queue, cell)
}

// Block parks the calling goroutine until the task resolves, then returns
// the result.
func (t Task[T]) Block() Result[T] {
	return t.cell.Block()
}

// Map returns a task resolving with fn applied to t's value. Errors pass
// through unchanged without invoking fn.
//
// Map could be expressed through Bind, but fn is a plain value-to-value
// function and does not need a cell of its own; a direct WriteOnceCell
// avoids the tracking indirection.
func Map[T, G any](t Task[T], fn func(T) G) Task[G] {
	cell := NewWriteOnceCell[G](t.queue)
	t.cell.Await(func(ctx SchedulingContext, res Result[T]) {
		if res.OK() {
			cell.Write(ctx, fn(res.Value()))
			return
		}
		cell.Error(ctx, res.Err())
	})
	return fromCell[G](t.queue, cell)
}

// Bind returns a task resolving with the value of the task fn produces from
// t's value. The returned task is backed by a TrackingOnceCell: the
// dependent task's cell does not exist until t resolves, so the tracking
// cell stands in for it and adopts it at that point.
//
// When t fails, fn is not invoked; the tracking cell adopts a pre-filled
// error cell instead so downstream awaiters observe the failure.
func Bind[T, G any](t Task[T], fn func(T) Task[G]) Task[G] {
	tracking := NewTrackingOnceCell[G]()
	queue := t.queue
	t.cell.Await(func(ctx SchedulingContext, res Result[T]) {
		if !res.OK() {
			failed := NewWriteOnceCell[G](queue)
			failed.Error(ctx, res.Err())
			tracking.Track(failed)
			return
		}
		tracking.Track(fn(res.Value()).cell)
	})
	return fromCell[G](queue, tracking)
}

// WhenAny returns a task that resolves with the first success among tasks,
// and fails only when every input fails.
func WhenAny[T any](queue Queuer, tasks []Task[T]) Task[T] {
	cells := make([]Cell[T], len(tasks))
	for i, t := range tasks {
		cells[i] = t.cell
	}
	return fromCell[T](queue, NewWhenAnyCell(queue, cells))
}

// WhenAll returns a task that resolves with every input's value — ordered
// to match tasks regardless of resolution order — and fails with the first
// input failure.
func WhenAll[T any](queue Queuer, tasks []Task[T]) Task[[]T] {
	cells := make([]Cell[T], len(tasks))
	for i, t := range tasks {
		cells[i] = t.cell
	}
	return fromCell[[]T](queue, NewWhenAllCell(queue, cells))
}
