package taskz

// Callback is a continuation registered on a cell. The cell queues it as a
// job with the resolving writer's context (an empty context when the cell
// was already full at registration time); the callback receives the context
// that job runs with — under a Scheduler, the executing worker's — together
// with the settled result.
type Callback[T any] func(ctx SchedulingContext, res Result[T])

// Cell is a thread-safe single-assignment holder shared across producers and
// consumers. A cell starts empty, settles exactly once, and thereafter never
// changes. Every callback registered through Await is dispatched exactly
// once — as a scheduler job, never inline — either at settle time or, when
// the cell is already settled, at Await time. Blocked readers are woken
// exactly once.
//
// Cells are always used through shared references; consumers (tasks,
// combinators, poll sources) may outlive each other in any order.
type Cell[T any] interface {
	// Read snapshots the contents: the settled result and true, or the zero
	// Result and false while the cell is still empty.
	Read() (Result[T], bool)

	// Await registers a continuation to run with the settled result.
	Await(cb Callback[T])

	// Block parks the calling goroutine until the cell settles, then
	// returns the result. Unlike Await it does not release the caller.
	Block() Result[T]
}
