package taskz

// Job is an executable unit of work. Jobs are scheduled onto the worker pool
// and run to completion; the SchedulingContext they receive identifies the
// worker executing them so that any cells they resolve can route
// continuations back to the same worker.
type Job func(SchedulingContext)

// SchedulingContext carries the information surrounding a scheduled job.
// It is either empty (no affinity; jobs placed through it land on the shared
// global queue) or pinned to a specific worker (jobs placed through it land
// on that worker's local queue).
//
// Contexts flow from the currently-executing job into the cells it resolves,
// which is how continuations inherit the resolving worker's affinity.
type SchedulingContext struct {
	workerID int
	pinned   bool
}

// EmptySchedulingContext returns a context with no worker affinity.
func EmptySchedulingContext() SchedulingContext {
	return SchedulingContext{}
}

// PinnedSchedulingContext returns a context pinned to the given worker.
func PinnedSchedulingContext(workerID int) SchedulingContext {
	return SchedulingContext{workerID: workerID, pinned: true}
}

// WorkerID reports the worker this context is pinned to, if any.
func (c SchedulingContext) WorkerID() (int, bool) {
	return c.workerID, c.pinned
}

// Queuer places jobs onto a scheduler. Cells and sources depend on this
// interface rather than on the concrete Scheduler so they can be exercised
// against test doubles; *Scheduler and *Runtime both implement it.
//
// The queuer handed to a cell must outlive the cell: cells hold it for the
// whole of their lifetime and use it to dispatch continuations at resolution
// time.
type Queuer interface {
	Queue(ctx SchedulingContext, jobs ...Job)
}

// Unit is the zero-content value type carried by tasks that resolve with no
// payload, such as timers.
type Unit struct{}
