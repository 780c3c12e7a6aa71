package taskz

// TaskValueSource mints tasks resolved by an explicit completion, in the
// spirit of .NET's TaskCompletionSource. One cell drives every task created
// from the source: tasks minted before or after the completion all observe
// the same value, and tasks cannot mutate the cell themselves.
type TaskValueSource[T any] struct {
	cell  *WriteOnceCell[T]
	queue Queuer
}

// NewValueSource builds a source whose tasks are scheduled through queue.
func NewValueSource[T any](queue Queuer) *TaskValueSource[T] {
	return &TaskValueSource[T]{
		cell:  NewWriteOnceCell[T](queue),
		queue: queue,
	}
}

// Create mints a task backed by the source's cell.
func (s *TaskValueSource[T]) Create() Task[T] {
	return fromCell[T](s.queue, s.cell)
}

// Complete resolves every task minted from this source with value. It
// reports whether the completion took effect; false means the source was
// already settled.
func (s *TaskValueSource[T]) Complete(value T) bool {
	return s.cell.Write(EmptySchedulingContext(), value)
}

// CompleteCtx is Complete with an explicit scheduling context, for
// completions performed from within a job that want continuations to stay
// on the resolving worker.
func (s *TaskValueSource[T]) CompleteCtx(ctx SchedulingContext, value T) bool {
	return s.cell.Write(ctx, value)
}

// Reject settles every task minted from this source with err, typically
// ErrRejected. It reports whether the rejection took effect.
func (s *TaskValueSource[T]) Reject(err error) bool {
	return s.cell.Error(EmptySchedulingContext(), err)
}
