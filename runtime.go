package taskz

import "sync"

// Runtime ties the pieces together: one scheduler, one timer poll source,
// one I/O poll source. It exists for convenience — nothing stops an
// application from assembling a Scheduler and sources by hand — but
// whichever way the pieces are built, every task and cell in a program
// should share a single scheduler so all work lands on one pool.
//
// Runtime implements Queuer, so it can be passed directly to NewTask,
// NewValueSource and the combinators.
type Runtime struct {
	scheduler *Scheduler
	timers    *TimerPollSource
	io        *IOPollSource

	closeOnce sync.Once
	closeErr  error
}

// New builds a runtime with n workers and both poll sources registered.
func New(n int, opts ...Option) (*Runtime, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	timers := NewTimerPollSource()
	if cfg.clock != nil {
		timers.WithClock(cfg.clock)
	}
	ioSource := NewIOPollSource()

	scheduler, err := NewScheduler(n, []PollSource{timers, ioSource}, opts...)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		scheduler: scheduler,
		timers:    timers,
		io:        ioSource,
	}, nil
}

// Queue implements Queuer, forwarding to the scheduler.
func (r *Runtime) Queue(ctx SchedulingContext, jobs ...Job) {
	r.scheduler.Queue(ctx, jobs...)
}

// Scheduler returns the underlying scheduler.
func (r *Runtime) Scheduler() *Scheduler { return r.scheduler }

// TimerSource returns a task source over the runtime's timer wheel.
func (r *Runtime) TimerSource() TaskTimerSource {
	return NewTaskTimerSource(r.scheduler, r.timers)
}

// IOSource returns a task source over the runtime's read subsystem.
func (r *Runtime) IOSource() TaskIOSource {
	return NewTaskIOSource(r.scheduler, r.io)
}

// Close shuts the scheduler down. Close is idempotent.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.scheduler.Close()
	})
	return r.closeErr
}
