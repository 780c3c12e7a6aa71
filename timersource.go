package taskz

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
)

// Observability constants for the timer poll source.
const (
	// Metrics.
	TimerScheduledTotal = metricz.Key("timer.scheduled.total")
	TimerFiredTotal     = metricz.Key("timer.fired.total")

	// Hook event keys.
	TimerEventFired = hookz.Key("timer.fired")
)

// Timer wheel defaults: a 50 ms tick with 40/60/60 rings spans two hours of
// scheduling horizon. The 5 ms poll cadence keeps the effective resolution
// close to the tick size.
const (
	timerWheelTick     = 50 * time.Millisecond
	timerPollFrequency = 5 * time.Millisecond
)

var timerWheelSizes = []int{40, 60, 60}

// TimerEvent describes a batch of expired timers delivered via hooks.
type TimerEvent struct {
	Fired     int       // Timers expired in this poll
	Timestamp time.Time // When the batch was collected
}

// TimerPollSource resolves scheduled jobs through a hierarchical timing
// wheel. Schedule is safe to call from any goroutine; Poll is driven by the
// scheduler's poll thread. A SpinLock guards the wheel — both operations
// touch it for microseconds.
type TimerPollSource struct {
	lock  SpinLock
	wheel *TimingWheel[Job]
	clock clockz.Clock

	metrics *metricz.Registry
	hooks   *hookz.Hooks[TimerEvent]
}

// NewTimerPollSource builds a timer source over the default wheel geometry.
func NewTimerPollSource() *TimerPollSource {
	registry := metricz.New()
	registry.Counter(TimerScheduledTotal)
	registry.Counter(TimerFiredTotal)

	return &TimerPollSource{
		wheel:   NewTimingWheel[Job](timerWheelTick, timerWheelSizes, clockz.RealClock),
		clock:   clockz.RealClock,
		metrics: registry,
		hooks:   hookz.New[TimerEvent](),
	}
}

// WithClock sets a custom clock for testing. It rebuilds the wheel, so call
// it before the first Schedule.
func (s *TimerPollSource) WithClock(clock clockz.Clock) *TimerPollSource {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.clock = clock
	s.wheel = NewTimingWheel[Job](timerWheelTick, timerWheelSizes, clock)
	return s
}

// Schedule arranges for job to be produced by a Poll roughly d from now.
// Precision is bounded by the wheel's tick size plus the poll cadence.
func (s *TimerPollSource) Schedule(d time.Duration, job Job) {
	s.lock.Lock()
	s.wheel.Schedule(d, job)
	s.lock.Unlock()
	s.metrics.Counter(TimerScheduledTotal).Inc()
}

// PollFrequency implements PollSource.
func (s *TimerPollSource) PollFrequency() time.Duration { return timerPollFrequency }

// Poll implements PollSource: it advances the wheel and returns the expired
// jobs.
func (s *TimerPollSource) Poll() []Job {
	s.lock.Lock()
	fired := s.wheel.Advance()
	s.lock.Unlock()

	if len(fired) > 0 {
		for range fired {
			s.metrics.Counter(TimerFiredTotal).Inc()
		}
		_ = s.hooks.Emit(context.Background(), TimerEventFired, TimerEvent{ //nolint:errcheck
			Fired:     len(fired),
			Timestamp: s.clock.Now(),
		})
	}
	return fired
}

// OnFired registers a handler for expired-timer batches.
func (s *TimerPollSource) OnFired(handler func(context.Context, TimerEvent) error) error {
	_, err := s.hooks.Hook(TimerEventFired, handler)
	return err
}

// Metrics returns the metrics registry for this source.
func (s *TimerPollSource) Metrics() *metricz.Registry { return s.metrics }

// TaskTimerSource mints tasks that resolve once a duration has elapsed.
type TaskTimerSource struct {
	queue  Queuer
	timers *TimerPollSource
}

// NewTaskTimerSource binds a timer source to the scheduler that will run the
// resolutions. Both collaborators must outlive the source.
func NewTaskTimerSource(queue Queuer, timers *TimerPollSource) TaskTimerSource {
	return TaskTimerSource{queue: queue, timers: timers}
}

// After returns a task that resolves with Unit once d has elapsed.
func (s TaskTimerSource) After(d time.Duration) Task[Unit] {
	cell := NewWriteOnceCell[Unit](s.queue)
	s.timers.Schedule(d, func(ctx SchedulingContext) {
		cell.Write(ctx, Unit{})
	})
	return fromCell[Unit](s.queue, cell)
}
