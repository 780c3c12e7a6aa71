package taskz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the scheduler.
const (
	// Metrics.
	SchedulerPollsTotal    = metricz.Key("scheduler.polls.total")
	SchedulerPollJobsTotal = metricz.Key("scheduler.poll.jobs.total")

	// Spans.
	SchedulerPollSpan = tracez.Key("scheduler.poll")

	// Tags.
	SchedulerTagSource   = tracez.Tag("scheduler.poll.source")
	SchedulerTagJobCount = tracez.Tag("scheduler.poll.job_count")
)

// Poll-thread wheel geometry: a flat one-minute wheel at 10 ms ticks. Poll
// frequencies are all far below a minute, so a single ring suffices.
const (
	pollWheelTick = 10 * time.Millisecond
	pollWheelSpan = time.Minute
	pollIdleSleep = time.Millisecond
)

// Option configures a Scheduler or Runtime at construction time.
type Option func(*config)

type config struct {
	clock clockz.Clock
}

// WithClock substitutes the clock used by the poll loop and, through the
// Runtime, the timer wheel. Tests pass a fake clock here.
func WithClock(clock clockz.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// Scheduler owns a worker pool and a single poll goroutine. Jobs reach the
// workers through Queue; poll sources are registered at construction and
// driven on their declared cadence for the scheduler's whole lifetime.
//
// The scheduler must outlive every cell and task holding a reference to it;
// the usual pattern is one scheduler for the life of the process.
type Scheduler struct {
	pool  *WorkerPool
	clock clockz.Clock

	done   chan struct{}
	pollWG sync.WaitGroup

	metrics *metricz.Registry
	tracer  *tracez.Tracer

	closeOnce sync.Once
	closeErr  error
}

// NewScheduler builds a scheduler with n workers and starts its poll
// goroutine over sources. Construction fails only on an invalid worker
// count.
func NewScheduler(n int, sources []PollSource, opts ...Option) (*Scheduler, error) {
	cfg := config{clock: clockz.RealClock}
	for _, opt := range opts {
		opt(&cfg)
	}

	pool, err := NewWorkerPool(n)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	registry := metricz.New()
	registry.Counter(SchedulerPollsTotal)
	registry.Counter(SchedulerPollJobsTotal)

	s := &Scheduler{
		pool:    pool,
		clock:   cfg.clock,
		done:    make(chan struct{}),
		metrics: registry,
		tracer:  tracez.New(),
	}

	s.pollWG.Add(1)
	go s.pollLoop(sources)

	capitan.Info(context.Background(), SignalSchedulerStarted,
		FieldWorkerCount.Field(n),
		FieldPollSources.Field(len(sources)),
		FieldTimestamp.Field(float64(time.Now().Unix())),
	)
	return s, nil
}

// Queue implements Queuer, forwarding to the worker pool.
func (s *Scheduler) Queue(ctx SchedulingContext, jobs ...Job) {
	s.pool.Queue(ctx, jobs...)
}

// Workers returns the size of the worker pool.
func (s *Scheduler) Workers() int { return s.pool.Size() }

// Pool returns the underlying worker pool, exposing its metrics and hooks.
func (s *Scheduler) Pool() *WorkerPool { return s.pool }

// Metrics returns the metrics registry for the scheduler.
func (s *Scheduler) Metrics() *metricz.Registry { return s.metrics }

// Tracer returns the tracer for the scheduler's poll spans.
func (s *Scheduler) Tracer() *tracez.Tracer { return s.tracer }

// pollLoop drives every poll source on its declared cadence. Sources sit in
// a flat timing wheel; each advancement polls the due sources, queues the
// jobs they return onto the global queue, and re-schedules the source at its
// declared frequency into the future.
func (s *Scheduler) pollLoop(sources []PollSource) {
	defer s.pollWG.Done()

	wheel := NewTimingWheel[PollSource](pollWheelTick, []int{int(pollWheelSpan / pollWheelTick)}, s.clock)
	for _, src := range sources {
		wheel.Schedule(0, src)
	}

	for {
		select {
		case <-s.done:
			return
		default:
		}

		for _, src := range wheel.Advance() {
			_, span := s.tracer.StartSpan(context.Background(), SchedulerPollSpan)
			span.SetTag(SchedulerTagSource, fmt.Sprintf("%T", src))

			jobs := src.Poll()
			if len(jobs) > 0 {
				s.Queue(EmptySchedulingContext(), jobs...)
			}
			wheel.Schedule(src.PollFrequency(), src)

			s.metrics.Counter(SchedulerPollsTotal).Inc()
			for range jobs {
				s.metrics.Counter(SchedulerPollJobsTotal).Inc()
			}
			span.SetTag(SchedulerTagJobCount, fmt.Sprintf("%d", len(jobs)))
			span.Finish()
		}

		// The wheel gates on elapsed ticks; sleeping between advancements
		// keeps the loop off the CPU without costing resolution.
		select {
		case <-s.done:
			return
		case <-s.clock.After(pollIdleSleep):
		}
	}
}

// Close requests cooperative shutdown of the poll goroutine and every
// worker, then waits for them to exit. Jobs outstanding at shutdown are not
// drained. Close is idempotent: repeat calls return the first result.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.pollWG.Wait()
		s.closeErr = s.pool.Close()
		s.tracer.Close()
		capitan.Info(context.Background(), SignalSchedulerStopped,
			FieldWorkerCount.Field(s.pool.Size()),
			FieldTimestamp.Field(float64(time.Now().Unix())),
		)
	})
	return s.closeErr
}
