package taskz

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
)

// Observability constants for the worker pool.
const (
	// Metrics.
	WorkerPoolQueuedTotal   = metricz.Key("workerpool.jobs.queued.total")
	WorkerPoolExecutedTotal = metricz.Key("workerpool.jobs.executed.total")
	WorkerPoolStolenTotal   = metricz.Key("workerpool.jobs.stolen.total")
	WorkerPoolPanicsTotal   = metricz.Key("workerpool.jobs.panics.total")
	WorkerPoolGlobalDepth   = metricz.Key("workerpool.queue.global.depth")

	// Hook event keys.
	PoolEventJobPanic = hookz.Key("workerpool.job.panic")
)

// queueSaturationDepth is the global-queue depth past which enqueues emit a
// saturation signal. Producers outpacing the pool by this much usually means
// the worker count is undersized for the workload.
const queueSaturationDepth = 4096

// ErrInvalidWorkerCount is returned when a pool or scheduler is constructed
// with fewer than one worker.
var ErrInvalidWorkerCount = errors.New("worker count must be at least 1")

// PoolEvent describes a worker pool occurrence delivered via hooks.
type PoolEvent struct {
	Worker    int       // Worker index the event originated from
	Panic     any       // Recovered panic value, for PoolEventJobPanic
	Timestamp time.Time // When the event occurred
}

// worker owns one queue and one goroutine. Its loop prefers its own queue,
// then stolen work, then yields the processor.
type worker struct {
	ctx   SchedulingContext
	queue *JobQueue
	pool  *WorkerPool
}

func (w *worker) loop(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		if job, ok := w.queue.Dequeue(); ok {
			w.run(job)
			continue
		}
		if job, ok := w.pool.findNewWork(); ok {
			w.pool.metrics.Counter(WorkerPoolStolenTotal).Inc()
			w.run(job)
			continue
		}
		runtime.Gosched()
	}
}

// run executes one job to completion. A panicking job must not take the
// worker down with it.
func (w *worker) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			id, _ := w.ctx.WorkerID()
			w.pool.metrics.Counter(WorkerPoolPanicsTotal).Inc()
			_ = w.pool.hooks.Emit(context.Background(), PoolEventJobPanic, PoolEvent{ //nolint:errcheck
				Worker:    id,
				Panic:     r,
				Timestamp: time.Now(),
			})
		}
	}()
	job(w.ctx)
	w.pool.metrics.Counter(WorkerPoolExecutedTotal).Inc()
}

// WorkerPool is a fixed set of workers, each with its own queue, plus a
// shared global queue. Jobs queued with a pinned context land on that
// worker's queue; everything else lands on the global queue. Idle workers
// drain the global queue first and then steal from a random peer onward,
// which balances load without funnelling every thief onto one hot victim.
type WorkerPool struct {
	workers []*worker
	global  *JobQueue

	done chan struct{}
	wg   sync.WaitGroup

	metrics *metricz.Registry
	hooks   *hookz.Hooks[PoolEvent]

	closeOnce sync.Once
}

// NewWorkerPool builds and starts a pool of n workers. Workers are
// constructed in a non-running state and only started once every worker
// exists, so no worker ever steals from an uninitialized peer.
func NewWorkerPool(n int) (*WorkerPool, error) {
	if n < 1 {
		return nil, ErrInvalidWorkerCount
	}

	registry := metricz.New()
	registry.Counter(WorkerPoolQueuedTotal)
	registry.Counter(WorkerPoolExecutedTotal)
	registry.Counter(WorkerPoolStolenTotal)
	registry.Counter(WorkerPoolPanicsTotal)
	registry.Gauge(WorkerPoolGlobalDepth)

	p := &WorkerPool{
		global:  NewJobQueue(0),
		done:    make(chan struct{}),
		metrics: registry,
		hooks:   hookz.New[PoolEvent](),
	}
	for i := 0; i < n; i++ {
		p.workers = append(p.workers, &worker{
			ctx:   PinnedSchedulingContext(i),
			queue: NewJobQueue(0),
			pool:  p,
		})
	}
	for i, w := range p.workers {
		w := w
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.loop(p.done)
		}()
		capitan.Info(context.Background(), SignalWorkerStarted,
			FieldWorkerID.Field(i),
			FieldWorkerCount.Field(n),
			FieldTimestamp.Field(float64(time.Now().Unix())),
		)
	}
	return p, nil
}

// Queue places jobs according to ctx: onto the pinned worker's queue when
// the context names one, otherwise onto the shared global queue.
func (p *WorkerPool) Queue(ctx SchedulingContext, jobs ...Job) {
	if id, ok := ctx.WorkerID(); ok && id >= 0 && id < len(p.workers) {
		for _, job := range jobs {
			p.workers[id].queue.Enqueue(job)
			p.metrics.Counter(WorkerPoolQueuedTotal).Inc()
		}
		return
	}

	for _, job := range jobs {
		p.global.Enqueue(job)
		p.metrics.Counter(WorkerPoolQueuedTotal).Inc()
	}

	depth := p.global.Len()
	p.metrics.Gauge(WorkerPoolGlobalDepth).Set(float64(depth))
	if depth > queueSaturationDepth {
		capitan.Warn(context.Background(), SignalQueueSaturated,
			FieldQueueDepth.Field(depth),
			FieldWorkerCount.Field(len(p.workers)),
			FieldTimestamp.Field(float64(time.Now().Unix())),
		)
	}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int { return len(p.workers) }

// findNewWork locates a job for an idle worker: the global queue first,
// then a circular sweep of peer queues from a uniformly random start. The
// random start decorrelates thieves; rand/v2's global generator is seeded
// per process and sharded per thread, so workers never spin in lockstep.
func (p *WorkerPool) findNewWork() (Job, bool) {
	if job, ok := p.global.Dequeue(); ok {
		return job, true
	}

	start := rand.IntN(len(p.workers))
	for i := 0; i < len(p.workers); i++ {
		victim := p.workers[(start+i)%len(p.workers)]
		if job, ok := victim.queue.Dequeue(); ok {
			return job, true
		}
	}
	return nil, false
}

// OnJobPanic registers a handler for recovered job panics.
func (p *WorkerPool) OnJobPanic(handler func(context.Context, PoolEvent) error) error {
	_, err := p.hooks.Hook(PoolEventJobPanic, handler)
	return err
}

// Metrics returns the metrics registry for this pool.
func (p *WorkerPool) Metrics() *metricz.Registry { return p.metrics }

// Close stops every worker cooperatively and waits for their goroutines to
// exit. Jobs still queued are not drained. Close is idempotent.
func (p *WorkerPool) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		for i := range p.workers {
			capitan.Info(context.Background(), SignalWorkerStopped,
				FieldWorkerID.Field(i),
				FieldWorkerCount.Field(len(p.workers)),
				FieldTimestamp.Field(float64(time.Now().Unix())),
			)
		}
		p.hooks.Close()
	})
	return nil
}
