package taskz

import "sync"

// stubQueuer collects jobs instead of running them, making cell dispatch
// deterministic in tests. Drain executes collected jobs (and anything they
// enqueue in turn) on the calling goroutine, handing each job the context
// it was queued with.
type stubQueuer struct {
	mu   sync.Mutex
	jobs []stubJob
}

type stubJob struct {
	ctx SchedulingContext
	job Job
}

func (q *stubQueuer) Queue(ctx SchedulingContext, jobs ...Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, job := range jobs {
		q.jobs = append(q.jobs, stubJob{ctx: ctx, job: job})
	}
}

// Pending reports how many jobs are queued but not yet drained.
func (q *stubQueuer) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Drain runs queued jobs until none remain, returning how many ran.
func (q *stubQueuer) Drain() int {
	ran := 0
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return ran
		}
		next := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		next.job(next.ctx)
		ran++
	}
}
