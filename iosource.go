package taskz

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync/atomic"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
)

// Observability constants for the I/O poll source.
const (
	// Metrics.
	IOReadsQueuedTotal    = metricz.Key("io.reads.queued.total")
	IOReadsCompletedTotal = metricz.Key("io.reads.completed.total")
	IOReadsFailedTotal    = metricz.Key("io.reads.failed.total")
	IOReadsInFlight       = metricz.Key("io.reads.inflight")

	// Hook event keys.
	IOEventReadComplete = hookz.Key("io.read.complete")
)

const ioPollFrequency = 5 * time.Millisecond

// IOEvent describes a completed read delivered via hooks.
type IOEvent struct {
	Bytes     int       // Bytes transferred
	Offset    int64     // File offset the read targeted
	Err       error     // Classification, nil on success
	Timestamp time.Time // When the completion was observed
}

// ReadRequest describes one positional read: how many bytes, from what
// offset, into which buffer. The buffer is shared between the requester and
// the read subsystem and is readable once the request's task resolves; use
// CopyBuffer for a defensive copy.
type ReadRequest struct {
	buf    []byte
	offset int64
	filled int
}

// NewReadRequest builds a request for size bytes at offset.
func NewReadRequest(size int, offset int64) ReadRequest {
	return ReadRequest{buf: make([]byte, size), offset: offset}
}

// Size returns the requested byte count.
func (r ReadRequest) Size() int { return len(r.buf) }

// Offset returns the file offset the read targets.
func (r ReadRequest) Offset() int64 { return r.offset }

// Filled returns how many bytes the read actually transferred. Shorter than
// Size when the read ran into end-of-file.
func (r ReadRequest) Filled() int { return r.filled }

// Buffer returns the shared underlying buffer. Only the first Filled bytes
// are meaningful after resolution.
func (r ReadRequest) Buffer() []byte { return r.buf }

// CopyBuffer returns a defensive copy of the transferred bytes.
func (r ReadRequest) CopyBuffer() []byte {
	out := make([]byte, r.filled)
	copy(out, r.buf[:r.filled])
	return out
}

// inFlightRead tracks one outstanding read. The goroutine performing the
// read publishes err/filled before flipping done; the atomic store/load pair
// orders those writes ahead of the poll thread's reads.
type inFlightRead struct {
	req      ReadRequest
	callback Callback[ReadRequest]

	done   atomic.Bool
	err    error
	filled int
}

// IOPollSource drives asynchronous positional reads. Each QueueRead starts
// the read immediately (the Go runtime parks the reading goroutine on the
// OS poller); Poll walks the in-flight list, partitions completed from
// pending, rebuilds the list from the pending partition, and turns each
// completion into a job that invokes its callback.
type IOPollSource struct {
	lock     SpinLock
	inFlight []*inFlightRead

	metrics *metricz.Registry
	hooks   *hookz.Hooks[IOEvent]
}

// NewIOPollSource builds an I/O source with no reads in flight.
func NewIOPollSource() *IOPollSource {
	registry := metricz.New()
	registry.Counter(IOReadsQueuedTotal)
	registry.Counter(IOReadsCompletedTotal)
	registry.Counter(IOReadsFailedTotal)
	registry.Gauge(IOReadsInFlight)

	return &IOPollSource{
		metrics: registry,
		hooks:   hookz.New[IOEvent](),
	}
}

// QueueRead starts an asynchronous read of req from r and registers cb to
// receive the outcome. The callback is invoked from a worker once a Poll
// observes the completion.
func (s *IOPollSource) QueueRead(r io.ReaderAt, req ReadRequest, cb Callback[ReadRequest]) {
	fl := &inFlightRead{req: req, callback: cb}
	go func() {
		n, err := r.ReadAt(fl.req.buf, fl.req.offset)
		if errors.Is(err, io.EOF) && n > 0 {
			// A short read that reached end-of-file is still a read.
			err = nil
		}
		fl.filled = n
		fl.err = err
		fl.done.Store(true)
	}()

	s.lock.Lock()
	s.inFlight = append(s.inFlight, fl)
	depth := len(s.inFlight)
	s.lock.Unlock()

	s.metrics.Counter(IOReadsQueuedTotal).Inc()
	s.metrics.Gauge(IOReadsInFlight).Set(float64(depth))
}

// PollFrequency implements PollSource.
func (s *IOPollSource) PollFrequency() time.Duration { return ioPollFrequency }

// Poll implements PollSource: completed reads become jobs invoking their
// callbacks with the populated request or a classified IOError.
func (s *IOPollSource) Poll() []Job {
	s.lock.Lock()
	var completed []*inFlightRead
	pending := s.inFlight[:0]
	for _, fl := range s.inFlight {
		if fl.done.Load() {
			completed = append(completed, fl)
		} else {
			pending = append(pending, fl)
		}
	}
	s.inFlight = pending
	s.lock.Unlock()

	s.metrics.Gauge(IOReadsInFlight).Set(float64(len(pending)))

	var jobs []Job
	for _, fl := range completed {
		fl := fl
		fl.req.filled = fl.filled

		var res Result[ReadRequest]
		if fl.err != nil {
			s.metrics.Counter(IOReadsFailedTotal).Inc()
			res = Fail[ReadRequest](classifyReadError(fl.err))
		} else {
			s.metrics.Counter(IOReadsCompletedTotal).Inc()
			res = Ok(fl.req)
		}

		_ = s.hooks.Emit(context.Background(), IOEventReadComplete, IOEvent{ //nolint:errcheck
			Bytes:     fl.filled,
			Offset:    fl.req.offset,
			Err:       res.Err(),
			Timestamp: time.Now(),
		})

		jobs = append(jobs, func(ctx SchedulingContext) { fl.callback(ctx, res) })
	}
	return jobs
}

// OnReadComplete registers a handler for read completions.
func (s *IOPollSource) OnReadComplete(handler func(context.Context, IOEvent) error) error {
	_, err := s.hooks.Hook(IOEventReadComplete, handler)
	return err
}

// Metrics returns the metrics registry for this source.
func (s *IOPollSource) Metrics() *metricz.Registry { return s.metrics }

// classifyReadError maps OS-level read failures onto the runtime's closed
// taxonomy.
func classifyReadError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, os.ErrClosed):
		return NewIOError(IOErrorCanceled, err)
	case errors.Is(err, fs.ErrNotExist):
		return NewIOError(IOErrorNotExist, err)
	default:
		return NewIOError(IOErrorUnknown, err)
	}
}

// TaskIOSource mints tasks that resolve when an asynchronous read completes.
type TaskIOSource struct {
	queue Queuer
	io    *IOPollSource
}

// NewTaskIOSource binds an I/O source to the scheduler that will run the
// resolutions. Both collaborators must outlive the source.
func NewTaskIOSource(queue Queuer, ioSource *IOPollSource) TaskIOSource {
	return TaskIOSource{queue: queue, io: ioSource}
}

// Read returns a task that resolves with the populated request once the
// read completes, or with an IOError on failure.
func (s TaskIOSource) Read(r io.ReaderAt, req ReadRequest) Task[ReadRequest] {
	cell := NewWriteOnceCell[ReadRequest](s.queue)
	s.io.QueueRead(r, req, func(ctx SchedulingContext, res Result[ReadRequest]) {
		if res.OK() {
			cell.Write(ctx, res.Value())
		} else {
			cell.Error(ctx, res.Err())
		}
	})
	return fromCell[ReadRequest](s.queue, cell)
}
