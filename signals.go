package taskz

import "github.com/zoobzio/capitan"

// Signal constants for taskz runtime events.
// Signals follow the pattern: <component>.<event>.
var (
	// Scheduler signals.
	SignalSchedulerStarted = capitan.NewSignal("scheduler.started", "Scheduler signals")
	SignalSchedulerStopped = capitan.NewSignal("scheduler.stopped", "Scheduler signals")

	// Worker signals.
	SignalWorkerStarted = capitan.NewSignal("scheduler.worker.started", "Worker signals")
	SignalWorkerStopped = capitan.NewSignal("scheduler.worker.stopped", "Worker signals")

	// Queue signals.
	SignalQueueSaturated = capitan.NewSignal("workerpool.queue.saturated", "Queue signals")
)

// Common field keys using capitan primitive types.
var (
	FieldWorkerID    = capitan.NewIntKey("worker_id")     // Worker index within the pool
	FieldWorkerCount = capitan.NewIntKey("worker_count")  // Total workers in the pool
	FieldQueueDepth  = capitan.NewIntKey("queue_depth")   // Jobs waiting in the global queue
	FieldPollSources = capitan.NewIntKey("poll_sources")  // Poll sources registered at construction
	FieldTimestamp   = capitan.NewFloat64Key("timestamp") // Unix timestamp
)
