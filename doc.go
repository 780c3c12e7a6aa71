// Package taskz provides a small asynchronous task runtime for Go: futures
// ("cells"), composable tasks, and a work-stealing scheduler with polling
// facilities for timers and asynchronous file reads.
//
// # Overview
//
// taskz lets application code express computations whose values are not
// available yet, compose them (transform a pending value, chain a dependent
// computation, wait for any or all of several), and drive everything to
// completion on a fixed pool of workers. Continuations never block a worker:
// a job that cannot finish immediately registers a callback on a cell and
// returns, releasing its worker for other work.
//
// # Core Concepts
//
// The library is built from three layers:
//
//   - Cells: thread-safe single-assignment containers. A cell is resolved
//     exactly once, fans out to any number of registered callbacks, and wakes
//     any number of blocked readers. Four variants exist: WriteOnceCell (the
//     workhorse), TrackingOnceCell (adopts another cell, used by Bind),
//     WhenAnyCell and WhenAllCell (combinators over many inputs).
//   - Scheduler: a fixed set of workers, each with its own queue, plus a
//     shared global queue. Idle workers steal from peers. A dedicated poll
//     goroutine drives PollSource implementations (timers, async reads) on
//     their declared cadence and injects the jobs they produce.
//   - Tasks: the user-facing handle over a cell. Tasks compose with Map,
//     Bind, WhenAny and WhenAll, and settle with Block.
//
// Because Go methods cannot introduce new type parameters, the combinators
// that change the value type are package functions:
//
//	rt, _ := taskz.New(4)
//	defer rt.Close()
//
//	seven := taskz.NewTask(rt, func() int { return 7 })
//	answer := taskz.Map(taskz.Map(seven,
//	    func(x int) int { return x + 5 }),
//	    func(x int) int { return x * 2 })
//
//	res := answer.Block() // Ok(24)
//
// # Scheduling Contexts and Affinity
//
// Every job receives a SchedulingContext naming the worker that runs it.
// When a job resolves a cell, the context flows into the continuations the
// cell dispatches, so dependent work is biased back onto the same worker
// (cache affinity). The bias is advisory: an idle peer may steal the job.
//
// # Sources
//
// Three adapters mint tasks from the outside world:
//
//   - TaskValueSource: manual completion, in the spirit of .NET's
//     TaskCompletionSource. Many tasks can be minted from one source; all of
//     them observe the single Complete or Reject.
//   - TaskTimerSource: After(d) resolves a Task[Unit] once d has elapsed,
//     driven by a hierarchical timing wheel.
//   - TaskIOSource: Read resolves a Task[ReadRequest] when an asynchronous
//     positional read completes.
//
// # Errors
//
// Results carry a closed error taxonomy: ErrRejected for explicit user-level
// rejection and ErrIO for failures of the asynchronous read subsystem
// (IOError wraps the cause and classification; errors.Is(err, ErrIO) holds).
// Map and Bind propagate errors unchanged without invoking their functions.
// WhenAny fails only when every input failed; WhenAll fails on the first
// input failure.
//
// # Shutdown
//
// Close on the Runtime (or Scheduler) requests cooperative shutdown: each
// worker and the poll goroutine terminate at their next safe point. Jobs
// still queued at shutdown are not drained. Individual tasks cannot be
// canceled; compose WhenAny with a timer task to build deadlines.
//
// # Observability
//
// Components follow the zoobzio observability conventions: metricz
// registries exposed via Metrics(), tracez spans around poll cycles, hookz
// events for job panics, timer fires and read completions, and capitan
// signals for scheduler lifecycle transitions.
package taskz
