package taskz

import "time"

// PollSource is a periodically-invoked producer of jobs. Anything that does
// not fit the continuation model directly — timers, asynchronous reads — is
// driven by a poll source: the scheduler's poll goroutine calls Poll on the
// source's declared cadence and queues whatever jobs it returns onto the
// global queue.
//
// Poll is only ever called from the scheduler's single poll goroutine;
// implementations need to synchronize Poll only against their own
// user-facing scheduling methods.
type PollSource interface {
	// PollFrequency declares how often Poll should be invoked.
	PollFrequency() time.Duration

	// Poll advances the source and returns the jobs it has produced.
	Poll() []Job
}
