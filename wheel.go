package taskz

import (
	"time"

	"github.com/zoobzio/clockz"
)

// wheelEntry pairs a payload with its tick offset into the bucket holding
// it. Offsets exist purely for book-keeping: buckets above wheel zero span
// many ticks, and the offset records how far into that span an entry sits so
// cascading downward retains sub-bucket precision. At wheel zero every
// offset is zero.
type wheelEntry[T any] struct {
	offset int
	item   T
}

// wheelLevel is one ring within the hierarchy: a fixed number of buckets, a
// tick span per bucket, and a cursor marking "now".
type wheelLevel[T any] struct {
	numBuckets     int
	ticksPerBucket int
	cursor         int
	buckets        [][]wheelEntry[T]
}

// TimingWheel is a hierarchical timing wheel: an ordered set of rings where
// each ring fits wholly inside one bucket of the ring above it. Bucket i of
// ring w represents i*ticksPerBucket(w) ticks past that ring's cursor; ring
// zero holds one tick per bucket, and ring w+1 holds
// numBuckets(w)*ticksPerBucket(w). The scheduling horizon is the product of
// all ring sizes, in ticks.
//
// Scheduling and advancement are amortized O(1): expiry only ever drains
// ring zero, and entries cascade down one ring at a time as cursors wrap.
//
// A TimingWheel is not safe for concurrent use; callers guard it with their
// own lock (see TimerPollSource).
type TimingWheel[T any] struct {
	tick   time.Duration
	clock  clockz.Clock
	last   time.Time
	levels []wheelLevel[T]
}

// NewTimingWheel builds a wheel with the given base tick size and ring
// sizes, reading time from clock.
func NewTimingWheel[T any](tick time.Duration, sizes []int, clock clockz.Clock) *TimingWheel[T] {
	w := &TimingWheel[T]{
		tick:  tick,
		clock: clock,
		last:  clock.Now(),
	}
	ticksPerBucket := 1
	for _, size := range sizes {
		w.levels = append(w.levels, wheelLevel[T]{
			numBuckets:     size,
			ticksPerBucket: ticksPerBucket,
			buckets:        make([][]wheelEntry[T], size),
		})
		ticksPerBucket *= size
	}
	return w
}

// Schedule places item d from the last advancement. Durations shorter than
// one tick land in the current bucket and expire on the next advancement.
// Durations beyond the horizon are not rejected: they land in the outermost
// ring at their bucket index taken modulo the ring size, and so fire early.
func (w *TimingWheel[T]) Schedule(d time.Duration, item T) {
	ticks := int(d / w.tick)

	level, remaining := w.findLevel(ticks)
	lv := &w.levels[level]
	bucket := (lv.cursor + remaining/lv.ticksPerBucket) % lv.numBuckets
	lv.buckets[bucket] = append(lv.buckets[bucket], wheelEntry[T]{
		offset: remaining % lv.ticksPerBucket,
		item:   item,
	})
}

// findLevel walks outward until the tick count fits within a ring's
// remaining buckets, accounting for that ring's cursor position. Each ring
// passed over consumes its full capacity from the count.
func (w *TimingWheel[T]) findLevel(ticks int) (level, remaining int) {
	remaining = ticks
	for level = 0; level < len(w.levels)-1; level++ {
		lv := &w.levels[level]
		if lv.cursor+remaining/lv.ticksPerBucket < lv.numBuckets {
			return level, remaining
		}
		remaining -= lv.numBuckets * lv.ticksPerBucket
	}
	return level, remaining
}

// Advance drains every bucket of ring zero that the elapsed wall-clock has
// passed over, cascading entries down from higher rings whenever the cursor
// wraps. It returns the expired payloads; if less than one tick has elapsed
// it returns nothing and the cursors do not move.
func (w *TimingWheel[T]) Advance() []T {
	now := w.clock.Now()
	if now.Sub(w.last) < w.tick {
		return nil
	}

	var expired []T
	bottom := &w.levels[0]
	steps := int(now.Sub(w.last) / w.tick)
	for i := 0; i < steps; i++ {
		bucket := bottom.cursor
		for _, e := range bottom.buckets[bucket] {
			// Offsets are always zero at ring zero.
			expired = append(expired, e.item)
		}
		bottom.buckets[bucket] = nil

		bottom.cursor = (bottom.cursor + 1) % bottom.numBuckets
		if bottom.cursor == 0 {
			w.cascade(1)
		}
	}

	w.last = now
	return expired
}

// cascade moves every entry in ring level's current bucket down one ring,
// recomputing each entry's bucket and offset for the finer granularity. If
// that ring's cursor wraps in turn, the cascade recurses upward.
func (w *TimingWheel[T]) cascade(level int) {
	if level <= 0 || level >= len(w.levels) {
		return
	}

	lv := &w.levels[level]
	below := &w.levels[level-1]

	for _, e := range lv.buckets[lv.cursor] {
		bucket := (below.cursor + e.offset/below.ticksPerBucket) % below.numBuckets
		below.buckets[bucket] = append(below.buckets[bucket], wheelEntry[T]{
			offset: e.offset % below.ticksPerBucket,
			item:   e.item,
		})
	}
	lv.buckets[lv.cursor] = nil

	lv.cursor = (lv.cursor + 1) % lv.numBuckets
	if lv.cursor == 0 {
		w.cascade(level + 1)
	}
}
