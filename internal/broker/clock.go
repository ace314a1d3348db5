package broker

import "sync/atomic"

// Clock is a monotonic logical clock for journal ordering.
//
// Every journal entry is stamped with a strictly increasing seq from this
// clock, so traces order deterministically without wall time.
//
// Thread-safety: safe for concurrent use (atomic operations), though only
// the broker loop calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used to continue a run's numbering after a restart.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
