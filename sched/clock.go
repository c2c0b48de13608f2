package sched

import "sync/atomic"

// Clock is a monotonic logical clock for event ordering.
//
// All dispatched events and trace records are stamped with a strictly
// increasing seq number from this clock, never with wall-clock timestamps.
// This keeps recorded orderings deterministic and replayable.
//
// Thread-safety: safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
