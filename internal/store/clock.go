package store

import "sync/atomic"

// SeqSource stamps flushes with increasing sequence numbers.
type SeqSource interface {
	Next() int64
}

// Clock is a monotonic logical clock. Every flush of a store takes the next
// value, so journal entries and traces order by seq, never by wall time.
//
// Thread-safety: Clock is safe for concurrent use. Several stores may share
// one clock to get a single global order.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
