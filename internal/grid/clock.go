package grid

import "sync/atomic"

// Sequencer issues event sequence numbers.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is the logical clock stamping engine events.
//
// Events carry a strictly increasing seq so hosts and journals can order
// them without wall-clock time. Safe for concurrent use, although the engine
// itself calls Next from a single goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at start. Used when a journal resumes.
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
