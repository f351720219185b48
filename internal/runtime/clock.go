package runtime

import "sync/atomic"

// Clock allocates tensor ids 0, 1, 2, ...
//
// Safe for concurrent use.
type Clock struct {
	next atomic.Uint64
}

// NewClock returns a clock whose first Next is 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first Next is start.
func NewClockAt(start uint64) *Clock {
	c := &Clock{}
	c.next.Store(start)
	return c
}

// Next returns the next id. Calls are linearizable.
func (c *Clock) Next() uint64 {
	return c.next.Add(1) - 1
}

// Current returns how many ids have been handed out.
func (c *Clock) Current() uint64 {
	return c.next.Load()
}
