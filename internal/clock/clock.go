// Package clock provides the millisecond time source used for every
// timestamp the engine records.
//
// Timestamps must be strictly increasing so that "most recent" orderings
// (ladder tie-breaks, recent matches, invite lists) are total even when two
// operations land in the same wall-clock millisecond.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time in Unix milliseconds.
type Clock interface {
	NowMillis() int64
}

// Monotonic is a wall clock that never returns the same value twice.
type Monotonic struct {
	mu   sync.Mutex
	last int64
}

// NewMonotonic creates a wall clock.
func NewMonotonic() *Monotonic {
	return &Monotonic{}
}

// NowMillis returns max(wall time, previous value + 1).
func (c *Monotonic) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}

// Manual is a test clock. Each read advances it by one millisecond.
type Manual struct {
	mu  sync.Mutex
	now int64
}

// NewManual creates a clock starting at start milliseconds.
func NewManual(start int64) *Manual {
	return &Manual{now: start}
}

// NowMillis returns the current value and then ticks forward by 1ms.
func (c *Manual) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.now
	c.now++
	return v
}

// Advance moves the clock forward by d.
func (c *Manual) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d.Milliseconds()
}
