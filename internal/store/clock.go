package store

import (
	"sync"
	"time"
)

// clock hands out strictly increasing UTC timestamps at nanosecond
// resolution, so updated_at ordering is total for writes made through one
// handle even when the wall clock stalls or steps back.
type clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newClock(now func() time.Time) *clock {
	return &clock{now: now}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.now().UnixNano()
	if n <= c.last {
		n = c.last + 1
	}
	c.last = n
	return time.Unix(0, n).UTC()
}
