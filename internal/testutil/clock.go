package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant returned by a new DeterministicClock.
var Epoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// DeterministicClock is a wall clock for tests. Every call to Now advances
// it by Step, so timestamps are distinct, ordered and reproducible.
//
// All methods are safe for concurrent use.
type DeterministicClock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int64
}

// NewDeterministicClock returns a clock whose first Now is Epoch and which
// advances one second per call.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{base: Epoch, step: time.Second}
}

// Now returns the next instant.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Current returns the instant the next Now will return, without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(time.Duration(c.n) * c.step)
}

// Reset rewinds the clock to Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
