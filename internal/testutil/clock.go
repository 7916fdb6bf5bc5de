package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a DeterministicClock reports after Next.
var Epoch = time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)

// DeterministicClock is a wall clock for tests that advances one second per
// reading, so created_at ordering matches call order.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	ticks int64
}

// NewDeterministicClock creates a new deterministic clock.
//
// The first call to Now() returns Epoch.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now advances the clock one second and returns the new time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.at(c.ticks)
}

// Current returns the last time Now returned without advancing. Before the
// first Now it returns one second before Epoch.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at(c.ticks)
}

// Reset rewinds the clock. After Reset(), the next call to Now() returns Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}

func (c *DeterministicClock) at(ticks int64) time.Time {
	return Epoch.Add(time.Duration(ticks-1) * time.Second)
}
