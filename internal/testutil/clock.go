package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic wall clock for tests: every call to Now
// advances it by a fixed step from a fixed origin.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu     sync.Mutex
	origin time.Time
	step   time.Duration
	ticks  int64
}

// Epoch is the default origin of a StepClock.
var Epoch = time.Date(2019, time.August, 23, 12, 0, 0, 0, time.UTC)

// NewStepClock creates a clock at Epoch advancing one second per call.
// The first call to Now returns Epoch + 1s.
func NewStepClock() *StepClock {
	return &StepClock{origin: Epoch, step: time.Second}
}

// Now advances the clock and returns the new time.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.origin.Add(time.Duration(c.ticks) * c.step)
}

// Ticks returns how many times Now was called.
func (c *StepClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock to its origin.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
