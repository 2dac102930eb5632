package service

import (
	"sync"
	"time"
)

// systemClock reads the wall clock and never moves backwards: if the OS
// clock steps back, Now keeps returning the latest time already observed so
// stored last-settled timestamps are never in the future.
type systemClock struct {
	mu   sync.Mutex
	last time.Time
}

// NewSystemClock returns a monotonically non-decreasing wall clock.
func NewSystemClock() Clock {
	return &systemClock{}
}

func (c *systemClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(c.last) {
		return c.last
	}
	c.last = now
	return now
}
