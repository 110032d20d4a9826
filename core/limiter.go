package core

import (
	"fmt"
	"sync"
)

// Limiter enforces a maximum number of occurrences of a named event, such as
// children spawned by one parent or consecutive unusable model responses.
type Limiter struct {
	name  string
	max   int
	count int
	mu    sync.Mutex
}

// NewLimiter creates a new limiter with a max number of occurrences.
// If max == 0, unlimited occurrences are allowed.
func NewLimiter(name string, max int) *Limiter {
	return &Limiter{name: name, max: max}
}

// Increment increases the counter and returns an error if the limit is exceeded.
func (l *Limiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.max > 0 && l.count > l.max {
		return fmt.Errorf("exceeded max %s: %d", l.name, l.max)
	}

	return nil
}

// Allow reports whether one more occurrence would stay within the limit,
// without consuming it.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.max == 0 || l.count < l.max
}

// Reset sets the counter back to zero. Used for budgets that track
// consecutive failures rather than totals.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count = 0
}

// Count returns the current number of occurrences recorded.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many occurrences are left before hitting the limit.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1 // unlimited
	}

	return l.max - l.count
}
