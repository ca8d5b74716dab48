package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrLimitExceeded is returned by IterationLimiter.Next once the cap is hit.
var ErrLimitExceeded = errors.New("iteration limit exceeded")

// IterationLimiter enforces a maximum number of model round-trips per turn.
type IterationLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewIterationLimiter creates a new limiter. If max <= 0, unlimited
// iterations are allowed.
func NewIterationLimiter(max int) *IterationLimiter {
	return &IterationLimiter{max: max}
}

// Next reserves one more iteration and returns an error wrapping
// ErrLimitExceeded when the cap would be exceeded. A rejected reservation is
// not counted.
func (l *IterationLimiter) Next() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.count >= l.max {
		return fmt.Errorf("%w: %d", ErrLimitExceeded, l.max)
	}
	l.count++

	return nil
}

// Count returns the number of iterations used so far.
func (l *IterationLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many iterations are left, or -1 when unlimited.
func (l *IterationLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max <= 0 {
		return -1
	}

	return l.max - l.count
}
