package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrIterationLimit is wrapped by IterationLimitError.
	ErrIterationLimit = errors.New("iteration limit reached")

	// ErrInvalidConfig is returned by New for unusable configuration.
	ErrInvalidConfig = errors.New("invalid agent configuration")
)

// IterationLimitError reports that an agent exhausted its model round-trips
// without producing a final answer.
type IterationLimitError struct {
	Agent string
	Limit int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("agent %s: %s after %d iterations", e.Agent, ErrIterationLimit, e.Limit)
}

// Unwrap makes errors.Is(err, ErrIterationLimit) hold.
func (e *IterationLimitError) Unwrap() error { return ErrIterationLimit }
