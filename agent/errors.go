package agent

import "errors"

var (
	// ErrDepthExceeded rejects a create_agent beyond the maximum recursion depth.
	ErrDepthExceeded = errors.New("maximum recursion depth reached")

	// ErrFanoutExceeded rejects a create_agent beyond the per-parent child cap.
	ErrFanoutExceeded = errors.New("maximum sub-agent fan-out reached")

	// ErrRetryBudgetExhausted terminates an agent after too many consecutive
	// unusable model turns.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
)
