package core

import "time"

// TimeoutExitCode is the sentinel exit code reported when a command was
// terminated because it exceeded its timeout.
const TimeoutExitCode = -1

// ExecutionResult captures the complete outcome of one host command run.
type ExecutionResult struct {
	Command  string        `json:"command"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	TimedOut bool          `json:"timed_out"`
	Duration time.Duration `json:"duration"`
}

// Success reports whether the command completed within its timeout and
// exited zero.
func (r ExecutionResult) Success() bool {
	return !r.TimedOut && r.ExitCode == 0
}
