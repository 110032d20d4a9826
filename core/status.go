package core

// Status represents the terminal lifecycle state of an agent run.
type Status int

const (
	// StatusRunning indicates the agent is still stepping.
	StatusRunning Status = iota
	// StatusCompleted indicates the agent emitted a completion summary.
	StatusCompleted
	// StatusFailed indicates the agent exhausted its retry budget or hit an
	// unrecoverable error.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
