package hint

import "fmt"

// Error codes for categorizing hint subsystem failures.
const (
	CodeHintNotFound     = "hint_not_found"
	CodeEmptyPrompt      = "empty_prompt"
	CodeNoActiveHint     = "no_active_hint"
	CodePathRejected     = "path_rejected"
	CodeResourceNotFound = "resource_not_found"
)

// Error represents errors that occur in the hint registry or resource gate.
type Error struct {
	Hint    string `json:"hint,omitempty"` // Hint name, when known
	Message string `json:"message"`        // Error message
	Code    string `json:"code"`           // Error code for categorization
}

// Error implements the error interface for Error.
func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("hint error [%s] in %s: %s", e.Code, e.Hint, e.Message)
	}

	return fmt.Sprintf("hint error [%s]: %s", e.Code, e.Message)
}

// NewError creates a new Error with the specified details.
func NewError(hint, message, code string) *Error {
	return &Error{
		Hint:    hint,
		Message: message,
		Code:    code,
	}
}

// IsCode reports whether err is a hint *Error carrying the given code.
func IsCode(err error, code string) bool {
	he, ok := err.(*Error)
	return ok && he.Code == code
}
