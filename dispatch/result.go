package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/taskmesh/core"
)

// Result statuses used in the result wire tag id attribute.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// FormatResult wraps a result body in the wire tag for a tag family.
func FormatResult(tag, status, body string) string {
	return fmt.Sprintf("<%s_result id=%q>\n%s\n</%s_result>", tag, status, body, tag)
}

// commandStatus maps an execution result onto a wire status.
func commandStatus(r core.ExecutionResult) string {
	if r.Success() {
		return StatusSuccess
	}

	return StatusFailed
}

// commandBody renders the human readable body for a command result.
func commandBody(r core.ExecutionResult) string {
	if r.TimedOut {
		body := fmt.Sprintf("Command timed out after %s", r.Duration.Round(time.Millisecond))
		if out := strings.TrimRight(r.Stdout, "\n"); out != "" {
			body += "\nPartial output:\n" + out
		}
		return body
	}

	if r.ExitCode == 0 {
		if out := strings.TrimRight(r.Stdout, "\n"); out != "" {
			return "Command succeeded, output:\n" + out
		}
		return "Command succeeded (no output)"
	}

	body := fmt.Sprintf("Command failed (exit code: %d)", r.ExitCode)
	if errOut := strings.TrimRight(r.Stderr, "\n"); errOut != "" {
		body += ":\n" + errOut
	}
	if out := strings.TrimRight(r.Stdout, "\n"); out != "" {
		body += "\nOutput:\n" + out
	}

	return body
}
