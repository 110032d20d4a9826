// Package command executes host shell commands with full output capture and
// a hard timeout. One fixed shell is used per platform: /bin/sh -c on unix
// and powershell -Command on windows.
//
// The executor never retries and never streams: a command runs to completion
// or is killed at its timeout, and the complete stdout, stderr, exit code and
// elapsed time are returned as a core.ExecutionResult. A timeout is reported
// with the sentinel exit code core.TimeoutExitCode rather than an error, so
// the dispatcher can hand it back to the model as ordinary result content.
//
// Each run receives a point-in-time snapshot of the agent environment
// (AGENT_START_DIR, AGENT_PROJECT_DIR, AGENT_HINT_MODULES) and sources the
// active hint's shell modules before the command body.
package command
