package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
)

// DefaultTimeout bounds command execution when a run does not specify one.
const DefaultTimeout = 300 * time.Second

// Shell describes the fixed platform shell commands are executed with.
type Shell struct {
	// Path is the shell binary.
	Path string
	// Args are the arguments preceding the command string.
	Args []string
	// ResultTag is the result wire tag family for this shell.
	ResultTag string
}

// UnixShell returns the /bin/sh shell used on unix platforms.
func UnixShell() Shell {
	return Shell{Path: "/bin/sh", Args: []string{"-c"}, ResultTag: "bash_call_result"}
}

// WindowsShell returns the PowerShell shell used on windows.
func WindowsShell() Shell {
	return Shell{Path: "powershell", Args: []string{"-NoProfile", "-Command"}, ResultTag: "ps_call_result"}
}

// DefaultShell returns the shell for the current platform.
func DefaultShell() Shell {
	if runtime.GOOS == "windows" {
		return WindowsShell()
	}

	return UnixShell()
}

// sourceDirective returns the statement that loads one shell module.
func (s Shell) sourceDirective(module string) string {
	if s.ResultTag == "ps_call_result" {
		return fmt.Sprintf("Import-Module '%s'; ", strings.ReplaceAll(module, "'", "''"))
	}

	return fmt.Sprintf(". '%s'; ", strings.ReplaceAll(module, "'", `'\''`))
}

// RunSpec describes one command execution request.
type RunSpec struct {
	// Command is the literal command text from the tag body.
	Command string
	// Timeout bounds the run; zero uses the executor default.
	Timeout time.Duration
	// Env is the environment snapshot taken when the command was dispatched.
	Env core.EnvSnapshot
	// Modules are hint shell module files sourced before the command body.
	Modules []string
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Shell overrides the platform shell.
	Shell Shell
	// WorkDir is the working directory commands run in. Defaults to the
	// process working directory.
	WorkDir string
	// DefaultTimeout applies when a RunSpec carries no timeout.
	DefaultTimeout time.Duration
	// Logger receives per-command execution records.
	Logger logging.Logger
}

// Executor runs host commands through the fixed platform shell.
type Executor struct {
	shell          Shell
	workDir        string
	defaultTimeout time.Duration
	logger         logging.Logger
}

// NewExecutor creates an executor with the platform shell and defaults.
func NewExecutor(optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Shell:          DefaultShell(),
		DefaultTimeout: DefaultTimeout,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		shell:          opts.Shell,
		workDir:        opts.WorkDir,
		defaultTimeout: opts.DefaultTimeout,
		logger:         opts.Logger,
	}
}

// Shell returns the executor's shell.
func (e *Executor) Shell() Shell { return e.shell }

// Run executes one command to completion or timeout and returns the captured
// result. Run never returns an error: startup failures, nonzero exits and
// timeouts are all encoded in the ExecutionResult so the caller can hand
// them back to the model as result content.
func (e *Executor) Run(ctx context.Context, spec RunSpec) core.ExecutionResult {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var prefix strings.Builder
	for _, m := range spec.Modules {
		prefix.WriteString(e.shell.sourceDirective(m))
	}

	args := append(append([]string{}, e.shell.Args...), prefix.String()+spec.Command)
	cmd := exec.CommandContext(runCtx, e.shell.Path, args...)
	cmd.Dir = e.workDir
	cmd.Env = append(os.Environ(),
		"AGENT_START_DIR="+spec.Env.StartDir,
		"AGENT_PROJECT_DIR="+spec.Env.ProjectDir,
		"AGENT_HINT_MODULES="+spec.Env.HintModulesDir,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := core.ExecutionResult{
		Command:  spec.Command,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		result.TimedOut = true
		result.ExitCode = core.TimeoutExitCode
	case err == nil:
		result.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The shell never started (missing binary, bad workdir).
			result.ExitCode = 1
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	}

	if result.Success() {
		e.logger.Info("command executed", "exit_code", result.ExitCode, "duration", elapsed)
	} else {
		e.logger.Warn("command failed", "exit_code", result.ExitCode, "timed_out", result.TimedOut, "duration", elapsed)
	}

	return result
}
