package dispatch

import (
	"fmt"
	"time"

	"github.com/hupe1980/taskmesh/command"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/hint"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/tag"
)

// SpawnFunc runs a child agent for a create_agent invocation and returns its
// summary and terminal status. It is supplied by the orchestrator, which owns
// recursion depth and fan-out accounting. A non-nil error means the child was
// never created (depth or fan-out rejected); a created child that fails
// reports StatusFailed with a synthetic failure summary instead.
type SpawnFunc func(rc *core.RunContext, inv core.CreateAgentInvocation) (string, core.Status, error)

// Options configures a Dispatcher.
type Options struct {
	// CommandTimeout bounds each host command execution.
	CommandTimeout time.Duration
	// ExtraBuiltins are appended to the default builtin table. A name
	// collision replaces the default entry.
	ExtraBuiltins []Builtin
	// Logger receives dispatch records.
	Logger logging.Logger
}

// Dispatcher executes parsed invocations and renders their results.
type Dispatcher struct {
	executor *command.Executor
	registry *hint.Registry
	timeout  time.Duration
	builtins map[string]Builtin
	logger   logging.Logger
}

// NewDispatcher creates a dispatcher bound to a command executor and a hint
// registry.
func NewDispatcher(executor *command.Executor, registry *hint.Registry, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		CommandTimeout: command.DefaultTimeout,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	builtins := map[string]Builtin{}
	for _, b := range defaultBuiltins() {
		builtins[b.Name] = b
	}
	for _, b := range opts.ExtraBuiltins {
		builtins[b.Name] = b
	}

	return &Dispatcher{
		executor: executor,
		registry: registry,
		timeout:  opts.CommandTimeout,
		builtins: builtins,
		logger:   opts.Logger,
	}
}

// Registry returns the hint registry the dispatcher mutates.
func (d *Dispatcher) Registry() *hint.Registry { return d.registry }

// Dispatch executes one invocation and returns the formatted result content
// to append to the conversation. Completion invocations return the empty
// string; the orchestrator intercepts them before dispatch.
func (d *Dispatcher) Dispatch(rc *core.RunContext, inv core.Invocation, spawn SpawnFunc) string {
	switch v := inv.(type) {
	case core.CommandInvocation:
		return d.dispatchCommand(rc, v)
	case core.BuiltinInvocation:
		return d.dispatchBuiltin(rc, v)
	case core.CreateAgentInvocation:
		return d.dispatchCreateAgent(rc, v, spawn)
	case core.CompletionInvocation:
		return ""
	default:
		// The invocation set is closed; this is unreachable with core types.
		return FormatResult(tag.TagBuiltin, StatusFailed, fmt.Sprintf("unsupported invocation: %T", inv))
	}
}

// dispatchCommand snapshots the hint environment and runs one host command.
// The snapshot is taken now, not at run start: a hint switch earlier in the
// same response affects this command, a later one does not.
func (d *Dispatcher) dispatchCommand(rc *core.RunContext, inv core.CommandInvocation) string {
	env := rc.Env
	var modules []string
	if active := d.registry.Active(); active != nil {
		env.HintModulesDir = active.ModulesDir()
		modules = active.Modules
	} else {
		env.HintModulesDir = ""
	}

	result := d.executor.Run(rc.Context, command.RunSpec{
		Command: inv.Command,
		Timeout: d.timeout,
		Env:     env,
		Modules: modules,
	})

	return FormatResult(inv.Tag, commandStatus(result), commandBody(result))
}

// dispatchBuiltin validates arguments against the tool's schema and runs the
// table entry.
func (d *Dispatcher) dispatchBuiltin(rc *core.RunContext, inv core.BuiltinInvocation) string {
	if inv.Tool == "" {
		return FormatResult(tag.TagBuiltin, StatusFailed, "builtin tag is empty")
	}

	b, ok := d.builtins[inv.Tool]
	if !ok {
		return FormatResult(tag.TagBuiltin, StatusFailed, fmt.Sprintf("unknown builtin tool: %s", inv.Tool))
	}

	args, err := b.Schema.Validate(inv.Args)
	if err != nil {
		return FormatResult(tag.TagBuiltin, StatusFailed, fmt.Sprintf("builtin.%s: %s", b.Name, err))
	}

	body, err := b.Fn(d, rc, args)
	if err != nil {
		d.logger.Warn("builtin failed", "tool", b.Name, "error", err)
		return FormatResult(tag.TagBuiltin, StatusFailed, fmt.Sprintf("builtin.%s: %s", b.Name, err))
	}

	return FormatResult(tag.TagBuiltin, StatusSuccess, body)
}

// dispatchCreateAgent hands the invocation to the orchestrator's spawn
// callback and renders the child's summary (or failure) as result content.
func (d *Dispatcher) dispatchCreateAgent(rc *core.RunContext, inv core.CreateAgentInvocation, spawn SpawnFunc) string {
	if spawn == nil {
		return FormatResult(tag.TagCreateAgent, StatusFailed, "sub-agent creation is not available")
	}

	summary, status, err := spawn(rc, inv)
	if err != nil {
		return FormatResult(tag.TagCreateAgent, StatusFailed, err.Error())
	}

	if status != core.StatusCompleted {
		return FormatResult(tag.TagCreateAgent, StatusFailed, summary)
	}

	return FormatResult(tag.TagCreateAgent, StatusSuccess, summary)
}
