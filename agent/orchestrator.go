package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/taskmesh/command"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/dispatch"
	"github.com/hupe1980/taskmesh/flow"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/session"
	"github.com/hupe1980/taskmesh/tag"
)

// Recursion and retry defaults.
const (
	// DefaultMaxDepth bounds the recursion depth of the run tree (root is 0).
	DefaultMaxDepth = 4
	// DefaultMaxChildren caps how many sub-agents one parent may create.
	DefaultMaxChildren = 4
	// DefaultRetryBudget is how many consecutive unusable model turns an
	// agent tolerates before it fails.
	DefaultRetryBudget = 3
)

// noTagReminder is fed back to the model when a response contains no
// parseable tags. It deliberately contains no tag syntax, so a model that
// parrots it cannot trigger a spurious completion.
const noTagReminder = "Your response contained no action tags. Reply using the tagged " +
	"protocol from your instructions: a shell command tag, builtin, create_agent, or return."

// Stats aggregates counters for one run tree.
type Stats struct {
	ModelCalls int           `json:"model_calls"`
	Commands   int           `json:"commands"`
	Builtins   int           `json:"builtins"`
	SubAgents  int           `json:"sub_agents"`
	Duration   time.Duration `json:"duration"`
}

// Result is the terminal outcome of a run.
type Result struct {
	RunID   string      `json:"run_id"`
	Summary string      `json:"summary"`
	Status  core.Status `json:"status"`
	Stats   Stats       `json:"stats"`
}

// Options configures an Orchestrator.
type Options struct {
	// Flows resolves create_agent name attributes to flow templates. Nil
	// disables flow composition; child tasks are seeded verbatim.
	Flows *flow.Library
	// Transcript records run entries. Nil disables recording.
	Transcript *session.InMemoryStore
	// Logger receives orchestration records.
	Logger logging.Logger
	// MaxDepth bounds recursion depth.
	MaxDepth int
	// MaxChildren caps per-parent sub-agent creation.
	MaxChildren int
	// RetryBudget is the consecutive unusable-turn tolerance.
	RetryBudget int
	// MaxOutputTokens is passed through to every model request. Zero leaves
	// the model's default in place.
	MaxOutputTokens int64
	// Env is the environment snapshot shared by the whole run tree. A zero
	// StartDir is filled in from the process working directory.
	Env core.EnvSnapshot
	// CommandTag is the shell tag family advertised in instructions.
	// Defaults to the current platform's shell tag.
	CommandTag string
	// InstructionTemplate overrides DefaultInstructionTemplate.
	InstructionTemplate string
	// ExtraInstructions is appended to the rendered instructions.
	ExtraInstructions string
}

// Orchestrator drives the recursive task-agent loop: it owns the model, the
// dispatcher, recursion accounting and the transcript. A single Run executes
// the whole tree sequentially on the calling goroutine.
type Orchestrator struct {
	model      model.Model
	dispatcher *dispatch.Dispatcher
	flows      *flow.Library
	transcript *session.InMemoryStore
	logger     logging.Logger

	maxDepth    int
	maxChildren int
	retryBudget int
	maxTokens   int64
	env         core.EnvSnapshot
	commandTag  string
	tmpl        string
	extra       string
}

// NewOrchestrator creates an orchestrator bound to a model and a dispatcher.
func NewOrchestrator(m model.Model, d *dispatch.Dispatcher, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Logger:      logging.NoOpLogger{},
		MaxDepth:    DefaultMaxDepth,
		MaxChildren: DefaultMaxChildren,
		RetryBudget: DefaultRetryBudget,
		CommandTag:  strings.TrimSuffix(command.DefaultShell().ResultTag, "_result"),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Env.StartDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Env.StartDir = wd
		}
	}

	return &Orchestrator{
		model:       m,
		dispatcher:  d,
		flows:       opts.Flows,
		transcript:  opts.Transcript,
		logger:      opts.Logger,
		maxDepth:    opts.MaxDepth,
		maxChildren: opts.MaxChildren,
		retryBudget: opts.RetryBudget,
		maxTokens:   opts.MaxOutputTokens,
		env:         opts.Env,
		commandTag:  opts.CommandTag,
		tmpl:        opts.InstructionTemplate,
		extra:       opts.ExtraInstructions,
	}
}

// Run executes a task to a terminal state and returns the root agent's
// summary. The call blocks until the whole run tree has finished.
func (o *Orchestrator) Run(ctx context.Context, task string) (Result, error) {
	if strings.TrimSpace(task) == "" {
		return Result{}, fmt.Errorf("task must not be empty")
	}

	start := time.Now()
	runID := core.NewID()
	rc := core.NewRunContext(ctx, runID, "root", 0, o.env, o.logger)

	o.record(rc, session.KindLifecycle, "agent started")
	o.record(rc, session.KindTask, task)

	st := &runState{}
	summary, status := o.runAgent(rc, task, "", st)

	o.record(rc, session.KindLifecycle, "agent "+status.String())

	st.stats.Duration = time.Since(start)

	o.logger.Info("run finished",
		"run_id", runID,
		"status", status.String(),
		"model_calls", st.stats.ModelCalls,
		"sub_agents", st.stats.SubAgents,
		"duration", st.stats.Duration,
	)

	return Result{
		RunID:   runID,
		Summary: summary,
		Status:  status,
		Stats:   st.stats,
	}, nil
}

// runState carries the per-run counters shared by every agent in the tree.
type runState struct {
	stats Stats
}

// runAgent executes one agent's conversation loop to a terminal state. The
// returned summary is either the model's <return> content or a synthetic
// failure description; it never errors, because an agent's failure is
// ordinary result content for its parent.
func (o *Orchestrator) runAgent(rc *core.RunContext, task, flowContent string, st *runState) (string, core.Status) {
	children := core.NewLimiter("children", o.maxChildren)
	spawn := o.spawnFunc(children, st)

	messages := []core.Message{core.NewMessage(core.RoleUser, task)}
	failures := 0

	for {
		if err := rc.Context.Err(); err != nil {
			return "Task not completed: run cancelled", core.StatusFailed
		}

		instructions, err := BuildInstructions(o.tmpl, InstructionData{
			AgentID:           rc.AgentID,
			Depth:             rc.Depth,
			MaxDepth:          o.maxDepth,
			ChildrenRemaining: children.Remaining(),
			MaxChildren:       o.maxChildren,
			WorkDir:           o.workDir(),
			CommandTag:        o.commandTag,
			FlowContent:       flowContent,
			Extra:             o.extra,
		})
		if err != nil {
			return fmt.Sprintf("Task not completed: %s", err), core.StatusFailed
		}

		resp, err := o.model.Generate(rc.Context, model.Request{
			Instructions: instructions,
			Messages:     messages,
			MaxTokens:    o.maxTokens,
		})
		st.stats.ModelCalls++

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "Task not completed: run cancelled", core.StatusFailed
			}

			failures++
			rc.LogWarn("model call failed", "error", err, "consecutive_failures", failures)
			if failures >= o.retryBudget {
				return fmt.Sprintf("Task not completed: %s", ErrRetryBudgetExhausted), core.StatusFailed
			}
			continue
		}

		invocations := tag.Parse(resp.Text)
		if len(invocations) == 0 {
			failures++
			rc.LogWarn("response has no action tags", "consecutive_failures", failures)
			if failures >= o.retryBudget {
				return fmt.Sprintf("Task not completed: %s", ErrRetryBudgetExhausted), core.StatusFailed
			}

			messages = append(messages,
				core.NewMessage(core.RoleAssistant, resp.Text),
				core.NewMessage(core.RoleUser, noTagReminder),
			)
			continue
		}
		failures = 0

		assistant := tag.StripTrailingAfterCommands(resp.Text)
		messages = append(messages, core.NewMessage(core.RoleAssistant, assistant))
		o.record(rc, session.KindModelResponse, assistant)

		var results []string
		for _, inv := range invocations {
			if done, ok := inv.(core.CompletionInvocation); ok {
				summary := strings.TrimSpace(done.Summary)
				if summary == "" {
					summary = "Task completed"
				}

				return summary, core.StatusCompleted
			}

			switch inv.(type) {
			case core.CommandInvocation:
				st.stats.Commands++
			case core.BuiltinInvocation:
				st.stats.Builtins++
			}

			results = append(results, o.dispatcher.Dispatch(rc, inv, spawn))
		}

		feedback := strings.Join(results, "\n\n")
		messages = append(messages, core.NewMessage(core.RoleUser, feedback))
		o.record(rc, session.KindToolResult, feedback)
	}
}

// spawnFunc builds the dispatcher callback that runs a child agent. The
// limiter belongs to the calling agent, so fan-out is counted per parent. A
// rejected attempt returns an error without consuming a slot; slots are
// consumed only for children that actually ran.
func (o *Orchestrator) spawnFunc(children *core.Limiter, st *runState) dispatch.SpawnFunc {
	return func(rc *core.RunContext, inv core.CreateAgentInvocation) (string, core.Status, error) {
		if rc.Depth+1 > o.maxDepth {
			return "", core.StatusFailed, ErrDepthExceeded
		}

		if !children.Allow() {
			return "", core.StatusFailed, ErrFanoutExceeded
		}

		childTask := inv.Task
		childFlow := ""
		if o.flows != nil {
			var f *flow.Flow
			childTask, f = o.flows.ComposeTask(inv.FlowName, inv.Task)
			if f != nil {
				childFlow = f.Content
			}
		}

		childRC := rc.Child("agent-" + core.NewID())

		o.record(childRC, session.KindLifecycle, "agent started")
		o.record(childRC, session.KindTask, childTask)

		rc.LogInfo("sub-agent created", "child", childRC.AgentID, "depth", childRC.Depth, "flow", inv.FlowName)

		summary, status := o.runAgent(childRC, childTask, childFlow, st)

		o.record(childRC, session.KindLifecycle, "agent "+status.String())

		_ = children.Increment()
		st.stats.SubAgents++

		return summary, status, nil
	}
}

// record appends a transcript entry when a store is configured.
func (o *Orchestrator) record(rc *core.RunContext, kind, content string) {
	if o.transcript == nil {
		return
	}

	o.transcript.Append(rc.RunID, session.Entry{
		AgentID: rc.AgentID,
		Depth:   rc.Depth,
		Kind:    kind,
		Content: content,
	})
}

// workDir reports the directory commands run in for instruction rendering.
func (o *Orchestrator) workDir() string {
	if o.env.ProjectDir != "" {
		return o.env.ProjectDir
	}

	return o.env.StartDir
}
