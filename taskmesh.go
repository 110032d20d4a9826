// Package taskmesh provides a high-level façade over the task-agent
// orchestrator and its supporting services (command execution, hints, flows,
// transcripts & logging). Most applications interact with this package by:
//  1. Creating a TaskMesh via New() (optionally overriding the defaults)
//  2. Running a task synchronously with Run()
//  3. Inspecting the transcript of a finished run via Transcript()
//
// The façade delegates orchestration to agent.Orchestrator while keeping
// setup ergonomics concise. All defaults are safe for local development; a
// production deployment typically supplies a configured model and a
// structured logger.
package taskmesh

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/command"
	"github.com/hupe1980/taskmesh/config"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/dispatch"
	"github.com/hupe1980/taskmesh/flow"
	"github.com/hupe1980/taskmesh/hint"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/model/anthropic"
	"github.com/hupe1980/taskmesh/model/openai"
	"github.com/hupe1980/taskmesh/session"
)

// Options configures a TaskMesh instance.
type Options struct {
	// Config carries provider, timeout and library settings. Defaults to
	// config.Default().
	Config config.Config

	// Model overrides the model constructed from Config. Supplying one makes
	// Config's provider fields irrelevant.
	Model model.Model

	// Env is the environment snapshot shared by the run tree. A zero value
	// is filled in from the process working directory.
	Env core.EnvSnapshot

	// MaxDepth bounds recursion depth of the run tree.
	MaxDepth int
	// MaxChildren caps per-parent sub-agent creation.
	MaxChildren int

	// ExtraBuiltins extends the dispatcher's builtin tool table.
	ExtraBuiltins []dispatch.Builtin

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// TaskMesh is the high-level façade aggregating the orchestrator and its
// services.
type TaskMesh struct {
	orchestrator *agent.Orchestrator
	registry     *hint.Registry
	flows        *flow.Library
	transcripts  *session.InMemoryStore
}

// New creates a TaskMesh instance with optional overrides.
func New(optFns ...func(o *Options)) (*TaskMesh, error) {
	opts := Options{
		Config:      config.Default(),
		MaxDepth:    agent.DefaultMaxDepth,
		MaxChildren: agent.DefaultMaxChildren,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	m := opts.Model
	if m == nil {
		var err error
		m, err = newModel(opts.Config)
		if err != nil {
			return nil, err
		}
	}

	registry := hint.NewRegistry(opts.Config.HintsDir, func(o *hint.RegistryOptions) {
		o.Logger = opts.Logger
	})

	executor := command.NewExecutor(func(o *command.ExecutorOptions) {
		o.WorkDir = opts.Env.ProjectDir
		o.DefaultTimeout = opts.Config.CommandTimeout
		o.Logger = opts.Logger
	})

	dispatcher := dispatch.NewDispatcher(executor, registry, func(o *dispatch.Options) {
		o.CommandTimeout = opts.Config.CommandTimeout
		o.ExtraBuiltins = opts.ExtraBuiltins
		o.Logger = opts.Logger
	})

	flows := flow.NewLibrary(opts.Config.FlowsDir, func(o *flow.LibraryOptions) {
		o.Logger = opts.Logger
	})

	transcripts := session.NewInMemoryStore()

	orchestrator := agent.NewOrchestrator(m, dispatcher, func(o *agent.Options) {
		o.Flows = flows
		o.Transcript = transcripts
		o.Logger = opts.Logger
		o.MaxDepth = opts.MaxDepth
		o.MaxChildren = opts.MaxChildren
		o.RetryBudget = opts.Config.RetryBudget
		o.MaxOutputTokens = opts.Config.MaxOutputTokens
		o.Env = opts.Env
	})

	return &TaskMesh{
		orchestrator: orchestrator,
		registry:     registry,
		flows:        flows,
		transcripts:  transcripts,
	}, nil
}

// newModel constructs the model backend selected by the configuration.
func newModel(cfg config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			o.MaxCompletionTokens = cfg.MaxOutputTokens
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.APIKey = cfg.APIKey
			o.MaxTokens = cfg.MaxOutputTokens
		}), nil
	case config.ProviderMock:
		return model.NewMockModel(cfg.Model, config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
}

// Run executes a task to a terminal state. The call blocks until the whole
// run tree has finished.
func (tm *TaskMesh) Run(ctx context.Context, task string) (agent.Result, error) {
	return tm.orchestrator.Run(ctx, task)
}

// Hints returns the hint registry backing builtin hint switching.
func (tm *TaskMesh) Hints() *hint.Registry { return tm.registry }

// Flows returns the flow template library.
func (tm *TaskMesh) Flows() *flow.Library { return tm.flows }

// Transcript returns a clone of a finished run's transcript.
func (tm *TaskMesh) Transcript(runID string) (*session.Transcript, bool) {
	return tm.transcripts.Get(runID)
}
