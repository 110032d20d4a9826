package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/taskmesh/logging"
)

// EnvSnapshot captures the directory layout an agent run operates against.
// It is taken once when a run starts and propagated to every command the run
// dispatches, so commands observe a stable view even if the active hint
// changes mid-run.
type EnvSnapshot struct {
	// StartDir is the working directory the run was started from.
	StartDir string
	// ProjectDir is the root of the project being operated on.
	ProjectDir string
	// HintModulesDir is the modules directory of the active hint, or empty
	// when no hint is loaded.
	HintModulesDir string
}

// RunContext carries the identity and environment of one agent run. It is
// created by the orchestrator when an agent starts and handed to the
// dispatcher for every invocation the agent produces.
type RunContext struct {
	// Context is the cancellation context governing the run.
	Context context.Context
	// RunID identifies the whole run tree (shared by root and children).
	RunID string
	// AgentID identifies this agent within the run tree.
	AgentID string
	// Depth is the agent's recursion depth (root is 0).
	Depth int
	// Env is the environment snapshot taken at run start.
	Env EnvSnapshot

	*loggerAdapter
}

// NewRunContext constructs a run context bound to an agent identity.
func NewRunContext(ctx context.Context, runID, agentID string, depth int, env EnvSnapshot, logger logging.Logger) *RunContext {
	return &RunContext{
		Context:       ctx,
		RunID:         runID,
		AgentID:       agentID,
		Depth:         depth,
		Env:           env,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Child derives a run context for a spawned sub-agent, sharing the run ID
// and environment snapshot while incrementing depth.
func (rc *RunContext) Child(agentID string) *RunContext {
	return &RunContext{
		Context:       rc.Context,
		RunID:         rc.RunID,
		AgentID:       agentID,
		Depth:         rc.Depth + 1,
		Env:           rc.Env,
		loggerAdapter: newLoggerAdapter(rc.Logger()),
	}
}

// Validate performs a structural sanity check of the context.
func (rc *RunContext) Validate() error {
	if rc.Context == nil || rc.RunID == "" || rc.AgentID == "" {
		return fmt.Errorf("invalid RunContext")
	}

	return nil
}
