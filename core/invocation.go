package core

// Span records the byte range an invocation was parsed from, relative to the
// start of the model response it came from. End is exclusive.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Invocation represents a single parsed tag extracted from model output.
// Concrete invocation types implement the unexported isInvocation marker
// enabling a closed set: command execution, sub-agent creation, builtin-tool
// invocation and completion. Invocations are immutable once parsed and are
// consumed exactly once by the dispatcher.
type Invocation interface {
	isInvocation()

	// Span returns the byte range this invocation was parsed from.
	Span() Span
}

// CommandInvocation requests execution of one host shell command.
type CommandInvocation struct {
	// Command is the literal command text captured between the tag markers.
	Command string
	// Tag is the tag family name as written (bash_call or ps_call), retained
	// so results can be wrapped in the matching result tag.
	Tag  string
	span Span
}

// isInvocation implements the Invocation interface for CommandInvocation.
func (CommandInvocation) isInvocation() {}

// Span returns the byte range this invocation was parsed from.
func (c CommandInvocation) Span() Span { return c.span }

// CreateAgentInvocation requests creation of a child agent for a sub-task.
type CreateAgentInvocation struct {
	// Task is the raw task text captured between the tag markers.
	Task string
	// FlowName is the optional name attribute selecting a predefined flow
	// template. Empty when the attribute is absent.
	FlowName string
	span     Span
}

// isInvocation implements the Invocation interface for CreateAgentInvocation.
func (CreateAgentInvocation) isInvocation() {}

// Span returns the byte range this invocation was parsed from.
func (c CreateAgentInvocation) Span() Span { return c.span }

// BuiltinInvocation requests execution of a registered builtin tool.
type BuiltinInvocation struct {
	// Tool is the lower-cased builtin identifier from the first body line
	// (with any "builtin." prefix stripped).
	Tool string
	// Args holds the key/value parameter lines. Literal block values
	// (delimited by <<< / >>>) are captured verbatim under their key.
	Args map[string]string
	// Raw is the unparsed tag body, retained for diagnostics.
	Raw  string
	span Span
}

// isInvocation implements the Invocation interface for BuiltinInvocation.
func (BuiltinInvocation) isInvocation() {}

// Span returns the byte range this invocation was parsed from.
func (b BuiltinInvocation) Span() Span { return b.span }

// CompletionInvocation signals that the agent considers its task finished.
type CompletionInvocation struct {
	// Summary is the completion text returned to the parent (or the external
	// caller when emitted by the root agent).
	Summary string
	span    Span
}

// isInvocation implements the Invocation interface for CompletionInvocation.
func (CompletionInvocation) isInvocation() {}

// Span returns the byte range this invocation was parsed from.
func (c CompletionInvocation) Span() Span { return c.span }

// NewCommandInvocation constructs a command invocation bound to a byte range.
func NewCommandInvocation(tag, command string, span Span) CommandInvocation {
	return CommandInvocation{Tag: tag, Command: command, span: span}
}

// NewCreateAgentInvocation constructs a sub-agent creation invocation.
func NewCreateAgentInvocation(task, flowName string, span Span) CreateAgentInvocation {
	return CreateAgentInvocation{Task: task, FlowName: flowName, span: span}
}

// NewBuiltinInvocation constructs a builtin-tool invocation.
func NewBuiltinInvocation(tool string, args map[string]string, raw string, span Span) BuiltinInvocation {
	if args == nil {
		args = map[string]string{}
	}
	return BuiltinInvocation{Tool: tool, Args: args, Raw: raw, span: span}
}

// NewCompletionInvocation constructs a completion invocation.
func NewCompletionInvocation(summary string, span Span) CompletionInvocation {
	return CompletionInvocation{Summary: summary, span: span}
}
