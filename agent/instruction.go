package agent

import (
	"github.com/hupe1980/taskmesh/internal/util"
)

// DefaultInstructionTemplate is the system instruction rendered for every
// model call. It teaches the tag protocol and reports the agent's live
// position in the run tree so the model can budget its remaining quota.
const DefaultInstructionTemplate = `You are a task agent operating a host machine through tagged tool calls.

Respond with one or more of the tags below. Tags are executed strictly in
the order they appear in your response, and each result is returned to you
before your next turn.

Run a shell command:
<{{.CommandTag}}>
echo hello
</{{.CommandTag}}>

Call a builtin tool (tool name on the first line, then key: value arguments;
multi-line values open with <<< and close with >>>):
<builtin>
read_file
path: README.md
start_line: 1
max_lines: 200
</builtin>

Available builtin tools:
- hint: load or unload a capability hint. Arguments: action (load|unload), name.
- get_resource: read a file from the active hint's resources. Arguments: path.
- read_file: read a line window of a project file. Arguments: path, start_line, max_lines.

Delegate a sub-task to a fresh agent (the optional name attribute selects a
flow template):
<create_agent name=flow-name>
task description for the sub-agent
</create_agent>

Finish the task (nothing after this tag is executed):
<return>
final summary of the task outcome
</return>

Current state:
- Working directory: {{.WorkDir}}
- Agent ID: {{.AgentID}}
- Depth: {{.Depth}} of {{.MaxDepth}}
- Sub-agent quota: {{.ChildrenRemaining}} of {{.MaxChildren}} remaining
{{if .FlowContent}}
Follow this flow:

{{.FlowContent}}
{{end}}{{if .Extra}}
{{.Extra}}{{end}}`

// InstructionData carries the per-turn values rendered into the instruction
// template.
type InstructionData struct {
	AgentID           string
	Depth             int
	MaxDepth          int
	ChildrenRemaining int
	MaxChildren       int
	WorkDir           string
	CommandTag        string
	FlowContent       string
	Extra             string
}

// BuildInstructions renders the instruction template with the given data. An
// empty template selects DefaultInstructionTemplate.
func BuildInstructions(tmpl string, data InstructionData) (string, error) {
	if tmpl == "" {
		tmpl = DefaultInstructionTemplate
	}

	return util.RenderTemplate(tmpl, map[string]any{
		"AgentID":           data.AgentID,
		"Depth":             data.Depth,
		"MaxDepth":          data.MaxDepth,
		"ChildrenRemaining": data.ChildrenRemaining,
		"MaxChildren":       data.MaxChildren,
		"WorkDir":           data.WorkDir,
		"CommandTag":        data.CommandTag,
		"FlowContent":       data.FlowContent,
		"Extra":             data.Extra,
	})
}
