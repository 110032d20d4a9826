// Package flow provides the flow template library used to seed sub-agents.
//
// A flow is a predefined procedure stored as flows/<name>.md with an optional
// flows/<name>.yaml metadata sidecar. The markdown's first non-empty line
// (leading # stripped) is the flow's display name, and the body carries the
// full procedure text injected into a child agent's instructions.
//
// Name matching is deliberately lax: lookups are case-insensitive and treat
// hyphens and underscores as equivalent, so <create_agent name=file_edit>
// finds file-edit.md. An unresolvable name degrades softly: the child is
// seeded with the raw task text and no flow content.
package flow
