// Package tag parses the tagged instruction format that models use to drive
// TaskMesh. A model response may interleave free text with command tags
// (<bash_call>, <ps_call>), builtin tool tags (<builtin>), sub-agent creation
// tags (<create_agent name=...>) and a completion tag (<return>).
//
// Parse extracts all well formed tags in document order as core.Invocation
// values. Malformed tags (unbalanced or nested inside another tag) are
// skipped rather than failing the whole response, matching the tolerant
// behavior required for real model output.
package tag
