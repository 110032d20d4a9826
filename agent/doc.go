// Package agent implements the recursive task-agent orchestrator.
//
// Each agent runs a blocking loop: ask the model for a response, parse the
// tagged invocations out of it, dispatch them strictly in order, append the
// results to the conversation, repeat. A create_agent invocation suspends
// the parent and runs the child to a terminal state before the next
// invocation is dispatched — execution is depth-first and sequential, with
// no two agents ever running concurrently.
//
// Recursion is bounded by a maximum depth and a per-parent fan-out cap; a
// rejected create attempt becomes a failed tool result for the model, not an
// abort, and does not consume a fan-out slot. Consecutive unusable model
// turns (transport failures or responses with no parseable tags) beyond the
// retry budget terminate the agent with a synthetic failure summary that
// propagates to its parent as ordinary result content.
package agent
