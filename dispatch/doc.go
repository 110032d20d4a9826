// Package dispatch routes parsed invocations to their executors and formats
// the results fed back to the model.
//
// The dispatcher is a closed switch over the four invocation kinds: commands
// go to the command executor, builtin tags to a lookup table of builtin
// tools, create_agent tags to a spawn callback supplied by the orchestrator,
// and completion tags are a no-op here (the orchestrator intercepts them).
// Adding a builtin tool is a table entry with a key/value schema, not new
// control flow.
//
// Every result, success or failure, is wrapped in the result wire tag
//
//	<{tag}_result id="{status}">
//	{body}
//	</{tag}_result>
//
// and returned as ordinary content. Tool-level failures (timeout, nonzero
// exit, rejected path, missing hint) never abort the agent; the model sees
// the failure text and may try a different approach.
package dispatch
