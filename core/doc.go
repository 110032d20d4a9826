// Package core provides the foundational domain types used by TaskMesh. It
// defines the core abstractions for:
//
//   - Invocations (parsed tagged instructions extracted from model output)
//   - Messages (ordered conversational history entries)
//   - ExecutionResult (the captured outcome of one host command run)
//   - Status (agent lifecycle terminal states)
//   - Limiter (bounded counters for fan-out and retry budgets)
//   - RunContext (per-agent identity and environment snapshot)
//
// The package intentionally keeps implementation concerns (tag parsing,
// command execution, hint resolution, orchestration) out of scope, exposing
// small value types so the surrounding packages stay free of cyclic deps.
package core
