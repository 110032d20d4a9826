// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language / reasoning models inside TaskMesh.
//
// Core goals:
//   - Keep generation a single blocking call (Generate) with an explicit error
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel with scripted
//     responses and failures)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so the orchestrator remains decoupled from vendor SDKs. Tool use is
// deliberately absent here: TaskMesh drives tools through tagged text, not
// provider-side function calling.
package model
