package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/taskmesh/core"
)

// Request captures the normalized model input produced by the orchestrator.
type Request struct {
	Instructions string         `json:"instructions"` // System instructions for the model
	Messages     []core.Message `json:"messages"`     // Ordered conversation history
	MaxTokens    int64          `json:"max_tokens,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the complete output of one model call.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface the orchestrator needs to drive generation.
// Generate is a blocking call: it returns the complete response text or an
// error. The orchestrator treats the call as opaque; retry classification
// happens above this interface.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// mockStep is one scripted MockModel outcome.
type mockStep struct {
	text string
	err  error
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are scripted in order; once the script is exhausted, Generate
// echoes the last user message.
type MockModel struct {
	info Info

	mu       sync.Mutex
	script   []mockStep
	requests []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: provider},
	}
}

// Enqueue appends a scripted response text.
func (m *MockModel) Enqueue(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.script = append(m.script, mockStep{text: text})

	return m
}

// EnqueueError appends a scripted transport failure.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.script = append(m.script, mockStep{err: err})

	return m
}

// Generate implements Model; pops the next scripted outcome.
func (m *MockModel) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		step := m.script[0]
		m.script = m.script[1:]
		if step.err != nil {
			return Response{}, step.err
		}
		return Response{Text: step.text, FinishReason: "stop"}, nil
	}

	last := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == core.RoleUser {
			last = req.Messages[i].Content
			break
		}
	}

	return Response{Text: fmt.Sprintf("Mock response to: %s", last), FinishReason: "stop"}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// Calls returns how many Generate calls were made.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

// Requests returns the recorded Generate inputs in order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)

	return out
}
