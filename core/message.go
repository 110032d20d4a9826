package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem marks instruction text injected by the orchestrator.
	RoleSystem Role = "system"
	// RoleUser marks task text and dispatch results fed back to the model.
	RoleUser Role = "user"
	// RoleAssistant marks raw model output.
	RoleAssistant Role = "assistant"
)

// Message is one entry in an agent's ordered conversation history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

// NewID generates a short unique identifier for agents and runs. The first
// eight characters of a UUID keep log lines and result tags readable while
// staying unique enough within a single run tree.
func NewID() string {
	return uuid.NewString()[:8]
}
