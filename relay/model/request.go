// Package model holds the OpenAI wire-format types exchanged over the HTTP
// surface: request and response JSON shapes, independent of how the gateway
// represents a conversation internally (see the top-level model package for
// that).
package model

import (
	domain "github.com/claudegateway/openai-bridge/model"
)

// CompletionRequest is the OpenAI-shaped chat completion request, plus the
// gateway's non-standard session/tooling extensions.
type CompletionRequest struct {
	Model       string    `json:"model" binding:"required"`
	Messages    []Message `json:"messages" binding:"required,min=1"`
	Stream      bool      `json:"stream,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  any       `json:"tool_choice,omitempty"`

	// Non-standard gateway extensions.
	SessionID    *string `json:"session_id,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	EnableTools  bool    `json:"enable_tools,omitempty"`
}

// Message is the OpenAI wire-format chat message. It round-trips exactly to
// model.Message (the store's representation); a thin conversion keeps the
// wire schema and the storage schema independently evolvable.
type Message struct {
	Role       string            `json:"role" binding:"required,oneof=system user assistant tool"`
	Content    string            `json:"content"`
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []domain.ToolCall `json:"tool_calls,omitempty"`
}

// ToDomain converts a wire Message into the store's domain.Message.
func (m Message) ToDomain() domain.Message {
	return domain.Message{
		Role:       domain.Role(m.Role),
		Content:    m.Content,
		Name:       m.Name,
		ToolCallID: m.ToolCallID,
		ToolCalls:  m.ToolCalls,
	}
}

// FromDomain converts a domain.Message into its wire representation.
func FromDomain(m domain.Message) Message {
	return Message{
		Role:       string(m.Role),
		Content:    m.Content,
		Name:       m.Name,
		ToolCallID: m.ToolCallID,
		ToolCalls:  m.ToolCalls,
	}
}

// Tool describes a function the model may call, per OpenAI's tools schema.
type Tool struct {
	Type     string       `json:"type" binding:"required,eq=function"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function definition carried by a Tool.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// NamedToolChoice pins the model to a single named function, the
// `{type: function, function: {name}}` shape of CompletionRequest.ToolChoice.
type NamedToolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}
