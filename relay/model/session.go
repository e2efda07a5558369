package model

import (
	domain "github.com/claudegateway/openai-bridge/model"
)

// timeFormat renders timestamps per spec §6: ISO-8601 UTC, millisecond
// precision, trailing Z.
const timeFormat = "2006-01-02T15:04:05.000Z"

// SessionResponse is the wire shape of a session record, returned by every
// session endpoint that echoes one back.
type SessionResponse struct {
	SessionID      string    `json:"session_id"`
	CreatedAt      string    `json:"created_at"`
	LastAccessedAt string    `json:"last_accessed_at"`
	ExpiresAt      string    `json:"expires_at"`
	Messages       []Message `json:"messages"`
	SystemPrompt   string    `json:"system_prompt,omitempty"`
	Model          string    `json:"model,omitempty"`
	MaxTurns       int       `json:"max_turns,omitempty"`
	MessageCount   int       `json:"message_count"`
}

// FromDomainSession converts a store snapshot into its wire shape.
func FromDomainSession(s *domain.Session) SessionResponse {
	messages := make([]Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		messages = append(messages, FromDomain(m))
	}
	return SessionResponse{
		SessionID:      s.ID,
		CreatedAt:      s.CreatedAt.UTC().Format(timeFormat),
		LastAccessedAt: s.LastAccessedAt.UTC().Format(timeFormat),
		ExpiresAt:      s.ExpiresAt.UTC().Format(timeFormat),
		Messages:       messages,
		SystemPrompt:   s.SystemPrompt,
		Model:          s.Model,
		MaxTurns:       s.MaxTurns,
		MessageCount:   s.MessageCount(),
	}
}

// SessionListResponse is the wire shape of GET /v1/sessions.
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int               `json:"total"`
}

// CreateSessionRequest is the wire shape of POST /v1/sessions.
type CreateSessionRequest struct {
	Model        string `json:"model" binding:"required"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	MaxTurns     int    `json:"max_turns,omitempty"`
}

// PatchSessionRequest is the wire shape of PATCH /v1/sessions/{id}. Nil
// fields are left untouched by the session store.
type PatchSessionRequest struct {
	SystemPrompt *string `json:"system_prompt,omitempty"`
	MaxTurns     *int    `json:"max_turns,omitempty"`
}

// AppendMessagesRequest is the wire shape of POST /v1/sessions/{id}/messages.
type AppendMessagesRequest struct {
	Messages []Message `json:"messages"`
}

// AppendMessagesResponse is the wire shape returned by the same endpoint.
type AppendMessagesResponse struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	Messages     []Message `json:"messages"`
}

// DeleteSessionResponse is the wire shape of a successful DELETE.
type DeleteSessionResponse struct {
	Message string `json:"message"`
}
