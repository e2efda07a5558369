// Package adapter implements bidirectional translation between the OpenAI
// chat message format and the prompt/event form the Claude runtime speaks.
// The forward direction builds one prompt plus a system prompt out of an
// OpenAI message array; the reverse direction turns a claude.Event sequence
// back into an OpenAI CompletionResponse or StreamChunk sequence.
package adapter

import (
	"encoding/json"
	"strings"

	"github.com/claudegateway/openai-bridge/internal/apierror"
	"github.com/claudegateway/openai-bridge/internal/claude"
	domain "github.com/claudegateway/openai-bridge/model"
	wire "github.com/claudegateway/openai-bridge/relay/model"
)

// BuildPrompt translates an OpenAI-shaped conversation into a claude.Prompt.
// System messages coalesce into a single system prompt, in order, with
// requestSystemPrompt (the request's non-standard system_prompt field)
// appended last so it always takes precedence on conflicting directives.
// Tool messages are validated against prior assistant tool_calls before any
// rendering happens, so an orphan tool_call_id fails fast with a validation
// error rather than silently vanishing from the transcript.
func BuildPrompt(messages []domain.Message, requestSystemPrompt string, tools []wire.Tool, enableTools bool) (claude.Prompt, error) {
	if err := validateToolReferences(messages); err != nil {
		return claude.Prompt{}, err
	}

	systemPrompt := coalesceSystemPrompt(messages, requestSystemPrompt)
	if enableTools && len(tools) > 0 {
		toolSection := renderToolSchemas(tools)
		if systemPrompt != "" {
			systemPrompt += "\n\n" + toolSection
		} else {
			systemPrompt = toolSection
		}
	}

	return claude.Prompt{
		SystemPrompt: systemPrompt,
		UserText:     renderTranscript(messages),
	}, nil
}

// validateToolReferences fails the request if any role=tool message
// references a tool_call_id that was never offered by a prior assistant
// turn in the same conversation.
func validateToolReferences(messages []domain.Message) error {
	known := map[string]bool{}
	for _, msg := range messages {
		for _, call := range msg.ToolCalls {
			known[call.ID] = true
		}
		if msg.Role == domain.RoleTool {
			if msg.ToolCallID == "" {
				return apierror.Validation("missing_tool_call_id", "tool message missing tool_call_id", "messages")
			}
			if !known[msg.ToolCallID] {
				return apierror.Validation("orphan_tool_call_id",
					"tool message references an unknown tool_call_id: "+msg.ToolCallID, "messages")
			}
		}
	}
	return nil
}

// coalesceSystemPrompt concatenates every role=system message's content in
// order, then appends the request's explicit system_prompt field last.
func coalesceSystemPrompt(messages []domain.Message, requestSystemPrompt string) string {
	var parts []string
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem && msg.Content != "" {
			parts = append(parts, msg.Content)
		}
	}
	if requestSystemPrompt != "" {
		parts = append(parts, requestSystemPrompt)
	}
	return strings.Join(parts, "\n\n")
}

// renderTranscript serializes every non-system message into the single
// prompt text Claude receives on stdin, preserving order. Assistant turns
// are re-serialized verbatim, never paraphrased; tool results are rendered
// as a labeled block correlated by call id.
func renderTranscript(messages []domain.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			continue // already folded into the system prompt
		case domain.RoleUser:
			b.WriteString("User: ")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		case domain.RoleAssistant:
			b.WriteString("Assistant: ")
			b.WriteString(msg.Content)
			for _, call := range msg.ToolCalls {
				b.WriteString("\n[called ")
				b.WriteString(call.Function.Name)
				b.WriteString(" with ")
				b.WriteString(call.Function.Arguments)
				b.WriteString("]")
			}
			b.WriteString("\n\n")
		case domain.RoleTool:
			b.WriteString("Tool result for ")
			b.WriteString(msg.ToolCallID)
			b.WriteString(":\n")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n\n")
}

// renderToolSchemas builds a human-readable tool catalogue appended to the
// system prompt when the request enables tool use. Claude is instructed
// through its own native tool-calling surface in richer deployments, but
// this gateway's CLI invocation carries tool awareness purely through the
// prompt, so each tool's name, description, and parameter schema are spelled
// out verbatim for the model to act on.
func renderToolSchemas(tools []wire.Tool) string {
	var b strings.Builder
	b.WriteString("You have access to the following tools:\n")
	for _, t := range tools {
		b.WriteString("- ")
		b.WriteString(t.Function.Name)
		if t.Function.Description != "" {
			b.WriteString(": ")
			b.WriteString(t.Function.Description)
		}
		b.WriteString("\n")
		if len(t.Function.Parameters) > 0 {
			if params, err := json.Marshal(t.Function.Parameters); err == nil {
				b.WriteString("  parameters: ")
				b.Write(params)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
