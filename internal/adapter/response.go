package adapter

import wire "github.com/claudegateway/openai-bridge/relay/model"

// BuildResponse assembles the non-streaming CompletionResponse from an
// exhausted Aggregator. promptTokens/completionTokens are passed in rather
// than read off the Aggregator directly because the Completion Service may
// have substituted a local token estimate when Claude reported none.
func BuildResponse(
	id, model string,
	created int64,
	agg *Aggregator,
	finishReason wire.FinishReason,
	promptTokens, completionTokens int,
	sessionID *string,
	promptTokensEstimated bool,
) wire.CompletionResponse {
	resp := wire.CompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: created,
		Model:   model,
		Choices: []wire.Choice{
			{
				Index: 0,
				Message: wire.ResponseMessage{
					Role:      "assistant",
					Content:   agg.Content(),
					ToolCalls: agg.ToolCalls(),
				},
				FinishReason: finishReason,
			},
		},
		Usage: wire.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}

	if cost := agg.CostUSD(); cost != nil || sessionID != nil || promptTokensEstimated {
		resp.Metadata = &wire.ResponseMetadata{
			CostUSD:               agg.CostUSD(),
			PromptTokensEstimated: promptTokensEstimated,
			SessionID:             sessionID,
		}
	}

	return resp
}

// BuildStreamChunk wraps one StreamUpdate into the SSE-ready StreamChunk
// shape. Only the delta fields the update carries are populated; the caller
// sets Role on the first chunk only, per OpenAI's convention.
func BuildStreamChunk(id, model string, created int64, index int, role string, update StreamUpdate) wire.StreamChunk {
	delta := wire.StreamDelta{Role: role, Content: update.TextDelta}
	if update.ToolCall != nil {
		delta.ToolCalls = []wire.StreamToolCallDelta{*update.ToolCall}
	}

	return wire.StreamChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []wire.StreamChoice{
			{Index: index, Delta: delta, FinishReason: nil},
		},
	}
}

// BuildFinalStreamChunk builds the terminal SSE frame: empty delta,
// finish_reason set, usage attached.
func BuildFinalStreamChunk(id, model string, created int64, finishReason wire.FinishReason, promptTokens, completionTokens int) wire.StreamChunk {
	reason := finishReason
	return wire.StreamChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []wire.StreamChoice{
			{Index: 0, Delta: wire.StreamDelta{}, FinishReason: &reason},
		},
		Usage: &wire.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}

// BuildErrorStreamChunk builds the non-standard terminal SSE frame emitted
// when a stream fails mid-flight, per spec §7: finish_reason="error", empty
// delta, emitted in addition to (never instead of) any preceding
// HTTP-level status the caller already committed.
func BuildErrorStreamChunk(id, model string, created int64) wire.StreamChunk {
	reason := wire.FinishError
	return wire.StreamChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []wire.StreamChoice{
			{Index: 0, Delta: wire.StreamDelta{}, FinishReason: &reason},
		},
	}
}
