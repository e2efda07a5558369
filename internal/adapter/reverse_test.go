package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claudegateway/openai-bridge/internal/claude"
	wire "github.com/claudegateway/openai-bridge/relay/model"
)

func TestAggregator_FeedTextDeltaAccumulates(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()

	u1 := agg.Feed(claude.Event{Kind: claude.EventAssistantDelta, TextDelta: "hello "})
	u2 := agg.Feed(claude.Event{Kind: claude.EventAssistantDelta, TextDelta: "world"})

	require.NotNil(t, u1)
	require.NotNil(t, u2)
	require.Equal(t, "hello world", agg.Content())
}

func TestAggregator_FeedToolCallSynthesizesOpaqueID(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()

	update := agg.Feed(claude.Event{
		Kind: claude.EventAssistantDelta,
		ToolCall: &claude.ToolCallDelta{
			ID:            "toolu_native_01",
			Name:          "get_weather",
			ArgumentsJSON: `{"city":"nyc"}`,
		},
	})

	require.NotNil(t, update)
	require.NotNil(t, update.ToolCall)
	require.NotEqual(t, "toolu_native_01", update.ToolCall.ID)
	require.Regexp(t, `^call_`, update.ToolCall.ID)

	calls := agg.ToolCalls()
	require.Len(t, calls, 1)
	require.Equal(t, update.ToolCall.ID, calls[0].ID)
	require.Equal(t, "get_weather", calls[0].Function.Name)
}

func TestAggregator_MultipleToolCallsGetDistinctIndicesAndIDs(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()

	u1 := agg.Feed(claude.Event{Kind: claude.EventAssistantDelta, ToolCall: &claude.ToolCallDelta{Name: "a"}})
	u2 := agg.Feed(claude.Event{Kind: claude.EventAssistantDelta, ToolCall: &claude.ToolCallDelta{Name: "b"}})

	require.Equal(t, 0, u1.ToolCall.Index)
	require.Equal(t, 1, u2.ToolCall.Index)
	require.NotEqual(t, u1.ToolCall.ID, u2.ToolCall.ID)
}

func TestAggregator_FinishReason_SuccessNoToolCalls(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	agg.Feed(claude.Event{Kind: claude.EventResult, StopReason: "success"})

	reason, err := agg.FinishReason()
	require.NoError(t, err)
	require.Equal(t, wire.FinishStop, reason)
}

func TestAggregator_FinishReason_SuccessWithToolCalls(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	agg.Feed(claude.Event{Kind: claude.EventAssistantDelta, ToolCall: &claude.ToolCallDelta{Name: "a"}})
	agg.Feed(claude.Event{Kind: claude.EventResult, StopReason: "success"})

	reason, err := agg.FinishReason()
	require.NoError(t, err)
	require.Equal(t, wire.FinishToolCalls, reason)
}

func TestAggregator_FinishReason_MaxTurnsMapsToLength(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	agg.Feed(claude.Event{Kind: claude.EventResult, StopReason: "error_max_turns", IsError: true})

	reason, err := agg.FinishReason()
	require.NoError(t, err)
	require.Equal(t, wire.FinishLength, reason)
}

func TestAggregator_FinishReason_ExecutionErrorIsUpstreamFailure(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	agg.Feed(claude.Event{Kind: claude.EventResult, StopReason: "error_during_execution", IsError: true, ErrorMessage: "boom"})

	_, err := agg.FinishReason()
	require.Error(t, err)
}

func TestAggregator_CapturesClaudeSessionIDFromSystemInit(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	agg.Feed(claude.Event{Kind: claude.EventSystemInit, SessionID: "native-abc"})

	require.Equal(t, "native-abc", agg.ClaudeSessionID())
}

func TestAggregator_UsageAndCostSurfaceFromResult(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	cost := 0.01
	agg.Feed(claude.Event{
		Kind:       claude.EventResult,
		StopReason: "success",
		Usage:      claude.Usage{InputTokens: 10, OutputTokens: 5},
		CostUSD:    &cost,
	})

	require.True(t, agg.Finished())
	require.Equal(t, 10, agg.Usage().InputTokens)
	require.Equal(t, 5, agg.Usage().OutputTokens)
	require.Equal(t, &cost, agg.CostUSD())
}

func TestBuildResponse_TotalTokensInvariant(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	agg.Feed(claude.Event{Kind: claude.EventAssistantDelta, TextDelta: "4"})
	agg.Feed(claude.Event{Kind: claude.EventResult, StopReason: "success"})

	resp := BuildResponse("chatcmpl-1", "claude-sonnet", 1700000000, agg, wire.FinishStop, 10, 3, nil, false)
	require.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	require.Equal(t, "4", resp.Choices[0].Message.Content)
	require.Equal(t, wire.FinishStop, resp.Choices[0].FinishReason)
}

func TestBuildResponse_OmitsMetadataWhenNothingToReport(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	resp := BuildResponse("id", "model", 0, agg, wire.FinishStop, 1, 1, nil, false)
	require.Nil(t, resp.Metadata)
}

func TestBuildStreamChunk_CarriesTextDelta(t *testing.T) {
	t.Parallel()
	chunk := BuildStreamChunk("id", "model", 0, 0, "assistant", StreamUpdate{TextDelta: "hi"})
	require.Equal(t, "hi", chunk.Choices[0].Delta.Content)
	require.Equal(t, "assistant", chunk.Choices[0].Delta.Role)
	require.Nil(t, chunk.Choices[0].FinishReason)
}

func TestBuildFinalStreamChunk_CarriesUsageAndFinishReason(t *testing.T) {
	t.Parallel()
	chunk := BuildFinalStreamChunk("id", "model", 0, wire.FinishStop, 10, 5)
	require.NotNil(t, chunk.Choices[0].FinishReason)
	require.Equal(t, wire.FinishStop, *chunk.Choices[0].FinishReason)
	require.Equal(t, 15, chunk.Usage.TotalTokens)
}

func TestBuildErrorStreamChunk_UsesNonStandardErrorFinishReason(t *testing.T) {
	t.Parallel()
	chunk := BuildErrorStreamChunk("id", "model", 0)
	require.Equal(t, wire.FinishError, *chunk.Choices[0].FinishReason)
	require.Empty(t, chunk.Choices[0].Delta.Content)
}
