package claude

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine_SystemInit(t *testing.T) {
	t.Parallel()
	line := `{"type":"system","subtype":"init","session_id":"abc123","model":"claude-sonnet-4","tools":["Bash","Read"]}`

	ev, ok, err := parseLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventSystemInit, ev.Kind)
	require.Equal(t, "abc123", ev.SessionID)
	require.Equal(t, "claude-sonnet-4", ev.Model)
	require.Equal(t, []string{"Bash", "Read"}, ev.Tools)
}

func TestParseLine_StreamEventTextDelta(t *testing.T) {
	t.Parallel()
	line := `{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"hello"}}}`

	ev, ok, err := parseLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventAssistantDelta, ev.Kind)
	require.Equal(t, "hello", ev.TextDelta)
	require.Nil(t, ev.ToolCall)
}

func TestParseLine_StreamEventEmptyTextDeltaSkipped(t *testing.T) {
	t.Parallel()
	line := `{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":""}}}`

	_, ok, err := parseLine(line)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseLine_StreamEventNonTextDeltaSkipped(t *testing.T) {
	t.Parallel()
	line := `{"type":"stream_event","event":{"type":"content_block_start","delta":{"type":"input_json_delta","text":""}}}`

	_, ok, err := parseLine(line)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseLine_AssistantWithToolUse(t *testing.T) {
	t.Parallel()
	line := `{"type":"assistant","message":{"content":[{"type":"tool_use","id":"toolu_01","name":"Bash","input":{"command":"ls"}}]}}`

	ev, ok, err := parseLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventAssistantDelta, ev.Kind)
	require.NotNil(t, ev.ToolCall)
	require.Equal(t, "toolu_01", ev.ToolCall.ID)
	require.Equal(t, "Bash", ev.ToolCall.Name)
	require.JSONEq(t, `{"command":"ls"}`, ev.ToolCall.ArgumentsJSON)
}

func TestParseLine_AssistantWithOnlyTextSkipped(t *testing.T) {
	t.Parallel()
	line := `{"type":"assistant","message":{"content":[{"type":"text","text":"already streamed via stream_event"}]}}`

	_, ok, err := parseLine(line)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseLine_ResultSuccess(t *testing.T) {
	t.Parallel()
	line := `{"type":"result","subtype":"success","is_error":false,"result":"done","usage":{"input_tokens":10,"output_tokens":5,"cache_read_input_tokens":3},"total_cost_usd":0.0042}`

	ev, ok, err := parseLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventResult, ev.Kind)
	require.Equal(t, "success", ev.StopReason)
	require.False(t, ev.IsError)
	require.Equal(t, 13, ev.Usage.InputTokens)
	require.Equal(t, 5, ev.Usage.OutputTokens)
	require.NotNil(t, ev.CostUSD)
	require.InDelta(t, 0.0042, *ev.CostUSD, 1e-9)
}

func TestParseLine_ResultError(t *testing.T) {
	t.Parallel()
	line := `{"type":"result","subtype":"error_max_turns","is_error":true,"result":"max turns exceeded","usage":{"input_tokens":1,"output_tokens":0}}`

	ev, ok, err := parseLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventResult, ev.Kind)
	require.True(t, ev.IsError)
	require.Equal(t, "max turns exceeded", ev.ErrorMessage)
	require.Nil(t, ev.CostUSD)
}

func TestParseLine_UnrecognizedTypeSkipped(t *testing.T) {
	t.Parallel()
	line := `{"type":"user","message":{"content":[]}}`

	_, ok, err := parseLine(line)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseLine_MalformedJSONErrors(t *testing.T) {
	t.Parallel()

	_, ok, err := parseLine(`{"type":"system",`)
	require.Error(t, err)
	require.False(t, ok)
}

func TestParseLine_MalformedTypedFrameErrors(t *testing.T) {
	t.Parallel()

	_, ok, err := parseLine(`{"type":"result","usage":"not-an-object"}`)
	require.Error(t, err)
	require.False(t, ok)
}
