package adapter

import (
	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"

	"github.com/claudegateway/openai-bridge/internal/apierror"
	"github.com/claudegateway/openai-bridge/internal/claude"
	wire "github.com/claudegateway/openai-bridge/relay/model"
)

// StreamUpdate is one piece of client-visible content produced by feeding a
// single claude.Event into an Aggregator. Exactly one of TextDelta or
// ToolCall is populated; a nil *StreamUpdate means the event carried no
// content a streaming caller needs to forward (e.g. SystemInit, or the
// terminal Result, which callers finalize separately).
type StreamUpdate struct {
	TextDelta string
	ToolCall  *wire.StreamToolCallDelta
}

// Aggregator accumulates one run_completion call's events into either a
// non-streaming CompletionResponse or a sequence of StreamChunks, depending
// on how the caller drains it. It is not safe for concurrent use; one
// Aggregator serves exactly one request.
type Aggregator struct {
	text      []byte
	toolCalls []wire.ResponseToolCall

	claudeSessionID string
	resultSeen      bool
	resultSubtype   string
	isError         bool
	errorMessage    string
	usage           claude.Usage
	costUSD         *float64
}

// NewAggregator builds an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Feed processes one event and returns the client-visible update it
// produces, or nil if the event is purely internal bookkeeping.
func (a *Aggregator) Feed(ev claude.Event) *StreamUpdate {
	switch ev.Kind {
	case claude.EventSystemInit:
		a.claudeSessionID = ev.SessionID
		return nil

	case claude.EventAssistantDelta:
		if ev.TextDelta != "" {
			a.text = append(a.text, ev.TextDelta...)
			return &StreamUpdate{TextDelta: ev.TextDelta}
		}
		if ev.ToolCall != nil {
			return a.feedToolCall(ev.ToolCall)
		}
		return nil

	case claude.EventResult:
		a.resultSeen = true
		a.resultSubtype = ev.StopReason
		a.isError = ev.IsError
		a.errorMessage = ev.ErrorMessage
		a.usage = ev.Usage
		a.costUSD = ev.CostUSD
		return nil

	default:
		return nil
	}
}

// feedToolCall synthesizes an opaque call_<uuid> id for the tool_use block —
// per contract, the gateway's own ids are never the claude-native tool_use
// id — records the completed call, and returns its streaming delta fragment.
func (a *Aggregator) feedToolCall(call *claude.ToolCallDelta) *StreamUpdate {
	index := len(a.toolCalls)
	id := "call_" + uuid.NewString()

	a.toolCalls = append(a.toolCalls, wire.ResponseToolCall{
		ID:   id,
		Type: "function",
		Function: wire.ResponseToolCallFunc{
			Name:      call.Name,
			Arguments: call.ArgumentsJSON,
		},
	})

	return &StreamUpdate{
		ToolCall: &wire.StreamToolCallDelta{
			Index: index,
			ID:    id,
			Type:  "function",
			Function: &wire.StreamToolCallFnDelta{
				Name:      call.Name,
				Arguments: call.ArgumentsJSON,
			},
		},
	}
}

// Finished reports whether a terminal Result event has been fed.
func (a *Aggregator) Finished() bool { return a.resultSeen }

// Content returns the concatenated assistant text accumulated so far.
func (a *Aggregator) Content() string { return string(a.text) }

// ToolCalls returns the tool calls synthesized so far, or nil if there were
// none — callers rely on nil (not an empty slice) to omit tool_calls from
// the wire response.
func (a *Aggregator) ToolCalls() []wire.ResponseToolCall { return a.toolCalls }

// Usage returns the token usage reported by the terminal Result event.
func (a *Aggregator) Usage() claude.Usage { return a.usage }

// CostUSD returns the cost estimate reported by the terminal Result event,
// or nil if Claude did not report one.
func (a *Aggregator) CostUSD() *float64 { return a.costUSD }

// ClaudeSessionID returns the claude-native session id observed on the
// SystemInit event, for the caller to persist via session.SetClaudeSessionID.
func (a *Aggregator) ClaudeSessionID() string { return a.claudeSessionID }

// FinishReason classifies the terminal Result event into an OpenAI
// finish_reason, or returns an upstream_error when Claude's own subtype
// indicates the run itself failed rather than merely terminated.
//
// Per the observed Claude CLI wrappers in the retrieval pack, "success" maps
// to "tool_calls" when the model emitted at least one tool call and to
// "stop" otherwise; "error_max_turns" and "error_max_budget_exceeded" are
// length-bounded terminations, not failures, and map to "length";
// "error_during_execution" (and anything unrecognized) is a genuine upstream
// failure and is surfaced as an error rather than a finish reason.
func (a *Aggregator) FinishReason() (wire.FinishReason, error) {
	hasToolCalls := len(a.toolCalls) > 0

	switch a.resultSubtype {
	case "success":
		if hasToolCalls {
			return wire.FinishToolCalls, nil
		}
		return wire.FinishStop, nil
	case "error_max_turns", "error_max_budget_exceeded":
		return wire.FinishLength, nil
	case "error_during_execution":
		return "", apierror.Wrap(apierror.KindUpstream, "claude_execution_error",
			"claude runtime reported an execution error", errorOrDefault(a.errorMessage))
	default:
		return "", apierror.Wrap(apierror.KindUpstream, "unrecognized_result_subtype",
			"unrecognized claude result subtype: "+a.resultSubtype, errorOrDefault(a.errorMessage))
	}
}

func errorOrDefault(msg string) error {
	if msg == "" {
		return errors.New("claude runtime reported no detail")
	}
	return errors.New(msg)
}
