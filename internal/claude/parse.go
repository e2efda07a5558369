package claude

import "encoding/json"

// frameHeader peeks at a line's type discriminator before committing to a
// full unmarshal of its type-specific shape.
type frameHeader struct {
	Type string `json:"type"`
}

type systemFrame struct {
	SessionID string   `json:"session_id"`
	Model     string   `json:"model"`
	Tools     []string `json:"tools"`
}

type streamEventFrame struct {
	Event struct {
		Type  string `json:"type"`
		Delta struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"delta"`
	} `json:"event"`
}

type assistantFrame struct {
	Message struct {
		Content []contentBlock `json:"content"`
	} `json:"message"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type resultFrame struct {
	Subtype string `json:"subtype"`
	IsError bool   `json:"is_error"`
	Result  string `json:"result"`
	Usage   struct {
		InputTokens          int `json:"input_tokens"`
		OutputTokens         int `json:"output_tokens"`
		CacheReadInputTokens int `json:"cache_read_input_tokens"`
	} `json:"usage"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// parseLine decodes one line of claude CLI stream-json output into an
// Event. ok is false for frame types this gateway ignores (e.g. "user",
// which only ever echoes tool results this gateway didn't ask Claude to
// execute). err is non-nil only when the line is malformed JSON, which the
// caller treats as a framing loss and aborts the stream.
func parseLine(line string) (Event, bool, error) {
	var header frameHeader
	if err := json.Unmarshal([]byte(line), &header); err != nil {
		return Event{}, false, err
	}

	switch header.Type {
	case "system":
		var f systemFrame
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			return Event{}, false, err
		}
		return Event{
			Kind:      EventSystemInit,
			SessionID: f.SessionID,
			Model:     f.Model,
			Tools:     f.Tools,
		}, true, nil

	case "stream_event":
		var f streamEventFrame
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			return Event{}, false, err
		}
		if f.Event.Type == "content_block_delta" && f.Event.Delta.Type == "text_delta" && f.Event.Delta.Text != "" {
			return Event{Kind: EventAssistantDelta, TextDelta: f.Event.Delta.Text}, true, nil
		}
		return Event{}, false, nil

	case "assistant":
		return parseAssistantFrame(line)

	case "result":
		var f resultFrame
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			return Event{}, false, err
		}
		ev := Event{
			Kind:       EventResult,
			StopReason: f.Subtype,
			IsError:    f.IsError,
			Usage: Usage{
				InputTokens:  f.Usage.InputTokens + f.Usage.CacheReadInputTokens,
				OutputTokens: f.Usage.OutputTokens,
			},
		}
		if f.IsError {
			ev.ErrorMessage = f.Result
		}
		if f.TotalCostUSD > 0 {
			cost := f.TotalCostUSD
			ev.CostUSD = &cost
		}
		return ev, true, nil

	default:
		// "user" and any future frame types this gateway doesn't act on.
		return Event{}, false, nil
	}
}

// parseAssistantFrame only ever yields a tool-call delta: assistant text
// arrives incrementally via stream_event frames, so the only new
// information a full assistant message carries is a tool_use block's
// complete, already-assembled arguments. The first tool_use block found
// is returned; additional calls in the same message surface as their own
// assistant frames (the claude CLI emits one per tool_use content block
// in practice when partial messages are enabled).
func parseAssistantFrame(line string) (Event, bool, error) {
	var f assistantFrame
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return Event{}, false, err
	}

	for _, block := range f.Message.Content {
		if block.Type != "tool_use" {
			continue
		}
		return Event{
			Kind: EventAssistantDelta,
			ToolCall: &ToolCallDelta{
				ID:            block.ID,
				Name:          block.Name,
				ArgumentsJSON: string(block.Input),
			},
		}, true, nil
	}

	return Event{}, false, nil
}
