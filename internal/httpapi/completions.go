// Package httpapi wires the gateway's gin routes to the services beneath
// them: request decoding, response shaping, and the SSE framing convention
// for streamed completions.
package httpapi

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/claudegateway/openai-bridge/internal/apierror"
	"github.com/claudegateway/openai-bridge/internal/completion"
	domain "github.com/claudegateway/openai-bridge/model"
	wire "github.com/claudegateway/openai-bridge/relay/model"
)

func (s *Server) handleChatCompletion(c *gin.Context) {
	var body wire.CompletionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apierror.Write(c, apierror.Validation("invalid_request_body", err.Error(), "body"))
		return
	}

	toolChoice, err := resolveToolChoiceFunction(body.ToolChoice)
	if err != nil {
		apierror.Write(c, err)
		return
	}

	messages := make([]domain.Message, 0, len(body.Messages))
	for _, m := range body.Messages {
		messages = append(messages, m.ToDomain())
	}

	req := completion.Request{
		Model:              body.Model,
		Messages:           messages,
		SessionID:          body.SessionID,
		SystemPrompt:       body.SystemPrompt,
		EnableTools:        body.EnableTools,
		Tools:              body.Tools,
		ToolChoiceFunction: toolChoice,
	}

	if body.Stream {
		s.streamChatCompletion(c, req)
		return
	}

	resp, err := s.completions.Complete(c.Request.Context(), req)
	if err != nil {
		apierror.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// streamChatCompletion drives req and writes each produced chunk as one SSE
// frame, per spec §6: "data: <json>\n\n", terminated by "data: [DONE]\n\n".
// A mutex guards interleaved writes against the flusher, mirroring the
// retrieved SSE handler's convention for a single writer goroutine per
// connection plus a cooperating flush call after every frame.
func (s *Server) streamChatCompletion(c *gin.Context, req completion.Request) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	var mu sync.Mutex

	writeFrame := func(v any) error {
		mu.Lock()
		defer mu.Unlock()
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", mustMarshal(v)); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	err := s.completions.Stream(c.Request.Context(), req, func(chunk wire.StreamChunk) error {
		return writeFrame(chunk)
	})
	if err != nil {
		s.logger(c).Warn("stream terminated with error", errField(err))
	}

	mu.Lock()
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
	mu.Unlock()
}

// resolveToolChoiceFunction collapses the wire-format ToolChoice (`any`) —
// absent, "auto", "none", or {"type":"function","function":{"name"}} — into
// the single field the Completion Service validates against: the named
// function, or nil when the model is left to decide.
func resolveToolChoiceFunction(raw any) (*string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "auto" || v == "none" || v == "" {
			return nil, nil
		}
		return nil, apierror.Validation("invalid_tool_choice", "unsupported tool_choice value: "+v, "tool_choice")
	case map[string]any:
		choiceType, _ := v["type"].(string)
		if choiceType != "function" {
			return nil, apierror.Validation("invalid_tool_choice", `tool_choice.type must be "function"`, "tool_choice")
		}
		fn, _ := v["function"].(map[string]any)
		name, _ := fn["name"].(string)
		if name == "" {
			return nil, apierror.Validation("invalid_tool_choice", "tool_choice.function.name is required", "tool_choice")
		}
		return &name, nil
	default:
		return nil, apierror.Validation("invalid_tool_choice", "unrecognized tool_choice shape", "tool_choice")
	}
}
