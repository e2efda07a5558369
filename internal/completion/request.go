package completion

import (
	"github.com/claudegateway/openai-bridge/internal/apierror"
	domain "github.com/claudegateway/openai-bridge/model"
	wire "github.com/claudegateway/openai-bridge/relay/model"
)

// Request is the Completion Service's input, already decoded from the wire
// format. Resolving CompletionRequest.ToolChoice (an `any` on the wire) into
// ToolChoiceFunction is the HTTP Surface's job, not this package's — by the
// time a Request reaches here, "auto"/"none"/absent have all collapsed to a
// nil ToolChoiceFunction.
type Request struct {
	Model              string
	Messages           []domain.Message
	SessionID          *string
	SystemPrompt       string
	EnableTools        bool
	Tools              []wire.Tool
	ToolChoiceFunction *string
}

func (r Request) validate(resolveModel func(string) (bool, []string, []string)) error {
	if len(r.Messages) == 0 {
		return apierror.Validation("empty_messages", "messages must contain at least one entry", "messages")
	}

	if ok, suggestions, available := resolveModel(r.Model); !ok {
		return apierror.ModelNotFound(r.Model, suggestions, available)
	}

	if r.ToolChoiceFunction != nil {
		found := false
		for _, t := range r.Tools {
			if t.Function.Name == *r.ToolChoiceFunction {
				found = true
				break
			}
		}
		if !found {
			return apierror.Validation("unknown_tool_choice", "tool_choice references a function not present in tools: "+*r.ToolChoiceFunction, "tool_choice")
		}
	}

	return nil
}
