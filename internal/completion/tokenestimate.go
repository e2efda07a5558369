package completion

import (
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/pkoukk/tiktoken-go"
)

// tokenEstimator is the local fallback used when Claude's terminal event
// carries no usage counters. It is only ever approximate — tiktoken's
// cl100k_base encoding is OpenAI's, not Claude's own tokenizer — but it is
// good enough to populate usage.* rather than leave it zeroed.
type tokenEstimator struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

func newTokenEstimator() (*tokenEstimator, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, errors.Wrap(err, "load cl100k_base encoding")
	}
	return &tokenEstimator{enc: enc}, nil
}

// Count returns the estimated token count of text. Safe for concurrent use;
// tiktoken-go's Encode is not documented as goroutine-safe, so calls are
// serialized.
func (e *tokenEstimator) Count(text string) int {
	if text == "" {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.enc.Encode(text, nil, nil))
}
