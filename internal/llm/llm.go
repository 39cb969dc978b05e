package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider abstracts a single LLM backend. Complete performs exactly one
// blocking call and never retries internally.
type Provider interface {
	ID() string
	Model() string
	Complete(ctx context.Context, prompt Prompt) (CallResult, error)
}

// Prompt is the opaque prompt pair sent to a provider.
type Prompt struct {
	System string
	User   string
}

// Usage holds token counters reported by the provider.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// CallResult is produced only on a successful provider call.
type CallResult struct {
	RawText  string
	Provider string
	Model    string
	Usage    *Usage
}

// ErrEmptyResponse is returned when a call succeeds transport-wise but
// carries no usable content.
var ErrEmptyResponse = errors.New("empty_response")

// HTTPError preserves the upstream status code and message so failures
// remain classifiable without provider-specific types leaking upward.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, msg)
}
