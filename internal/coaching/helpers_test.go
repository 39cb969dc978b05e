package coaching

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"callcoach-backend/internal/llm"
)

func sprintfAnalysis(meta string) string {
	return fmt.Sprintf(analysisJSON, meta)
}

func transcriptOf(n int) string {
	line := "Closer: wat is voor jou het belangrijkste? Prospect: dat het werkt. "
	return strings.Repeat(line, n/len(line)+1)[:n]
}

type stubProvider struct {
	id string

	mu      sync.Mutex
	calls   int
	inputs  []string
	respond func(ctx context.Context) (llm.CallResult, error)
}

func (s *stubProvider) ID() string    { return s.id }
func (s *stubProvider) Model() string { return s.id + "-model" }

func (s *stubProvider) Complete(ctx context.Context, prompt llm.Prompt) (llm.CallResult, error) {
	s.mu.Lock()
	s.calls++
	s.inputs = append(s.inputs, prompt.User)
	s.mu.Unlock()
	return s.respond(ctx)
}

func (s *stubProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubProvider) LastInput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputs) == 0 {
		return ""
	}
	return s.inputs[len(s.inputs)-1]
}

func answering(raw string) func(context.Context) (llm.CallResult, error) {
	return func(context.Context) (llm.CallResult, error) {
		return llm.CallResult{RawText: raw}, nil
	}
}

func failing(err error) func(context.Context) (llm.CallResult, error) {
	return func(context.Context) (llm.CallResult, error) {
		return llm.CallResult{}, err
	}
}
