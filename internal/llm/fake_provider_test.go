package llm

import (
	"context"
	"sync"
)

type fakeProvider struct {
	id    string
	model string

	mu      sync.Mutex
	calls   int
	prompts []Prompt
	respond func(ctx context.Context, prompt Prompt) (CallResult, error)
}

func newFakeProvider(id string, respond func(ctx context.Context, prompt Prompt) (CallResult, error)) *fakeProvider {
	return &fakeProvider{id: id, model: id + "-model", respond: respond}
}

func (f *fakeProvider) ID() string    { return f.id }
func (f *fakeProvider) Model() string { return f.model }

func (f *fakeProvider) Complete(ctx context.Context, prompt Prompt) (CallResult, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(ctx, prompt)
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProvider) LastPrompt() Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return Prompt{}
	}
	return f.prompts[len(f.prompts)-1]
}

func succeed(raw string) func(context.Context, Prompt) (CallResult, error) {
	return func(context.Context, Prompt) (CallResult, error) {
		return CallResult{RawText: raw}, nil
	}
}

func fail(err error) func(context.Context, Prompt) (CallResult, error) {
	return func(context.Context, Prompt) (CallResult, error) {
		return CallResult{}, err
	}
}

// echoComposer puts the transcript verbatim in the user prompt so tests can
// inspect what each provider received.
func echoComposer(transcript string) Prompt {
	return Prompt{System: "system", User: transcript}
}
