package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcoach-backend/internal/llm"
	"callcoach-backend/internal/shared/apperr"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func newTestClient(t *testing.T, model string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{
		APIKey:          "sk-test",
		Model:           model,
		BaseURL:         srv.URL + "/v1/",
		Temperature:     0.3,
		MaxOutputTokens: 512,
	})
	require.NoError(t, err)
	return client
}

func TestCompleteSendsJSONModeRequest(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini-2024","choices":[{"message":{"role":"assistant","content":" {\"summary\":{}} "}}],"usage":{"prompt_tokens":12,"completion_tokens":34}}`))
	})

	res, err := client.Complete(context.Background(), llm.Prompt{System: "sys", User: "usr"})
	require.NoError(t, err)

	assert.Equal(t, `{"summary":{}}`, res.RawText)
	assert.Equal(t, ProviderID, res.Provider)
	assert.Equal(t, "gpt-4o-mini-2024", res.Model)
	require.NotNil(t, res.Usage)
	assert.Equal(t, 12, res.Usage.PromptTokens)
	assert.Equal(t, 34, res.Usage.CompletionTokens)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.3, got["temperature"], 0.0001)
	assert.EqualValues(t, 512, got["max_completion_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "usr", msgs[1].(map[string]any)["content"])
}

func TestCompleteOmitsTemperatureForGPT5(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, "gpt-5-mini", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	_, err := client.Complete(context.Background(), llm.Prompt{System: "s", User: "u"})
	require.NoError(t, err)
	_, present := got["temperature"]
	assert.False(t, present)
}

func TestCompleteRateLimitIsClassified(t *testing.T) {
	client := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached for gpt-4o-mini","type":"requests"}}`))
	})

	_, err := client.Complete(context.Background(), llm.Prompt{System: "s", User: "u"})
	require.Error(t, err)

	var httpErr *llm.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, apperr.KindRateLimited, llm.Classify(ProviderID, err).Kind)
}

func TestCompleteServerErrorIsProviderError(t *testing.T) {
	client := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`upstream exploded`))
	})

	_, err := client.Complete(context.Background(), llm.Prompt{System: "s", User: "u"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvider, llm.Classify(ProviderID, err).Kind)
}

func TestCompleteEmptyContent(t *testing.T) {
	client := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	})

	_, err := client.Complete(context.Background(), llm.Prompt{System: "s", User: "u"})
	require.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestCompleteCanceledContext(t *testing.T) {
	client := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, llm.Prompt{System: "s", User: "u"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamUnavailable, llm.Classify(ProviderID, err).Kind)
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	_, err := NewClient(Options{Model: "gpt-4o-mini"})
	require.Error(t, err)
	_, err = NewClient(Options{APIKey: "sk"})
	require.Error(t, err)
}
