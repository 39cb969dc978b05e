package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"callcoach-backend/internal/llm"
)

const (
	ProviderID = "groq"

	DefaultBaseURL = "https://api.groq.com/openai/v1"
	defaultTimeout = 45 * time.Second
)

// Options configures the Groq client.
type Options struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int
}

// Client implements llm.Provider against Groq's OpenAI-compatible API.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewClient constructs a Groq client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("GROQ_MODEL is required for Groq")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is required")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = DefaultBaseURL
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.BaseURL = base
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxOutputTokens,
	}, nil
}

// ID returns the provider identifier.
func (c *Client) ID() string { return ProviderID }

// Model returns the configured model.
func (c *Client) Model() string { return c.model }

// Complete sends one chat completion request in JSON-object mode.
func (c *Client) Complete(ctx context.Context, prompt llm.Prompt) (llm.CallResult, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.CallResult{}, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return llm.CallResult{}, fmt.Errorf("groq response missing choices: %w", llm.ErrEmptyResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return llm.CallResult{}, fmt.Errorf("groq response empty content: %w", llm.ErrEmptyResponse)
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return llm.CallResult{
		RawText:  content,
		Provider: ProviderID,
		Model:    model,
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// wrapError keeps the upstream status visible to llm.Classify.
func wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if apiErr.Type != "" {
			msg = fmt.Sprintf("%s (%s)", msg, apiErr.Type)
		}
		return fmt.Errorf("groq: %w", &llm.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: msg})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return fmt.Errorf("groq: %w", &llm.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: msg})
	}
	return fmt.Errorf("groq: %w", err)
}

var _ llm.Provider = (*Client)(nil)
