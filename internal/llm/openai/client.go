package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"callcoach-backend/internal/llm"
)

const (
	ProviderID = "openai"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 45 * time.Second
)

// Options configures the OpenAI chat-completions client.
type Options struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int
}

// Client implements llm.Provider using OpenAI Chat Completions over plain HTTP.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("OPENAI_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:      opts.APIKey,
		model:       opts.Model,
		endpoint:    baseURL + "/chat/completions",
		temperature: opts.Temperature,
		maxTokens:   opts.MaxOutputTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_completion_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// ID returns the provider identifier.
func (c *Client) ID() string { return ProviderID }

// Model returns the configured model.
func (c *Client) Model() string { return c.model }

// Complete sends one chat-completions request asking for a JSON object.
func (c *Client) Complete(ctx context.Context, prompt llm.Prompt) (llm.CallResult, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		MaxTokens: c.maxTokens,
		ResponseFormat: responseFormat{
			Type: "json_object",
		},
	}
	if !isGPT5(c.model) {
		temp := c.temperature
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.CallResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.CallResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.CallResult{}, fmt.Errorf("openai request timeout: %w", err)
		}
		return llm.CallResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.CallResult{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return llm.CallResult{}, &llm.HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return llm.CallResult{}, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		return llm.CallResult{}, &llm.HTTPError{
			StatusCode: status,
			Message:    fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type),
		}
	}
	if resp.StatusCode >= 400 {
		return llm.CallResult{}, &llm.HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if len(parsed.Choices) == 0 {
		return llm.CallResult{}, fmt.Errorf("openai response missing choices: %w", llm.ErrEmptyResponse)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return llm.CallResult{}, fmt.Errorf("openai response empty content: %w", llm.ErrEmptyResponse)
	}

	model := parsed.Model
	if model == "" {
		model = c.model
	}
	return llm.CallResult{
		RawText:  content,
		Provider: ProviderID,
		Model:    model,
		Usage:    toUsage(parsed.Usage),
	}, nil
}

func toUsage(raw *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) *llm.Usage {
	if raw == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     raw.PromptTokens,
		CompletionTokens: raw.CompletionTokens,
	}
}

// gpt-5 models reject any non-default temperature.
func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Provider = (*Client)(nil)
