package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"callcoach-backend/internal/llm"
)

const (
	ProviderID = "gemini"

	defaultTimeout = 45 * time.Second
)

// Options configures the Gemini client.
type Options struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int
}

// Client implements llm.Provider using the Gemini Developer API.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// NewClient constructs a Gemini client. The API key travels in the
// x-goog-api-key header rather than a bearer token.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required for Gemini")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   int32(opts.MaxOutputTokens),
	}, nil
}

// ID returns the provider identifier.
func (c *Client) ID() string { return ProviderID }

// Model returns the configured model.
func (c *Client) Model() string { return c.model }

// Complete sends one generateContent request with a JSON response MIME type.
func (c *Client) Complete(ctx context.Context, prompt llm.Prompt) (llm.CallResult, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
		ResponseMIMEType:  "application/json",
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt.User), cfg)
	if err != nil {
		return llm.CallResult{}, wrapError(err)
	}
	if resp == nil {
		return llm.CallResult{}, fmt.Errorf("gemini response missing: %w", llm.ErrEmptyResponse)
	}
	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return llm.CallResult{}, fmt.Errorf("gemini response empty content: %w", llm.ErrEmptyResponse)
	}

	model := resp.ModelVersion
	if model == "" {
		model = c.model
	}
	result := llm.CallResult{
		RawText:  content,
		Provider: ProviderID,
		Model:    model,
	}
	if resp.UsageMetadata != nil {
		result.Usage = &llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return result, nil
}

// wrapError keeps the upstream status visible to llm.Classify.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini: %w", &llm.HTTPError{StatusCode: apiErr.Code, Message: apiErr.Status + ": " + apiErr.Message})
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fmt.Errorf("gemini: %w", &llm.HTTPError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Status + ": " + apiErrPtr.Message})
	}
	return fmt.Errorf("gemini: %w", err)
}

var _ llm.Provider = (*Client)(nil)
