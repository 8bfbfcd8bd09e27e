package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultModel   = "ds-r1-llama-8b"
	DefaultBaseURL = "http://localhost:1234/v1/"

	completionMaxTokens   int64   = 1024
	completionTemperature float64 = 0.3
)

// CompletionsConfig describes an OpenAI-compatible completions endpoint,
// typically a local LM Studio or llama.cpp server.
type CompletionsConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration
}

// Completions calls the legacy /completions API once per summary.
type Completions struct {
	client openai.Client
	model  string
}

func NewCompletions(cfg CompletionsConfig) *Completions {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Completions{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *Completions) Model() string {
	return c.model
}

// Summarize sends a single non-streaming completion request.
func (c *Completions) Summarize(ctx context.Context, input Input) (string, error) {
	resp, err := c.client.Completions.New(ctx, openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(c.model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(BuildPrompt(input.Text, input.Preferences)),
		},
		MaxTokens:   openai.Int(completionMaxTokens),
		Temperature: openai.Float(completionTemperature),
	}, option.WithJSONSet("stream", false))
	if err != nil {
		return "", classifyRequestError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrMissingChoice
	}

	summary := strings.TrimSpace(resp.Choices[0].Text)
	if summary == "" {
		return "", fmt.Errorf("%w: first choice is blank", ErrMissingChoice)
	}

	return summary, nil
}

func classifyRequestError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.StatusCode}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	return fmt.Errorf("%w: %w", ErrParse, err)
}
