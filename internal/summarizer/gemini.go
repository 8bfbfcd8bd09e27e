package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini sends the same prompt through the Google GenAI SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API endpoint. Empty means the SDK default.
	BaseURL string
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(cfg.BaseURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{client: c, model: model}, nil
}

func (g *Gemini) Model() string {
	return g.model
}

func (g *Gemini) Summarize(ctx context.Context, input Input) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(BuildPrompt(input.Text, input.Preferences), genai.RoleUser),
	}, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(completionTemperature)),
		MaxOutputTokens: int32(completionMaxTokens),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{StatusCode: apiErr.Code}
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) {
			return "", &StatusError{StatusCode: apiErrPtr.Code}
		}

		return "", fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	summary := strings.TrimSpace(res.Text())
	if summary == "" {
		return "", ErrMissingChoice
	}

	return summary, nil
}
