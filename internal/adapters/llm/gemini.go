package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds the client up front. With an empty key it returns a
// gateway that reports ErrConfig on every call.
func NewGemini(ctx context.Context, base, key, model string) (*Gemini, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	if key == "" {
		return &Gemini{model: model}, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: Timeout},
	}
	if base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("gemini: %w", domain.ErrConfig)
	}
	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			observability.ObserveExternal("gemini", "generateContent", apiErr.Code, time.Since(start))
			if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
				return "", fmt.Errorf("gemini status %d: %w", apiErr.Code, domain.ErrAuth)
			}
			return "", fmt.Errorf("%w: gemini status %d: %s", domain.ErrUpstream, apiErr.Code, apiErr.Message)
		}
		observability.ObserveExternal("gemini", "generateContent", 0, time.Since(start))
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	observability.ObserveExternal("gemini", "generateContent", http.StatusOK, time.Since(start))

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: %w", domain.ErrEmptyResponse)
	}
	return text, nil
}
