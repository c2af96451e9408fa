package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const (
	DefaultOpenRouterBase  = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "openai/gpt-3.5-turbo"
)

// OpenRouter talks to any OpenAI-compatible chat completions endpoint.
type OpenRouter struct {
	base  string
	key   string
	model string
	hc    *http.Client
}

func NewOpenRouter(base, key, model string) *OpenRouter {
	if base == "" {
		base = DefaultOpenRouterBase
	}
	if model == "" {
		model = DefaultOpenRouterModel
	}
	return &OpenRouter{
		base:  strings.TrimRight(base, "/"),
		key:   key,
		model: model,
		hc:    &http.Client{Timeout: Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message. One attempt, no retries.
func (c *OpenRouter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.key == "" {
		return "", fmt.Errorf("openrouter: %w", domain.ErrConfig)
	}
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrUpstream, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "review-insights/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("openrouter", "chat.completions", 0, time.Since(start))
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("openrouter", "chat.completions", resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("openrouter status %d: %w", resp.StatusCode, domain.ErrAuth)
	default:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: bad status %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode reply: %v", domain.ErrUpstream, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openrouter: %w", domain.ErrEmptyResponse)
	}
	return out.Choices[0].Message.Content, nil
}
