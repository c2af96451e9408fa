package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const DefaultAnthropicModel = "claude-sonnet-4-5"

type Anthropic struct {
	client anthropic.Client
	key    string
	model  string
}

func NewAnthropic(base, key, model string) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: Timeout}),
	}
	if base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), key: key, model: model}
}

func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	if a.key == "" {
		return "", fmt.Errorf("anthropic: %w", domain.ErrConfig)
	}
	start := time.Now()
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			observability.ObserveExternal("anthropic", "messages", apierr.StatusCode, time.Since(start))
			if apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden {
				return "", fmt.Errorf("anthropic status %d: %w", apierr.StatusCode, domain.ErrAuth)
			}
			return "", fmt.Errorf("%w: anthropic status %d", domain.ErrUpstream, apierr.StatusCode)
		}
		observability.ObserveExternal("anthropic", "messages", 0, time.Since(start))
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	observability.ObserveExternal("anthropic", "messages", http.StatusOK, time.Since(start))

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("anthropic: %w", domain.ErrEmptyResponse)
	}
	return text, nil
}
