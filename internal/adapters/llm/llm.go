// Package llm holds the upstream model gateways. Each makes exactly one
// request per Complete call and maps failures onto the domain error set.
package llm

import (
	"context"
	"fmt"
	"time"

	"review_insights/internal/domain"
)

// Timeout bounds a single upstream call.
const Timeout = 30 * time.Second

const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
)

type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Breaker  bool
}

func New(ctx context.Context, cfg Config) (domain.Gateway, error) {
	var (
		gw  domain.Gateway
		err error
	)
	switch cfg.Provider {
	case "", ProviderOpenRouter:
		gw = NewOpenRouter(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderAnthropic:
		gw = NewAnthropic(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderGemini:
		gw, err = NewGemini(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if cfg.Breaker {
		name := cfg.Provider
		if name == "" {
			name = ProviderOpenRouter
		}
		gw = NewBreaker(name, gw, DefaultBreakerConfig)
	}
	return gw, nil
}
