// Package bootstrap assembles the report pipeline from configuration. Both
// the API server and reportctl go through it so they share one cache layout.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_insights/internal/adapters/llm"
	"review_insights/internal/adapters/memcache"
	redisad "review_insights/internal/adapters/redis"
	"review_insights/internal/app"
	"review_insights/internal/domain"
	"review_insights/internal/prompts"
	"review_insights/internal/shared"
)

type Pipeline struct {
	Service *app.ReportService
	Prompts *prompts.Catalog
	closers []func() error
}

func (p *Pipeline) Close() {
	for _, c := range p.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

func Build(ctx context.Context, cfg shared.Config) (*Pipeline, error) {
	catalog, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}

	gw, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLMProvider,
		BaseURL:  cfg.LLMBaseURL,
		Model:    cfg.LLMModel,
		APIKey:   cfg.Credential(),
		Breaker:  cfg.BreakerEnabled,
	})
	if err != nil {
		return nil, err
	}

	p := &Pipeline{Prompts: catalog}
	var cache domain.ReportCache
	switch cfg.CacheBackend {
	case "redis":
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, domain.ReportTTL)
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		p.closers = append(p.closers, rc.Close)
		cache = rc
	default:
		cache = memcache.New(domain.ReportTTL)
	}

	log.Info().
		Str("provider", cfg.LLMProvider).
		Str("cache", cfg.CacheBackend).
		Bool("breaker", cfg.BreakerEnabled).
		Bool("prompts_override", cfg.PromptsFile != "").
		Msg("report pipeline ready")

	p.Service = app.NewReportService(gw, cache, catalog, domain.SystemClock{})
	return p, nil
}
