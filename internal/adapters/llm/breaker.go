package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"review_insights/internal/domain"
)

type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// Cooldown is how long the breaker stays open before a single probe.
	Cooldown time.Duration
}

var DefaultBreakerConfig = BreakerConfig{ConsecutiveFailures: 3, Cooldown: 30 * time.Second}

// Breaker fails fast with ErrUpstream while the wrapped gateway keeps failing.
type Breaker struct {
	next domain.Gateway
	cb   *gobreaker.CircuitBreaker[string]
}

func NewBreaker(name string, next domain.Gateway, cfg BreakerConfig) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig.ConsecutiveFailures
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultBreakerConfig.Cooldown
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// a missing key or an empty reply says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrConfig) || errors.Is(err, domain.ErrEmptyResponse)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("llm breaker state change")
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[string](settings)}
}

func (b *Breaker) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (string, error) {
		return b.next.Complete(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return out, err
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }
