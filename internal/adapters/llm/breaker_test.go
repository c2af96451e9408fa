package llm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"review_insights/internal/adapters/llm"
	"review_insights/internal/domain"
)

type scriptedGateway struct {
	calls int
	err   error
	text  string
}

func (g *scriptedGateway) Complete(context.Context, string) (string, error) {
	g.calls++
	return g.text, g.err
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &scriptedGateway{err: fmt.Errorf("%w: bad status 502", domain.ErrUpstream)}
	b := llm.NewBreaker("test", next, llm.BreakerConfig{ConsecutiveFailures: 2, Cooldown: time.Hour})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := b.Complete(ctx, "p"); !errors.Is(err, domain.ErrUpstream) {
			t.Fatalf("call %d: want ErrUpstream, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	_, err := b.Complete(ctx, "p")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("open breaker must surface ErrUpstream, got %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("open breaker must not reach upstream, calls=%d", next.calls)
	}
}

func TestBreaker_ConfigErrorsDoNotTrip(t *testing.T) {
	next := &scriptedGateway{err: fmt.Errorf("openrouter: %w", domain.ErrConfig)}
	b := llm.NewBreaker("test", next, llm.BreakerConfig{ConsecutiveFailures: 1, Cooldown: time.Hour})

	for i := 0; i < 3; i++ {
		if _, err := b.Complete(context.Background(), "p"); !errors.Is(err, domain.ErrConfig) {
			t.Fatalf("want ErrConfig, got %v", err)
		}
	}
	if b.State() != gobreaker.StateClosed || next.calls != 3 {
		t.Fatalf("state=%s calls=%d", b.State(), next.calls)
	}
}

func TestBreaker_PassesThroughSuccess(t *testing.T) {
	next := &scriptedGateway{text: "[]"}
	out, err := llm.NewBreaker("test", next, llm.BreakerConfig{}).Complete(context.Background(), "p")
	if err != nil || out != "[]" {
		t.Fatalf("out=%q err=%v", out, err)
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	ctx := context.Background()
	tests := map[string]struct {
		cfg  llm.Config
		want string
	}{
		"default":    {llm.Config{}, "*llm.OpenRouter"},
		"openrouter": {llm.Config{Provider: "openrouter"}, "*llm.OpenRouter"},
		"anthropic":  {llm.Config{Provider: "anthropic"}, "*llm.Anthropic"},
		"gemini":     {llm.Config{Provider: "gemini"}, "*llm.Gemini"},
		"breaker":    {llm.Config{Breaker: true}, "*llm.Breaker"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			gw, err := llm.New(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got := fmt.Sprintf("%T", gw); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := llm.New(ctx, llm.Config{Provider: "cohere"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
