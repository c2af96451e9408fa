package app

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
	"review_insights/internal/extract"
	"review_insights/internal/schema"
)

// ReportService serves each report kind from the cache, refreshing it through
// the model when the entry is missing or expired.
type ReportService struct {
	gw      domain.Gateway
	cache   domain.ReportCache
	prompts domain.PromptCatalog
	clock   domain.Clock
}

func NewReportService(gw domain.Gateway, c domain.ReportCache, p domain.PromptCatalog, clock domain.Clock) *ReportService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &ReportService{gw: gw, cache: c, prompts: p, clock: clock}
}

// Get returns a fresh cached payload or fetches a new one. Every failure
// matches domain.ErrReportUnavailable; the cause stays in the chain.
func (s *ReportService) Get(ctx context.Context, kind domain.ReportKind) (domain.Report, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrReportUnavailable, kind)
	}
	e, ok, err := s.cache.Get(ctx, kind, s.clock.Now())
	if err != nil {
		log.Warn().Err(err).Str("kind", kind.String()).Msg("cache read failed; treating as miss")
	} else if ok {
		return e.Payload, nil
	}
	return s.refresh(ctx, kind)
}

func (s *ReportService) Reviews(ctx context.Context) (domain.Reviews, error) {
	return get[domain.Reviews](ctx, s, domain.KindReviews)
}

func (s *ReportService) Statistics(ctx context.Context) (domain.ReviewStatistics, error) {
	return get[domain.ReviewStatistics](ctx, s, domain.KindStatistics)
}

func (s *ReportService) Features(ctx context.Context) (domain.FeatureRequests, error) {
	return get[domain.FeatureRequests](ctx, s, domain.KindFeatures)
}

func (s *ReportService) Strengths(ctx context.Context) (domain.Strengths, error) {
	return get[domain.Strengths](ctx, s, domain.KindStrengths)
}

func (s *ReportService) Trends(ctx context.Context) (domain.TrendAnalysis, error) {
	return get[domain.TrendAnalysis](ctx, s, domain.KindTrends)
}

func get[T domain.Report](ctx context.Context, s *ReportService, kind domain.ReportKind) (T, error) {
	var zero T
	r, err := s.Get(ctx, kind)
	if err != nil {
		return zero, err
	}
	out, ok := r.(T)
	if !ok {
		return zero, fmt.Errorf("%w: cached %s payload has type %T", domain.ErrReportUnavailable, kind, r)
	}
	return out, nil
}

// refresh runs the full pipeline once and writes the cache only on success.
// The upstream call is detached from ctx so a client hang-up neither aborts
// it nor loses the cache write.
func (s *ReportService) refresh(ctx context.Context, kind domain.ReportKind) (domain.Report, error) {
	ctx = context.WithoutCancel(ctx)
	l := log.With().Str("kind", kind.String()).Str("fetch_id", uuid.NewString()).Logger()
	start := time.Now()

	payload, err := s.fetch(ctx, kind)
	if err != nil {
		stage := domain.Stage(err)
		observability.ObserveReportFailure(kind.String(), stage)
		failureEvent(l, err).Str("stage", stage).Dur("took", time.Since(start)).Msg("report fetch failed")
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrReportUnavailable, kind, err)
	}

	if err := s.cache.Put(ctx, kind, payload, s.clock.Now()); err != nil {
		l.Warn().Err(err).Msg("cache write failed; serving uncached payload")
	}
	l.Info().Dur("took", time.Since(start)).Msg("report refreshed")
	return payload, nil
}

func (s *ReportService) fetch(ctx context.Context, kind domain.ReportKind) (domain.Report, error) {
	raw, err := s.gw.Complete(ctx, s.prompts.TemplateFor(kind))
	if err != nil {
		return nil, err
	}
	v, err := extract.JSON(raw)
	if err != nil {
		return nil, err
	}
	return schema.Validate(kind, v)
}

func failureEvent(l zerolog.Logger, err error) *zerolog.Event {
	var (
		ee *domain.ExtractionError
		ve *domain.ValidationError
	)
	switch {
	case errors.As(err, &ee):
		return l.Warn().Err(err).Str("cleaned", truncate(ee.Cleaned, 512))
	case errors.As(err, &ve):
		return l.Warn().Err(err).Str("reason", ve.Reason).Interface("payload", ve.Payload)
	case errors.Is(err, domain.ErrConfig), errors.Is(err, domain.ErrAuth):
		return l.Error().Err(err)
	default:
		return l.Warn().Err(err)
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
