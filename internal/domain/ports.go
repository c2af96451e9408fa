package domain

import (
	"context"
	"time"
)

// Gateway sends one prompt upstream and returns the model's raw reply text.
type Gateway interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type PromptCatalog interface {
	TemplateFor(kind ReportKind) string
}

// ReportCache holds at most one entry per kind. Get only returns entries that
// are fresh at now and never removes stale ones; Put overwrites the slot.
type ReportCache interface {
	Get(ctx context.Context, kind ReportKind, now time.Time) (CacheEntry, bool, error)
	Put(ctx context.Context, kind ReportKind, payload Report, now time.Time) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
