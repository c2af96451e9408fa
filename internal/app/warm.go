package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_insights/internal/domain"
)

// WarmAll refreshes every report kind, at most workers at a time, skipping
// the cache read. It returns the joined failures; kinds that succeeded are
// cached regardless.
func (s *ReportService) WarmAll(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = len(domain.AllKinds)
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, kind := range domain.AllKinds {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(kind domain.ReportKind) {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := s.refresh(ctx, kind); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			log.Debug().Str("kind", kind.String()).Msg("warm ok")
		}(kind)
	}

	wg.Wait()
	return errors.Join(errs...)
}
