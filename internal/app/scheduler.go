package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Refresher re-warms every report on a cron schedule so readers rarely see a
// cold slot. Overlapping runs are skipped.
type Refresher struct {
	c       *cron.Cron
	svc     *ReportService
	workers int
}

func NewRefresher(schedule string, svc *ReportService, workers int) (*Refresher, error) {
	r := &Refresher{svc: svc, workers: workers}
	r.c = cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})))
	if _, err := r.c.AddFunc(schedule, r.Run); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Refresher) Start() { r.c.Start() }

// Stop halts the schedule; the returned context is done once a running
// refresh has finished.
func (r *Refresher) Stop() context.Context { return r.c.Stop() }

func (r *Refresher) Run() {
	if err := r.svc.WarmAll(context.Background(), r.workers); err != nil {
		log.Warn().Err(err).Msg("scheduled refresh incomplete")
		return
	}
	log.Info().Msg("scheduled refresh ok")
}

// cronLogger routes cron's own messages into zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
