package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "review_insights/internal/adapters/http_server"
	"review_insights/internal/adapters/observability"
	"review_insights/internal/app"
	"review_insights/internal/bootstrap"
	"review_insights/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	cfg.WarnMissingCredential()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	p, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline setup failed")
	}
	defer p.Close()

	if cfg.WarmOnStart {
		go func() {
			if err := p.Service.WarmAll(ctx, cfg.WarmWorkers); err != nil {
				log.Warn().Err(err).Msg("start-up warm incomplete")
				return
			}
			log.Info().Msg("start-up warm ok")
		}()
	}

	if cfg.RefreshCron != "" {
		r, err := app.NewRefresher(cfg.RefreshCron, p.Service, cfg.WarmWorkers)
		if err != nil {
			log.Fatal().Err(err).Msg("refresh schedule")
		}
		r.Start()
		defer r.Stop()
		log.Info().Str("schedule", cfg.RefreshCron).Msg("scheduled refresh enabled")
	}

	// http
	srv := server.New(server.Options{RequestTimeout: cfg.RequestTimeout, CORSOrigins: cfg.CORSOrigins})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Reports: p.Service})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
