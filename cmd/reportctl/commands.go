package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/bootstrap"
	"review_insights/internal/domain"
	"review_insights/internal/prompts"
	"review_insights/internal/shared"
)

func loadPipeline(cmd *cobra.Command) (*bootstrap.Pipeline, shared.Config, error) {
	cfg, err := shared.Load()
	if err != nil {
		return nil, cfg, err
	}
	log.Logger = observability.NewLoggerTo(cfg.AppEnv, cmd.ErrOrStderr())
	cfg.WarnMissingCredential()
	p, err := bootstrap.Build(cmd.Context(), cfg)
	return p, cfg, err
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the report kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range domain.AllKinds {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newPromptCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "prompt <kind>",
		Short: "Print the prompt sent upstream for a report kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			c, err := prompts.Load(file)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), c.TemplateFor(kind))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML prompt overrides (defaults to built-in prompts)")
	return cmd
}

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <kind>",
		Short: "Fetch one report through the configured cache and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			p, _, err := loadPipeline(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			rep, err := p.Service.Get(cmd.Context(), kind)
			if err != nil {
				// unlike the HTTP API, operators get the full cause
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
}

func newWarmCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Refresh every report kind into the configured cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cfg, err := loadPipeline(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			if cfg.CacheBackend == "memory" {
				log.Warn().Msg("memory cache is discarded when reportctl exits; set CACHE_BACKEND=redis to share results")
			}
			if workers <= 0 {
				workers = cfg.WarmWorkers
			}

			start := time.Now()
			if err := p.Service.WarmAll(cmd.Context(), workers); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "warmed %d reports in %s\n", len(domain.AllKinds), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent fetches (defaults to WARM_WORKERS)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
