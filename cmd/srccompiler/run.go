package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"srccompiler/internal/compiler"
	"srccompiler/internal/config"
	"srccompiler/internal/metrics"
	"srccompiler/internal/metrics/datadog"
	"srccompiler/internal/metrics/prompush"
	"srccompiler/internal/quarantine"
	"srccompiler/internal/storage"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the compiler over every configured file",
		Long: `Truncate the configured tables, then read, validate and load every
configured file in order. Per-file problems are reported in the summary
table; the command fails only on setup or destination errors.`,
		Example: `  # Run with the config next to the extracts
  srccompiler run --config extracts/compiler.yaml

  # Load into Postgres instead of the configured store
  srccompiler run -c compiler.yaml --store postgres --dsn postgres://etl@db/landing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.String("job", "", "job name used in logs and metrics")
	f.String("store", "", "store kind (sqlite, postgres, mssql, mysql, duckdb)")
	f.String("dsn", "", "store DSN; plain sqlite/duckdb paths are relative to the working directory")
	f.String("quarantine-dir", "", "directory for quarantine artifacts")
	f.Int("workers", 0, "parallel file preparation (1 = sequential)")
	f.String("metrics-backend", "", "metrics backend (none, pushgateway, datadog)")
	f.String("pushgateway-url", "", "Prometheus Pushgateway base URL")
	f.String("statsd-addr", "", "DogStatsD address (host:port)")
	return cmd
}

func runRun(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	log, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	flush := setupMetrics(cfg, log)
	defer flush()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log.Debug("opening store", zap.String("kind", cfg.Store.Kind))
	store, err := storage.New(ctx, storage.Config{Kind: cfg.Store.Kind, DSN: cfg.Store.DSN})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	c, err := compiler.New(cfg, store, quarantine.NewDir(cfg.QuarantineDir), compiler.WithLogger(log))
	if err != nil {
		return err
	}

	rep, runErr := c.Run(ctx)
	renderReport(cmd.OutOrStdout(), rep)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "quarantine folder: %s\n", cfg.QuarantineDir)
	return runErr
}

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it at exit. A backend that cannot be built leaves
// metrics disabled.
func setupMetrics(cfg *config.Config, log *zap.Logger) func() {
	nop := func() {}

	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case "", "none":
		log.Debug("metrics disabled")
		return nop
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.StatsdAddr,
			Namespace:  "srccompiler.",
			GlobalTags: []string{"job:" + cfg.Job},
		})
	default:
		log.Warn("unknown metrics backend; metrics disabled", zap.String("backend", cfg.Metrics.Backend))
		return nop
	}
	if err != nil {
		log.Warn("metrics backend unavailable; metrics disabled", zap.String("backend", cfg.Metrics.Backend), zap.Error(err))
		return nop
	}

	log.Info("metrics enabled", zap.String("backend", cfg.Metrics.Backend))
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush", zap.Error(err))
		}
	}
}
