package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/callpurity/callpurity-api/internal/config"
	"github.com/callpurity/callpurity-api/internal/infra/observability"
	"github.com/callpurity/callpurity-api/internal/infra/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations to DATABASE_URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errNoDatabase
		}
		logger := observability.NewLogger(cfg.LogLevel)
		defer logger.Sync()

		ctx := cmd.Context()
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{MaxConns: 1})
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
		return nil
	},
}
