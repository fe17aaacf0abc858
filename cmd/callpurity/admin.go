package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/config"
	"github.com/callpurity/callpurity-api/internal/infra/cache"
	"github.com/callpurity/callpurity-api/internal/infra/observability"
	"github.com/callpurity/callpurity-api/internal/service"
)

var adminEmail string

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage the elevated-privilege flag of accounts",
}

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant elevated privileges to an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setElevated(cmd, true)
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke elevated privileges from an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setElevated(cmd, false)
	},
}

func init() {
	adminCmd.PersistentFlags().StringVar(&adminEmail, "email", "", "account email")
	adminCmd.MarkPersistentFlagRequired("email")
	adminCmd.AddCommand(grantCmd, revokeCmd)
}

func setElevated(cmd *cobra.Command, elevated bool) error {
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
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	attempts := cache.NewCounter(cfg.LoginLockDuration)
	defer attempts.Close()

	auth := service.NewAuthService(store, attempts, service.AuthConfig{JWTSecret: cfg.JWTSecret}, observability.NewMetrics(), logger)
	if err := auth.SetElevated(ctx, adminEmail, elevated); err != nil {
		return fmt.Errorf("update %s: %w", adminEmail, err)
	}

	logger.Info("account privileges updated", zap.String("email", adminEmail), zap.Bool("elevated", elevated))
	return nil
}
