package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/config"
	"github.com/callpurity/callpurity-api/internal/infra/memstore"
	"github.com/callpurity/callpurity-api/internal/infra/postgres"
	"github.com/callpurity/callpurity-api/internal/port"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

// openStore returns the Postgres store when DATABASE_URL is set and the
// in-memory store otherwise. The returned func releases the pool.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using the in-memory store; data is lost on exit")
		return memstore.New(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("using PostgreSQL record store", zap.Int32("max_conns", cfg.DBMaxConns))
	return postgres.NewStore(pool, logger), pool.Close, nil
}
