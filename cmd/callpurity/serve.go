package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/config"
	"github.com/callpurity/callpurity-api/internal/handler"
	"github.com/callpurity/callpurity-api/internal/infra/cache"
	"github.com/callpurity/callpurity-api/internal/infra/events"
	"github.com/callpurity/callpurity-api/internal/infra/mailer"
	"github.com/callpurity/callpurity-api/internal/infra/observability"
	"github.com/callpurity/callpurity-api/internal/infra/redisstore"
	"github.com/callpurity/callpurity-api/internal/infra/resilience"
	"github.com/callpurity/callpurity-api/internal/port"
	"github.com/callpurity/callpurity-api/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.Bool("redis", cfg.RedisAddr != ""),
		zap.Bool("nats", cfg.NATSURL != ""),
		zap.Bool("brevo", cfg.BrevoAPIKey != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("jwt_ttl", cfg.JWTTTL),
		zap.Int64("max_file_size", cfg.MaxFileSize),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "callpurity-api")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Record store ---
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Login attempts ---
	var attempts port.AttemptTracker
	if cfg.RedisAddr != "" {
		rdb, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		attempts = redisstore.NewAttempts(rdb)
		logger.Info("login attempts tracked in redis", zap.String("addr", cfg.RedisAddr))
	} else {
		counter := cache.NewCounter(time.Minute)
		defer counter.Close()
		attempts = counter
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Email ---
	var mail port.Mailer
	if cfg.BrevoAPIKey != "" {
		mail = mailer.NewBrevo(
			cfg.BrevoAPIURL,
			cfg.BrevoAPIKey,
			cfg.HTTPTimeout,
			mailer.Sender{Name: cfg.SenderName, Email: cfg.SenderEmail},
			resilience.NewCircuitBreaker("brevo"),
			resilienceCfg,
			metrics,
			logger,
		)
	} else {
		logger.Warn("BREVO_API_KEY not set, emails are logged instead of sent")
		mail = mailer.NewLogMailer(logger)
	}

	// --- Events ---
	var publisher port.EventPublisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer nc.Drain()
		publisher = events.NewPublisher(nc, logger)
	}

	// --- Services ---
	authSvc := service.NewAuthService(store, attempts, service.AuthConfig{
		JWTSecret:       cfg.JWTSecret,
		TokenTTL:        cfg.JWTTTL,
		StrictPasswords: cfg.StrictPasswordPolicy,
		MaxAttempts:     cfg.LoginMaxAttempts,
		LockDuration:    cfg.LoginLockDuration,
	}, metrics, logger)

	router := handler.NewRouter(handler.Dependencies{
		Auth:     authSvc,
		Access:   service.NewAccessService(store.Accounts(), logger),
		Clients:  service.NewClientsService(store, mail, publisher, metrics, logger),
		Numbers:  service.NewNumbersService(store, publisher, resilience.NewBulkhead(cfg.MaxConcurrency), cfg.MaxFileSize, metrics, logger),
		Feedback: service.NewFeedbackService(mail, cfg.SenderName, cfg.FeedbackEmail, cfg.MaxFileSize, logger),

		Store:          store,
		MaxFileSize:    cfg.MaxFileSize,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
