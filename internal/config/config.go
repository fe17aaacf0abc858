package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Values are loaded from environment variables (and an optional config file)
// with sensible defaults.
type Config struct {
	// Server
	Port     int    `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// HTTP client
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`

	// Resilience
	MaxRetries     int           `mapstructure:"MAX_RETRIES"`
	InitialBackoff time.Duration `mapstructure:"INITIAL_BACKOFF"`
	MaxConcurrency int           `mapstructure:"MAX_CONCURRENCY"`

	// Observability
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Storage
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	RedisPass   string `mapstructure:"REDIS_PASSWORD"`
	RedisDB     int    `mapstructure:"REDIS_DB"`

	// Events
	NATSURL string `mapstructure:"NATS_URL"`

	// Email
	BrevoAPIKey   string `mapstructure:"BREVO_API_KEY"`
	BrevoAPIURL   string `mapstructure:"BREVO_API_URL"`
	SenderName    string `mapstructure:"SENDER_NAME"`
	SenderEmail   string `mapstructure:"SENDER_EMAIL"`
	FeedbackEmail string `mapstructure:"FEEDBACK_EMAIL"`

	// JWT / Auth
	JWTSecret            string        `mapstructure:"JWT_SECRET"`
	JWTTTL               time.Duration `mapstructure:"JWT_TTL"`
	StrictPasswordPolicy bool          `mapstructure:"STRICT_PASSWORD_POLICY"`
	LoginMaxAttempts     int           `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	LoginLockDuration    time.Duration `mapstructure:"LOGIN_LOCK_DURATION"`

	// Uploads
	MaxFileSizeRaw string `mapstructure:"MAX_FILE_SIZE"`
	MaxFileSize    int64  `mapstructure:"-"`

	// HTTP surface
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var defaults = map[string]any{
	"PORT":                        3001,
	"LOG_LEVEL":                   "info",
	"HTTP_TIMEOUT":                "10s",
	"MAX_RETRIES":                 3,
	"INITIAL_BACKOFF":             "100ms",
	"MAX_CONCURRENCY":             8,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"DATABASE_URL":                "",
	"DB_MAX_CONNS":                10,
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"NATS_URL":                    "",
	"BREVO_API_KEY":               "",
	"BREVO_API_URL":               "https://api.brevo.com",
	"SENDER_NAME":                 "Callpurity",
	"SENDER_EMAIL":                "no-reply@callpurity.com",
	"FEEDBACK_EMAIL":              "support@callpurity.com",
	"JWT_SECRET":                  "callpurity-dev-secret-change-me",
	"JWT_TTL":                     "24h",
	"STRICT_PASSWORD_POLICY":      false,
	"LOGIN_MAX_ATTEMPTS":          5,
	"LOGIN_LOCK_DURATION":         "30m",
	"MAX_FILE_SIZE":               "100MiB",
	"CORS_ALLOWED_ORIGINS":        "*",
}

// Load reads configuration from the environment with defaults. When
// CONFIG_FILE is set, that file (any format viper understands, including
// .env) is read first and the environment still takes precedence.
func Load() (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	size, err := humanize.ParseBytes(cfg.MaxFileSizeRaw)
	if err != nil {
		return nil, fmt.Errorf("config: MAX_FILE_SIZE: %w", err)
	}
	cfg.MaxFileSize = int64(size)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Port <= 0 {
		errs = append(errs, errors.New("PORT must be positive"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE must be positive"))
	}
	if c.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("MAX_CONCURRENCY must be positive"))
	}
	if c.LoginMaxAttempts <= 0 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be positive"))
	}
	if c.LoginLockDuration <= 0 {
		errs = append(errs, errors.New("LOGIN_LOCK_DURATION must be positive"))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
