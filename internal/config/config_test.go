package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 3001 {
		t.Errorf("port = %d, want 3001", cfg.Port)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("jwt ttl = %v, want 24h", cfg.JWTTTL)
	}
	if cfg.MaxFileSize != 100<<20 {
		t.Errorf("max file size = %d, want %d", cfg.MaxFileSize, 100<<20)
	}
	if cfg.LoginMaxAttempts != 5 || cfg.LoginLockDuration != 30*time.Minute {
		t.Errorf("login throttle = %d/%v", cfg.LoginMaxAttempts, cfg.LoginLockDuration)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("cors = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.DatabaseURL != "" || cfg.RedisAddr != "" || cfg.NATSURL != "" {
		t.Error("expected external backends disabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("MAX_FILE_SIZE", "5MiB")
	t.Setenv("STRICT_PASSWORD_POLICY", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.JWTTTL != time.Hour {
		t.Errorf("jwt ttl = %v", cfg.JWTTTL)
	}
	if cfg.MaxFileSize != 5<<20 {
		t.Errorf("max file size = %d", cfg.MaxFileSize)
	}
	if !cfg.StrictPasswordPolicy {
		t.Error("expected strict password policy")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("cors = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callpurity.env")
	if err := os.WriteFile(path, []byte("PORT=4000\nSENDER_NAME=Ops\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SENDER_NAME", "FromEnv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 4000 {
		t.Errorf("port = %d, want 4000", cfg.Port)
	}
	if cfg.SenderName != "FromEnv" {
		t.Errorf("sender name = %q, env should win", cfg.SenderName)
	}
}

func TestLoad_InvalidFileSize(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{JWTSecret: "s", Port: 1, JWTTTL: time.Hour, MaxFileSize: 1, MaxConcurrency: 1,
		LoginMaxAttempts: 1, LoginLockDuration: time.Minute, DBMaxConns: 1}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.JWTSecret = " "
	cfg.MaxConcurrency = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") || !strings.Contains(err.Error(), "MAX_CONCURRENCY") {
		t.Errorf("error should name both keys: %v", err)
	}
}
