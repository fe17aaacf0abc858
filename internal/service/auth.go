// Package service holds the application use cases: identity, clients,
// phone numbers and feedback.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/infra/observability"
	"github.com/callpurity/callpurity-api/internal/port"
	"github.com/callpurity/callpurity-api/internal/validation"
)

var authTracer = otel.Tracer("service/auth")

const bcryptCost = 12

// AuthConfig tunes token issuance and login throttling.
type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	StrictPasswords bool
	MaxAttempts     int
	LockDuration    time.Duration
}

// JWTClaims are the claims carried by bearer tokens.
type JWTClaims struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and token verification.
type AuthService struct {
	store    port.Store
	attempts port.AttemptTracker
	cfg      AuthConfig
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.Store, attempts port.AttemptTracker, cfg AuthConfig, metrics *observability.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:    store,
		attempts: attempts,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a non-elevated account.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.MessageResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email := normalizeEmail(req.Email)
	passwordOK := validation.FullName(req.Password)
	if s.cfg.StrictPasswords {
		passwordOK = validation.Password(req.Password)
	}
	if !validation.FullName(req.FullName) || !validation.Email(email) || !passwordOK {
		return nil, &domain.ErrValidation{Field: "credentials", Message: domain.MsgInvalidCredentials}
	}

	existing, err := s.store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: domain.MsgUserExists}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := &domain.Account{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Accounts().CreateAccount(ctx, account); err != nil {
		var conflict *domain.ErrConflict
		if errors.As(err, &conflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account registered", zap.String("account_id", account.ID))
	return &domain.MessageResponse{Message: "User Created Successfully"}, nil
}

// Login verifies credentials and issues a bearer token. Repeated failures for
// the same email lock further attempts for the configured window.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := normalizeEmail(req.Email)
	if !validation.Email(email) {
		return nil, &domain.ErrValidation{Field: "email", Message: domain.MsgInvalidCredentials}
	}

	failures, err := s.attempts.Failures(ctx, email)
	if err != nil {
		s.logger.Warn("login: attempt tracker unavailable", zap.Error(err))
	}
	if failures >= s.cfg.MaxAttempts {
		s.metrics.IncrLoginFailure()
		s.logger.Warn("login: locked", zap.Int("failures", failures))
		span.SetAttributes(attribute.Bool("login.locked", true))
		return nil, &domain.ErrUnauthorized{Message: domain.MsgInvalidCredentials}
	}

	account, err := s.store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		s.recordFailure(ctx, email)
		return nil, &domain.ErrNotFound{Resource: "Account", Message: domain.MsgInvalidCredentials}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(ctx, email)
		return nil, &domain.ErrUnauthorized{Message: domain.MsgInvalidCredentials}
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		s.logger.Warn("login: reset attempts failed", zap.Error(err))
	}

	resp := &domain.LoginResponse{
		Message:  "Login Successful",
		Email:    account.Email,
		FullName: account.FullName,
		Admin:    account.Admin,
	}
	if !account.Admin {
		client, err := s.store.Clients().GetClientByUser(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("get client for account: %w", err)
		}
		if client != nil {
			resp.CompanyID = client.ID
		}
	}

	token, err := s.signToken(account)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	resp.Token = token

	s.logger.Info("account logged in", zap.String("account_id", account.ID))
	return resp, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	s.metrics.IncrLoginFailure()
	n, err := s.attempts.RecordFailure(ctx, email, s.cfg.LockDuration)
	if err != nil {
		s.logger.Warn("login: record failure", zap.Error(err))
		return
	}
	if n >= s.cfg.MaxAttempts {
		s.logger.Warn("login: locked after max attempts",
			zap.Int("attempts", n),
			zap.Duration("lock_duration", s.cfg.LockDuration),
		)
	}
}

func (s *AuthService) signToken(a *domain.Account) (string, error) {
	now := s.now()
	claims := JWTClaims{
		UserID:    a.ID,
		UserEmail: a.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken checks signature and expiry. Every failure is reported as
// a plain unauthorized error.
func (s *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(s.cfg.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, &domain.ErrUnauthorized{}
	}
	return claims, nil
}

// SetElevated grants or revokes the elevated-privilege flag. It backs the
// operator CLI and is not reachable over HTTP.
func (s *AuthService) SetElevated(ctx context.Context, email string, elevated bool) error {
	ctx, span := authTracer.Start(ctx, "AuthService.SetElevated")
	defer span.End()

	account, err := s.store.Accounts().GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return &domain.ErrNotFound{Resource: "Account", ID: email}
	}
	account.Admin = elevated
	account.UpdatedAt = s.now().UTC()
	if err := s.store.Accounts().UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	s.logger.Info("account privilege changed",
		zap.String("account_id", account.ID),
		zap.Bool("elevated", elevated),
	)
	return nil
}
