package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/port"
)

var accessTracer = otel.Tracer("service/access")

// AccessService resolves the privilege of the account behind a token. It
// reads the account on every call so privilege changes apply immediately.
type AccessService struct {
	accounts port.AccountStore
	logger   *zap.Logger
}

// NewAccessService creates a new access service.
func NewAccessService(accounts port.AccountStore, logger *zap.Logger) *AccessService {
	return &AccessService{accounts: accounts, logger: logger}
}

// Resolve returns the caller for accountID. An unknown account resolves to a
// non-elevated caller with no ownership, so it sees nothing.
func (s *AccessService) Resolve(ctx context.Context, accountID, email string) (domain.Caller, error) {
	ctx, span := accessTracer.Start(ctx, "AccessService.Resolve")
	defer span.End()

	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("resolve caller: %w", err)
	}
	if account == nil {
		s.logger.Warn("access: token for unknown account", zap.String("account_id", accountID))
		return domain.Caller{Email: email}, nil
	}
	return domain.Caller{
		AccountID: account.ID,
		Email:     account.Email,
		Elevated:  account.Admin,
	}, nil
}

func requireElevated(caller domain.Caller, action string) error {
	if !caller.Elevated {
		return &domain.ErrForbidden{Action: action}
	}
	return nil
}
