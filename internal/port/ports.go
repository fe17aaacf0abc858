// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/callpurity/callpurity-api/internal/domain"
)

// AccountStore persists identity records. Lookups return (nil, nil) when the
// record does not exist.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, a *domain.Account) error
}

// ClientStore persists client companies. Count applies the filter to clients
// alone; List joins the contact account and drops clients without one.
type ClientStore interface {
	CreateClient(ctx context.Context, c *domain.Client) error
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	GetClientView(ctx context.Context, id string) (*domain.ClientView, error)
	GetClientByName(ctx context.Context, companyName string) (*domain.Client, error)
	GetClientByUser(ctx context.Context, userID string) (*domain.Client, error)
	UpdateClient(ctx context.Context, c *domain.Client) error
	CountClients(ctx context.Context, f domain.ClientFilter) (int, error)
	ListClients(ctx context.Context, f domain.ClientFilter, s domain.Sort, w domain.Window) ([]domain.ClientView, error)
	ListClientsByIDs(ctx context.Context, ids []string) ([]domain.Client, error)
}

// PhoneStore persists phone numbers. Count applies the filter to numbers
// joined with the owning client only when scoping needs it; List always joins
// and drops numbers without a client.
type PhoneStore interface {
	ReplacePhones(ctx context.Context, companyID string, phones []domain.PhoneNumber) error
	GetPhone(ctx context.Context, id string) (*domain.PhoneNumber, error)
	GetPhoneView(ctx context.Context, f domain.PhoneFilter, tfn string) (*domain.PhoneView, error)
	UpdatePhone(ctx context.Context, p *domain.PhoneNumber) error
	DeletePhone(ctx context.Context, id string) error
	CountPhones(ctx context.Context, f domain.PhoneFilter) (int, error)
	ListPhones(ctx context.Context, f domain.PhoneFilter, s domain.Sort, w domain.Window) ([]domain.PhoneView, error)
	FindPhonesByTFN(ctx context.Context, tfns []string) ([]domain.PhoneNumber, error)
	FlagPhones(ctx context.Context, ids []string, at time.Time) error
}

// Repositories groups the stores available inside a transaction.
type Repositories interface {
	Accounts() AccountStore
	Clients() ClientStore
	Phones() PhoneStore
}

// Store is the Record Store. WithinTx runs fn in a single transaction:
// commit when fn returns nil, rollback otherwise.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
	Ping(ctx context.Context) error
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, email *domain.Email) error
}

// EventPublisher announces completed mutations. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// AttemptTracker counts failed logins per key within a window.
type AttemptTracker interface {
	Failures(ctx context.Context, key string) (int, error)
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}
