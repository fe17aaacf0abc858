package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/infra/cache"
	"github.com/callpurity/callpurity-api/internal/infra/memstore"
	"github.com/callpurity/callpurity-api/internal/infra/observability"
	"github.com/callpurity/callpurity-api/internal/infra/resilience"
	"github.com/callpurity/callpurity-api/internal/service"
)

// --- Mocks ---

type mockMailer struct {
	mu   sync.Mutex
	sent []domain.Email
	err  error
}

func (m *mockMailer) Send(_ context.Context, e *domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, *e)
	return nil
}

type mockEvents struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (m *mockEvents) Publish(_ context.Context, e domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func (m *mockEvents) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Subject
	}
	return out
}

// --- Fixtures ---

type env struct {
	store    *memstore.Store
	mailer   *mockMailer
	events   *mockEvents
	metrics  *observability.Metrics
	auth     *service.AuthService
	access   *service.AccessService
	clients  *service.ClientsService
	numbers  *service.NumbersService
	feedback *service.FeedbackService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	attempts := cache.NewCounter(time.Minute)
	t.Cleanup(attempts.Close)

	e := &env{
		store:   store,
		mailer:  &mockMailer{},
		events:  &mockEvents{},
		metrics: observability.NewMetrics(),
	}
	logger := zap.NewNop()
	e.auth = service.NewAuthService(store, attempts, service.AuthConfig{
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		MaxAttempts:  3,
		LockDuration: time.Minute,
	}, e.metrics, logger)
	e.access = service.NewAccessService(store.Accounts(), logger)
	e.clients = service.NewClientsService(store, e.mailer, e.events, e.metrics, logger)
	e.numbers = service.NewNumbersService(store, e.events, resilience.NewBulkhead(2), 1<<20, e.metrics, logger)
	e.feedback = service.NewFeedbackService(e.mailer, "Callpurity", "support@callpurity.com", 1<<20, logger)
	return e
}

var admin = domain.Caller{AccountID: "admin", Elevated: true}

// seedClient stores a client with its contact account and returns both ids.
func (e *env) seedClient(t *testing.T, name string) (clientID, userID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	userID = uuid.NewString()
	clientID = uuid.NewString()

	if err := e.store.Accounts().CreateAccount(ctx, &domain.Account{
		ID: userID, FullName: name + " Contact", Email: fmt.Sprintf("%s@example.com", userID[:8]),
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if err := e.store.Clients().CreateClient(ctx, &domain.Client{
		ID: clientID, UserID: userID, CompanyName: name, Address: "1 Main St", City: "Austin",
		State: "TX", ZipCode: "73301", Phone: "+15125550100", Status: domain.ClientActive,
		RegistrationDate: now, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return clientID, userID
}

func contact(userID string) domain.Caller {
	return domain.Caller{AccountID: userID}
}

func assertErrType[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if !errors.As(err, &target) {
		t.Fatalf("expected %T, got %T (%v)", target, err, err)
	}
	return target
}
