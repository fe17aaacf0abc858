package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/infra/observability"
	"github.com/callpurity/callpurity-api/internal/infra/mailer"
	"github.com/callpurity/callpurity-api/internal/port"
	"github.com/callpurity/callpurity-api/internal/validation"
)

var clientsTracer = otel.Tracer("service/clients")

const (
	contactPasswordLength  = 10
	contactPasswordSubject = "Password for new contact person"
	passwordAlphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// ClientsService manages client companies and their contact accounts.
type ClientsService struct {
	store   port.Store
	mailer  port.Mailer
	events  port.EventPublisher
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewClientsService creates a new clients service.
func NewClientsService(store port.Store, m port.Mailer, events port.EventPublisher, metrics *observability.Metrics, logger *zap.Logger) *ClientsService {
	return &ClientsService{
		store:   store,
		mailer:  m,
		events:  events,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func validClientRequest(req *domain.CreateClientRequest) bool {
	return validation.Names(req.CompanyName, 500, 1) &&
		validation.Names(req.Address, 1000, 1) &&
		validation.Names(req.City, 500, 1) &&
		validation.Names(req.State, 500, 1) &&
		validation.ZipCode(req.ZipCode) &&
		validation.FullName(req.ContactPerson) &&
		validation.Email(normalizeEmail(req.Email)) &&
		validation.Phone(req.Phone) &&
		(req.Status == "" || req.Status.Valid())
}

// Create registers a client company. The contact account is reused when the
// email is known, otherwise created with a generated password that is
// emailed to the contact. Account, client and email succeed or fail together.
func (s *ClientsService) Create(ctx context.Context, caller domain.Caller, req *domain.CreateClientRequest) (*domain.CreatedResponse, error) {
	ctx, span := clientsTracer.Start(ctx, "ClientsService.Create")
	defer span.End()

	if err := requireElevated(caller, "create client"); err != nil {
		return nil, err
	}
	if !validClientRequest(req) {
		return nil, &domain.ErrValidation{Message: domain.MsgValidationFailed}
	}

	existing, err := s.store.Clients().GetClientByName(ctx, req.CompanyName)
	if err != nil {
		return nil, fmt.Errorf("check company name: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: domain.MsgCompanyExists}
	}

	now := s.now().UTC()
	email := normalizeEmail(req.Email)
	status := req.Status
	if status == "" {
		status = domain.ClientActive
	}
	client := &domain.Client{
		ID:               uuid.NewString(),
		CompanyName:      req.CompanyName,
		Address:          req.Address,
		City:             req.City,
		State:            req.State,
		ZipCode:          req.ZipCode,
		Phone:            req.Phone,
		Status:           status,
		RegistrationDate: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	start := time.Now()
	err = s.store.WithinTx(ctx, func(tx port.Repositories) error {
		account, err := tx.Accounts().GetAccountByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("get contact account: %w", err)
		}

		var password string
		if account != nil {
			linked, err := tx.Clients().GetClientByUser(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("get linked client: %w", err)
			}
			if linked != nil {
				return &domain.ErrValidation{Field: "email", Message: domain.MsgContactLinked}
			}
		} else {
			password, err = generatePassword(contactPasswordLength)
			if err != nil {
				return fmt.Errorf("generate password: %w", err)
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			account = &domain.Account{
				ID:           uuid.NewString(),
				FullName:     strings.TrimSpace(req.ContactPerson),
				Email:        email,
				PasswordHash: string(hash),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Accounts().CreateAccount(ctx, account); err != nil {
				return fmt.Errorf("create contact account: %w", err)
			}
		}

		client.UserID = account.ID
		if err := tx.Clients().CreateClient(ctx, client); err != nil {
			return fmt.Errorf("create client: %w", err)
		}

		// Sent last so a failed insert never mails a password.
		if password != "" {
			return s.sendPassword(ctx, req.ContactPerson, email, password)
		}
		return nil
	})
	s.metrics.ObserveStore("clients.create", time.Since(start))
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("client.id", client.ID))
	s.logger.Info("client created",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
	)
	s.publish(ctx, domain.Event{Subject: domain.SubjectClientCreated, ClientID: client.ID, Count: 1, OccurredAt: now})

	return &domain.CreatedResponse{ID: client.ID}, nil
}

func (s *ClientsService) sendPassword(ctx context.Context, name, email, password string) error {
	html, err := mailer.ContactPassword(name, password)
	if err != nil {
		return err
	}
	err = s.mailer.Send(ctx, &domain.Email{
		ToName:  name,
		ToEmail: email,
		Subject: contactPasswordSubject,
		HTML:    html,
	})
	return asUpstream(err)
}

// List returns a page of clients visible to the caller, joined with their
// contact account.
func (s *ClientsService) List(ctx context.Context, caller domain.Caller, p domain.ListParams) (*domain.Page[domain.ClientView], error) {
	ctx, span := clientsTracer.Start(ctx, "ClientsService.List")
	defer span.End()

	q, err := planPage(p, domain.ClientSortFields)
	if err != nil {
		return nil, err
	}
	f := domain.ClientFilter{Search: p.Search, Scope: caller.Scope()}

	start := time.Now()
	defer func() { s.metrics.ObserveStore("clients.list", time.Since(start)) }()

	total, err := s.store.Clients().CountClients(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}
	w, pages, err := q.window(total)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Clients().ListClients(ctx, f, q.sort, w)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	span.SetAttributes(attribute.Int("clients.total", total))
	return &domain.Page[domain.ClientView]{Items: nonNil(items), Total: total, Pages: pages}, nil
}

// Get returns one client visible to the caller.
func (s *ClientsService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.ClientView, error) {
	ctx, span := clientsTracer.Start(ctx, "ClientsService.Get")
	defer span.End()

	if !validation.ID(id) {
		return nil, &domain.ErrValidation{Field: "id", Message: domain.MsgIncorrectID}
	}
	view, err := s.store.Clients().GetClientView(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if view == nil || !caller.Scope().Matches(view.UserID) {
		return nil, &domain.ErrNotFound{Resource: "Client", ID: id}
	}
	return view, nil
}

// Update applies a partial update. Contact name and email changes are
// written to the linked account in the same transaction.
func (s *ClientsService) Update(ctx context.Context, caller domain.Caller, id string, body map[string]any) (*domain.ClientView, error) {
	ctx, span := clientsTracer.Start(ctx, "ClientsService.Update")
	defer span.End()

	if err := requireElevated(caller, "update client"); err != nil {
		return nil, err
	}
	if !validation.ID(id) {
		return nil, &domain.ErrValidation{Field: "id", Message: domain.MsgIncorrectID}
	}
	if err := validation.ClientPatchSchema.Validate(body); err != nil {
		return nil, err
	}
	var patch domain.ClientPatch
	if err := decodePatch(body, &patch); err != nil {
		return nil, err
	}

	var view *domain.ClientView
	start := time.Now()
	err := s.store.WithinTx(ctx, func(tx port.Repositories) error {
		client, err := tx.Clients().GetClient(ctx, id)
		if err != nil {
			return fmt.Errorf("get client: %w", err)
		}
		if client == nil {
			return &domain.ErrNotFound{Resource: "Client", ID: id}
		}

		if patch.CompanyName != nil && *patch.CompanyName != client.CompanyName {
			other, err := tx.Clients().GetClientByName(ctx, *patch.CompanyName)
			if err != nil {
				return fmt.Errorf("check company name: %w", err)
			}
			if other != nil {
				return &domain.ErrConflict{Message: domain.MsgCompanyExists}
			}
		}

		now := s.now().UTC()
		patch.Apply(client)
		client.UpdatedAt = now
		if err := tx.Clients().UpdateClient(ctx, client); err != nil {
			return fmt.Errorf("update client: %w", err)
		}

		if patch.TouchesAccount() {
			if err := updateContact(ctx, tx.Accounts(), client.UserID, patch, now); err != nil {
				return err
			}
		}

		view, err = tx.Clients().GetClientView(ctx, id)
		if err != nil {
			return fmt.Errorf("reload client: %w", err)
		}
		if view == nil {
			return &domain.ErrNotFound{Resource: "Client", ID: id}
		}
		return nil
	})
	s.metrics.ObserveStore("clients.update", time.Since(start))
	if err != nil {
		return nil, err
	}

	s.logger.Info("client updated", zap.String("client_id", id), zap.Int("fields", len(body)))
	return view, nil
}

func updateContact(ctx context.Context, accounts port.AccountStore, userID string, patch domain.ClientPatch, now time.Time) error {
	account, err := accounts.GetAccount(ctx, userID)
	if err != nil {
		return fmt.Errorf("get contact account: %w", err)
	}
	if account == nil {
		return &domain.ErrNotFound{Resource: "Account", ID: userID}
	}

	if patch.ContactPerson != nil {
		account.FullName = strings.TrimSpace(*patch.ContactPerson)
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email != account.Email {
			other, err := accounts.GetAccountByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("check contact email: %w", err)
			}
			if other != nil {
				return &domain.ErrConflict{Message: domain.MsgUserExists}
			}
		}
		account.Email = email
	}
	account.UpdatedAt = now
	if err := accounts.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("update contact account: %w", err)
	}
	return nil
}

func (s *ClientsService) publish(ctx context.Context, e domain.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("event not published", zap.String("subject", e.Subject), zap.Error(err))
	}
}

// decodePatch converts a validated JSON object into a typed patch.
func decodePatch(body map[string]any, dst any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &domain.ErrValidation{Message: domain.MsgValidationFailed}
	}
	return nil
}

func generatePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}

// asUpstream keeps provider errors typed so they reach the caller with the
// client-facing message.
func asUpstream(err error) error {
	if err == nil {
		return nil
	}
	var upstream *domain.ErrUpstream
	if errors.As(err, &upstream) {
		return err
	}
	return &domain.ErrUpstream{Service: "email", Message: domain.MsgEmailFailed, Err: err}
}
