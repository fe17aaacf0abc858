// Package memstore is an in-process Record Store used when no database is
// configured and in tests. It mirrors the Postgres adapter: exact-match
// uniqueness, case-insensitive search, locale-aware ordering and inner-join
// listings.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/port"
)

type state struct {
	accounts map[string]domain.Account
	clients  map[string]domain.Client
	phones   map[string]domain.PhoneNumber
}

func newState() *state {
	return &state{
		accounts: make(map[string]domain.Account),
		clients:  make(map[string]domain.Client),
		phones:   make(map[string]domain.PhoneNumber),
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts: make(map[string]domain.Account, len(s.accounts)),
		clients:  make(map[string]domain.Client, len(s.clients)),
		phones:   make(map[string]domain.PhoneNumber, len(s.phones)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.clients {
		c.clients[k] = v
	}
	for k, v := range s.phones {
		c.phones[k] = v
	}
	return c
}

// ErrTxConflict is wrapped in the error WithinTx returns when another write
// was published while the transaction ran. Nothing from it is kept.
var ErrTxConflict = errors.New("memstore: concurrent update")

// Store is a thread-safe in-memory implementation of port.Store.
type Store struct {
	mu sync.RWMutex
	st *state
	// version increments on every published write.
	version uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) repo() *repo {
	return &repo{store: s}
}

func (s *Store) Accounts() port.AccountStore { return s.repo() }
func (s *Store) Clients() port.ClientStore   { return s.repo() }
func (s *Store) Phones() port.PhoneStore     { return s.repo() }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// WithinTx runs fn against a copy of the data and publishes the copy only if
// fn returns nil and no other write landed in the meantime. No lock is held
// while fn runs, so a slow fn never blocks readers or other writers. A panic
// in fn leaves the data untouched; fn must only use tx.
func (s *Store) WithinTx(ctx context.Context, fn func(tx port.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	work := s.st.clone()
	base := s.version
	s.mu.RUnlock()

	if err := fn(txRepos{r: &repo{tx: work}}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != base {
		return &domain.ErrConflict{Message: domain.MsgConcurrentUpdate, Err: ErrTxConflict}
	}
	s.st = work
	s.version++
	return nil
}

type txRepos struct{ r *repo }

func (t txRepos) Accounts() port.AccountStore { return t.r }
func (t txRepos) Clients() port.ClientStore   { return t.r }
func (t txRepos) Phones() port.PhoneStore     { return t.r }

// repo implements every store port. Outside a transaction it locks the
// store; inside one, tx is the private working copy and needs no lock.
type repo struct {
	store *Store
	tx    *state
}

func (r *repo) read() (*state, func()) {
	if r.tx != nil {
		return r.tx, func() {}
	}
	r.store.mu.RLock()
	return r.store.st, r.store.mu.RUnlock
}

func (r *repo) write() (*state, func()) {
	if r.tx != nil {
		return r.tx, func() {}
	}
	r.store.mu.Lock()
	return r.store.st, func() {
		r.store.version++
		r.store.mu.Unlock()
	}
}

func conflict(format string, args ...any) error {
	return &domain.ErrConflict{Message: fmt.Sprintf(format, args...)}
}
