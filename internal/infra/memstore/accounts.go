package memstore

import (
	"context"

	"github.com/callpurity/callpurity-api/internal/domain"
)

func (r *repo) CreateAccount(_ context.Context, a *domain.Account) error {
	st, done := r.write()
	defer done()

	for _, existing := range st.accounts {
		if existing.Email == a.Email {
			return conflict(domain.MsgUserExists)
		}
	}
	st.accounts[a.ID] = *a
	return nil
}

func (r *repo) GetAccount(_ context.Context, id string) (*domain.Account, error) {
	st, done := r.read()
	defer done()

	a, ok := st.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	st, done := r.read()
	defer done()

	for _, a := range st.accounts {
		if a.Email == email {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (r *repo) UpdateAccount(_ context.Context, a *domain.Account) error {
	st, done := r.write()
	defer done()

	if _, ok := st.accounts[a.ID]; !ok {
		return &domain.ErrNotFound{Resource: "Account", ID: a.ID}
	}
	for id, existing := range st.accounts {
		if id != a.ID && existing.Email == a.Email {
			return conflict(domain.MsgUserExists)
		}
	}
	st.accounts[a.ID] = *a
	return nil
}
