package postgres

import (
	"context"
	"errors"

	"github.com/callpurity/callpurity-api/internal/domain"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, full_name, email, password_hash, admin, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.PasswordHash, &a.Admin, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repo) CreateAccount(ctx context.Context, a *domain.Account) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.FullName, a.Email, a.PasswordHash, a.Admin, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return mapError("insert account", err)
	}
	return nil
}

func (r *repo) getAccount(ctx context.Context, cond string, arg any) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+cond, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("select account", err)
	}
	return a, nil
}

func (r *repo) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return r.getAccount(ctx, `id = $1`, id)
}

func (r *repo) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getAccount(ctx, `email = $1`, email)
}

func (r *repo) UpdateAccount(ctx context.Context, a *domain.Account) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET full_name = $2, email = $3, password_hash = $4, admin = $5, updated_at = $6 WHERE id = $1`,
		a.ID, a.FullName, a.Email, a.PasswordHash, a.Admin, a.UpdatedAt,
	)
	if err != nil {
		return mapError("update account", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "Account", ID: a.ID}
	}
	return nil
}
