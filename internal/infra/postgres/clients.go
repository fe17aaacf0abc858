package postgres

import (
	"context"
	"errors"

	"github.com/callpurity/callpurity-api/internal/domain"

	"github.com/jackc/pgx/v5"
)

const clientColumns = `c.id, c.user_id, c.company_name, c.address, c.city, c.state, c.zip_code, c.phone, c.status, c.registration_date, c.created_at, c.updated_at`

var clientSort = map[string]string{
	"companyName":      `c.company_name ` + collation,
	"city":             `c.city ` + collation,
	"state":            `c.state ` + collation,
	"zipCode":          `c.zip_code`,
	"status":           `c.status`,
	"registrationDate": `c.registration_date`,
	"createdAt":        `c.created_at`,
	"fullName":         `a.full_name ` + collation,
	"email":            `a.email ` + collation,
}

func clientDest(c *domain.Client) []any {
	return []any{&c.ID, &c.UserID, &c.CompanyName, &c.Address, &c.City, &c.State, &c.ZipCode, &c.Phone, &c.Status, &c.RegistrationDate, &c.CreatedAt, &c.UpdatedAt}
}

func (r *repo) CreateClient(ctx context.Context, c *domain.Client) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO clients (id, user_id, company_name, address, city, state, zip_code, phone, status, registration_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.UserID, c.CompanyName, c.Address, c.City, c.State, c.ZipCode, c.Phone, c.Status, c.RegistrationDate, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapError("insert client", err)
	}
	return nil
}

func (r *repo) getClient(ctx context.Context, cond string, arg any) (*domain.Client, error) {
	var c domain.Client
	err := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients c WHERE `+cond+` ORDER BY c.id LIMIT 1`, arg).Scan(clientDest(&c)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("select client", err)
	}
	return &c, nil
}

func (r *repo) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return r.getClient(ctx, `c.id = $1`, id)
}

func (r *repo) GetClientByName(ctx context.Context, companyName string) (*domain.Client, error) {
	return r.getClient(ctx, `c.company_name = $1`, companyName)
}

func (r *repo) GetClientByUser(ctx context.Context, userID string) (*domain.Client, error) {
	return r.getClient(ctx, `c.user_id = $1`, userID)
}

func (r *repo) GetClientView(ctx context.Context, id string) (*domain.ClientView, error) {
	var v domain.ClientView
	dest := append(clientDest(&v.Client), &v.FullName, &v.Email)
	err := r.db.QueryRow(ctx,
		`SELECT `+clientColumns+`, a.full_name, a.email FROM clients c JOIN accounts a ON a.id = c.user_id WHERE c.id = $1`,
		id,
	).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("select client view", err)
	}
	return &v, nil
}

func (r *repo) UpdateClient(ctx context.Context, c *domain.Client) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE clients SET company_name = $2, address = $3, city = $4, state = $5, zip_code = $6, phone = $7, status = $8, updated_at = $9 WHERE id = $1`,
		c.ID, c.CompanyName, c.Address, c.City, c.State, c.ZipCode, c.Phone, c.Status, c.UpdatedAt,
	)
	if err != nil {
		return mapError("update client", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "Client", ID: c.ID}
	}
	return nil
}

func clientWhere(f domain.ClientFilter) *where {
	w := &where{}
	if f.Search != "" {
		w.add(`c.company_name ILIKE ? ESCAPE '\'`, likePattern(f.Search))
	}
	if !f.Scope.Unrestricted {
		w.add(`c.user_id = ?`, f.Scope.OwnerID)
	}
	return w
}

func (r *repo) CountClients(ctx context.Context, f domain.ClientFilter) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.CountClients")
	defer span.End()

	w := clientWhere(f)
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM clients c`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, mapError("count clients", err)
	}
	return n, nil
}

func (r *repo) ListClients(ctx context.Context, f domain.ClientFilter, s domain.Sort, win domain.Window) ([]domain.ClientView, error) {
	ctx, span := tracer.Start(ctx, "postgres.ListClients")
	defer span.End()

	order, ok := clientSort[s.Field]
	if !ok {
		order = clientSort["companyName"]
	}
	w := clientWhere(f)
	query := `SELECT ` + clientColumns + `, a.full_name, a.email FROM clients c JOIN accounts a ON a.id = c.user_id` +
		w.String() + ` ORDER BY ` + order + ` ` + direction(s.Desc) + `, c.id` + w.page(win)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list clients", err)
	}
	defer rows.Close()

	items := make([]domain.ClientView, 0)
	for rows.Next() {
		var v domain.ClientView
		if err := rows.Scan(append(clientDest(&v.Client), &v.FullName, &v.Email)...); err != nil {
			return nil, mapError("scan client", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list clients", err)
	}
	return items, nil
}

func (r *repo) ListClientsByIDs(ctx context.Context, ids []string) ([]domain.Client, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM clients c WHERE c.id = ANY($1)`, ids)
	if err != nil {
		return nil, mapError("list clients by id", err)
	}
	defer rows.Close()

	out := make([]domain.Client, 0, len(ids))
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(clientDest(&c)...); err != nil {
			return nil, mapError("scan client", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list clients by id", err)
	}
	return out, nil
}
