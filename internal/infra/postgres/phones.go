package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/callpurity/callpurity-api/internal/domain"

	"github.com/jackc/pgx/v5"
)

const phoneColumns = `p.id, p.company_id, p.tfn, p.area_code, p.state, p.region, p.top15_area_code, p.att, p.att_branded, p.tmobile, p.tmobile_branded, p.verizon, p.verizon_branded, p.business_category, p.ftc_flagged, p.ftc_flagged_at, p.created_at, p.updated_at`

var phoneCopyColumns = []string{
	"id", "company_id", "tfn", "area_code", "state", "region", "top15_area_code",
	"att", "att_branded", "tmobile", "tmobile_branded", "verizon", "verizon_branded",
	"business_category", "ftc_flagged", "ftc_flagged_at", "created_at", "updated_at",
}

var phoneSort = map[string]string{
	"tfn":              `p.tfn`,
	"areaCode":         `p.area_code`,
	"state":            `p.state ` + collation,
	"region":           `p.region ` + collation,
	"businessCategory": `p.business_category ` + collation,
	"companyName":      `c.company_name ` + collation,
	"ftcFlaggedAt":     `p.ftc_flagged_at`,
	"createdAt":        `p.created_at`,
}

// phoneNullable lists sort columns that may be NULL. NULL orders as the
// lowest value, the same as an unset time in the in-memory store.
var phoneNullable = map[string]bool{"ftcFlaggedAt": true}

func phoneOrder(s domain.Sort) string {
	order, ok := phoneSort[s.Field]
	if !ok {
		order = phoneSort["tfn"]
	}
	order += " " + direction(s.Desc)
	if phoneNullable[s.Field] {
		if s.Desc {
			order += " NULLS LAST"
		} else {
			order += " NULLS FIRST"
		}
	}
	return order
}

func phoneDest(p *domain.PhoneNumber) []any {
	return []any{
		&p.ID, &p.CompanyID, &p.TFN, &p.AreaCode, &p.State, &p.Region, &p.Top15AreaCode,
		&p.ATT, &p.ATTBranded, &p.TMobile, &p.TMobileBranded, &p.Verizon, &p.VerizonBranded,
		&p.BusinessCategory, &p.FTCFlagged, &p.FTCFlaggedAt, &p.CreatedAt, &p.UpdatedAt,
	}
}

func phoneValues(p *domain.PhoneNumber) []any {
	return []any{
		p.ID, p.CompanyID, p.TFN, p.AreaCode, p.State, p.Region, p.Top15AreaCode,
		p.ATT, p.ATTBranded, p.TMobile, p.TMobileBranded, p.Verizon, p.VerizonBranded,
		p.BusinessCategory, p.FTCFlagged, p.FTCFlaggedAt, p.CreatedAt, p.UpdatedAt,
	}
}

// ReplacePhones deletes the client's numbers and bulk-loads the new set.
// Callers run it inside WithinTx.
func (r *repo) ReplacePhones(ctx context.Context, companyID string, phones []domain.PhoneNumber) error {
	ctx, span := tracer.Start(ctx, "postgres.ReplacePhones")
	defer span.End()

	if _, err := r.db.Exec(ctx, `DELETE FROM phone_numbers WHERE company_id = $1`, companyID); err != nil {
		return mapError("delete phones", err)
	}
	if len(phones) == 0 {
		return nil
	}
	_, err := r.db.CopyFrom(ctx, pgx.Identifier{"phone_numbers"}, phoneCopyColumns,
		pgx.CopyFromSlice(len(phones), func(i int) ([]any, error) {
			return phoneValues(&phones[i]), nil
		}),
	)
	if err != nil {
		return mapError("copy phones", err)
	}
	return nil
}

func (r *repo) GetPhone(ctx context.Context, id string) (*domain.PhoneNumber, error) {
	var p domain.PhoneNumber
	err := r.db.QueryRow(ctx, `SELECT `+phoneColumns+` FROM phone_numbers p WHERE p.id = $1`, id).Scan(phoneDest(&p)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("select phone", err)
	}
	return &p, nil
}

func (r *repo) GetPhoneView(ctx context.Context, f domain.PhoneFilter, tfn string) (*domain.PhoneView, error) {
	w := phoneWhere(f)
	w.add(`p.tfn = ?`, tfn)
	query := `SELECT ` + phoneColumns + `, c.company_name, c.status FROM phone_numbers p JOIN clients c ON c.id = p.company_id` +
		w.String() + ` ORDER BY c.company_name ` + collation + `, p.id LIMIT 1`

	var v domain.PhoneView
	err := r.db.QueryRow(ctx, query, w.args...).Scan(append(phoneDest(&v.PhoneNumber), &v.CompanyName, &v.Status)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("select phone view", err)
	}
	return &v, nil
}

func (r *repo) UpdatePhone(ctx context.Context, p *domain.PhoneNumber) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE phone_numbers SET area_code = $2, state = $3, region = $4, top15_area_code = $5,
		 att = $6, att_branded = $7, tmobile = $8, tmobile_branded = $9, verizon = $10, verizon_branded = $11,
		 business_category = $12, ftc_flagged = $13, ftc_flagged_at = $14, updated_at = $15 WHERE id = $1`,
		p.ID, p.AreaCode, p.State, p.Region, p.Top15AreaCode,
		p.ATT, p.ATTBranded, p.TMobile, p.TMobileBranded, p.Verizon, p.VerizonBranded,
		p.BusinessCategory, p.FTCFlagged, p.FTCFlaggedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError("update phone", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "Number", ID: p.ID}
	}
	return nil
}

func (r *repo) DeletePhone(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM phone_numbers WHERE id = $1`, id)
	if err != nil {
		return mapError("delete phone", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "Number", ID: id}
	}
	return nil
}

// phoneWhere builds the phone predicate. Ownership goes through a subquery
// so counting does not need the join used for listing.
func phoneWhere(f domain.PhoneFilter) *where {
	w := &where{}
	if f.Search != "" {
		w.add(`p.tfn ILIKE ? ESCAPE '\'`, likePattern(f.Search))
	}
	if f.CompanyID != "" {
		w.add(`p.company_id = ?`, f.CompanyID)
	}
	if f.Branded != nil {
		w.add(`(p.att_branded OR p.tmobile_branded OR p.verizon_branded) = ?`, *f.Branded)
	}
	if !f.Scope.Unrestricted {
		w.add(`p.company_id IN (SELECT id FROM clients WHERE user_id = ?)`, f.Scope.OwnerID)
	}
	return w
}

func (r *repo) CountPhones(ctx context.Context, f domain.PhoneFilter) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.CountPhones")
	defer span.End()

	w := phoneWhere(f)
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM phone_numbers p`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, mapError("count phones", err)
	}
	return n, nil
}

func (r *repo) ListPhones(ctx context.Context, f domain.PhoneFilter, s domain.Sort, win domain.Window) ([]domain.PhoneView, error) {
	ctx, span := tracer.Start(ctx, "postgres.ListPhones")
	defer span.End()

	w := phoneWhere(f)
	query := `SELECT ` + phoneColumns + `, c.company_name, c.status FROM phone_numbers p JOIN clients c ON c.id = p.company_id` +
		w.String() + ` ORDER BY ` + phoneOrder(s) + `, p.id`
	if win.Limit > 0 {
		query += w.page(win)
	}

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list phones", err)
	}
	defer rows.Close()

	items := make([]domain.PhoneView, 0)
	for rows.Next() {
		var v domain.PhoneView
		if err := rows.Scan(append(phoneDest(&v.PhoneNumber), &v.CompanyName, &v.Status)...); err != nil {
			return nil, mapError("scan phone", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list phones", err)
	}
	return items, nil
}

func (r *repo) FindPhonesByTFN(ctx context.Context, tfns []string) ([]domain.PhoneNumber, error) {
	rows, err := r.db.Query(ctx, `SELECT `+phoneColumns+` FROM phone_numbers p WHERE p.tfn = ANY($1) ORDER BY p.tfn, p.id`, tfns)
	if err != nil {
		return nil, mapError("find phones", err)
	}
	defer rows.Close()

	out := make([]domain.PhoneNumber, 0)
	for rows.Next() {
		var p domain.PhoneNumber
		if err := rows.Scan(phoneDest(&p)...); err != nil {
			return nil, mapError("scan phone", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("find phones", err)
	}
	return out, nil
}

func (r *repo) FlagPhones(ctx context.Context, ids []string, at time.Time) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE phone_numbers SET ftc_flagged = TRUE, ftc_flagged_at = $2, updated_at = $2 WHERE id = ANY($1)`,
		ids, at,
	); err != nil {
		return mapError("flag phones", err)
	}
	return nil
}
