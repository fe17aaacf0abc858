package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/callpurity/callpurity-api/internal/domain"

	"golang.org/x/text/search"
)

func (r *repo) ReplacePhones(_ context.Context, companyID string, phones []domain.PhoneNumber) error {
	st, done := r.write()
	defer done()

	for id, p := range st.phones {
		if p.CompanyID == companyID {
			delete(st.phones, id)
		}
	}
	for _, p := range phones {
		st.phones[p.ID] = p
	}
	return nil
}

func (r *repo) GetPhone(_ context.Context, id string) (*domain.PhoneNumber, error) {
	st, done := r.read()
	defer done()

	p, ok := st.phones[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) GetPhoneView(_ context.Context, f domain.PhoneFilter, tfn string) (*domain.PhoneView, error) {
	st, done := r.read()
	defer done()

	m := newMatcher()
	var matches []domain.PhoneView
	for _, p := range st.phones {
		if p.TFN != tfn || !matchPhone(st, m, f, p) {
			continue
		}
		if v, ok := joinClient(st, p); ok {
			matches = append(matches, v)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sortBy(matches, false, phoneKey("companyName"), func(v *domain.PhoneView) string { return v.ID })
	return &matches[0], nil
}

func (r *repo) UpdatePhone(_ context.Context, p *domain.PhoneNumber) error {
	st, done := r.write()
	defer done()

	if _, ok := st.phones[p.ID]; !ok {
		return &domain.ErrNotFound{Resource: "Number", ID: p.ID}
	}
	st.phones[p.ID] = *p
	return nil
}

func (r *repo) DeletePhone(_ context.Context, id string) error {
	st, done := r.write()
	defer done()

	if _, ok := st.phones[id]; !ok {
		return &domain.ErrNotFound{Resource: "Number", ID: id}
	}
	delete(st.phones, id)
	return nil
}

func (r *repo) CountPhones(_ context.Context, f domain.PhoneFilter) (int, error) {
	st, done := r.read()
	defer done()

	m := newMatcher()
	n := 0
	for _, p := range st.phones {
		if matchPhone(st, m, f, p) {
			n++
		}
	}
	return n, nil
}

func (r *repo) ListPhones(_ context.Context, f domain.PhoneFilter, s domain.Sort, w domain.Window) ([]domain.PhoneView, error) {
	st, done := r.read()
	defer done()

	m := newMatcher()
	items := make([]domain.PhoneView, 0)
	for _, p := range st.phones {
		if !matchPhone(st, m, f, p) {
			continue
		}
		if v, ok := joinClient(st, p); ok {
			items = append(items, v)
		}
	}
	sortBy(items, s.Desc, phoneKey(s.Field), func(v *domain.PhoneView) string { return v.ID })
	return window(items, w), nil
}

func (r *repo) FindPhonesByTFN(_ context.Context, tfns []string) ([]domain.PhoneNumber, error) {
	st, done := r.read()
	defer done()

	want := make(map[string]struct{}, len(tfns))
	for _, t := range tfns {
		want[t] = struct{}{}
	}
	out := make([]domain.PhoneNumber, 0)
	for _, p := range st.phones {
		if _, ok := want[p.TFN]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TFN != out[j].TFN {
			return out[i].TFN < out[j].TFN
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *repo) FlagPhones(_ context.Context, ids []string, at time.Time) error {
	st, done := r.write()
	defer done()

	for _, id := range ids {
		p, ok := st.phones[id]
		if !ok {
			continue
		}
		flaggedAt := at
		p.FTCFlagged = true
		p.FTCFlaggedAt = &flaggedAt
		p.UpdatedAt = at
		st.phones[id] = p
	}
	return nil
}

// matchPhone applies the filter. The owning client is only consulted when
// the scope is restricted, so an orphaned number still counts for elevated
// callers.
func matchPhone(st *state, m *search.Matcher, f domain.PhoneFilter, p domain.PhoneNumber) bool {
	if f.CompanyID != "" && p.CompanyID != f.CompanyID {
		return false
	}
	if f.Branded != nil && p.Branded() != *f.Branded {
		return false
	}
	if !contains(m, p.TFN, f.Search) {
		return false
	}
	if f.Scope.Unrestricted {
		return true
	}
	c, ok := st.clients[p.CompanyID]
	return ok && f.Scope.Matches(c.UserID)
}

func joinClient(st *state, p domain.PhoneNumber) (domain.PhoneView, bool) {
	c, ok := st.clients[p.CompanyID]
	if !ok {
		return domain.PhoneView{}, false
	}
	return domain.PhoneView{PhoneNumber: p, CompanyName: c.CompanyName, Status: c.Status}, true
}
