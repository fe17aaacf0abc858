package memstore

import (
	"context"

	"github.com/callpurity/callpurity-api/internal/domain"

	"golang.org/x/text/search"
)

func (r *repo) CreateClient(_ context.Context, c *domain.Client) error {
	st, done := r.write()
	defer done()

	for _, existing := range st.clients {
		if existing.CompanyName == c.CompanyName {
			return conflict(domain.MsgCompanyExists)
		}
	}
	st.clients[c.ID] = *c
	return nil
}

func (r *repo) GetClient(_ context.Context, id string) (*domain.Client, error) {
	st, done := r.read()
	defer done()

	c, ok := st.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) GetClientView(_ context.Context, id string) (*domain.ClientView, error) {
	st, done := r.read()
	defer done()

	c, ok := st.clients[id]
	if !ok {
		return nil, nil
	}
	v, ok := joinAccount(st, c)
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *repo) GetClientByName(_ context.Context, companyName string) (*domain.Client, error) {
	st, done := r.read()
	defer done()

	for _, c := range st.clients {
		if c.CompanyName == companyName {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *repo) GetClientByUser(_ context.Context, userID string) (*domain.Client, error) {
	st, done := r.read()
	defer done()

	var found *domain.Client
	for _, c := range st.clients {
		if c.UserID == userID && (found == nil || c.ID < found.ID) {
			c := c
			found = &c
		}
	}
	return found, nil
}

func (r *repo) UpdateClient(_ context.Context, c *domain.Client) error {
	st, done := r.write()
	defer done()

	if _, ok := st.clients[c.ID]; !ok {
		return &domain.ErrNotFound{Resource: "Client", ID: c.ID}
	}
	for id, existing := range st.clients {
		if id != c.ID && existing.CompanyName == c.CompanyName {
			return conflict(domain.MsgCompanyExists)
		}
	}
	st.clients[c.ID] = *c
	return nil
}

func (r *repo) CountClients(_ context.Context, f domain.ClientFilter) (int, error) {
	st, done := r.read()
	defer done()

	m := newMatcher()
	n := 0
	for _, c := range st.clients {
		if matchClient(m, f, c) {
			n++
		}
	}
	return n, nil
}

func (r *repo) ListClients(_ context.Context, f domain.ClientFilter, s domain.Sort, w domain.Window) ([]domain.ClientView, error) {
	st, done := r.read()
	defer done()

	m := newMatcher()
	items := make([]domain.ClientView, 0)
	for _, c := range st.clients {
		if !matchClient(m, f, c) {
			continue
		}
		if v, ok := joinAccount(st, c); ok {
			items = append(items, v)
		}
	}
	sortBy(items, s.Desc, clientKey(s.Field), func(v *domain.ClientView) string { return v.ID })
	return window(items, w), nil
}

func (r *repo) ListClientsByIDs(_ context.Context, ids []string) ([]domain.Client, error) {
	st, done := r.read()
	defer done()

	out := make([]domain.Client, 0, len(ids))
	for _, id := range ids {
		if c, ok := st.clients[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func matchClient(m *search.Matcher, f domain.ClientFilter, c domain.Client) bool {
	return f.Scope.Matches(c.UserID) && contains(m, c.CompanyName, f.Search)
}

func joinAccount(st *state, c domain.Client) (domain.ClientView, bool) {
	a, ok := st.accounts[c.UserID]
	if !ok {
		return domain.ClientView{}, false
	}
	return domain.ClientView{Client: c, FullName: a.FullName, Email: a.Email}, true
}
