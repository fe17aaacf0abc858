package handler_test

import (
	"net/http"
	"testing"

	"github.com/callpurity/callpurity-api/internal/domain"
)

func clientBody(name, email string) map[string]string {
	return map[string]string{
		"companyName":   name,
		"address":       "1 Main St",
		"city":          "Austin",
		"state":         "TX",
		"zipCode":       "73301",
		"contactPerson": "Walter Skinner",
		"email":         email,
		"phone":         "+15125550100",
	}
}

// createClient creates a client through the API and returns its id.
func (s *server) createClient(t *testing.T, adminToken, name, email string) string {
	t.Helper()
	rec := s.doJSON(t, http.MethodPost, "/clients", adminToken, clientBody(name, email))
	assertStatus(t, rec, http.StatusCreated)
	id := decodeBody[domain.CreatedResponse](t, rec).ID

	s.mailer.mu.Lock()
	sent := s.mailer.sent[len(s.mailer.sent)-1]
	s.mailer.mu.Unlock()
	if sent.ToEmail != email {
		t.Fatalf("expected password email to %s, got %s", email, sent.ToEmail)
	}
	return id
}

// linkContact registers an account, makes it the contact of clientID and
// returns its token. Contacts created through the API get a generated
// password the test never sees.
func (s *server) linkContact(t *testing.T, clientID, email string) string {
	t.Helper()
	token := s.account(t, email, false)
	acct, err := s.store.Accounts().GetAccountByEmail(t.Context(), email)
	if err != nil || acct == nil {
		t.Fatalf("get account: %v", err)
	}
	c, err := s.store.Clients().GetClient(t.Context(), clientID)
	if err != nil || c == nil {
		t.Fatalf("get client: %v", err)
	}
	c.UserID = acct.ID
	if err := s.store.Clients().UpdateClient(t.Context(), c); err != nil {
		t.Fatal(err)
	}
	return token
}

func TestCreateClient(t *testing.T) {
	s := newServer(t)
	admin := s.account(t, "admin@callpurity.com", true)
	user := s.account(t, "user@example.com", false)

	rec := s.doJSON(t, http.MethodPost, "/clients", user, clientBody("Acme", "acme@example.com"))
	assertStatus(t, rec, http.StatusUnauthorized)
	assertMessage(t, rec, domain.MsgNotAllowed)

	id := s.createClient(t, admin, "Acme", "acme@example.com")
	if id == "" {
		t.Fatal("expected an id")
	}

	rec = s.doJSON(t, http.MethodPost, "/clients", admin, clientBody("Acme", "other@example.com"))
	assertStatus(t, rec, http.StatusBadRequest)
	assertMessage(t, rec, domain.MsgCompanyExists)

	bad := clientBody("Globex", "globex@example.com")
	bad["zipCode"] = "ABCDE"
	rec = s.doJSON(t, http.MethodPost, "/clients", admin, bad)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestListAndGetClients_Scoped(t *testing.T) {
	s := newServer(t)
	admin := s.account(t, "admin@callpurity.com", true)
	acmeID := s.createClient(t, admin, "Acme", "acme@example.com")
	globexID := s.createClient(t, admin, "Globex", "globex@example.com")

	all := decodeBody[domain.Page[domain.ClientView]](t, s.do(t, http.MethodGet, "/clients?limit=1&page=1", admin, nil, ""))
	if all.Total != 2 || all.Pages != 2 || len(all.Items) != 1 || all.Items[0].ID != globexID {
		t.Errorf("unexpected admin page %+v", all)
	}

	contact := s.linkContact(t, acmeID, "contact@example.com")

	own := decodeBody[domain.Page[domain.ClientView]](t, s.do(t, http.MethodGet, "/clients", contact, nil, ""))
	if own.Total != 1 || own.Items[0].ID != acmeID || own.Items[0].Email != "contact@example.com" {
		t.Errorf("unexpected contact page %+v", own)
	}

	rec := s.do(t, http.MethodGet, "/clients/byId?id="+acmeID, contact, nil, "")
	assertStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/clients/byId?id="+globexID, contact, nil, "")
	assertStatus(t, rec, http.StatusNotFound)
	assertMessage(t, rec, "Client not found")
}

func TestListClients_BadParams(t *testing.T) {
	s := newServer(t)
	admin := s.account(t, "admin@callpurity.com", true)

	for _, q := range []string{"page=abc", "limit=0", "limit=x", "sortBy=password", "sortDir=sideways", "page=5"} {
		rec := s.do(t, http.MethodGet, "/clients?"+q, admin, nil, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestUpdateClient(t *testing.T) {
	s := newServer(t)
	admin := s.account(t, "admin@callpurity.com", true)
	id := s.createClient(t, admin, "Acme", "acme@example.com")

	rec := s.doJSON(t, http.MethodPatch, "/clients?id="+id, admin, map[string]any{"city": "Dallas", "contactPerson": "Dana"})
	assertStatus(t, rec, http.StatusOK)
	view := decodeBody[domain.ClientView](t, rec)
	if view.City != "Dallas" || view.FullName != "Dana" {
		t.Errorf("unexpected update %+v", view)
	}

	rec = s.doJSON(t, http.MethodPatch, "/clients?id="+id, admin, map[string]any{"status": "gone"})
	assertStatus(t, rec, http.StatusBadRequest)

	rec = s.doJSON(t, http.MethodPatch, "/clients?id=nope", admin, map[string]any{"city": "Dallas"})
	assertStatus(t, rec, http.StatusBadRequest)
	assertMessage(t, rec, domain.MsgIncorrectID)
}
