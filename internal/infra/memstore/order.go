package memstore

import (
	"sort"
	"strings"
	"time"

	"github.com/callpurity/callpurity-api/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

// contains reports a case-insensitive, locale-aware substring match. An empty
// pattern matches everything.
func contains(m *search.Matcher, text, pattern string) bool {
	if pattern == "" {
		return true
	}
	start, _ := m.IndexString(text, pattern)
	return start >= 0
}

func newMatcher() *search.Matcher {
	return search.New(language.English, search.IgnoreCase)
}

// key is a sortable value: either text (collated) or a time.
type key struct {
	s string
	t time.Time
}

func sortBy[T any](items []T, desc bool, keyOf func(*T) key, idOf func(*T) string) {
	col := collate.New(language.English)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := keyOf(&items[i]), keyOf(&items[j])
		c := 0
		switch {
		case !a.t.Equal(b.t):
			c = a.t.Compare(b.t)
		default:
			c = col.CompareString(a.s, b.s)
		}
		if c == 0 {
			return strings.Compare(idOf(&items[i]), idOf(&items[j])) < 0
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func window[T any](items []T, w domain.Window) []T {
	if w.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if w.Limit > 0 && w.Offset+w.Limit < end {
		end = w.Offset + w.Limit
	}
	return items[w.Offset:end]
}

func clientKey(field string) func(*domain.ClientView) key {
	return func(c *domain.ClientView) key {
		switch field {
		case "city":
			return key{s: c.City}
		case "state":
			return key{s: c.State}
		case "zipCode":
			return key{s: c.ZipCode}
		case "status":
			return key{s: string(c.Status)}
		case "registrationDate":
			return key{t: c.RegistrationDate}
		case "createdAt":
			return key{t: c.CreatedAt}
		case "fullName":
			return key{s: c.FullName}
		case "email":
			return key{s: c.Email}
		default:
			return key{s: c.CompanyName}
		}
	}
}

func phoneKey(field string) func(*domain.PhoneView) key {
	return func(p *domain.PhoneView) key {
		switch field {
		case "areaCode":
			return key{s: p.AreaCode}
		case "state":
			return key{s: p.State}
		case "region":
			return key{s: p.Region}
		case "businessCategory":
			return key{s: p.BusinessCategory}
		case "companyName":
			return key{s: p.CompanyName}
		case "ftcFlaggedAt":
			if p.FTCFlaggedAt == nil {
				return key{}
			}
			return key{t: *p.FTCFlaggedAt}
		case "createdAt":
			return key{t: p.CreatedAt}
		default:
			return key{s: p.TFN}
		}
	}
}
