package service

import (
	"slices"

	"github.com/callpurity/callpurity-api/internal/domain"
)

const (
	DefaultLimit = 10
	MaxLimit     = 1000
)

// pageQuery is a validated list request.
type pageQuery struct {
	sort  domain.Sort
	page  int
	limit int
}

// planPage validates paging bounds and the sort column before the store is
// touched. fields[0] is the default sort column.
func planPage(p domain.ListParams, fields []string) (pageQuery, error) {
	if p.Page < 0 {
		return pageQuery{}, &domain.ErrValidation{Field: "page"}
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return pageQuery{}, &domain.ErrValidation{Field: "limit"}
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = fields[0]
	}
	if !slices.Contains(fields, sortBy) {
		return pageQuery{}, &domain.ErrValidation{Field: "sortBy"}
	}

	var desc bool
	switch p.SortDir {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return pageQuery{}, &domain.ErrValidation{Field: "sortDir"}
	}

	return pageQuery{
		sort:  domain.Sort{Field: sortBy, Desc: desc},
		page:  p.Page,
		limit: p.Limit,
	}, nil
}

// pages returns ceil(total/limit).
func (q pageQuery) pages(total int) int {
	return (total + q.limit - 1) / q.limit
}

// window checks the page index against the page count. Asking past the last
// page is an error, not a clamp.
func (q pageQuery) window(total int) (domain.Window, int, error) {
	pages := q.pages(total)
	if q.page > pages {
		return domain.Window{}, 0, &domain.ErrValidation{Field: "page", Message: "Page is out of range"}
	}
	return domain.Window{Offset: q.page * q.limit, Limit: q.limit}, pages, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
