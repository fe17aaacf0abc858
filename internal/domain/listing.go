package domain

// Scope restricts which records a caller may see. A restricted scope with an
// empty OwnerID matches nothing.
type Scope struct {
	Unrestricted bool
	OwnerID      string
}

// Matches reports whether a record owned by ownerID is visible.
func (s Scope) Matches(ownerID string) bool {
	if s.Unrestricted {
		return true
	}
	return s.OwnerID != "" && s.OwnerID == ownerID
}

// Sort is a whitelisted sort column and direction.
type Sort struct {
	Field string
	Desc  bool
}

// ClientFilter is the match predicate for client queries.
type ClientFilter struct {
	Search string
	Scope  Scope
}

// PhoneFilter is the match predicate for phone number queries.
type PhoneFilter struct {
	Search    string
	Scope     Scope
	Branded   *bool
	CompanyID string
}

// Window is the slice of sorted results to return.
type Window struct {
	Offset int
	Limit  int
}

// ListParams are the raw paging and ordering inputs of a list endpoint.
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// Page is a paginated result.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Items is an unpaginated result.
type Items[T any] struct {
	Items []T `json:"items"`
}

// Sortable fields per resource. The first entry is the default.
var (
	ClientSortFields = []string{"companyName", "city", "state", "zipCode", "status", "registrationDate", "createdAt", "fullName", "email"}
	PhoneSortFields  = []string{"tfn", "areaCode", "state", "region", "businessCategory", "companyName", "ftcFlaggedAt", "createdAt"}
)
