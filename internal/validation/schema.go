package validation

import (
	"fmt"
	"sort"

	"github.com/callpurity/callpurity-api/internal/domain"
)

// Rule validates a single decoded JSON value.
type Rule func(v any) bool

// Schema maps optional field names to their rules. Absent fields are not
// checked; fields not in the schema are rejected.
type Schema map[string]Rule

// Validate checks every present field of body. Fields are visited in sorted
// order so the reported field is deterministic.
func (s Schema) Validate(body map[string]any) error {
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		rule, ok := s[k]
		if !ok {
			return &domain.ErrValidation{Field: k, Message: fmt.Sprintf("Field %s cannot be updated", k)}
		}
		if !rule(body[k]) {
			return &domain.ErrValidation{Field: k, Message: fmt.Sprintf("Invalid value for %s", k)}
		}
	}
	return nil
}

// String adapts a string predicate. Non-string values fail.
func String(pred func(string) bool) Rule {
	return func(v any) bool {
		s, ok := v.(string)
		return ok && pred(s)
	}
}

// Length is a String rule bounded by Names.
func Length(max, min int) Rule {
	return String(func(s string) bool { return Names(s, max, min) })
}

// Bool accepts JSON booleans only.
func Bool() Rule {
	return Boolean
}

// ClientPatchSchema covers PATCH /clients.
var ClientPatchSchema = Schema{
	"companyName":   Length(500, 1),
	"address":       Length(1000, 1),
	"city":          Length(500, 1),
	"state":         Length(500, 1),
	"zipCode":       String(ZipCode),
	"phone":         String(Phone),
	"status":        String(Status),
	"contactPerson": String(FullName),
	"email":         String(Email),
}

// PhonePatchSchema covers PATCH /numbers.
var PhonePatchSchema = Schema{
	"areaCode":         String(AreaCode),
	"state":            Length(500, 1),
	"region":           Length(500, 1),
	"top15AreaCode":    Bool(),
	"att":              Length(500, 0),
	"attBranded":       Bool(),
	"tmobile":          Length(500, 0),
	"tmobileBranded":   Bool(),
	"verizon":          Length(500, 0),
	"verizonBranded":   Bool(),
	"businessCategory": Length(500, 0),
	"ftcFlagged":       Bool(),
}
