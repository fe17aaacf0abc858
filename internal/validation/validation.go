// Package validation holds pure predicates over request field values and an
// explicit optional-field schema for partial updates.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/callpurity/callpurity-api/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	maxFullName = 500
	maxEmail    = 320
)

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	zipCodeRe = regexp.MustCompile(`^[0-9]{5}(?:-[0-9]{4})?$`)
	phoneRe   = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)
)

// Names reports whether the trimmed value has between min and max runes.
func Names(v string, max, min int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	return n >= min && n <= max
}

// FullName reports whether v is a non-blank display name.
func FullName(v string) bool {
	return Names(v, maxFullName, 1)
}

// Email reports whether v looks like an email address.
func Email(v string) bool {
	return len(v) <= maxEmail && emailRe.MatchString(v)
}

// Password reports whether v is 8 to 16 non-space characters containing a
// digit, an upper-case letter, a lower-case letter and a symbol other than ':'.
func Password(v string) bool {
	n := utf8.RuneCountInString(v)
	if n < 8 || n > 16 {
		return false
	}
	var digit, upper, lower, symbol bool
	for _, r := range v {
		switch {
		case unicode.IsSpace(r):
			return false
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case r != ':' && r != '_' && !unicode.IsLetter(r):
			symbol = true
		}
	}
	return digit && upper && lower && symbol
}

// ZipCode reports whether v is a US ZIP or ZIP+4 code.
func ZipCode(v string) bool {
	return zipCodeRe.MatchString(v)
}

// Phone reports whether v is an E.164-like phone number.
func Phone(v string) bool {
	return phoneRe.MatchString(v)
}

// ID reports whether v is a canonical record identifier.
func ID(v string) bool {
	u, err := uuid.Parse(v)
	return err == nil && u.String() == strings.ToLower(v)
}

// AreaCode reports whether v is a 2 or 3 digit area code not starting with 0.
func AreaCode(v string) bool {
	if len(v) < 2 || len(v) > 3 || v[0] == '0' {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Boolean reports whether v was decoded from a JSON boolean.
func Boolean(v any) bool {
	_, ok := v.(bool)
	return ok
}

// Status reports whether v is a known client status.
func Status(v string) bool {
	return domain.ClientStatus(v).Valid()
}

// File checks upload metadata: size at most max bytes and an extension from
// allowed (compared case-insensitively).
func File(name string, size, max int64, allowed ...string) error {
	if size > max {
		return &domain.ErrValidation{
			Field:   "file",
			Message: fmt.Sprintf("File size cannot be greater than %s", humanize.IBytes(uint64(max))),
		}
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	if len(allowed) == 1 {
		return &domain.ErrValidation{
			Field:   "file",
			Message: fmt.Sprintf("File with extension %s is only allowed", allowed[0]),
		}
	}
	return &domain.ErrValidation{
		Field:   "file",
		Message: fmt.Sprintf("Only files with extensions %s are allowed", strings.Join(allowed, ", ")),
	}
}
