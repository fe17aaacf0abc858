// Package bulk converts between tabular files and typed records using a
// column-name to field mapping.
package bulk

import (
	"fmt"
	"strings"

	"github.com/callpurity/callpurity-api/internal/domain"
)

// Column binds a header name to a record field.
type Column[T any] struct {
	Header   string
	Required bool
	Set      func(rec *T, value string) error
	Get      func(rec *T) string
}

// Mapping describes how rows map to records of type T.
type Mapping[T any] struct {
	Columns []Column[T]
}

// Headers returns the column headers in mapping order.
func (m Mapping[T]) Headers() []string {
	h := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		h[i] = c.Header
	}
	return h
}

// Decode turns rows (header first) into records. stamp, when non-nil, is
// applied to every record after its columns are set. Unknown columns are
// ignored; absent optional columns decode from the empty string.
func (m Mapping[T]) Decode(rows [][]string, stamp func(rec *T)) ([]T, error) {
	if len(rows) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "File is empty"}
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[normalizeHeader(h, i)] = i
	}
	for _, c := range m.Columns {
		if _, ok := index[c.Header]; c.Required && !ok {
			return nil, &domain.ErrValidation{Field: "file", Message: fmt.Sprintf("Missing column %s", c.Header)}
		}
	}

	out := make([]T, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		var rec T
		for _, c := range m.Columns {
			v := ""
			if i, ok := index[c.Header]; ok && i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			if c.Required && v == "" {
				return nil, &domain.ErrValidation{
					Field:   "file",
					Message: fmt.Sprintf("Row %d: %s is required", n+2, c.Header),
				}
			}
			if err := c.Set(&rec, v); err != nil {
				return nil, &domain.ErrValidation{
					Field:   "file",
					Message: fmt.Sprintf("Row %d: %s: %v", n+2, c.Header, err),
				}
			}
		}
		if stamp != nil {
			stamp(&rec)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Encode renders records as rows, header first.
func (m Mapping[T]) Encode(recs []T) [][]string {
	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, m.Headers())
	for i := range recs {
		row := make([]string, len(m.Columns))
		for j, c := range m.Columns {
			row[j] = c.Get(&recs[i])
		}
		rows = append(rows, row)
	}
	return rows
}

// YesNo decodes a Y/N flag: "N" in any case or an empty cell is false,
// anything else is true.
//
// Blank cells are false deliberately. The legacy importer only treated a
// literal "N" as false and so read blank cells as true; do not restore that.
func YesNo(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "N")
}

// FormatYesNo is the inverse of YesNo.
func FormatYesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

func normalizeHeader(h string, i int) string {
	if i == 0 {
		h = strings.TrimPrefix(h, "\ufeff")
	}
	return strings.TrimSpace(h)
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
