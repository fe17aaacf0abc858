package bulk

import (
	"strings"

	"github.com/callpurity/callpurity-api/internal/domain"
)

// CompanyHeader is the extra export column used when a download spans
// several clients.
const CompanyHeader = "Company"

func textColumn(header string, required bool, field func(p *domain.PhoneNumber) *string) Column[domain.PhoneNumber] {
	return Column[domain.PhoneNumber]{
		Header:   header,
		Required: required,
		Set: func(p *domain.PhoneNumber, v string) error {
			*field(p) = v
			return nil
		},
		Get: func(p *domain.PhoneNumber) string { return *field(p) },
	}
}

func flagColumn(header string, field func(p *domain.PhoneNumber) *bool) Column[domain.PhoneNumber] {
	return Column[domain.PhoneNumber]{
		Header: header,
		Set: func(p *domain.PhoneNumber, v string) error {
			*field(p) = YesNo(v)
			return nil
		},
		Get: func(p *domain.PhoneNumber) string { return FormatYesNo(*field(p)) },
	}
}

// PhoneMapping is the column layout of number upload files.
var PhoneMapping = Mapping[domain.PhoneNumber]{Columns: []Column[domain.PhoneNumber]{
	textColumn("TFN", true, func(p *domain.PhoneNumber) *string { return &p.TFN }),
	textColumn("Area Code", false, func(p *domain.PhoneNumber) *string { return &p.AreaCode }),
	textColumn("State", false, func(p *domain.PhoneNumber) *string { return &p.State }),
	textColumn("Region", false, func(p *domain.PhoneNumber) *string { return &p.Region }),
	flagColumn("Top 15 Area Code", func(p *domain.PhoneNumber) *bool { return &p.Top15AreaCode }),
	textColumn("AT&T", false, func(p *domain.PhoneNumber) *string { return &p.ATT }),
	flagColumn("AT&T Branded", func(p *domain.PhoneNumber) *bool { return &p.ATTBranded }),
	textColumn("Tmobile", false, func(p *domain.PhoneNumber) *string { return &p.TMobile }),
	flagColumn("Tmobile Branded", func(p *domain.PhoneNumber) *bool { return &p.TMobileBranded }),
	textColumn("Verizon", false, func(p *domain.PhoneNumber) *string { return &p.Verizon }),
	flagColumn("Verizon Branded", func(p *domain.PhoneNumber) *bool { return &p.VerizonBranded }),
	textColumn("Business Category", false, func(p *domain.PhoneNumber) *string { return &p.BusinessCategory }),
}}

// ExportMapping renders joined phone rows with the upload layout, optionally
// prefixed by the owning company name.
func ExportMapping(withCompany bool) Mapping[domain.PhoneView] {
	cols := make([]Column[domain.PhoneView], 0, len(PhoneMapping.Columns)+1)
	if withCompany {
		cols = append(cols, Column[domain.PhoneView]{
			Header: CompanyHeader,
			Set: func(v *domain.PhoneView, s string) error {
				v.CompanyName = s
				return nil
			},
			Get: func(v *domain.PhoneView) string { return v.CompanyName },
		})
	}
	for _, c := range PhoneMapping.Columns {
		c := c
		cols = append(cols, Column[domain.PhoneView]{
			Header:   c.Header,
			Required: c.Required,
			Set:      func(v *domain.PhoneView, s string) error { return c.Set(&v.PhoneNumber, s) },
			Get:      func(v *domain.PhoneView) string { return c.Get(&v.PhoneNumber) },
		})
	}
	return Mapping[domain.PhoneView]{Columns: cols}
}

// FirstColumn returns the non-blank values of the first column, skipping the
// header row.
func FirstColumn(rows [][]string) []string {
	if len(rows) < 2 {
		return nil
	}
	out := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(row[0]); v != "" {
			out = append(out, v)
		}
	}
	return out
}
