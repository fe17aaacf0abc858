package bulk

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/callpurity/callpurity-api/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Format is a tabular file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Numbers"

// FormatFromName picks the format by file extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", &domain.ErrValidation{Field: "file", Message: "Unsupported file format"}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// ReadTable reads all rows of r.
func ReadTable(r io.Reader, f Format) ([][]string, error) {
	switch f {
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, &domain.ErrValidation{Field: "file", Message: fmt.Sprintf("Malformed CSV: %v", err)}
		}
		return rows, nil
	case FormatXLSX:
		x, err := excelize.OpenReader(r)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "file", Message: "Malformed spreadsheet"}
		}
		defer x.Close()

		name := x.GetSheetName(0)
		if name == "" {
			return nil, &domain.ErrValidation{Field: "file", Message: "Spreadsheet has no sheets"}
		}
		rows, err := x.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unknown table format %q", f)
}

// WriteTable writes rows to w. The first row is styled as a header in xlsx.
func WriteTable(w io.Writer, f Format, rows [][]string) error {
	switch f {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	case FormatXLSX:
		return writeXLSX(w, rows)
	}
	return fmt.Errorf("unknown table format %q", f)
}

func writeXLSX(w io.Writer, rows [][]string) error {
	x := excelize.NewFile()
	defer x.Close()

	index, err := x.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	x.SetActiveSheet(index)
	if err := x.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := x.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for r, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := x.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := x.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	if err := x.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
