package bulk_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/callpurity/callpurity-api/internal/bulk"
	"github.com/callpurity/callpurity-api/internal/domain"
)

const uploadCSV = `TFN,Area Code,State,Region,Top 15 Area Code,AT&T,AT&T Branded,Tmobile,Tmobile Branded,Verizon,Verizon Branded,Business Category
8005550001,212,NY,Northeast,Y,AT&T,Y,T-Mobile,N,Verizon,n,Retail
8005550002,310,CA,West,N,,N,,,Verizon,Y,Healthcare
`

func decode(t *testing.T, data string) []domain.PhoneNumber {
	t.Helper()
	rows, err := bulk.ReadTable(strings.NewReader(data), bulk.FormatCSV)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	phones, err := bulk.PhoneMapping.Decode(rows, func(p *domain.PhoneNumber) { p.CompanyID = "client-1" })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return phones
}

func TestDecode_MapsColumnsAndFlags(t *testing.T) {
	phones := decode(t, uploadCSV)
	if len(phones) != 2 {
		t.Fatalf("expected 2 phones, got %d", len(phones))
	}

	p := phones[0]
	if p.TFN != "8005550001" || p.AreaCode != "212" || p.Region != "Northeast" || p.BusinessCategory != "Retail" {
		t.Errorf("unexpected text fields: %+v", p)
	}
	if !p.Top15AreaCode || !p.ATTBranded || p.TMobileBranded || p.VerizonBranded {
		t.Errorf("unexpected flags: %+v", p)
	}
	if p.CompanyID != "client-1" || phones[1].CompanyID != "client-1" {
		t.Error("expected constant company id on every row")
	}
	if phones[1].TMobileBranded {
		t.Error("expected empty flag cell to decode as false")
	}
	if !phones[1].VerizonBranded {
		t.Error("expected Y to decode as true")
	}
}

func TestDecode_RejectsRowWithoutTFN(t *testing.T) {
	data := "TFN,State\n8005550001,NY\n,CA\n"
	rows, _ := bulk.ReadTable(strings.NewReader(data), bulk.FormatCSV)

	_, err := bulk.PhoneMapping.Decode(rows, nil)
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Message != "Row 3: TFN is required" {
		t.Errorf("unexpected message %q", ve.Message)
	}
}

func TestDecode_RejectsMissingTFNColumn(t *testing.T) {
	rows := [][]string{{"State"}, {"NY"}}
	if _, err := bulk.PhoneMapping.Decode(rows, nil); err == nil {
		t.Fatal("expected error for missing TFN column")
	}
}

func TestDecode_SkipsBlankRowsAndBOM(t *testing.T) {
	data := "\ufeffTFN,State\n8005550001,NY\n,\n"
	phones := decode(t, data)
	if len(phones) != 1 || phones[0].TFN != "8005550001" {
		t.Fatalf("unexpected phones: %+v", phones)
	}
}

func TestYesNo(t *testing.T) {
	cases := map[string]bool{"Y": true, "yes": true, "X": true, "N": false, "n": false, " N ": false, "": false, "   ": false}
	for in, want := range cases {
		if got := bulk.YesNo(in); got != want {
			t.Errorf("YesNo(%q) = %v, want %v", in, got, want)
		}
	}
}

func roundTrip(t *testing.T, format bulk.Format) {
	t.Helper()
	original := decode(t, uploadCSV)

	views := make([]domain.PhoneView, len(original))
	for i, p := range original {
		views[i] = domain.PhoneView{PhoneNumber: p}
	}

	var buf bytes.Buffer
	if err := bulk.WriteTable(&buf, format, bulk.ExportMapping(false).Encode(views)); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := bulk.ReadTable(&buf, format)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	again, err := bulk.PhoneMapping.Decode(rows, func(p *domain.PhoneNumber) { p.CompanyID = "client-1" })
	if err != nil {
		t.Fatalf("decode back: %v", err)
	}
	if !reflect.DeepEqual(original, again) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", again, original)
	}
}

func TestRoundTrip_CSV(t *testing.T) {
	roundTrip(t, bulk.FormatCSV)
}

func TestRoundTrip_XLSX(t *testing.T) {
	roundTrip(t, bulk.FormatXLSX)
}

func TestExportMapping_WithCompany(t *testing.T) {
	rows := bulk.ExportMapping(true).Encode([]domain.PhoneView{{
		PhoneNumber: domain.PhoneNumber{TFN: "8005550001", ATTBranded: true},
		CompanyName: "Acme",
	}})
	if rows[0][0] != bulk.CompanyHeader || rows[1][0] != "Acme" {
		t.Errorf("expected company column first, got %v", rows)
	}
	if rows[1][1] != "8005550001" || rows[1][7] != "Y" || rows[1][5] != "N" {
		t.Errorf("unexpected row %v", rows[1])
	}
}

func TestFirstColumn(t *testing.T) {
	rows := [][]string{{"Number"}, {"8005550001"}, {" "}, {}, {"8005550002", "extra"}}
	got := bulk.FirstColumn(rows)
	want := []string{"8005550001", "8005550002"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFormatFromName(t *testing.T) {
	if f, err := bulk.FormatFromName("a.XLSX"); err != nil || f != bulk.FormatXLSX {
		t.Errorf("expected xlsx, got %v %v", f, err)
	}
	if _, err := bulk.FormatFromName("a.doc"); err == nil {
		t.Error("expected unsupported format error")
	}
}
