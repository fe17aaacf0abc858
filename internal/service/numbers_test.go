package service_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/callpurity/callpurity-api/internal/bulk"
	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/service"
)

const csvHeader = "TFN,Area Code,State,Region,Top 15 Area Code,AT&T,AT&T Branded,Tmobile,Tmobile Branded,Verizon,Verizon Branded,Business Category\n"

func csvFile(name string, rows ...string) *service.FileUpload {
	body := csvHeader + strings.Join(rows, "\n") + "\n"
	return &service.FileUpload{Name: name, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func ftcFile(numbers ...string) *service.FileUpload {
	body := "Number\n" + strings.Join(numbers, "\n") + "\n"
	return &service.FileUpload{Name: "ftc.csv", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func upload(t *testing.T, e *env, clientID string, rows ...string) *domain.UploadResult {
	t.Helper()
	res, err := e.numbers.Upload(context.Background(), admin, clientID, csvFile("numbers.csv", rows...))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return res
}

func TestUpload_Success(t *testing.T) {
	e := newEnv(t)
	acme, _ := e.seedClient(t, "Acme")

	res := upload(t, e, acme,
		"8005550001,512,TX,South,Y,AT&T,Y,T-Mobile,N,Verizon,n,Retail",
		"8005550002,214,TX,South,N,,N,,N,,N,Retail",
	)
	if res.Message != "Data was successfully uploaded" || len(res.IDs) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	p, _ := e.store.Phones().GetPhone(context.Background(), res.IDs[0])
	if p == nil || p.CompanyID != acme || p.TFN != "8005550001" {
		t.Fatalf("unexpected phone %+v", p)
	}
	if !p.Top15AreaCode || !p.ATTBranded || p.TMobileBranded || p.VerizonBranded {
		t.Errorf("unexpected flags %+v", p)
	}
	if got := e.metrics.Snapshot().UploadedRows; got != 2 {
		t.Errorf("expected 2 uploaded rows, got %v", got)
	}
	if got := e.events.subjects(); len(got) != 1 || got[0] != domain.SubjectNumbersReplaced {
		t.Errorf("unexpected events %v", got)
	}
}

func TestUpload_ReplacesPriorSet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, _ := e.seedClient(t, "Acme")
	globex, _ := e.seedClient(t, "Globex")

	upload(t, e, acme, "8005550001,,,,N,,N,,N,,N,", "8005550002,,,,N,,N,,N,,N,")
	upload(t, e, globex, "8005550009,,,,N,,N,,N,,N,")
	upload(t, e, acme, "8005550002,,,,N,,N,,N,,N,", "8005550003,,,,N,,N,,N,,N,")

	found, _ := e.store.Phones().FindPhonesByTFN(ctx, []string{"8005550001"})
	if len(found) != 0 {
		t.Error("number only in the old file must be gone")
	}
	all, _ := e.numbers.All(ctx, admin, acme)
	if len(all.Items) != 2 {
		t.Errorf("expected 2 numbers after re-upload, got %d", len(all.Items))
	}
	other, _ := e.numbers.All(ctx, admin, globex)
	if len(other.Items) != 1 {
		t.Errorf("other client's numbers must be untouched, got %d", len(other.Items))
	}
}

func TestUpload_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, acmeUser := e.seedClient(t, "Acme")

	_, err := e.numbers.Upload(ctx, contact(acmeUser), acme, csvFile("n.csv"))
	assertErrType[*domain.ErrForbidden](t, err)

	_, err = e.numbers.Upload(ctx, admin, "123", csvFile("n.csv"))
	if v := assertErrType[*domain.ErrValidation](t, err); v.Error() != domain.MsgIncorrectID {
		t.Errorf("unexpected message %q", v.Error())
	}

	_, err = e.numbers.Upload(ctx, admin, acme, nil)
	if v := assertErrType[*domain.ErrValidation](t, err); v.Error() != domain.MsgFileRequired {
		t.Errorf("unexpected message %q", v.Error())
	}

	_, err = e.numbers.Upload(ctx, admin, acme, csvFile("n.pdf"))
	assertErrType[*domain.ErrValidation](t, err)

	big := csvFile("n.csv")
	big.Size = 2 << 20
	_, err = e.numbers.Upload(ctx, admin, acme, big)
	if v := assertErrType[*domain.ErrValidation](t, err); v.Error() != "File size cannot be greater than 1.0 MiB" {
		t.Errorf("unexpected message %q", v.Error())
	}

	_, err = e.numbers.Upload(ctx, admin, "6f1c2f55-3f5e-4d8a-9c3b-0a1b2c3d4e5f", csvFile("n.csv", "8005550001,,,,N,,N,,N,,N,"))
	assertErrType[*domain.ErrNotFound](t, err)

	_, err = e.numbers.Upload(ctx, admin, acme, csvFile("n.csv", "8005550001,,,,N,,N,,N,,N,", ",512,,,N,,N,,N,,N,"))
	if v := assertErrType[*domain.ErrValidation](t, err); v.Error() != "Row 3: TFN is required" {
		t.Errorf("unexpected message %q", v.Error())
	}
}

func TestCrossCheck(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, _ := e.seedClient(t, "Acme")
	globex, _ := e.seedClient(t, "Globex")
	upload(t, e, acme, "A,,,,N,,N,,N,,N,", "D,,,,N,,N,,N,,N,")
	upload(t, e, globex, "C,,,,N,,N,,N,,N,")

	report, err := e.numbers.CrossCheck(ctx, admin, ftcFile("A", "B", "", "C"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Total != 3 || report.Flagged != 2 {
		t.Errorf("expected total 3 / flagged 2, got %d / %d", report.Total, report.Flagged)
	}
	if len(report.Clients) != 2 {
		t.Fatalf("expected 2 clients, got %+v", report.Clients)
	}
	if report.Clients[0].CompanyName != "Acme" || report.Clients[1].CompanyName != "Globex" {
		t.Errorf("clients must be sorted by name: %+v", report.Clients)
	}
	if got := report.Clients[0].Numbers; len(got) != 1 || got[0] != "A" {
		t.Errorf("unexpected numbers for Acme %v", got)
	}
	for _, c := range report.Clients {
		for _, n := range c.Numbers {
			if n == "B" {
				t.Error("unmatched number must not appear")
			}
		}
	}

	flagged, _ := e.store.Phones().FindPhonesByTFN(ctx, []string{"A", "D"})
	for _, p := range flagged {
		switch p.TFN {
		case "A":
			if !p.FTCFlagged || p.FTCFlaggedAt == nil {
				t.Errorf("A should be flagged: %+v", p)
			}
		case "D":
			if p.FTCFlagged {
				t.Errorf("D should not be flagged: %+v", p)
			}
		}
	}
	if got := e.metrics.Snapshot().FTCFlagged; got != 2 {
		t.Errorf("expected 2 flagged in metrics, got %v", got)
	}
}

func TestCrossCheck_CountsDuplicates(t *testing.T) {
	e := newEnv(t)
	acme, _ := e.seedClient(t, "Acme")
	upload(t, e, acme, "A,,,,N,,N,,N,,N,")

	report, err := e.numbers.CrossCheck(context.Background(), admin, ftcFile("A", "A", "X"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Total != 3 || report.Flagged != 1 {
		t.Errorf("expected total 3 / flagged 1, got %d / %d", report.Total, report.Flagged)
	}
}

func TestCrossCheck_OrphanedNumbersLeftOutOfCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, _ := e.seedClient(t, "Acme")
	upload(t, e, acme, "A,,,,N,,N,,N,,N,")
	if err := e.store.Phones().ReplacePhones(ctx, "gone", []domain.PhoneNumber{
		{ID: "orphan", CompanyID: "gone", TFN: "O"},
	}); err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	report, err := e.numbers.CrossCheck(ctx, admin, ftcFile("A", "O"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Total != 2 || report.Flagged != 1 || len(report.Clients) != 1 {
		t.Errorf("expected total 2 / flagged 1 / 1 client, got %d / %d / %+v", report.Total, report.Flagged, report.Clients)
	}
	orphan, _ := e.store.Phones().GetPhone(ctx, "orphan")
	if orphan == nil || !orphan.FTCFlagged {
		t.Errorf("orphaned number is still flagged in the store: %+v", orphan)
	}
}

func TestListNumbers_ScopeAndBranded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, acmeUser := e.seedClient(t, "Acme")
	globex, _ := e.seedClient(t, "Globex")
	upload(t, e, acme, "8001,,,,N,,Y,,N,,N,", "8002,,,,N,,N,,N,,N,")
	upload(t, e, globex, "8003,,,,N,,N,,N,,Y,")

	all, err := e.numbers.List(ctx, admin, domain.ListParams{Limit: 10}, service.PhoneQuery{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if all.Total != 3 {
		t.Errorf("expected 3, got %d", all.Total)
	}

	own, _ := e.numbers.List(ctx, contact(acmeUser), domain.ListParams{Limit: 10}, service.PhoneQuery{})
	if own.Total != 2 {
		t.Errorf("contact should see 2, got %d", own.Total)
	}
	for _, it := range own.Items {
		if it.CompanyName != "Acme" || it.Status != domain.ClientActive {
			t.Errorf("unexpected join %+v", it)
		}
	}

	yes, no := true, false
	branded, _ := e.numbers.List(ctx, admin, domain.ListParams{Limit: 10}, service.PhoneQuery{Branded: &yes})
	plain, _ := e.numbers.List(ctx, admin, domain.ListParams{Limit: 10}, service.PhoneQuery{Branded: &no})
	if branded.Total != 2 || plain.Total != 1 || plain.Items[0].TFN != "8002" {
		t.Errorf("unexpected branded split %d / %d", branded.Total, plain.Total)
	}

	narrowed, _ := e.numbers.List(ctx, contact(acmeUser), domain.ListParams{Limit: 10}, service.PhoneQuery{CompanyID: globex})
	if narrowed.Total != 0 {
		t.Errorf("companyId must not widen the scope, got %d", narrowed.Total)
	}

	_, err = e.numbers.List(ctx, admin, domain.ListParams{Limit: 10}, service.PhoneQuery{CompanyID: "bogus"})
	assertErrType[*domain.ErrValidation](t, err)
}

func TestDownload_RoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, _ := e.seedClient(t, "Acme")
	rows := []string{
		"8005550001,512,TX,South,Y,AT&T,Y,T-Mobile,N,Verizon,N,Retail",
		"8005550002,214,TX,North,N,,N,TMO,Y,,Y,Dental",
	}
	upload(t, e, acme, rows...)

	for _, format := range []bulk.Format{bulk.FormatCSV, bulk.FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			exp, err := e.numbers.Download(ctx, admin, acme, format)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if exp.Filename != "numbers."+string(format) {
				t.Errorf("unexpected filename %q", exp.Filename)
			}

			var buf bytes.Buffer
			if err := bulk.WriteTable(&buf, exp.Format, exp.Rows); err != nil {
				t.Fatal(err)
			}
			read, err := bulk.ReadTable(&buf, exp.Format)
			if err != nil {
				t.Fatal(err)
			}
			again, err := bulk.PhoneMapping.Decode(read, nil)
			if err != nil {
				t.Fatal(err)
			}

			before, _ := e.numbers.All(ctx, admin, acme)
			if len(again) != len(before.Items) {
				t.Fatalf("expected %d rows, got %d", len(before.Items), len(again))
			}
			for i, got := range again {
				want := before.Items[i].PhoneNumber
				want.ID, want.CompanyID, want.CreatedAt, want.UpdatedAt = "", "", got.CreatedAt, got.UpdatedAt
				if got != want {
					t.Errorf("row %d: got %+v, want %+v", i, got, want)
				}
			}
		})
	}
}

func TestDownload_CompanyColumn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, acmeUser := e.seedClient(t, "Acme")
	upload(t, e, acme, "8001,,,,N,,N,,N,,N,")

	exp, _ := e.numbers.Download(ctx, admin, "", bulk.FormatCSV)
	if exp.Rows[0][0] != bulk.CompanyHeader || exp.Rows[1][0] != "Acme" {
		t.Errorf("expected company column, got %v", exp.Rows)
	}

	own, _ := e.numbers.Download(ctx, contact(acmeUser), "", bulk.FormatCSV)
	if own.Rows[0][0] != "TFN" || len(own.Rows) != 2 {
		t.Errorf("contact export should use the upload layout, got %v", own.Rows)
	}
}

func TestLookup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, acmeUser := e.seedClient(t, "Acme")
	_, globexUser := e.seedClient(t, "Globex")
	upload(t, e, acme, "8001,,,,N,,N,,N,,N,")

	v, err := e.numbers.Lookup(ctx, contact(acmeUser), "8001")
	if err != nil || v.CompanyName != "Acme" {
		t.Fatalf("unexpected lookup %+v / %v", v, err)
	}

	_, err = e.numbers.Lookup(ctx, contact(globexUser), "8001")
	assertErrType[*domain.ErrNotFound](t, err)
}

func TestPatchAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, acmeUser := e.seedClient(t, "Acme")
	_, globexUser := e.seedClient(t, "Globex")
	id := upload(t, e, acme, "8001,,,,N,,N,,N,,N,").IDs[0]

	p, err := e.numbers.Patch(ctx, contact(acmeUser), id, map[string]any{"region": "West", "verizonBranded": true, "ftcFlagged": true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.Region != "West" || !p.VerizonBranded || !p.FTCFlagged || p.FTCFlaggedAt == nil {
		t.Errorf("unexpected patch result %+v", p)
	}

	p, _ = e.numbers.Patch(ctx, admin, id, map[string]any{"ftcFlagged": false})
	if p.FTCFlagged || p.FTCFlaggedAt != nil {
		t.Errorf("clearing the flag clears its timestamp: %+v", p)
	}

	_, err = e.numbers.Patch(ctx, contact(acmeUser), id, map[string]any{"attBranded": "Y"})
	assertErrType[*domain.ErrValidation](t, err)

	_, err = e.numbers.Patch(ctx, contact(acmeUser), id, map[string]any{"tfn": "9999"})
	assertErrType[*domain.ErrValidation](t, err)

	_, err = e.numbers.Patch(ctx, contact(globexUser), id, map[string]any{"region": "East"})
	assertErrType[*domain.ErrForbidden](t, err)

	_, err = e.numbers.Delete(ctx, contact(globexUser), id)
	assertErrType[*domain.ErrForbidden](t, err)

	resp, err := e.numbers.Delete(ctx, contact(acmeUser), id)
	if err != nil || resp.Message != "Number was successfully deleted" {
		t.Fatalf("unexpected delete %+v / %v", resp, err)
	}

	_, err = e.numbers.Delete(ctx, admin, id)
	assertErrType[*domain.ErrNotFound](t, err)
}
