package services

import (
	"context"
	"errors"
	"testing"

	"finsight/internal/analyze"
	"finsight/internal/core"
	"finsight/internal/store"
)

var (
	groceriesCSV = []byte("Date,Description,Debit,Credit\n2024-01-05,SAFEWAY MARKET,50.00,\n")
	payrollCSV   = []byte("Date,Description,Debit,Credit\n2024-01-10,PAYROLL,,2000.00\n")
)

func newService() *IngestService {
	return NewIngestService(store.NewMemory(""), analyze.NewDefault())
}

func TestUploadAggregatesWholeStore(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	if _, _, err := svc.Upload(ctx, []UploadFile{{Name: "groceries.csv", Data: groceriesCSV}}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// The second upload's result covers both files, not just the new one.
	result, diags, err := svc.Upload(ctx, []UploadFile{{Name: "payroll.csv", Data: payrollCSV}})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", diags)
	}
	if result.TotalIncome.Cents != 200000 || result.TotalExpenses.Cents != 5000 {
		t.Fatalf("expected totals over the whole store, got %+v", result)
	}
	if result.TotalBalance.Cents != 195000 {
		t.Fatalf("expected balance 195000, got %d", result.TotalBalance.Cents)
	}
	if result.CategoryBreakdown["Groceries"].Cents != 5000 {
		t.Fatalf("unexpected breakdown: %+v", result.CategoryBreakdown)
	}
}

func TestUploadRejectsBadFileAndRollsBack(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	if _, _, err := svc.Upload(ctx, []UploadFile{{Name: "groceries.csv", Data: groceriesCSV}}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	_, _, err := svc.Upload(ctx, []UploadFile{
		{Name: "payroll.csv", Data: payrollCSV},
		{Name: "garbage.bin", Data: []byte{0x00, 0x01}},
	})
	var ie *store.IngestError
	if !errors.As(err, &ie) || ie.Filename != "garbage.bin" {
		t.Fatalf("expected *IngestError naming garbage.bin, got %v", err)
	}

	// The good file from the rejected call must not survive.
	files, err := svc.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0].Filename != "groceries.csv" {
		t.Fatalf("rejected upload must leave the store as it was, got %+v", files)
	}
}

func TestUploadRollbackKeepsPreexistingDuplicateFilename(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	if _, _, err := svc.Upload(ctx, []UploadFile{{Name: "jan.csv", Data: groceriesCSV}}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	before, err := svc.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}

	// A rejected batch re-uploading the same filename must not touch the
	// copy that was already stored.
	_, _, err = svc.Upload(ctx, []UploadFile{
		{Name: "jan.csv", Data: payrollCSV},
		{Name: "garbage.bin", Data: []byte{0x00, 0x01}},
	})
	var ie *store.IngestError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *IngestError, got %v", err)
	}

	after, err := svc.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(after) != 1 || after[0].Path != before[0].Path {
		t.Fatalf("rejected upload changed the store: before=%+v after=%+v", before, after)
	}

	result, err := svc.AnalyzeAll(ctx, core.Window{})
	if err != nil {
		t.Fatalf("AnalyzeAll: %v", err)
	}
	if result.TotalExpenses.Cents != 5000 || result.TotalIncome.Cents != 0 {
		t.Fatalf("surviving file must hold the original rows, got %+v", result)
	}
}

func TestUploadReportsSkippedRows(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	data := []byte("Date,Description,Debit,Credit\nbad-date,BROKEN,5.00,\n2024-01-05,KEPT,7.00,\n")
	result, diags, err := svc.Upload(ctx, []UploadFile{{Name: "mixed.csv", Data: data}})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(diags) != 1 || diags[0].Filename != "mixed.csv" || len(diags[0].Skipped) != 1 {
		t.Fatalf("expected one diagnostic for mixed.csv, got %+v", diags)
	}
	if result.TotalExpenses.Cents != 700 {
		t.Fatalf("remaining rows must still aggregate, got %+v", result)
	}
}

func TestDeleteFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	before, err := svc.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}

	if _, _, err := svc.Upload(ctx, []UploadFile{{Name: "groceries.csv", Data: groceriesCSV}}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.DeleteFile(ctx, "groceries.csv"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	after, err := svc.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("upload then delete must restore the prior list, got %+v", after)
	}

	if err := svc.DeleteFile(ctx, "groceries.csv"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnalyzeSelected(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	if _, _, err := svc.Upload(ctx, []UploadFile{{Name: "groceries.csv", Data: groceriesCSV}}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, _, err := svc.Upload(ctx, []UploadFile{{Name: "payroll.csv", Data: payrollCSV}}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	files, err := svc.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}

	result, err := svc.AnalyzeSelected(ctx, []string{files[0].Path}, core.Window{})
	if err != nil {
		t.Fatalf("AnalyzeSelected: %v", err)
	}
	if result.TotalExpenses.Cents != 5000 || result.TotalIncome.Cents != 0 {
		t.Fatalf("selection must cover exactly the chosen files, got %+v", result)
	}

	// Same selection, no intervening mutation: identical result.
	again, err := svc.AnalyzeSelected(ctx, []string{files[0].Path}, core.Window{})
	if err != nil {
		t.Fatalf("AnalyzeSelected: %v", err)
	}
	if again.TotalBalance != result.TotalBalance || again.TotalExpenses != result.TotalExpenses {
		t.Fatalf("re-analysis must be idempotent: %+v vs %+v", again, result)
	}

	if _, err := svc.AnalyzeSelected(ctx, []string{"upload-999999"}, core.Window{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown path, got %v", err)
	}
}

func TestInvestmentPolicy(t *testing.T) {
	ctx := context.Background()
	data := []byte("Date,Description,Debit,Credit\n2024-01-05,WEALTHSIMPLE TRANSFER,500.00,\n2024-01-06,SAFEWAY MARKET,40.00,\n")

	excluding := newService()
	result, _, err := excluding.Upload(ctx, []UploadFile{{Name: "jan.csv", Data: data}})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.TotalExpenses.Cents != 4000 {
		t.Fatalf("investment transfers excluded by default, got %+v", result)
	}

	including := NewIngestService(store.NewMemory(""), analyze.NewDefault(), WithInvestmentsIncluded())
	result, _, err = including.Upload(ctx, []UploadFile{{Name: "jan.csv", Data: data}})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.TotalExpenses.Cents != 54000 {
		t.Fatalf("WithInvestmentsIncluded must count every row, got %+v", result)
	}
}
