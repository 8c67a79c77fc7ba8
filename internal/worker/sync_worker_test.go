package worker

import (
	"context"
	"path/filepath"
	"testing"

	"finsight/internal/amqp"
	"finsight/internal/sheets/memory"
	"finsight/internal/store"
)

func newSQLiteStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "finsight.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHandleSyncMessageExportsFile(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStore(t)
	exporter := memory.New()
	w := NewSyncWorker(storage, exporter, 10)

	data := []byte("Date,Description,Debit,Credit\n2024-01-05,SAFEWAY MARKET,50.00,\n2024-01-10,PAYROLL,,2000.00\n")
	meta, _, err := storage.Add(ctx, "january.csv", data)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	msg := amqp.NewFileSyncMessage(meta.Path, meta.Filename)
	if err := w.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	export, ok := exporter.Exported("january.csv")
	if !ok {
		t.Fatal("expected january.csv to be exported")
	}
	if len(export.Transactions) != 2 {
		t.Fatalf("expected 2 exported transactions, got %d", len(export.Transactions))
	}

	// Once exported, the file is no longer pending.
	pending, err := storage.PendingSyncFiles(ctx, 10)
	if err != nil {
		t.Fatalf("PendingSyncFiles: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending files, got %+v", pending)
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStore(t)
	exporter := memory.New()
	w := NewSyncWorker(storage, exporter, 10)

	data := []byte("Date,Description,Debit,Credit\n2024-01-05,SAFEWAY MARKET,50.00,\n")
	meta, _, err := storage.Add(ctx, "january.csv", data)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.HandleMessage(ctx, amqp.NewFileSyncMessage(meta.Path, meta.Filename)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if err := w.HandleMessage(ctx, amqp.NewFileDeleteMessage("january.csv")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if exporter.Count() != 0 {
		t.Fatalf("expected no exports left, got %d", exporter.Count())
	}
}

func TestHandleSyncMessageUnknownPath(t *testing.T) {
	ctx := context.Background()
	w := NewSyncWorker(newSQLiteStore(t), memory.New(), 10)

	if err := w.HandleMessage(ctx, amqp.NewFileSyncMessage("upload-999999", "ghost.csv")); err == nil {
		t.Fatal("expected an error for an unknown path")
	}
}

func TestStartupSyncCheckDrainsBacklog(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStore(t)
	exporter := memory.New()
	w := NewSyncWorker(storage, exporter, 2)

	files := map[string][]byte{
		"a.csv": []byte("Date,Description,Debit,Credit\n2024-01-01,SAFEWAY MARKET,10.00,\n"),
		"b.csv": []byte("Date,Description,Debit,Credit\n2024-01-02,UBER TRIP,20.00,\n"),
		"c.csv": []byte("Date,Description,Debit,Credit\n2024-01-03,PAYROLL,,30.00\n"),
	}
	for name, data := range files {
		if _, _, err := storage.Add(ctx, name, data); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if exporter.Count() != 3 {
		t.Fatalf("expected 3 exports, got %d", exporter.Count())
	}
	pending, err := storage.PendingSyncFiles(ctx, 10)
	if err != nil {
		t.Fatalf("PendingSyncFiles: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected an empty backlog, got %+v", pending)
	}
}
