// Package worker mirrors stored statement files to an external spreadsheet,
// driven by AMQP messages with a periodic database sweep as backup.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finsight/internal/amqp"
	"finsight/internal/core"
	"finsight/internal/sheets"
	"finsight/internal/store"
)

type SyncWorker struct {
	storage   *store.SQLite
	exporter  sheets.FileExporter
	batchSize int
}

func NewSyncWorker(storage *store.SQLite, exporter sheets.FileExporter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleMessage dispatches one queue message by type.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.FileMessage) error {
	switch msg.Type {
	case amqp.TypeFileSync:
		return w.handleSync(ctx, msg)
	case amqp.TypeFileDelete:
		return w.handleDelete(ctx, msg)
	default:
		slog.WarnContext(ctx, "Ignoring message with unknown type", "type", msg.Type)
		return nil
	}
}

func (w *SyncWorker) handleSync(ctx context.Context, msg *amqp.FileMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"path", msg.Path,
		"filename", msg.Filename)

	id, file, txs, err := w.storage.FileByPath(ctx, msg.Path)
	if err != nil {
		return fmt.Errorf("load file from storage: %w", err)
	}
	return w.export(ctx, id, file, txs)
}

func (w *SyncWorker) handleDelete(ctx context.Context, msg *amqp.FileMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "filename", msg.Filename)

	if err := w.exporter.RemoveFile(ctx, msg.Filename); err != nil {
		return fmt.Errorf("remove file from export: %w", err)
	}
	slog.InfoContext(ctx, "Removed exported file", "filename", msg.Filename)
	return nil
}

// ProcessPendingFiles sweeps files that were never exported, a backup for
// lost queue messages.
func (w *SyncWorker) ProcessPendingFiles(ctx context.Context) error {
	pending, err := w.storage.PendingSyncFiles(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending files: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending files", "count", len(pending))
	for _, p := range pending {
		id, file, txs, err := w.storage.FileByPath(ctx, p.Path)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending file", "path", p.Path, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}
		if err := w.export(ctx, id, file, txs); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending file", "path", p.Path, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains a larger pending backlog once at worker startup,
// recovering from downtime or missed messages.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingSyncFiles(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending files for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending files found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending files on startup, processing...",
		"count", len(pending))

	synced, failed := 0, 0
	for _, p := range pending {
		id, file, txs, err := w.storage.FileByPath(ctx, p.Path)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load file for startup sync",
				"path", p.Path, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			failed++
			continue
		}
		if err := w.export(ctx, id, file, txs); err != nil {
			slog.ErrorContext(ctx, "Failed to export during startup",
				"path", p.Path, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) export(ctx context.Context, id int64, file core.UploadedFile, txs []core.Transaction) error {
	if err := w.exporter.ExportFile(ctx, file, txs); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("export file: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The export itself worked; log and keep going.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Exported file",
		"id", id,
		"filename", file.Filename,
		"transactions", len(txs))
	return nil
}
