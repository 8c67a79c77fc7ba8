// Package services orchestrates the file store, the aggregation engine and
// the optional AMQP sync queue behind one transaction-ingestion facade.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"finsight/internal/amqp"
	"finsight/internal/analyze"
	"finsight/internal/core"
	"finsight/internal/ingest"
	"finsight/internal/store"
)

// UploadFile is one named payload in an upload request.
type UploadFile struct {
	Name string
	Data []byte
}

// UploadDiagnostics reports the rows skipped while ingesting one file.
type UploadDiagnostics struct {
	Filename string
	Skipped  []ingest.RowError
}

// IngestService persists files locally first and publishes sync messages
// best-effort; a broker outage never fails a request.
type IngestService struct {
	store      store.FileStore
	engine     *analyze.Engine
	amqpClient *amqp.Client

	// excludeInvestments is the service-wide aggregation policy. Transfers
	// to brokerage accounts are not spending, so it defaults to on.
	excludeInvestments bool
}

type Option func(*IngestService)

// WithAMQP attaches a sync-queue client. Nil is allowed and means no
// publishing.
func WithAMQP(client *amqp.Client) Option {
	return func(s *IngestService) { s.amqpClient = client }
}

// WithInvestmentsIncluded turns off the investment-transfer filter.
func WithInvestmentsIncluded() Option {
	return func(s *IngestService) { s.excludeInvestments = false }
}

func NewIngestService(st store.FileStore, engine *analyze.Engine, opts ...Option) *IngestService {
	s := &IngestService{
		store:              st,
		engine:             engine,
		excludeInvestments: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload ingests every payload, then re-aggregates over all files now in
// the store. Any unparseable file rejects the whole call: files already
// added by this call are rolled back so a failed upload leaves the store
// as it was.
func (s *IngestService) Upload(ctx context.Context, files []UploadFile) (core.AnalysisResult, []UploadDiagnostics, error) {
	if len(files) == 0 {
		return core.AnalysisResult{}, nil, errors.New("no files in upload")
	}

	var (
		added []core.UploadedFile
		diags []UploadDiagnostics
	)
	for _, f := range files {
		meta, skipped, err := s.store.Add(ctx, f.Name, f.Data)
		if err != nil {
			s.rollback(ctx, added)
			return core.AnalysisResult{}, nil, err
		}
		added = append(added, meta)
		if len(skipped) > 0 {
			diags = append(diags, UploadDiagnostics{Filename: f.Name, Skipped: skipped})
			slog.WarnContext(ctx, "Rows skipped during ingestion",
				"filename", f.Name,
				"skipped", len(skipped))
		}
	}

	for _, meta := range added {
		s.publishSync(ctx, meta)
	}

	txs, err := s.store.AllTransactions(ctx)
	if err != nil {
		return core.AnalysisResult{}, nil, fmt.Errorf("load transactions: %w", err)
	}
	result, err := s.aggregate(txs, core.Window{})
	if err != nil {
		return core.AnalysisResult{}, nil, err
	}
	return result, diags, nil
}

// ListFiles returns the stored files in upload order.
func (s *IngestService) ListFiles(ctx context.Context) ([]core.UploadedFile, error) {
	return s.store.List(ctx)
}

// DeleteFile removes a file by name. store.ErrNotFound when absent.
func (s *IngestService) DeleteFile(ctx context.Context, filename string) error {
	if err := s.store.Delete(ctx, filename); err != nil {
		return err
	}
	s.publishDelete(ctx, filename)
	return nil
}

// AnalyzeSelected aggregates exactly the selected files' transactions.
// store.ErrNotFound when any path is unknown; no partial result.
func (s *IngestService) AnalyzeSelected(ctx context.Context, paths []string, window core.Window) (core.AnalysisResult, error) {
	txs, err := s.store.TransactionsFor(ctx, paths)
	if err != nil {
		return core.AnalysisResult{}, err
	}
	return s.aggregate(txs, window)
}

// AnalyzeAll aggregates everything in the store.
func (s *IngestService) AnalyzeAll(ctx context.Context, window core.Window) (core.AnalysisResult, error) {
	txs, err := s.store.AllTransactions(ctx)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("load transactions: %w", err)
	}
	return s.aggregate(txs, window)
}

func (s *IngestService) aggregate(txs []core.Transaction, window core.Window) (core.AnalysisResult, error) {
	return s.engine.Aggregate(txs, window, analyze.Options{ExcludeInvestments: s.excludeInvestments})
}

// rollback targets path keys, not filenames: a batch may re-upload a name
// that already exists in the store, and only the copies added by this call
// must go.
func (s *IngestService) rollback(ctx context.Context, added []core.UploadedFile) {
	for _, meta := range added {
		if err := s.store.DeleteByPath(ctx, meta.Path); err != nil {
			slog.ErrorContext(ctx, "Failed to roll back file after rejected upload",
				"path", meta.Path,
				"error", err)
		}
	}
}

func (s *IngestService) publishSync(ctx context.Context, meta core.UploadedFile) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishFileSync(ctx, meta.Path, meta.Filename); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"filename", meta.Filename,
			"error", err)
	}
}

func (s *IngestService) publishDelete(ctx context.Context, filename string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishFileDelete(ctx, filename); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"filename", filename,
			"error", err)
	}
}

// Close releases the store and broker connections when they are closable.
func (s *IngestService) Close() error {
	var errs []error
	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ingest service: %v", errs)
	}
	return nil
}
