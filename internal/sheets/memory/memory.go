// Package memory is an in-process FileExporter used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"finsight/internal/core"
	ports "finsight/internal/sheets"
)

type Export struct {
	File         core.UploadedFile
	Transactions []core.Transaction
}

type Exporter struct {
	mu      sync.Mutex
	exports map[string]Export // keyed by filename
}

var _ ports.FileExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{exports: make(map[string]Export)}
}

func (e *Exporter) ExportFile(ctx context.Context, file core.UploadedFile, txs []core.Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exports[file.Filename] = Export{File: file, Transactions: txs}
	return nil
}

func (e *Exporter) RemoveFile(ctx context.Context, filename string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.exports, filename)
	return nil
}

// Exported returns the export for filename, if present.
func (e *Exporter) Exported(filename string) (Export, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex, ok := e.exports[filename]
	return ex, ok
}

// Count returns how many files are currently exported.
func (e *Exporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.exports)
}
