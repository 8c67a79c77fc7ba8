// Package store keeps the bookkeeping of uploaded statement files and the
// transactions parsed from them. Two backends exist: an in-memory store for
// tests and small deployments, and a sqlite store for durable setups.
package store

import (
	"context"
	"errors"
	"fmt"

	"finsight/internal/core"
	"finsight/internal/ingest"
)

// ErrNotFound reports a filename or path identifier the store does not know.
var ErrNotFound = errors.New("file not found")

// IngestError wraps a file-level parse failure during Add, with the
// offending filename attached.
type IngestError struct {
	Filename string
	Err      error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Filename, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// FileStore is the port every backend implements. Mutations (Add, Delete)
// are serialized by the backend; reads never mutate.
type FileStore interface {
	// Add parses raw file content, persists the file and its transactions
	// under a fresh path key, and appends it to the file list. Row-level
	// skips come back as diagnostics alongside the stored file; a
	// file-level failure is an *IngestError wrapping the parse error.
	Add(ctx context.Context, filename string, data []byte) (core.UploadedFile, []ingest.RowError, error)

	// List returns every stored file's metadata in insertion order.
	List(ctx context.Context) ([]core.UploadedFile, error)

	// Delete removes the first stored file with the given filename, its
	// bytes and its transactions. ErrNotFound when no file matches.
	Delete(ctx context.Context, filename string) error

	// DeleteByPath removes the file with the given path key. Paths are
	// unique, so this targets exactly one file even when filenames repeat.
	// ErrNotFound when the path is unknown.
	DeleteByPath(ctx context.Context, path string) error

	// TransactionsFor concatenates the selected files' transactions in
	// file-list order, each file's rows in original order. ErrNotFound
	// when any path is unknown; no partial result.
	TransactionsFor(ctx context.Context, paths []string) ([]core.Transaction, error)

	// AllTransactions is TransactionsFor over every known path.
	AllTransactions(ctx context.Context) ([]core.Transaction, error)
}
