package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finsight/internal/core"
	"finsight/internal/ingest"

	_ "modernc.org/sqlite"
)

// Sync states a stored file moves through while the worker exports it.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// PendingFile is the minimal record the sync worker needs per queued file.
type PendingFile struct {
	ID       int64
	Filename string
	Path     string
}

// SQLite is the durable backend. Raw bytes, file metadata and parsed
// transactions live in one database file; sqlite's own locking serializes
// concurrent mutations.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) Add(ctx context.Context, filename string, data []byte) (core.UploadedFile, []ingest.RowError, error) {
	txs, skipped, err := ingest.ProcessFile(data)
	if err != nil {
		return core.UploadedFile{}, nil, &IngestError{Filename: filename, Err: err}
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.UploadedFile{}, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	uploadedAt := time.Now().UTC()
	res, err := dbtx.ExecContext(ctx,
		`INSERT INTO files (filename, path, uploaded_at, raw_content) VALUES (?, '', ?, ?)`,
		filename, uploadedAt, data)
	if err != nil {
		return core.UploadedFile{}, nil, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.UploadedFile{}, nil, fmt.Errorf("file id: %w", err)
	}
	path := fmt.Sprintf("upload-%06d", id)
	if _, err := dbtx.ExecContext(ctx, `UPDATE files SET path = ? WHERE id = ?`, path, id); err != nil {
		return core.UploadedFile{}, nil, fmt.Errorf("set file path: %w", err)
	}

	for seq, t := range txs {
		_, err := dbtx.ExecContext(ctx,
			`INSERT INTO transactions (file_id, seq, date, description, debit_cents, credit_cents)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, seq, t.Date.Format("2006-01-02"), t.Description,
			nullCents(t.Debit), nullCents(t.Credit))
		if err != nil {
			return core.UploadedFile{}, nil, fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return core.UploadedFile{}, nil, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "File saved to sqlite",
		"filename", filename,
		"path", path,
		"transactions", len(txs),
		"skipped_rows", len(skipped))

	return core.UploadedFile{Filename: filename, Path: path, UploadedAt: uploadedAt}, skipped, nil
}

func (s *SQLite) List(ctx context.Context) ([]core.UploadedFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, path, uploaded_at FROM files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []core.UploadedFile
	for rows.Next() {
		var f core.UploadedFile
		if err := rows.Scan(&f.Filename, &f.Path, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, filename string) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	var id int64
	err = dbtx.QueryRowContext(ctx,
		`SELECT id FROM files WHERE filename = ? ORDER BY id LIMIT 1`, filename).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete %s: %w", filename, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find file: %w", err)
	}

	if err := deleteFileRow(ctx, dbtx, id); err != nil {
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "File deleted from sqlite", "filename", filename)
	return nil
}

// DeleteByPath removes exactly the file stored under the unique path key.
func (s *SQLite) DeleteByPath(ctx context.Context, path string) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	var id int64
	err = dbtx.QueryRowContext(ctx,
		`SELECT id FROM files WHERE path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("path %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find path: %w", err)
	}

	if err := deleteFileRow(ctx, dbtx, id); err != nil {
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "File deleted from sqlite", "path", path)
	return nil
}

func deleteFileRow(ctx context.Context, dbtx *sql.Tx, id int64) error {
	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions WHERE file_id = ?`, id); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	if _, err := dbtx.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *SQLite) TransactionsFor(ctx context.Context, paths []string) ([]core.Transaction, error) {
	for _, path := range paths {
		var id int64
		err := s.db.QueryRowContext(ctx, `SELECT id FROM files WHERE path = ?`, path).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("path %s: %w", path, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("find path: %w", err)
		}
	}

	// Selection is validated; read in file-list order regardless of the
	// order the paths were given in.
	query := `SELECT t.date, t.description, t.debit_cents, t.credit_cents
	          FROM transactions t JOIN files f ON f.id = t.file_id
	          WHERE f.path IN (` + placeholders(len(paths)) + `)
	          ORDER BY f.id, t.seq`
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *SQLite) AllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.date, t.description, t.debit_cents, t.credit_cents
		 FROM transactions t JOIN files f ON f.id = t.file_id
		 ORDER BY f.id, t.seq`)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// PendingSyncFiles returns files the worker has not exported yet, oldest
// first.
func (s *SQLite) PendingSyncFiles(ctx context.Context, limit int) ([]PendingFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, path FROM files WHERE sync_status = ? ORDER BY id LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("pending sync files: %w", err)
	}
	defer rows.Close()

	var pending []PendingFile
	for rows.Next() {
		var p PendingFile
		if err := rows.Scan(&p.ID, &p.Filename, &p.Path); err != nil {
			return nil, fmt.Errorf("scan pending file: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// FileByPath loads one file's row id, metadata and transactions for export.
func (s *SQLite) FileByPath(ctx context.Context, path string) (int64, core.UploadedFile, []core.Transaction, error) {
	var (
		id int64
		f  core.UploadedFile
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, path, uploaded_at FROM files WHERE path = ?`, path).
		Scan(&id, &f.Filename, &f.Path, &f.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.UploadedFile{}, nil, fmt.Errorf("path %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return 0, core.UploadedFile{}, nil, fmt.Errorf("find path: %w", err)
	}

	txs, err := s.TransactionsFor(ctx, []string{path})
	if err != nil {
		return 0, core.UploadedFile{}, nil, err
	}
	return id, f, txs, nil
}

func (s *SQLite) MarkSynced(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE files SET sync_status = ? WHERE id = ?`, SyncDone, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "File marked as synced", "id", id)
	return nil
}

func (s *SQLite) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE files SET sync_status = ?, sync_attempts = sync_attempts + 1 WHERE id = ?`,
		SyncError, id); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "File marked with sync error", "id", id)
	return nil
}

func nullCents(m *core.Money) any {
	if m == nil {
		return nil
	}
	return m.Cents
}

func placeholders(n int) string {
	if n == 0 {
		return "''" // matches nothing, keeps the query valid
	}
	s := "?"
	for i := 1; i < n; i++ {
		s += ", ?"
	}
	return s
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		t      core.Transaction
		date   string
		debit  sql.NullInt64
		credit sql.NullInt64
	)
	if err := rows.Scan(&date, &t.Description, &debit, &credit); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	t.Date = parsed
	if debit.Valid {
		t.Debit = &core.Money{Cents: debit.Int64}
	}
	if credit.Valid {
		t.Credit = &core.Money{Cents: credit.Int64}
	}
	return t, nil
}
