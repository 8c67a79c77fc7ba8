package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"finsight/internal/core"
	"finsight/internal/ingest"
)

type memoryEntry struct {
	meta core.UploadedFile
	txs  []core.Transaction
}

// Memory is the in-process backend. A coarse mutex serializes mutations
// against reads so a delete racing an analyze sees a consistent list. When
// constructed with a data directory it also keeps the raw bytes on disk.
type Memory struct {
	mu      sync.Mutex
	entries []memoryEntry
	seq     int
	dataDir string
}

// NewMemory returns an empty store. dataDir may be empty, in which case raw
// bytes are not retained.
func NewMemory(dataDir string) *Memory {
	return &Memory{dataDir: dataDir}
}

func (m *Memory) Add(ctx context.Context, filename string, data []byte) (core.UploadedFile, []ingest.RowError, error) {
	txs, skipped, err := ingest.ProcessFile(data)
	if err != nil {
		return core.UploadedFile{}, nil, &IngestError{Filename: filename, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	meta := core.UploadedFile{
		Filename:   filename,
		Path:       fmt.Sprintf("upload-%06d", m.seq),
		UploadedAt: time.Now().UTC(),
	}
	if m.dataDir != "" {
		if err := os.MkdirAll(m.dataDir, 0755); err != nil {
			return core.UploadedFile{}, nil, fmt.Errorf("create data directory: %w", err)
		}
		if err := os.WriteFile(m.rawPath(meta.Path), data, 0644); err != nil {
			return core.UploadedFile{}, nil, fmt.Errorf("write raw file: %w", err)
		}
	}
	m.entries = append(m.entries, memoryEntry{meta: meta, txs: txs})
	return meta, skipped, nil
}

func (m *Memory) List(ctx context.Context) ([]core.UploadedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files := make([]core.UploadedFile, len(m.entries))
	for i, e := range m.entries {
		files[i] = e.meta
	}
	return files, nil
}

func (m *Memory) Delete(ctx context.Context, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.meta.Filename != filename {
			continue
		}
		if m.dataDir != "" {
			if err := os.Remove(m.rawPath(e.meta.Path)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove raw file: %w", err)
			}
		}
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
		return nil
	}
	return ErrNotFound
}

func (m *Memory) DeleteByPath(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.meta.Path != path {
			continue
		}
		if m.dataDir != "" {
			if err := os.Remove(m.rawPath(path)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove raw file: %w", err)
			}
		}
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
		return nil
	}
	return fmt.Errorf("path %s: %w", path, ErrNotFound)
}

func (m *Memory) TransactionsFor(ctx context.Context, paths []string) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	selected := make(map[string]bool, len(paths))
	for _, p := range paths {
		selected[p] = true
	}
	var txs []core.Transaction
	for _, e := range m.entries {
		if !selected[e.meta.Path] {
			continue
		}
		delete(selected, e.meta.Path)
		txs = append(txs, e.txs...)
	}
	if len(selected) > 0 {
		for p := range selected {
			return nil, fmt.Errorf("path %s: %w", p, ErrNotFound)
		}
	}
	return txs, nil
}

func (m *Memory) AllTransactions(ctx context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var txs []core.Transaction
	for _, e := range m.entries {
		txs = append(txs, e.txs...)
	}
	return txs, nil
}

func (m *Memory) rawPath(path string) string {
	return filepath.Join(m.dataDir, path+".csv")
}
