package sheets

import (
	"context"

	"finsight/internal/core"
)

// Ports for outbound export adapters.
type (
	// FileExporter mirrors stored statement files to an external sheet.
	FileExporter interface {
		// ExportFile writes one file's transactions, replacing any rows a
		// previous export of the same filename left behind.
		ExportFile(ctx context.Context, file core.UploadedFile, txs []core.Transaction) error

		// RemoveFile clears every exported row belonging to the filename.
		RemoveFile(ctx context.Context, filename string) error
	}
)
