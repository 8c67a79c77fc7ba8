// Package google exports stored statement files to a Google spreadsheet
// using Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"finsight/internal/core"
	ports "finsight/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.FileExporter = (*Client)(nil)

// NewFromEnv creates a sheets client from the environment.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_SHEET_NAME
// (default "Transactions").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportFile appends one row per transaction: date, description, debit,
// credit, source filename. A stale previous export of the same filename is
// cleared first so re-exports do not accumulate duplicates.
func (c *Client) ExportFile(ctx context.Context, file core.UploadedFile, txs []core.Transaction) error {
	if err := c.RemoveFile(ctx, file.Filename); err != nil {
		return fmt.Errorf("clear previous export: %w", err)
	}

	values := make([][]any, 0, len(txs))
	for _, t := range txs {
		var debit, credit any
		if t.Debit != nil {
			debit = t.Debit.Dollars()
		}
		if t.Credit != nil {
			credit = t.Credit.Dollars()
		}
		values = append(values, []any{
			t.Date.Format("2006-01-02"),
			t.Description,
			debit,
			credit,
			file.Filename,
		})
	}
	if len(values) == 0 {
		return nil
	}

	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:E", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append rows: %w", err)
	}

	slog.InfoContext(ctx, "Exported file to Google Sheets",
		"filename", file.Filename,
		"rows", len(values),
		"sheet", c.sheetName)
	return nil
}

// RemoveFile clears every row whose source-filename column matches.
func (c *Client) RemoveFile(ctx context.Context, filename string) error {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, c.sheetName+"!A:E").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}

	var ranges []string
	for i, row := range resp.Values {
		if len(row) < 5 {
			continue
		}
		if name, ok := row[4].(string); ok && name == filename {
			// Sheet rows are 1-based.
			ranges = append(ranges, fmt.Sprintf("%s!A%d:E%d", c.sheetName, i+1, i+1))
		}
	}
	if len(ranges) == 0 {
		return nil
	}

	req := &gsheet.BatchClearValuesRequest{Ranges: ranges}
	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear rows: %w", err)
	}

	slog.InfoContext(ctx, "Cleared exported rows",
		"filename", filename,
		"rows", len(ranges))
	return nil
}
