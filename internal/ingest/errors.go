package ingest

import "fmt"

// ParseError means the file as a whole cannot be interpreted as delimited
// text or carries no data rows. It aborts that file's ingestion.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse: %s: %v", e.Reason, e.Err)
	}
	return "parse: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// RowError is a non-fatal, single-row normalization failure. The row is
// skipped and the error reported as a diagnostic alongside the successful
// result.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}
