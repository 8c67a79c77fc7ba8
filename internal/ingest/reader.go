// Package ingest turns raw CSV statement exports into normalized
// transactions. The reader handles the delimited-text mechanics; column
// semantics belong to the normalizer.
package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
)

// Canonical column names a Row may carry.
const (
	colDate        = "date"
	colDescription = "description"
	colDebit       = "debit"
	colCredit      = "credit"
	colAmount      = "amount"
)

// headerSynonyms maps lowercased header cells from the known export
// dialects to canonical column names.
var headerSynonyms = map[string]string{
	"date":             colDate,
	"transaction date": colDate,
	"posted date":      colDate,
	"posting date":     colDate,
	"description":      colDescription,
	"merchant":         colDescription,
	"payee":            colDescription,
	"details":          colDescription,
	"memo":             colDescription,
	"debit":            colDebit,
	"withdrawal":       colDebit,
	"withdrawals":      colDebit,
	"credit":           colCredit,
	"deposit":          colCredit,
	"deposits":         colCredit,
	"amount":           colAmount,
}

// positionalColumns is the headerless bank-export layout:
// Date,Description,Debit,Credit.
var positionalColumns = []string{colDate, colDescription, colDebit, colCredit}

// Row maps canonical column names to raw cell values.
type Row map[string]string

// RowReader yields rows from one export file, forward-only. Callers consume
// it fully in a single pass; it is not restartable.
type RowReader struct {
	r       *csv.Reader
	columns []string
	pending []string // first record of a headerless file, replayed as data
	line    int
	row     Row
	err     error
}

// NewRowReader sniffs the dialect from the first record and prepares a
// reader over the remaining rows. It returns a *ParseError when the content
// is not decodable as delimited text or the file is empty.
func NewRowReader(data []byte) (*RowReader, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, &ParseError{Reason: "not a delimited text file"}
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // column counts vary across dialects
	r.TrimLeadingSpace = true

	first, err := r.Read()
	if err == io.EOF {
		return nil, &ParseError{Reason: "file has no rows"}
	}
	if err != nil {
		return nil, &ParseError{Reason: "unreadable delimited text", Err: err}
	}

	rr := &RowReader{r: r, line: 1}
	if cols, ok := sniffHeader(first); ok {
		rr.columns = cols
	} else {
		rr.columns = positionalColumns
		rr.pending = first
		rr.line = 0
	}
	return rr, nil
}

// sniffHeader maps a record to canonical columns when at least one cell is a
// known header name. Unknown cells keep positional fallbacks so extra
// columns are tolerated without losing the recognized ones.
func sniffHeader(record []string) ([]string, bool) {
	cols := make([]string, len(record))
	matched := false
	for i, cell := range record {
		name := strings.ToLower(strings.TrimSpace(cell))
		if canonical, ok := headerSynonyms[name]; ok {
			cols[i] = canonical
			matched = true
		}
	}
	if !matched {
		return nil, false
	}
	return cols, true
}

// Next advances to the next non-blank data row. It returns false at end of
// input or on a read error; check Err afterwards.
func (rr *RowReader) Next() bool {
	for {
		var record []string
		if rr.pending != nil {
			record = rr.pending
			rr.pending = nil
		} else {
			var err error
			record, err = rr.r.Read()
			if err == io.EOF {
				return false
			}
			if err != nil {
				rr.err = &ParseError{Reason: "unreadable delimited text", Err: err}
				return false
			}
		}
		rr.line++
		if isBlank(record) {
			continue
		}
		row := make(Row, len(rr.columns))
		for i, name := range rr.columns {
			if name == "" || i >= len(record) {
				continue
			}
			row[name] = strings.TrimSpace(record[i])
		}
		rr.row = row
		return true
	}
}

// Row returns the current row. Valid only after a true Next.
func (rr *RowReader) Row() Row { return rr.row }

// Line returns the 1-based source line of the current row.
func (rr *RowReader) Line() int { return rr.line }

// Err returns the terminal read error, if any.
func (rr *RowReader) Err() error { return rr.err }

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
