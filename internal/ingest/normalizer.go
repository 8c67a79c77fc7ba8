package ingest

import (
	"fmt"
	"strings"

	"finsight/internal/core"
)

// NormalizeRow converts one raw row into a canonical transaction. A row with
// an unparseable date or no usable amount yields a *RowError; the caller
// skips the row and keeps going.
//
// Single-amount sources carry direction in the sign: a leading minus means
// credit (refund/deposit), otherwise debit. Separate debit/credit columns
// are taken as-is, each non-negative.
func NormalizeRow(row Row, line int) (core.Transaction, error) {
	date, err := core.ParseDate(row[colDate])
	if err != nil {
		return core.Transaction{}, &RowError{Line: line, Reason: fmt.Sprintf("unparseable date %q", row[colDate])}
	}

	tx := core.Transaction{
		Date:        date,
		Description: strings.TrimSpace(row[colDescription]),
	}

	debitRaw, hasDebit := nonEmpty(row, colDebit)
	creditRaw, hasCredit := nonEmpty(row, colCredit)
	amountRaw, hasAmount := nonEmpty(row, colAmount)

	switch {
	case hasDebit || hasCredit:
		if hasDebit {
			cents, err := core.ParseAmountToCents(debitRaw)
			if err != nil {
				return core.Transaction{}, &RowError{Line: line, Reason: fmt.Sprintf("bad debit amount %q", debitRaw)}
			}
			tx.Debit = &core.Money{Cents: cents}
		}
		if hasCredit {
			cents, err := core.ParseAmountToCents(creditRaw)
			if err != nil {
				return core.Transaction{}, &RowError{Line: line, Reason: fmt.Sprintf("bad credit amount %q", creditRaw)}
			}
			tx.Credit = &core.Money{Cents: cents}
		}
	case hasAmount:
		side := amountRaw
		credit := strings.HasPrefix(side, "-")
		side = strings.TrimPrefix(side, "-")
		cents, err := core.ParseAmountToCents(side)
		if err != nil {
			return core.Transaction{}, &RowError{Line: line, Reason: fmt.Sprintf("bad amount %q", amountRaw)}
		}
		if credit {
			tx.Credit = &core.Money{Cents: cents}
		} else {
			tx.Debit = &core.Money{Cents: cents}
		}
	default:
		return core.Transaction{}, &RowError{Line: line, Reason: "no usable amount"}
	}

	return tx, nil
}

func nonEmpty(row Row, col string) (string, bool) {
	v, ok := row[col]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ProcessFile runs the single ingestion pass over raw file content. Rows
// that fail normalization are collected as diagnostics, never aborting the
// file; only file-level problems return a *ParseError. A file whose every
// data row is blank counts as having zero data rows.
func ProcessFile(data []byte) ([]core.Transaction, []RowError, error) {
	reader, err := NewRowReader(data)
	if err != nil {
		return nil, nil, err
	}

	var (
		txs     []core.Transaction
		skipped []RowError
		rows    int
	)
	for reader.Next() {
		rows++
		tx, err := NormalizeRow(reader.Row(), reader.Line())
		if err != nil {
			var re *RowError
			if rerr, ok := err.(*RowError); ok {
				re = rerr
			} else {
				re = &RowError{Line: reader.Line(), Reason: err.Error()}
			}
			skipped = append(skipped, *re)
			continue
		}
		txs = append(txs, tx)
	}
	if err := reader.Err(); err != nil {
		return nil, nil, err
	}
	if rows == 0 {
		return nil, nil, &ParseError{Reason: "file has no data rows"}
	}
	return txs, skipped, nil
}
