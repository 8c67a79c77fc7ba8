package http

import (
	"time"

	"finsight/internal/core"
	"finsight/internal/services"
)

// Wire contract: debit_amount and credit_amount are numbers or null, never
// zero-filled, so clients can tell "no side" from "zero amount".
type transactionJSON struct {
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	DebitAmount  *float64 `json:"debit_amount"`
	CreditAmount *float64 `json:"credit_amount"`
}

type patternJSON struct {
	Credits float64 `json:"credits"`
	Debits  float64 `json:"debits"`
}

type analysisJSON struct {
	TotalBalance      float64                `json:"total_balance"`
	TotalIncome       float64                `json:"total_income"`
	TotalExpenses     float64                `json:"total_expenses"`
	MonthlyPatterns   map[string]patternJSON `json:"monthly_patterns"`
	CategoryBreakdown map[string]float64     `json:"category_breakdown"`
	AllTransactions   []transactionJSON      `json:"all_transactions"`
}

type fileJSON struct {
	Filename   string `json:"filename"`
	Path       string `json:"path"`
	UploadedAt string `json:"uploaded_at"`
}

type skippedRowJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Reason   string `json:"reason"`
}

type uploadResponseJSON struct {
	Analysis    analysisJSON     `json:"analysis"`
	SkippedRows []skippedRowJSON `json:"skipped_rows,omitempty"`
}

type analyzeRequestJSON struct {
	// Paths selects files to analyze; omitting the field analyzes the
	// whole store, an explicit empty list analyzes nothing.
	Paths *[]string `json:"paths"`
	Year  int       `json:"year"`
	Month int       `json:"month"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func toAnalysisJSON(result core.AnalysisResult) analysisJSON {
	out := analysisJSON{
		TotalBalance:      result.TotalBalance.Dollars(),
		TotalIncome:       result.TotalIncome.Dollars(),
		TotalExpenses:     result.TotalExpenses.Dollars(),
		MonthlyPatterns:   make(map[string]patternJSON, len(result.MonthlyPatterns)),
		CategoryBreakdown: make(map[string]float64, len(result.CategoryBreakdown)),
		AllTransactions:   make([]transactionJSON, 0, len(result.AllTransactions)),
	}
	for key, p := range result.MonthlyPatterns {
		out.MonthlyPatterns[key] = patternJSON{
			Credits: p.Credits.Dollars(),
			Debits:  p.Debits.Dollars(),
		}
	}
	for category, amount := range result.CategoryBreakdown {
		out.CategoryBreakdown[category] = amount.Dollars()
	}
	for _, t := range result.AllTransactions {
		out.AllTransactions = append(out.AllTransactions, toTransactionJSON(t))
	}
	return out
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
	}
	if t.Debit != nil {
		v := t.Debit.Dollars()
		out.DebitAmount = &v
	}
	if t.Credit != nil {
		v := t.Credit.Dollars()
		out.CreditAmount = &v
	}
	return out
}

func toFileJSON(f core.UploadedFile) fileJSON {
	return fileJSON{
		Filename:   f.Filename,
		Path:       f.Path,
		UploadedAt: f.UploadedAt.Format(time.RFC3339),
	}
}

func toSkippedRowsJSON(diags []services.UploadDiagnostics) []skippedRowJSON {
	var out []skippedRowJSON
	for _, d := range diags {
		for _, row := range d.Skipped {
			out = append(out, skippedRowJSON{
				Filename: d.Filename,
				Line:     row.Line,
				Reason:   row.Reason,
			})
		}
	}
	return out
}
