// Package analyze derives aggregate views from normalized transactions.
// Results are computed per request and never persisted.
package analyze

import (
	"finsight/internal/classify"
	"finsight/internal/core"
)

// Options tunes one aggregation pass.
type Options struct {
	// ExcludeInvestments drops transfers to investment accounts before any
	// aggregation, so brokerage contributions do not count as spending.
	ExcludeInvestments bool
}

// Engine aggregates transactions into balances, monthly patterns and a
// category breakdown. Safe for concurrent use; it holds no mutable state.
type Engine struct {
	classifier *classify.Classifier
}

func New(classifier *classify.Classifier) *Engine {
	return &Engine{classifier: classifier}
}

func NewDefault() *Engine {
	return New(classify.NewDefault())
}

// Aggregate computes the analysis for the given transactions. The window
// restricts the totals and category breakdown; monthly patterns always
// cover every transaction that survives the investment filter.
// AllTransactions echoes the complete input, exclusions included, so
// clients see every row that was parsed. Aggregation never mutates its
// input and the same input always yields the same result.
func (e *Engine) Aggregate(txs []core.Transaction, window core.Window, opts Options) (core.AnalysisResult, error) {
	if err := window.Validate(); err != nil {
		return core.AnalysisResult{}, err
	}

	kept := txs
	if opts.ExcludeInvestments {
		kept = make([]core.Transaction, 0, len(txs))
		for _, tx := range txs {
			if e.classifier.IsInvestment(tx.Description) {
				continue
			}
			kept = append(kept, tx)
		}
	}

	result := core.AnalysisResult{
		MonthlyPatterns:   make(map[string]core.MonthlyPattern),
		CategoryBreakdown: make(map[string]core.Money),
		AllTransactions:   txs,
	}

	var income, expenses int64
	for _, tx := range kept {
		pattern := result.MonthlyPatterns[tx.MonthKey()]
		pattern.Credits.Cents += tx.CreditCents()
		pattern.Debits.Cents += tx.DebitCents()
		result.MonthlyPatterns[tx.MonthKey()] = pattern

		if !window.Contains(tx.Date) {
			continue
		}
		income += tx.CreditCents()
		expenses += tx.DebitCents()

		// The breakdown folds whichever side the transaction carries into
		// its category; rows with a zero amount stay out of it.
		amount := tx.AmountCents()
		if amount == 0 {
			continue
		}
		category := e.classifier.Classify(tx.Description)
		bucket := result.CategoryBreakdown[category]
		bucket.Cents += amount
		result.CategoryBreakdown[category] = bucket
	}

	result.TotalIncome = core.Money{Cents: income}
	result.TotalExpenses = core.Money{Cents: expenses}
	result.TotalBalance = core.Money{Cents: income - expenses}
	return result, nil
}
