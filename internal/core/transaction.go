package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidWindow = errors.New("invalid window")
)

type (
	// Money is an amount in cents. Transaction sides are always
	// non-negative; derived balances may go below zero.
	Money struct {
		Cents int64
	}

	// Transaction is one normalized ledger entry. At most one of Debit and
	// Credit is set for single-amount sources; separate-column sources may
	// legitimately carry either side. Immutable once produced by the
	// normalizer.
	Transaction struct {
		Date        time.Time
		Description string
		Debit       *Money
		Credit      *Money
	}

	// UploadedFile is the metadata the file store keeps per source file.
	// Path is the stable storage key; the parsed transactions are owned by
	// the store entry, not carried on this struct.
	UploadedFile struct {
		Filename   string
		Path       string
		UploadedAt time.Time
	}

	// Window restricts aggregation to a year, or to a year-month when Month
	// is non-zero. The zero value means no restriction.
	Window struct {
		Year  int
		Month int
	}

	// MonthlyPattern holds credit and debit totals for one calendar month.
	MonthlyPattern struct {
		Credits Money
		Debits  Money
	}

	// AnalysisResult is the derived aggregate returned per request and never
	// persisted. MonthlyPatterns always covers the full transaction set the
	// engine was given; the totals and breakdown honor the window.
	AnalysisResult struct {
		TotalBalance      Money
		TotalIncome       Money
		TotalExpenses     Money
		MonthlyPatterns   map[string]MonthlyPattern
		CategoryBreakdown map[string]Money
		AllTransactions   []Transaction
	}
)

// DebitCents returns the debit side in cents, zero when absent.
func (t Transaction) DebitCents() int64 {
	if t.Debit == nil {
		return 0
	}
	return t.Debit.Cents
}

// CreditCents returns the credit side in cents, zero when absent.
func (t Transaction) CreditCents() int64 {
	if t.Credit == nil {
		return 0
	}
	return t.Credit.Cents
}

// AmountCents returns whichever side is populated, debit first. This is the
// amount the classifier attributes to a category regardless of sign
// semantics, so refunds and income can fold into a spending category.
func (t Transaction) AmountCents() int64 {
	if t.Debit != nil {
		return t.Debit.Cents
	}
	if t.Credit != nil {
		return t.Credit.Cents
	}
	return 0
}

// MonthKey returns the "YYYY-MM" key used by monthly patterns.
func (t Transaction) MonthKey() string {
	return t.Date.Format("2006-01")
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.Debit == nil && t.Credit == nil {
		return ErrInvalidAmount
	}
	if (t.Debit != nil && t.Debit.Cents < 0) || (t.Credit != nil && t.Credit.Cents < 0) {
		return ErrInvalidAmount
	}
	return nil
}

// IsZero reports whether the window imposes no restriction.
func (w Window) IsZero() bool {
	return w.Year == 0 && w.Month == 0
}

func (w Window) Validate() error {
	if w.Month < 0 || w.Month > 12 {
		return ErrInvalidWindow
	}
	if w.Month != 0 && w.Year == 0 {
		return ErrInvalidWindow
	}
	if w.Year < 0 {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether a date falls inside the window. A zero window
// contains everything; a month of zero matches the whole year.
func (w Window) Contains(d time.Time) bool {
	if w.IsZero() {
		return true
	}
	if d.Year() != w.Year {
		return false
	}
	return w.Month == 0 || int(d.Month()) == w.Month
}

// Key returns a stable string form of the window for cache keys and logs.
func (w Window) Key() string {
	if w.IsZero() {
		return "all"
	}
	var b strings.Builder
	b.WriteString(time.Date(w.Year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006"))
	if w.Month != 0 {
		b.WriteString("-")
		b.WriteString(time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, time.UTC).Format("01"))
	}
	return b.String()
}
