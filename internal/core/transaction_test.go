package core

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestTransactionAmountSelection(t *testing.T) {
	debit := Transaction{Date: date(2024, 1, 5), Description: "d", Debit: &Money{Cents: 5000}}
	credit := Transaction{Date: date(2024, 1, 10), Description: "c", Credit: &Money{Cents: 200000}}
	empty := Transaction{Date: date(2024, 1, 11), Description: "e"}

	if debit.AmountCents() != 5000 || debit.DebitCents() != 5000 || debit.CreditCents() != 0 {
		t.Fatalf("debit side selection wrong")
	}
	if credit.AmountCents() != 200000 || credit.CreditCents() != 200000 || credit.DebitCents() != 0 {
		t.Fatalf("credit side selection wrong")
	}
	if empty.AmountCents() != 0 {
		t.Fatalf("expected zero amount for empty transaction")
	}

	// Debit wins when both sides are present.
	both := Transaction{Date: date(2024, 2, 1), Debit: &Money{Cents: 100}, Credit: &Money{Cents: 200}}
	if both.AmountCents() != 100 {
		t.Fatalf("expected debit to take precedence, got %d", both.AmountCents())
	}
}

func TestTransactionMonthKey(t *testing.T) {
	tx := Transaction{Date: date(2024, 1, 5)}
	if got := tx.MonthKey(); got != "2024-01" {
		t.Fatalf("expected 2024-01, got %s", got)
	}
}

func TestWindowContains(t *testing.T) {
	cases := []struct {
		w    Window
		d    time.Time
		want bool
	}{
		{Window{}, date(2024, 1, 5), true},
		{Window{Year: 2024}, date(2024, 7, 1), true},
		{Window{Year: 2024}, date(2023, 7, 1), false},
		{Window{Year: 2024, Month: 1}, date(2024, 1, 31), true},
		{Window{Year: 2024, Month: 1}, date(2024, 2, 1), false},
		{Window{Year: 2024, Month: 2}, date(2023, 2, 1), false},
	}
	for i, tc := range cases {
		if got := tc.w.Contains(tc.d); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestWindowValidate(t *testing.T) {
	valid := []Window{{}, {Year: 2024}, {Year: 2024, Month: 12}}
	for i, w := range valid {
		if err := w.Validate(); err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
	}
	invalid := []Window{{Month: 13, Year: 2024}, {Month: -1, Year: 2024}, {Month: 5}}
	for i, w := range invalid {
		if err := w.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-05", true},
		{"2024/01/05", true},
		{"01/05/2024", true},
		{"01/05/24", false}, // two-digit years are rejected, never guessed
		{"05.01.2024", false},
		{"not a date", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q expected ok, got %v", tc.in, err)
			}
			if d.Year() != 2024 || d.Month() != time.January || d.Day() != 5 {
				t.Fatalf("%q parsed to unexpected date %v", tc.in, d)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}
