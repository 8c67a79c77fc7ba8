package core

import "testing"

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"50.00", 5000, true},
		{"2000", 200000, true},
		{"0", 0, true}, // zero-amount rows are valid
		{"0.00", 0, true},
		{"$1,234.50", 123450, true},
		{"€12.34", 1234, true},
		{"1 234.56", 123456, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // half-up
		{" 2.50 ", 250, true},
		{"-5.00", 0, false}, // direction comes from the column, not the sign
		{"+5.00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"$", 0, false},
		{".", 0, false}, // no digits at all
		{"$.", 0, false},
		{".5", 50, true},
	}
	for _, tc := range cases {
		got, err := ParseAmountToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyDollars(t *testing.T) {
	if got := (Money{Cents: 195000}).Dollars(); got != 1950.00 {
		t.Fatalf("expected 1950.00, got %v", got)
	}
	if got := (Money{Cents: 0}).Dollars(); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}
