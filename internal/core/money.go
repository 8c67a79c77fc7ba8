// Package core holds the canonical transaction model shared by the parser,
// classifier, aggregation engine and file store.
//
// This file contains parsing of monetary amounts from statement exports and
// conversion between cents and display dollars.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountToCents converts an amount string from a statement export to
// cents with half-up rounding on the third decimal place.
//
// Currency symbols, spaces and thousands separators are stripped, so
// "$1,234.50" and "1234.5" both yield 123450. Zero is a valid amount (fee
// reversals produce legitimate zero rows). Negative values are rejected
// because direction is carried by the debit/credit column, never by sign.
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}
	// Strip currency symbols, spaces and thousands separators.
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r) || r == '.':
			b.WriteRune(r)
		case r == ',' || r == ' ' || r == '$' || r == '€' || r == '£':
			// separator or symbol
		default:
			return 0, ErrInvalidAmount
		}
	}
	s = b.String()
	if strings.Trim(s, ".") == "" {
		// Nothing but separators and symbols, e.g. "." or "$".
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Dollars returns the dollar value as a float64 for response payloads.
// Calculations stay in cents to avoid floating-point drift.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}
