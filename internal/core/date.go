package core

import (
	"strings"
	"time"
)

// dateLayouts are the accepted statement date formats. Two-digit-year
// layouts are deliberately absent: "01/02/03" is ambiguous across export
// dialects, so such rows are rejected rather than guessed per row.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate parses a statement date. The canonical form is YYYY-MM-DD;
// slash-separated ISO and month-first four-digit-year forms are accepted
// too. Anything else, including two-digit years, yields ErrInvalidDate.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
