package model

import (
	"fmt"
	"strings"
)

// Pair is a six-letter currency pair code: base currency followed by quote currency.
type Pair string

// ParsePair trims and uppercases s and checks that it is six ASCII letters.
func ParsePair(s string) (Pair, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != 6 {
		return "", fmt.Errorf("pair %q: want 6 letters, got %d", s, len(code))
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("pair %q: non-letter %q", s, r)
		}
	}
	return Pair(code), nil
}

// Base returns the base currency code, e.g. "EUR" for EURUSD.
func (p Pair) Base() string { return string(p)[:3] }

// Quote returns the quote currency code, e.g. "USD" for EURUSD.
func (p Pair) Quote() string { return string(p)[3:] }

func (p Pair) String() string { return string(p) }
