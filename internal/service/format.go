package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// formatAmount renders a monetary amount the way the mini-app shows it:
// thousands grouped with non-breaking spaces, decimal comma, trailing zeros
// trimmed ("12 345,5", "1 000 000").
func formatAmount(d decimal.Decimal) string {
	s := d.String()

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i+1:]
	}
	fracPart = strings.TrimRight(fracPart, "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(c)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}
