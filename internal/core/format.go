// Package core provides display formatting for invoice amounts and dates.
//
// Formatting mirrors the en-US presentation used across the UI, exports and
// PDFs: amounts in USD with thousands separators, dates as "Jan 15, 2024".
package core

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders amount as USD with two decimals, e.g. "$1,000.00"
// or "-$5.50". Halves round away from zero.
func FormatCurrency(amount float64) string {
	switch {
	case math.IsNaN(amount):
		return "$NaN"
	case math.IsInf(amount, 1):
		return "$∞"
	case math.IsInf(amount, -1):
		return "-$∞"
	}

	fixed := decimal.NewFromFloat(amount).Round(2).StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, frac, _ := strings.Cut(fixed, ".")
	out := groupThousands(intPart) + "." + frac
	if neg && strings.Trim(out, "0.,") != "" {
		return "-$" + out
	}
	return "$" + out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDate renders an ISO date as "Jan 15, 2024". Unparseable input is
// returned unchanged.
func FormatDate(s string) string {
	t, ok := ParseInstant(s)
	if !ok {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// GenerateInvoiceNumber returns "INV-<unix millis>-<0..999>".
func GenerateInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%d-%d", now.UnixMilli(), rand.IntN(1000))
}
