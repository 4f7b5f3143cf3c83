package core

import (
	"math"
	"regexp"
	"testing"
	"time"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1000, "$1,000.00"},
		{50.5, "$50.50"},
		{0, "$0.00"},
		{1000000, "$1,000,000.00"},
		{999.999, "$1,000.00"},
		{12.345, "$12.35"},
		{-5.5, "-$5.50"},
		{-0.001, "$0.00"},
		{123, "$123.00"},
		{math.NaN(), "$NaN"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-15":           "Jan 15, 2024",
		"2024-12-01":           "Dec 1, 2024",
		"2024-03-20T00:00:00Z": "Mar 20, 2024",
		"not a date":           "not a date",
	}
	for in, want := range cases {
		if got := FormatDate(in); got != want {
			t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateInvoiceNumber(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	re := regexp.MustCompile(`^INV-1700000000123-\d{1,3}$`)
	for i := 0; i < 50; i++ {
		if got := GenerateInvoiceNumber(now); !re.MatchString(got) {
			t.Fatalf("unexpected invoice number %q", got)
		}
	}
}
