// Package core provides invoice arithmetic and the query engine.
//
// Every function here is pure: inputs are never mutated and new slices are
// returned. Malformed numbers and dates are not validated; they propagate as
// NaN results or unspecified ordering.
package core

import (
	"strings"
	"time"
)

// LineTotal returns quantity times price, sign and magnitude unchecked.
func LineTotal(item InvoiceItem) float64 {
	return item.Quantity * item.Price
}

// Subtotal sums the stored Total of each item. It does not recompute
// quantity*price; a stale Total yields a stale subtotal. Use
// RecomputeSubtotal for the derived value.
func Subtotal(items []InvoiceItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Total
	}
	return sum
}

// GrandTotal returns subtotal plus tax.
func GrandTotal(subtotal, tax float64) float64 {
	return subtotal + tax
}

// TaxFromRate applies a single flat percentage rate to the subtotal.
func TaxFromRate(subtotal, ratePercent float64) float64 {
	return subtotal * ratePercent / 100
}

// RecomputeItem returns a copy of item whose Total is LineTotal(item).
func RecomputeItem(item InvoiceItem) InvoiceItem {
	item.Total = LineTotal(item)
	return item
}

// RecomputeItems returns a new slice with every Total recomputed.
func RecomputeItems(items []InvoiceItem) []InvoiceItem {
	out := make([]InvoiceItem, len(items))
	for i, it := range items {
		out[i] = RecomputeItem(it)
	}
	return out
}

// RecomputeSubtotal sums quantity*price across items, ignoring stored totals.
func RecomputeSubtotal(items []InvoiceItem) float64 {
	var sum float64
	for _, it := range items {
		sum += LineTotal(it)
	}
	return sum
}

// IsOverdue reports whether an unpaid invoice's due date lies strictly
// before now. Paid invoices are never overdue. A due date of today (date
// only) counts from midnight UTC, so it is overdue as soon as now passes that
// instant. Unparseable due dates are never overdue.
func IsOverdue(dueDate string, status PaymentStatus, now time.Time) bool {
	if status == StatusPaid {
		return false
	}
	due, ok := ParseInstant(dueDate)
	if !ok {
		return false
	}
	return due.Before(now)
}

// IsOverdueNow is IsOverdue against the wall clock.
func IsOverdueNow(dueDate string, status PaymentStatus) bool {
	return IsOverdue(dueDate, status, time.Now())
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseInstant parses an ISO-8601 date or date-time. Date-only values are
// UTC midnight; date-times without an offset are local time.
func ParseInstant(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) == len("2006-01-02") {
		t, err := time.Parse("2006-01-02", s)
		return t, err == nil
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
