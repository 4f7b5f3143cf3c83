package core

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	SortByDate   SortKey = "date"
	SortByTotal  SortKey = "total"
	SortByClient SortKey = "client"

	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

type (
	SortKey   string
	SortOrder string

	// Criteria selects invoices. Every field is optional; the empty string
	// means no constraint. StartDate and EndDate must be YYYY-MM-DD.
	Criteria struct {
		Status      PaymentStatus
		StartDate   string
		EndDate     string
		SearchQuery string
	}
)

// IsZero reports whether no constraint is set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// ParseSortKey maps a user-supplied key, falling back to date.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortByDate, SortByTotal, SortByClient:
		return k
	default:
		return SortByDate
	}
}

// ParseSortOrder maps a user-supplied order, falling back to desc.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(strings.ToLower(strings.TrimSpace(s))) == Ascending {
		return Ascending
	}
	return Descending
}

// FilterInvoices returns, in input order, the invoices matching every set
// criterion. Date bounds are inclusive and compared as strings, not parsed.
// The search query matches client name or invoice number, case-insensitively.
// The result is always a new slice.
func FilterInvoices(invoices []Invoice, c Criteria) []Invoice {
	query := strings.ToLower(c.SearchQuery)
	out := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if c.Status != "" && inv.Status != c.Status {
			continue
		}
		if c.StartDate != "" && inv.Date < c.StartDate {
			continue
		}
		if c.EndDate != "" && inv.Date > c.EndDate {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(inv.ClientName), query) &&
			!strings.Contains(strings.ToLower(inv.InvoiceNumber), query) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// SortInvoices returns a stably sorted copy of invoices. Dates are compared
// as parsed instants; an unparseable date compares equal to anything. Client
// names use English collation. Descending order negates the comparison.
func SortInvoices(invoices []Invoice, key SortKey, order SortOrder) []Invoice {
	out := slices.Clone(invoices)
	if out == nil {
		out = []Invoice{}
	}

	var compare func(a, b Invoice) int
	switch key {
	case SortByTotal:
		compare = func(a, b Invoice) int { return compareFloat(a.Total, b.Total) }
	case SortByClient:
		// Collators carry internal buffers; one per call keeps this safe for
		// concurrent callers.
		col := collate.New(language.English)
		compare = func(a, b Invoice) int { return col.CompareString(a.ClientName, b.ClientName) }
	default:
		compare = func(a, b Invoice) int { return compareDates(a.Date, b.Date) }
	}

	if order == Ascending {
		slices.SortStableFunc(out, compare)
	} else {
		slices.SortStableFunc(out, func(a, b Invoice) int { return -compare(a, b) })
	}
	return out
}

// compareFloat orders numerically; NaN compares equal to everything.
func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareDates(a, b string) int {
	ta, okA := ParseInstant(a)
	tb, okB := ParseInstant(b)
	if !okA || !okB {
		return 0
	}
	return ta.Compare(tb)
}
