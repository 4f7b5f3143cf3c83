package core

// Summary aggregates invoice totals by payment status label.
type Summary struct {
	Total   float64 `json:"total"`
	Paid    float64 `json:"paid"`
	Pending float64 `json:"pending"`
	Overdue float64 `json:"overdue"`
	Count   int     `json:"count"`
}

// Summarize sums the stored Total of every invoice, overall and per status.
// Status is read as a label; dates are not consulted.
func Summarize(invoices []Invoice) Summary {
	s := Summary{Count: len(invoices)}
	for _, inv := range invoices {
		s.Total += inv.Total
		switch inv.Status {
		case StatusPaid:
			s.Paid += inv.Total
		case StatusPending:
			s.Pending += inv.Total
		case StatusOverdue:
			s.Overdue += inv.Total
		}
	}
	return s
}
