package core

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
	StatusOverdue PaymentStatus = "overdue"
)

type (
	PaymentStatus string

	// InvoiceItem is one billable line. Total is stored data: it equals
	// Quantity*Price only when produced by RecomputeItem.
	InvoiceItem struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		Quantity    float64 `json:"quantity"`
		Price       float64 `json:"price"`
		Total       float64 `json:"total"`
	}

	InvoiceAttachment struct {
		ID         string `json:"id"`
		FileName   string `json:"fileName"`
		FileSize   int64  `json:"fileSize"`
		FileType   string `json:"fileType"`
		URL        string `json:"url"`
		UploadedAt string `json:"uploadedAt"`
	}

	// Invoice is an immutable snapshot. Dates are ISO-8601 strings; Date is
	// expected in YYYY-MM-DD form for range filtering to work.
	Invoice struct {
		ID            string              `json:"id"`
		InvoiceNumber string              `json:"invoiceNumber"`
		ClientName    string              `json:"clientName"`
		ClientEmail   string              `json:"clientEmail"`
		ClientAddress string              `json:"clientAddress,omitempty"`
		Date          string              `json:"date"`
		DueDate       string              `json:"dueDate"`
		Items         []InvoiceItem       `json:"items"`
		Subtotal      float64             `json:"subtotal"`
		Tax           float64             `json:"tax"`
		Total         float64             `json:"total"`
		Status        PaymentStatus       `json:"status"`
		Notes         string              `json:"notes,omitempty"`
		Attachments   []InvoiceAttachment `json:"attachments,omitempty"`
		CreatedAt     string              `json:"createdAt"`
		UpdatedAt     string              `json:"updatedAt"`
	}
)

// IsValid reports whether s is one of the known payment states.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusPaid, StatusPending, StatusOverdue:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) String() string {
	return string(s)
}

// Clone returns a deep copy so that derived snapshots never share item or
// attachment backing arrays with the original.
func (inv Invoice) Clone() Invoice {
	out := inv
	if inv.Items != nil {
		out.Items = append([]InvoiceItem(nil), inv.Items...)
	}
	if inv.Attachments != nil {
		out.Attachments = append([]InvoiceAttachment(nil), inv.Attachments...)
	}
	return out
}

// FindAttachment returns the index of the attachment with the given id, or -1.
func (inv Invoice) FindAttachment(id string) int {
	for i, a := range inv.Attachments {
		if a.ID == id {
			return i
		}
	}
	return -1
}
