package invoices

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"fatture/internal/attachments"
	"fatture/internal/core"
)

// DefaultTaxRatePercent is applied when neither the draft nor the service
// configuration specify a rate.
const DefaultTaxRatePercent = 10

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Draft is the user-editable part of an invoice. Derived amounts, identity
// and timestamps are filled in by BuildInvoice.
type Draft struct {
	ClientName    string                   `json:"clientName"`
	ClientEmail   string                   `json:"clientEmail"`
	ClientAddress string                   `json:"clientAddress,omitempty"`
	Date          string                   `json:"date"`
	DueDate       string                   `json:"dueDate"`
	Items         []core.InvoiceItem       `json:"items"`
	TaxRate       *float64                 `json:"taxRate,omitempty"`
	Status        core.PaymentStatus       `json:"status,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
	Attachments   []core.InvoiceAttachment `json:"attachments,omitempty"`
}

// ValidationError maps form field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid invoice: " + strings.Join(parts, "; ")
}

// Validate applies the invoice form rules.
func (d Draft) Validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(d.ClientName) == "" {
		fields["clientName"] = "Client name is required"
	}

	email := strings.TrimSpace(d.ClientEmail)
	switch {
	case email == "":
		fields["clientEmail"] = "Client email is required"
	case !emailPattern.MatchString(email):
		fields["clientEmail"] = "Invalid email format"
	}

	if strings.TrimSpace(d.Date) == "" {
		fields["date"] = "Invoice date is required"
	} else if _, ok := core.ParseInstant(d.Date); !ok {
		fields["date"] = "Invoice date is not a valid date"
	}

	if strings.TrimSpace(d.DueDate) == "" {
		fields["dueDate"] = "Due date is required"
	} else if due, ok := core.ParseInstant(d.DueDate); !ok {
		fields["dueDate"] = "Due date is not a valid date"
	} else if date, ok := core.ParseInstant(d.Date); ok && due.Before(date) {
		fields["dueDate"] = "Due date must be after invoice date"
	}

	if len(d.Items) == 0 {
		fields["items"] = "At least one item is required"
	}
	for _, it := range d.Items {
		if strings.TrimSpace(it.Description) == "" || !(it.Quantity > 0) || !(it.Price >= 0) {
			fields["items"] = "All items must have a description, quantity > 0, and price >= 0"
			break
		}
	}

	if d.Status != "" && !d.Status.IsValid() {
		fields["status"] = fmt.Sprintf("Unknown status %q", d.Status)
	}

	if len(d.Attachments) > attachments.MaxFiles {
		fields["attachments"] = attachments.ErrTooManyFiles.Error()
	} else {
		for i, a := range d.Attachments {
			if err := attachments.Validate(a.FileName, a.FileSize, a.FileType, i); err != nil {
				fields["attachments"] = err.Error()
				break
			}
		}
	}

	if d.TaxRate != nil && (*d.TaxRate < 0 || *d.TaxRate > 100) {
		fields["taxRate"] = "Tax rate must be between 0 and 100"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// BuildInvoice turns a validated draft into an invoice snapshot. When existing
// is non-nil its identity and creation time are kept. Item totals are always
// recomputed from quantity and price.
//
// Attachments are only ever added through Service.AddAttachment: a draft can
// keep or drop attachments of the existing invoice, never introduce new ones,
// and stored metadata always wins over what the draft carries.
func BuildInvoice(d Draft, existing *core.Invoice, defaultTaxRate float64, now time.Time) core.Invoice {
	items := make([]core.InvoiceItem, len(d.Items))
	for i, it := range d.Items {
		it.Description = strings.TrimSpace(it.Description)
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		items[i] = core.RecomputeItem(it)
	}

	rate := defaultTaxRate
	if d.TaxRate != nil {
		rate = *d.TaxRate
	}
	subtotal := core.Subtotal(items)
	tax := core.TaxFromRate(subtotal, rate)

	status := d.Status
	if status == "" {
		status = core.StatusPending
	}

	stamp := now.UTC().Format(time.RFC3339Nano)
	inv := core.Invoice{
		ClientName:    strings.TrimSpace(d.ClientName),
		ClientEmail:   strings.TrimSpace(d.ClientEmail),
		ClientAddress: strings.TrimSpace(d.ClientAddress),
		Date:          strings.TrimSpace(d.Date),
		DueDate:       strings.TrimSpace(d.DueDate),
		Items:         items,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         core.GrandTotal(subtotal, tax),
		Status:        status,
		Notes:         strings.TrimSpace(d.Notes),
		UpdatedAt:     stamp,
	}

	if existing != nil {
		inv.ID = existing.ID
		inv.InvoiceNumber = existing.InvoiceNumber
		inv.CreatedAt = existing.CreatedAt
		inv.Attachments = keptAttachments(existing.Attachments, d.Attachments)
	} else {
		inv.ID = uuid.NewString()
		inv.InvoiceNumber = core.GenerateInvoiceNumber(now)
		inv.CreatedAt = stamp
	}
	return inv
}

// keptAttachments returns the stored attachments the draft still lists, in
// stored order. A nil list keeps everything.
func keptAttachments(stored, requested []core.InvoiceAttachment) []core.InvoiceAttachment {
	if requested == nil {
		if len(stored) == 0 {
			return nil
		}
		return append([]core.InvoiceAttachment(nil), stored...)
	}
	want := make(map[string]bool, len(requested))
	for _, a := range requested {
		want[a.ID] = true
	}
	var out []core.InvoiceAttachment
	for _, a := range stored {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

// droppedAttachments lists the attachments of before missing from after.
func droppedAttachments(before, after []core.InvoiceAttachment) []core.InvoiceAttachment {
	var out []core.InvoiceAttachment
	for _, a := range before {
		if (core.Invoice{Attachments: after}).FindAttachment(a.ID) < 0 {
			out = append(out, a)
		}
	}
	return out
}
