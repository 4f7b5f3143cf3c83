package invoices

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fatture/internal/attachments"
	"fatture/internal/core"
)

func validDraft() Draft {
	return Draft{
		ClientName:  "  Acme Corp ",
		ClientEmail: "billing@acme.com",
		Date:        "2024-01-10",
		DueDate:     "2024-02-10",
		Items: []core.InvoiceItem{
			{ID: "1", Description: "Web Development", Quantity: 1, Price: 1000},
			{Description: "Hosting", Quantity: 2, Price: 50, Total: 999},
		},
	}
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return ve.Fields
}

func TestDraftValidate(t *testing.T) {
	if err := validDraft().Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(d *Draft)
		field  string
		msg    string
	}{
		{"missing client name", func(d *Draft) { d.ClientName = "   " }, "clientName", "Client name is required"},
		{"missing email", func(d *Draft) { d.ClientEmail = "" }, "clientEmail", "Client email is required"},
		{"bad email", func(d *Draft) { d.ClientEmail = "not-an-email" }, "clientEmail", "Invalid email format"},
		{"email without tld", func(d *Draft) { d.ClientEmail = "a@b" }, "clientEmail", "Invalid email format"},
		{"missing date", func(d *Draft) { d.Date = "" }, "date", "Invoice date is required"},
		{"missing due date", func(d *Draft) { d.DueDate = "" }, "dueDate", "Due date is required"},
		{"due before date", func(d *Draft) { d.DueDate = "2024-01-09" }, "dueDate", "Due date must be after invoice date"},
		{"unparseable due date", func(d *Draft) { d.DueDate = "soon" }, "dueDate", "Due date is not a valid date"},
		{"no items", func(d *Draft) { d.Items = nil }, "items", "At least one item is required"},
		{"item without description", func(d *Draft) { d.Items[0].Description = " " }, "items", "All items must have a description, quantity > 0, and price >= 0"},
		{"zero quantity", func(d *Draft) { d.Items[0].Quantity = 0 }, "items", "All items must have a description, quantity > 0, and price >= 0"},
		{"negative price", func(d *Draft) { d.Items[1].Price = -1 }, "items", "All items must have a description, quantity > 0, and price >= 0"},
		{"unknown status", func(d *Draft) { d.Status = "void" }, "status", `Unknown status "void"`},
		{"tax rate out of range", func(d *Draft) { r := 150.0; d.TaxRate = &r }, "taxRate", "Tax rate must be between 0 and 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			fields := fieldErrors(t, d.Validate())
			if fields[tt.field] != tt.msg {
				t.Fatalf("fields[%q] = %q, want %q (all: %v)", tt.field, fields[tt.field], tt.msg, fields)
			}
		})
	}
}

func TestDraftValidateSameDayDueDate(t *testing.T) {
	d := validDraft()
	d.DueDate = d.Date
	if err := d.Validate(); err != nil {
		t.Fatalf("due date equal to date should be accepted: %v", err)
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := (&ValidationError{Fields: map[string]string{"z": "last", "a": "first"}}).Error()
	if err != "invalid invoice: a: first; z: last" {
		t.Fatalf("Error() = %q", err)
	}
}

func TestBuildInvoiceNew(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	inv := BuildInvoice(validDraft(), nil, 10, now)

	if inv.ID == "" || !strings.HasPrefix(inv.InvoiceNumber, "INV-") {
		t.Fatalf("identity not assigned: %+v", inv)
	}
	if inv.ClientName != "Acme Corp" {
		t.Fatalf("client name not trimmed: %q", inv.ClientName)
	}
	if inv.Items[1].Total != 100 {
		t.Fatalf("item total not recomputed: %v", inv.Items[1].Total)
	}
	if inv.Items[1].ID == "" {
		t.Fatal("missing item id not assigned")
	}
	if inv.Subtotal != 1100 || inv.Tax != 110 || inv.Total != 1210 {
		t.Fatalf("amounts = %v/%v/%v", inv.Subtotal, inv.Tax, inv.Total)
	}
	if inv.Status != core.StatusPending {
		t.Fatalf("default status = %q", inv.Status)
	}
	if inv.CreatedAt != "2024-01-10T09:30:00Z" || inv.UpdatedAt != inv.CreatedAt {
		t.Fatalf("timestamps = %q / %q", inv.CreatedAt, inv.UpdatedAt)
	}
}

func TestBuildInvoiceExistingKeepsIdentity(t *testing.T) {
	existing := core.Invoice{
		ID: "keep", InvoiceNumber: "INV-001", CreatedAt: "2024-01-01T00:00:00Z",
		Attachments: []core.InvoiceAttachment{{ID: "a1", FileName: "a.pdf"}},
	}
	d := validDraft()
	rate := 0.0
	d.TaxRate = &rate
	d.Status = core.StatusPaid

	inv := BuildInvoice(d, &existing, 10, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if inv.ID != "keep" || inv.InvoiceNumber != "INV-001" || inv.CreatedAt != existing.CreatedAt {
		t.Fatalf("identity changed: %+v", inv)
	}
	if inv.UpdatedAt != "2024-03-01T00:00:00Z" {
		t.Fatalf("UpdatedAt = %q", inv.UpdatedAt)
	}
	if inv.Tax != 0 || inv.Total != inv.Subtotal {
		t.Fatalf("explicit zero tax rate ignored: %+v", inv)
	}
	if len(inv.Attachments) != 1 {
		t.Fatalf("attachments should carry over when the draft has none")
	}
	if inv.Status != core.StatusPaid {
		t.Fatalf("status = %q", inv.Status)
	}
}

func TestDraftValidateAttachments(t *testing.T) {
	pdf := core.InvoiceAttachment{ID: "a", FileName: "a.pdf", FileType: "application/pdf", FileSize: 100}
	tests := []struct {
		name    string
		atts    []core.InvoiceAttachment
		wantErr bool
	}{
		{"none", nil, false},
		{"valid", []core.InvoiceAttachment{pdf}, false},
		{"too many", []core.InvoiceAttachment{pdf, pdf, pdf, pdf, pdf, pdf}, true},
		{"too large", []core.InvoiceAttachment{{FileName: "a.pdf", FileType: "application/pdf", FileSize: attachments.MaxFileSize + 1}}, true},
		{"unsupported type", []core.InvoiceAttachment{{FileName: "a.exe", FileType: "application/x-msdownload", FileSize: 10}}, true},
		{"empty", []core.InvoiceAttachment{{FileName: "a.pdf", FileType: "application/pdf"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			d.Attachments = tt.atts
			err := d.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if _, ok := fieldErrors(t, err)["attachments"]; !ok {
				t.Fatalf("expected attachments field error, got %v", err)
			}
		})
	}
}

func TestBuildInvoiceNewIgnoresDraftAttachments(t *testing.T) {
	d := validDraft()
	d.Attachments = []core.InvoiceAttachment{{ID: "a1", FileName: "a.pdf"}}
	inv := BuildInvoice(d, nil, 10, time.Now())
	if len(inv.Attachments) != 0 {
		t.Fatalf("attachments = %+v", inv.Attachments)
	}
}
