package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"fatture/internal/core"
)

func TestWriteXLSX(t *testing.T) {
	invoices := []core.Invoice{
		{
			ID: "1", InvoiceNumber: "INV-001", ClientName: "Acme Corp", Date: "2024-01-10",
			Status: core.StatusPaid, Subtotal: 1000, Tax: 100, Total: 1100,
			Items: []core.InvoiceItem{
				{ID: "a", Description: "Web Development", Quantity: 1, Price: 800, Total: 800},
				{ID: "b", Description: "Hosting", Quantity: 2, Price: 100, Total: 200},
			},
		},
		{
			ID: "3", InvoiceNumber: "INV-003", ClientName: "Global Ltd", Date: "2024-03-20",
			Status: core.StatusOverdue, Total: 3300,
			Items: []core.InvoiceItem{{ID: "c", Description: "Consulting", Quantity: 10, Price: 300, Total: 3000}},
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, invoices); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SheetInvoices || sheets[1] != SheetItems {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := f.GetRows(SheetInvoices)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("invoice rows = %d, want 3", len(rows))
	}
	if rows[0][1] != "Invoice Number" || rows[1][1] != "INV-001" || rows[2][7] != "overdue" {
		t.Fatalf("unexpected rows %v", rows)
	}

	items, err := f.GetRows(SheetItems)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 4 {
		t.Fatalf("item rows = %d, want 4", len(items))
	}
	if items[3][0] != "INV-003" || items[3][2] != "Consulting" {
		t.Fatalf("unexpected item row %v", items[3])
	}

	paidStyle, _ := f.GetCellStyle(SheetInvoices, "H2")
	overdueStyle, _ := f.GetCellStyle(SheetInvoices, "H3")
	if overdueStyle == 0 || overdueStyle == paidStyle {
		t.Fatalf("overdue status cell not styled: paid=%d overdue=%d", paidStyle, overdueStyle)
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows(SheetInvoices)
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d", len(rows))
	}
}
