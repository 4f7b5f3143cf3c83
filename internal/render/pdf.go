// Package render produces printable documents for invoices.
package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"fatture/internal/core"
)

const (
	pageMargin = 15.0
	lineHeight = 7.0
)

var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"Description", 90, "L"},
	{"Qty", 20, "R"},
	{"Price", 35, "R"},
	{"Total", 35, "R"},
}

// InvoicePDF renders an A4 invoice document. Amounts are the stored ones;
// nothing is recomputed here.
func InvoicePDF(inv core.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(inv.InvoiceNumber, true)
	pdf.SetAuthor("fatture", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(120, 10, "INVOICE")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 10, tr(inv.InvoiceNumber), "", 1, "R", false, 0, "")

	pdf.CellFormat(0, lineHeight, "Date: "+core.FormatDate(inv.Date), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Due: "+core.FormatDate(inv.DueDate), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Status: "+statusLabel(inv.Status), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, lineHeight, "Bill To")
	pdf.Ln(lineHeight)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, lineHeight, tr(inv.ClientName))
	pdf.Ln(lineHeight)
	if inv.ClientEmail != "" {
		pdf.Cell(0, lineHeight, tr(inv.ClientEmail))
		pdf.Ln(lineHeight)
	}
	if inv.ClientAddress != "" {
		pdf.MultiCell(0, lineHeight, tr(inv.ClientAddress), "", "L", false)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range itemColumns {
		pdf.CellFormat(col.width, lineHeight+1, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, it := range inv.Items {
		cells := []string{
			tr(it.Description),
			strconv.FormatFloat(it.Quantity, 'f', -1, 64),
			core.FormatCurrency(it.Price),
			core.FormatCurrency(it.Total),
		}
		for i, col := range itemColumns {
			pdf.CellFormat(col.width, lineHeight, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	labelWidth := itemColumns[0].width + itemColumns[1].width + itemColumns[2].width
	totals := []struct {
		label  string
		amount float64
		bold   bool
	}{
		{"Subtotal", inv.Subtotal, false},
		{"Tax", inv.Tax, false},
		{"Total", inv.Total, true},
	}
	for _, row := range totals {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 11)
		pdf.CellFormat(labelWidth, lineHeight, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(itemColumns[3].width, lineHeight, core.FormatCurrency(row.amount), "", 1, "R", false, 0, "")
	}

	if inv.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, lineHeight, "Notes")
		pdf.Ln(lineHeight)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.ID, err)
	}
	return buf.Bytes(), nil
}

func statusLabel(s core.PaymentStatus) string {
	switch s {
	case core.StatusPaid:
		return "Paid"
	case core.StatusPending:
		return "Pending"
	case core.StatusOverdue:
		return "Overdue"
	default:
		return string(s)
	}
}
