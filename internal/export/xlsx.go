// Package export writes invoice collections to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"fatture/internal/core"
)

const (
	SheetInvoices = "Invoices"
	SheetItems    = "Items"

	overdueColor = "9A0511"
)

var (
	invoiceHeaders = []string{
		"ID", "Invoice Number", "Client Name", "Client Email", "Client Address",
		"Date", "Due Date", "Status", "Subtotal", "Tax", "Total", "Notes", "Attachments",
		"Created At", "Updated At",
	}
	itemHeaders = []string{"Invoice Number", "Item ID", "Description", "Quantity", "Price", "Total"}
)

// WriteXLSX writes invoices as a workbook with one row per invoice and one
// row per line item. Overdue status cells are rendered in red.
func WriteXLSX(w io.Writer, invoices []core.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetInvoices); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetItems); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	overdue, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: overdueColor, Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeHeader(f, SheetInvoices, invoiceHeaders, header); err != nil {
		return err
	}
	if err := writeHeader(f, SheetItems, itemHeaders, header); err != nil {
		return err
	}

	itemRow := 2
	for i, inv := range invoices {
		row := i + 2
		values := []any{
			inv.ID, inv.InvoiceNumber, inv.ClientName, inv.ClientEmail, inv.ClientAddress,
			inv.Date, inv.DueDate, string(inv.Status), inv.Subtotal, inv.Tax, inv.Total, inv.Notes,
			len(inv.Attachments), inv.CreatedAt, inv.UpdatedAt,
		}
		if err := setRow(f, SheetInvoices, row, values); err != nil {
			return err
		}

		first, _ := excelize.CoordinatesToCellName(9, row)
		last, _ := excelize.CoordinatesToCellName(11, row)
		if err := f.SetCellStyle(SheetInvoices, first, last, money); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
		if inv.Status == core.StatusOverdue {
			cell, _ := excelize.CoordinatesToCellName(8, row)
			if err := f.SetCellStyle(SheetInvoices, cell, cell, overdue); err != nil {
				return fmt.Errorf("style status: %w", err)
			}
		}

		for _, it := range inv.Items {
			if err := setRow(f, SheetItems, itemRow, []any{
				inv.InvoiceNumber, it.ID, it.Description, it.Quantity, it.Price, it.Total,
			}); err != nil {
				return err
			}
			itemRow++
		}
	}

	if err := f.SetColWidth(SheetInvoices, "B", "D", 22); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetItems, "C", "C", 36); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	idx, err := f.GetSheetIndex(SheetInvoices)
	if err != nil {
		return fmt.Errorf("find sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
