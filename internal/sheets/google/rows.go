package google

import (
	"fmt"
	"strconv"
	"strings"

	"fatture/internal/core"
)

// Header is written to row 1 of an empty sheet. Column A holds the invoice
// ID and is used to locate rows.
var Header = []any{
	"ID", "Invoice Number", "Client Name", "Client Email", "Date", "Due Date",
	"Status", "Subtotal", "Tax", "Total", "Items", "Updated At",
}

func invoiceRow(inv core.Invoice) []any {
	descs := make([]string, 0, len(inv.Items))
	for _, it := range inv.Items {
		descs = append(descs, fmt.Sprintf("%s x%s", it.Description, strconv.FormatFloat(it.Quantity, 'f', -1, 64)))
	}
	return []any{
		inv.ID,
		inv.InvoiceNumber,
		inv.ClientName,
		inv.ClientEmail,
		inv.Date,
		inv.DueDate,
		string(inv.Status),
		inv.Subtotal,
		inv.Tax,
		inv.Total,
		strings.Join(descs, "; "),
		inv.UpdatedAt,
	}
}

// findRow returns the 1-based sheet row whose first cell equals id, or 0.
// values is the A column as returned by the API starting at row 1.
func findRow(values [][]any, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// columnLetter converts a 1-based column index to its A1 letter form.
func columnLetter(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, columnLetter(len(Header)), row)
}
