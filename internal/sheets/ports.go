// Package sheets defines the outbound port for mirroring invoices to a
// spreadsheet.
package sheets

import (
	"context"

	"fatture/internal/core"
)

// Syncer keeps one spreadsheet row per invoice, keyed by invoice ID.
type Syncer interface {
	// Upsert writes the invoice row, replacing an existing one with the same
	// ID. It returns a reference to the written row.
	Upsert(ctx context.Context, inv core.Invoice) (rowRef string, err error)
	// Remove deletes the invoice row. Removing a missing row is not an error.
	Remove(ctx context.Context, id string) error
}
