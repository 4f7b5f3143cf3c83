// Package store defines the persistence port for invoices and the JSON
// encoding shared by every backend.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"fatture/internal/core"
)

// CollectionInvoices is the name under which the invoice list is persisted.
const CollectionInvoices = "invoices"

// InvoiceStore persists the full invoice collection as a single document.
// Load never returns invoices shared with the store's internal state.
type InvoiceStore interface {
	Load(ctx context.Context) ([]core.Invoice, error)
	Save(ctx context.Context, invoices []core.Invoice) error
}

// Encode serializes invoices as a JSON array. A nil slice encodes as [].
func Encode(invoices []core.Invoice) ([]byte, error) {
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	b, err := json.Marshal(invoices)
	if err != nil {
		return nil, fmt.Errorf("encode invoices: %w", err)
	}
	return b, nil
}

// Decode parses a stored JSON array. An empty payload is an empty collection.
func Decode(payload []byte) ([]core.Invoice, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return []core.Invoice{}, nil
	}
	var out []core.Invoice
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	if out == nil {
		out = []core.Invoice{}
	}
	return out, nil
}
