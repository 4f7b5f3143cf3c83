// Package memory is an in-process sheets.Syncer used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"fatture/internal/core"
	ports "fatture/internal/sheets"
)

var _ ports.Syncer = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	order []string
	rows  map[string]core.Invoice
}

func New() *Store {
	return &Store{rows: map[string]core.Invoice{}}
}

func (s *Store) Upsert(_ context.Context, inv core.Invoice) (string, error) {
	if inv.ID == "" {
		return "", fmt.Errorf("invoice has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[inv.ID]; !ok {
		s.order = append(s.order, inv.ID)
	}
	s.rows[inv.ID] = inv.Clone()
	return fmt.Sprintf("mem:%d", slices.Index(s.order, inv.ID)+1), nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return nil
	}
	delete(s.rows, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// Rows returns the mirrored invoices in row order.
func (s *Store) Rows() []core.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Invoice, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id].Clone())
	}
	return out
}
