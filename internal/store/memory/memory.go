package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"fatture/internal/core"
	"fatture/internal/store"
)

// SeedFile is read from the data directory by NewFromFiles.
const SeedFile = "seed_invoices.json"

type Store struct {
	mu    sync.Mutex
	items []core.Invoice
}

func New(invoices ...core.Invoice) *Store {
	return &Store{items: cloneAll(invoices)}
}

// NewFromFiles seeds the store from <base>/seed_invoices.json. A missing or
// unreadable seed file yields an empty store.
func NewFromFiles(base string) *Store {
	b, err := os.ReadFile(filepath.Join(base, SeedFile))
	if err != nil {
		return New()
	}
	invoices, err := store.Decode(b)
	if err != nil {
		return New()
	}
	return New(invoices...)
}

func (s *Store) Load(_ context.Context) ([]core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.items), nil
}

func (s *Store) Save(_ context.Context, invoices []core.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cloneAll(invoices)
	return nil
}

func cloneAll(in []core.Invoice) []core.Invoice {
	out := make([]core.Invoice, len(in))
	for i, inv := range in {
		out[i] = inv.Clone()
	}
	return out
}
