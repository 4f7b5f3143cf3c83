package storage

import (
	"context"
	"path/filepath"
	"testing"

	"fatture/internal/core"
	"fatture/internal/log"
	"fatture/internal/store"
)

var _ store.InvoiceStore = (*SQLiteRepository)(nil)
var _ store.InvoiceStore = (*PostgresRepository)(nil)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "sub", "test.db"), log.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_EmptyLoad(t *testing.T) {
	repo := newTestRepo(t)
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("Load on empty db = %#v", got)
	}
}

func TestSQLiteRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := []core.Invoice{{
		ID: "1", InvoiceNumber: "INV-001", ClientName: "Acme Corp",
		Items:  []core.InvoiceItem{{ID: "i1", Description: "Web", Quantity: 1, Price: 1000, Total: 1000}},
		Status: core.StatusPaid, Subtotal: 1000, Tax: 100, Total: 1100,
	}}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Items[0].Description != "Web" || got[0].Total != 1100 {
		t.Fatalf("Load = %+v", got)
	}

	// Upsert replaces the single collection row.
	if err := repo.Save(ctx, append(first, core.Invoice{ID: "2"})); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = repo.Load(ctx)
	if len(got) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(got))
	}
}

func TestSQLiteRepository_CorruptPayloadIsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if _, err := repo.db.ExecContext(ctx,
		`INSERT INTO collections (name, payload, updated_at) VALUES (?, ?, ?)`,
		store.CollectionInvoices, "{broken", "2024-01-01T00:00:00Z"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("corrupt payload should load as empty, got %+v", got)
	}
}

func TestSQLiteRepository_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path, log.Discard())
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}
