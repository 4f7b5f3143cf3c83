package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fatture/internal/core"
)

func TestStoreIsolation(t *testing.T) {
	ctx := context.Background()
	seed := core.Invoice{ID: "1", Items: []core.InvoiceItem{{ID: "i", Description: "Design"}}}
	s := New(seed)

	seed.Items[0].Description = "mutated by caller"
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got[0].Items[0].Description != "Design" {
		t.Fatalf("store shares memory with seed slice")
	}

	got[0].Items[0].Description = "mutated after load"
	again, _ := s.Load(ctx)
	if again[0].Items[0].Description != "Design" {
		t.Fatalf("Load returned shared memory")
	}
}

func TestSaveReplacesCollection(t *testing.T) {
	ctx := context.Background()
	s := New(core.Invoice{ID: "1"}, core.Invoice{ID: "2"})
	if err := s.Save(ctx, []core.Invoice{{ID: "3"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := s.Load(ctx)
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("Load after Save = %+v", got)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	payload := `[{"id":"1","invoiceNumber":"INV-001","clientName":"Acme Corp","status":"paid","total":1100,"items":[]}]`
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFromFiles(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].ClientName != "Acme Corp" || got[0].Status != core.StatusPaid {
		t.Fatalf("seeded = %+v", got)
	}

	empty, _ := NewFromFiles(t.TempDir()).Load(context.Background())
	if len(empty) != 0 {
		t.Fatalf("missing seed should give empty store, got %+v", empty)
	}
}

func TestNewFromFilesCorruptSeed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, _ := NewFromFiles(dir).Load(context.Background())
	if len(got) != 0 {
		t.Fatalf("corrupt seed should give empty store, got %+v", got)
	}
}
