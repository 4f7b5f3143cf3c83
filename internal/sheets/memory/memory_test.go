package memory

import (
	"context"
	"testing"

	"fatture/internal/core"
)

func TestStoreUpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	ref, err := s.Upsert(ctx, core.Invoice{ID: "a", Total: 1})
	if err != nil || ref != "mem:1" {
		t.Fatalf("Upsert(a) = %q, %v", ref, err)
	}
	if ref, _ := s.Upsert(ctx, core.Invoice{ID: "b"}); ref != "mem:2" {
		t.Fatalf("Upsert(b) ref = %q", ref)
	}
	if ref, _ := s.Upsert(ctx, core.Invoice{ID: "a", Total: 2}); ref != "mem:1" {
		t.Fatalf("re-Upsert(a) ref = %q", ref)
	}

	rows := s.Rows()
	if len(rows) != 2 || rows[0].ID != "a" || rows[0].Total != 2 {
		t.Fatalf("unexpected rows %+v", rows)
	}

	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Fatal(err)
	}
	rows = s.Rows()
	if len(rows) != 1 || rows[0].ID != "b" {
		t.Fatalf("unexpected rows after remove %+v", rows)
	}
}

func TestStoreRejectsEmptyID(t *testing.T) {
	if _, err := New().Upsert(context.Background(), core.Invoice{}); err == nil {
		t.Fatal("expected error")
	}
}
