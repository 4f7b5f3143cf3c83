package cli

import (
	"context"
	"path/filepath"
	"testing"

	"fatture/internal/attachments"
	"fatture/internal/config"
	"fatture/internal/core"
	"fatture/internal/invoices"
	"fatture/internal/log"
	memsheet "fatture/internal/sheets/memory"
)

func TestOpenStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"memory", config.Config{DataBackend: "memory", DataDir: t.TempDir()}, false},
		{"sqlite", config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "fatture.db")}, false},
		{"unknown", config.Config{DataBackend: "mongo"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := OpenStore(context.Background(), &tt.cfg, log.Discard())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer res.Close()
			if err := res.Ping(context.Background()); err != nil {
				t.Fatalf("Ping: %v", err)
			}
		})
	}
}

func TestAttachmentStorage(t *testing.T) {
	st, err := AttachmentStorage(&config.Config{AttachmentBackend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*attachments.Memory); !ok {
		t.Fatalf("storage = %T", st)
	}
	if _, err := AttachmentStorage(&config.Config{AttachmentBackend: "ftp"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestPublisherDisabledWithoutURL(t *testing.T) {
	pub, err := Publisher(&config.Config{}, log.Discard())
	if err != nil || pub != nil {
		t.Fatalf("Publisher = %v, %v", pub, err)
	}
}

func TestServiceOptionsApplyTaxRate(t *testing.T) {
	cfg := &config.Config{TaxRatePercent: 22}
	res, err := OpenStore(context.Background(), &config.Config{DataBackend: "memory", DataDir: t.TempDir()}, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	svc := invoices.NewService(res.Store, ServiceOptions(cfg, attachments.NewInline(), nil, log.Discard())...)
	if svc.TaxRate() != 22 {
		t.Fatalf("TaxRate = %v", svc.TaxRate())
	}
	inv, err := svc.Create(context.Background(), invoices.Draft{
		ClientName:  "Acme",
		ClientEmail: "a@acme.com",
		Date:        "2024-01-01",
		DueDate:     "2024-02-01",
		Items:       []core.InvoiceItem{{Description: "Work", Quantity: 1, Price: 100}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if inv.Tax != 22 {
		t.Fatalf("Tax = %v", inv.Tax)
	}
}

func TestSyncerFallsBackToMemory(t *testing.T) {
	s, err := Syncer(context.Background(), &config.Config{GoogleSpreadsheetID: "abc"}, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*memsheet.Store); !ok {
		t.Fatalf("syncer = %T", s)
	}
}
