package worker

import (
	"context"
	"errors"
	"fmt"

	"fatture/internal/amqp"
	"fatture/internal/core"
	"fatture/internal/log"
	"fatture/internal/sheets"
	"fatture/internal/store"
)

// SyncWorker mirrors invoices from the store into a spreadsheet.
type SyncWorker struct {
	store  store.InvoiceStore
	sheets sheets.Syncer
	logger *log.Logger
}

func NewSyncWorker(st store.InvoiceStore, syncer sheets.Syncer, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		store:  st,
		sheets: syncer,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncMessage applies one sync message. Upserts read the current
// snapshot; an invoice that no longer exists has its row removed.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.InvoiceSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		log.FieldInvoiceID, msg.ID,
		"action", msg.Action,
		"queued_at", msg.Timestamp)

	if msg.Action == amqp.ActionDelete {
		return w.remove(ctx, msg.ID)
	}

	invoices, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load invoices: %w", err)
	}
	inv, ok := find(invoices, msg.ID)
	if !ok {
		w.logger.WarnContext(ctx, "Invoice no longer exists, removing row", log.FieldInvoiceID, msg.ID)
		return w.remove(ctx, msg.ID)
	}

	ref, err := w.sheets.Upsert(ctx, inv)
	if err != nil {
		return fmt.Errorf("upsert invoice %s: %w", inv.ID, err)
	}
	w.logger.InfoContext(ctx, "Invoice synced",
		log.FieldInvoiceID, inv.ID,
		log.FieldInvoiceNumber, inv.InvoiceNumber,
		log.FieldOperation, log.OpSync,
		"row_ref", ref)
	return nil
}

// ResyncAll writes every stored invoice. It is the recovery path for
// messages lost while the broker was unavailable. Failures are collected and
// do not stop the pass.
func (w *SyncWorker) ResyncAll(ctx context.Context) (int, error) {
	invoices, err := w.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load invoices: %w", err)
	}

	var errs []error
	synced := 0
	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if _, err := w.sheets.Upsert(ctx, inv); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync invoice", log.FieldInvoiceID, inv.ID, log.FieldError, err)
			errs = append(errs, fmt.Errorf("invoice %s: %w", inv.ID, err))
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Resync completed",
		log.FieldCount, synced, "failed", len(errs), log.FieldOperation, log.OpSync)
	return synced, errors.Join(errs...)
}

func (w *SyncWorker) remove(ctx context.Context, id string) error {
	if err := w.sheets.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove invoice %s: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Invoice row removed", log.FieldInvoiceID, id)
	return nil
}

func find(invoices []core.Invoice, id string) (core.Invoice, bool) {
	for _, inv := range invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return core.Invoice{}, false
}
