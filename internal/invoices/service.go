// Package invoices implements invoice use cases on top of the persistence
// port and the pure core computations.
package invoices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fatture/internal/attachments"
	"fatture/internal/core"
	"fatture/internal/log"
	"fatture/internal/store"
)

var ErrNotFound = errors.New("invoice not found")

// Publisher announces invoice changes, typically over AMQP.
type Publisher interface {
	PublishInvoiceSync(ctx context.Context, id string) error
	PublishInvoiceDelete(ctx context.Context, id string) error
}

// Progress is called after each imported invoice.
type Progress func(done, total int)

// ImportResult counts what Import changed.
type ImportResult struct {
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
}

type Service struct {
	// mu serializes read-modify-write cycles on the single stored collection.
	mu sync.Mutex

	store       store.InvoiceStore
	attachments attachments.Storage
	publisher   Publisher
	logger      *log.Logger
	taxRate     float64
	now         func() time.Time
	onChange    []func()
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithAttachmentStorage(a attachments.Storage) Option {
	return func(s *Service) { s.attachments = a }
}

func WithTaxRate(percent float64) Option {
	return func(s *Service) { s.taxRate = percent }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// OnChange registers fn to run after every saved write, including the ones
// made by the overdue sweeper. Register listeners before serving traffic.
func (s *Service) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func NewService(st store.InvoiceStore, opts ...Option) *Service {
	s := &Service{
		store:       st,
		attachments: attachments.NewInline(),
		taxRate:     DefaultTaxRatePercent,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentInvoice)
	return s
}

// TaxRate returns the default tax rate applied to drafts without one.
func (s *Service) TaxRate() float64 {
	return s.taxRate
}

// List loads every invoice, filters by c and sorts by key and order.
func (s *Service) List(ctx context.Context, c core.Criteria, key core.SortKey, order core.SortOrder) ([]core.Invoice, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	out := core.SortInvoices(core.FilterInvoices(all, c), key, order)
	s.logger.DebugContext(ctx, "Invoices listed", log.FieldCount, len(out), log.FieldOperation, log.OpList)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (core.Invoice, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	if i := indexOf(all, id); i >= 0 {
		return all[i], nil
	}
	return core.Invoice{}, ErrNotFound
}

// Stats summarizes every stored invoice by status label.
func (s *Service) Stats(ctx context.Context) (core.Summary, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("invoice stats: %w", err)
	}
	return core.Summarize(all), nil
}

func (s *Service) Create(ctx context.Context, d Draft) (core.Invoice, error) {
	if err := d.Validate(); err != nil {
		return core.Invoice{}, err
	}

	var created core.Invoice
	err := s.mutate(ctx, func(all []core.Invoice) ([]core.Invoice, error) {
		created = BuildInvoice(d, nil, s.taxRate, s.now())
		return append(all, created), nil
	})
	if err != nil {
		return core.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}

	s.logger.InfoContext(ctx, "Invoice created", log.NewFields().
		WithInvoice(created.ID, created.InvoiceNumber, created.ClientName, created.Total).
		WithOperation(log.OpCreate).ToSlice()...)
	s.publishSync(ctx, created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, d Draft) (core.Invoice, error) {
	if err := d.Validate(); err != nil {
		return core.Invoice{}, err
	}

	var updated core.Invoice
	var dropped []core.InvoiceAttachment
	err := s.mutate(ctx, func(all []core.Invoice) ([]core.Invoice, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		updated = BuildInvoice(d, &all[i], s.taxRate, s.now())
		dropped = droppedAttachments(all[i].Attachments, updated.Attachments)
		all[i] = updated
		return all, nil
	})
	if err != nil {
		return core.Invoice{}, err
	}
	s.deleteBodies(ctx, id, dropped)

	s.logger.InfoContext(ctx, "Invoice updated", log.NewFields().
		WithInvoice(updated.ID, updated.InvoiceNumber, updated.ClientName, updated.Total).
		WithOperation(log.OpUpdate).ToSlice()...)
	s.publishSync(ctx, updated.ID)
	return updated, nil
}

// Delete removes the invoice and its stored attachments. Deleting an unknown
// id is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	var removed *core.Invoice
	err := s.mutate(ctx, func(all []core.Invoice) ([]core.Invoice, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, errNoChange
		}
		inv := all[i]
		removed = &inv
		return append(all[:i], all[i+1:]...), nil
	})
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if removed == nil {
		return nil
	}

	s.deleteBodies(ctx, id, removed.Attachments)

	s.logger.InfoContext(ctx, "Invoice deleted", log.FieldInvoiceID, id, log.FieldOperation, log.OpDelete)
	s.publishDelete(ctx, id)
	return nil
}

// Seed stores invoices only when the collection is empty. It reports whether
// anything was written.
func (s *Service) Seed(ctx context.Context, invoices []core.Invoice) (bool, error) {
	seeded := false
	err := s.mutate(ctx, func(all []core.Invoice) ([]core.Invoice, error) {
		if len(all) > 0 || len(invoices) == 0 {
			return nil, errNoChange
		}
		out := make([]core.Invoice, len(invoices))
		for i, inv := range invoices {
			out[i] = inv.Clone()
		}
		seeded = true
		return out, nil
	})
	if err != nil {
		return false, fmt.Errorf("seed invoices: %w", err)
	}
	if seeded {
		s.logger.InfoContext(ctx, "Seeded invoices", log.FieldCount, len(invoices))
		for _, inv := range invoices {
			s.publishSync(ctx, inv.ID)
		}
	}
	return seeded, nil
}

// Import replaces invoices with matching IDs and appends the rest. Invoices
// without an ID are given one. Stored snapshots are taken as-is; amounts are
// not recomputed.
func (s *Service) Import(ctx context.Context, invoices []core.Invoice, progress Progress) (ImportResult, error) {
	for i, inv := range invoices {
		if inv.Status != "" && !inv.Status.IsValid() {
			return ImportResult{}, fmt.Errorf("import invoice %d (%s): unknown status %q", i, inv.InvoiceNumber, inv.Status)
		}
	}

	var res ImportResult
	var ids []string
	err := s.mutate(ctx, func(all []core.Invoice) ([]core.Invoice, error) {
		res = ImportResult{}
		ids = ids[:0]
		stamp := s.now().UTC().Format(time.RFC3339Nano)
		for n, inv := range invoices {
			inv = inv.Clone()
			if inv.ID == "" {
				inv.ID = uuid.NewString()
			}
			if inv.Status == "" {
				inv.Status = core.StatusPending
			}
			if inv.CreatedAt == "" {
				inv.CreatedAt = stamp
			}
			if inv.UpdatedAt == "" {
				inv.UpdatedAt = stamp
			}
			if i := indexOf(all, inv.ID); i >= 0 {
				all[i] = inv
				res.Replaced++
			} else {
				all = append(all, inv)
				res.Added++
			}
			ids = append(ids, inv.ID)
			if progress != nil {
				progress(n+1, len(invoices))
			}
		}
		return all, nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import invoices: %w", err)
	}

	s.logger.InfoContext(ctx, "Imported invoices",
		"added", res.Added, "replaced", res.Replaced, log.FieldOperation, log.OpImport)
	for _, id := range ids {
		s.publishSync(ctx, id)
	}
	return res, nil
}

// MarkOverdue relabels pending invoices whose due date has passed at now as
// overdue and returns how many changed.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	var changed []string
	err := s.mutate(ctx, func(all []core.Invoice) ([]core.Invoice, error) {
		changed = changed[:0]
		stamp := s.now().UTC().Format(time.RFC3339Nano)
		for i, inv := range all {
			if inv.Status == core.StatusPending && core.IsOverdue(inv.DueDate, inv.Status, now) {
				all[i].Status = core.StatusOverdue
				all[i].UpdatedAt = stamp
				changed = append(changed, inv.ID)
			}
		}
		if len(changed) == 0 {
			return nil, errNoChange
		}
		return all, nil
	})
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}

	if len(changed) > 0 {
		s.logger.InfoContext(ctx, "Marked invoices overdue",
			log.FieldCount, len(changed), log.FieldOperation, log.OpSweep)
	}
	for _, id := range changed {
		s.publishSync(ctx, id)
	}
	return len(changed), nil
}

// AddAttachment validates and stores an upload, then records it on the invoice.
func (s *Service) AddAttachment(ctx context.Context, id string, up attachments.Upload) (core.InvoiceAttachment, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return core.InvoiceAttachment{}, err
	}
	attLog := s.logger.WithComponent(log.ComponentAttachment)
	contentType := attachments.ContentType(up.FileName, up.ContentType)
	if err := attachments.Validate(up.FileName, int64(len(up.Data)), contentType, len(current.Attachments)); err != nil {
		attLog.WarnContext(ctx, "Attachment rejected",
			log.FieldInvoiceID, id, log.FieldError, err, log.FieldOperation, log.OpValidate)
		return core.InvoiceAttachment{}, err
	}

	now := s.now()
	att := core.InvoiceAttachment{
		ID:         uuid.NewString(),
		FileName:   up.FileName,
		FileSize:   int64(len(up.Data)),
		FileType:   contentType,
		UploadedAt: now.UTC().Format(time.RFC3339Nano),
	}
	key := attachments.Key(id, att.ID, att.FileName)
	url, err := s.attachments.Put(ctx, key, up.Data, contentType)
	if err != nil {
		return core.InvoiceAttachment{}, fmt.Errorf("store attachment: %w", err)
	}
	att.URL = url

	err = s.mutate(ctx, func(all []core.Invoice) ([]core.Invoice, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		// Re-check under the lock; a concurrent upload may have used the slot.
		if err := attachments.Validate(att.FileName, att.FileSize, contentType, len(all[i].Attachments)); err != nil {
			return nil, err
		}
		all[i].Attachments = append(all[i].Attachments, att)
		all[i].UpdatedAt = att.UploadedAt
		return all, nil
	})
	if err != nil {
		if derr := s.attachments.Delete(ctx, key); derr != nil {
			s.logger.WarnContext(ctx, "Failed to roll back attachment body", log.FieldError, derr)
		}
		return core.InvoiceAttachment{}, err
	}

	attLog.InfoContext(ctx, "Attachment added",
		log.FieldInvoiceID, id, log.FieldAttachmentID, att.ID, "file_size", att.FileSize)
	s.publishSync(ctx, id)
	return att, nil
}

// RemoveAttachment drops the attachment from the invoice and deletes its body.
func (s *Service) RemoveAttachment(ctx context.Context, id, attachmentID string) error {
	var removed core.InvoiceAttachment
	err := s.mutate(ctx, func(all []core.Invoice) ([]core.Invoice, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		j := all[i].FindAttachment(attachmentID)
		if j < 0 {
			return nil, attachments.ErrNotFound
		}
		removed = all[i].Attachments[j]
		rest := append(all[i].Attachments[:j:j], all[i].Attachments[j+1:]...)
		if len(rest) == 0 {
			rest = nil
		}
		all[i].Attachments = rest
		all[i].UpdatedAt = s.now().UTC().Format(time.RFC3339Nano)
		return all, nil
	})
	if err != nil {
		return err
	}

	if err := s.attachments.Delete(ctx, attachments.Key(id, removed.ID, removed.FileName)); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete attachment body",
			log.FieldInvoiceID, id, log.FieldAttachmentID, attachmentID, log.FieldError, err)
	}
	s.publishSync(ctx, id)
	return nil
}

// AttachmentContent returns the body of an attachment. Inline attachments are
// decoded from their data URL.
func (s *Service) AttachmentContent(ctx context.Context, id, attachmentID string) (core.InvoiceAttachment, []byte, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return core.InvoiceAttachment{}, nil, err
	}
	j := inv.FindAttachment(attachmentID)
	if j < 0 {
		return core.InvoiceAttachment{}, nil, attachments.ErrNotFound
	}
	att := inv.Attachments[j]
	if body, _, ok := attachments.DecodeDataURL(att.URL); ok {
		return att, body, nil
	}
	body, _, err := s.attachments.Get(ctx, attachments.Key(id, att.ID, att.FileName))
	if err != nil {
		return core.InvoiceAttachment{}, nil, err
	}
	return att, body, nil
}

var errNoChange = errors.New("no change")

// mutate runs fn on the loaded collection and saves the result. fn may return
// errNoChange to skip the save.
func (s *Service) mutate(ctx context.Context, fn func([]core.Invoice) ([]core.Invoice, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(all)
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return err
	}
	for _, fn := range s.onChange {
		fn()
	}
	return nil
}

func (s *Service) deleteBodies(ctx context.Context, invoiceID string, atts []core.InvoiceAttachment) {
	for _, a := range atts {
		if err := s.attachments.Delete(ctx, attachments.Key(invoiceID, a.ID, a.FileName)); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete attachment body",
				log.FieldInvoiceID, invoiceID, log.FieldAttachmentID, a.ID, log.FieldError, err)
		}
	}
}

func (s *Service) publishSync(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishInvoiceSync(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldInvoiceID, id, log.FieldError, err)
	}
}

func (s *Service) publishDelete(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishInvoiceDelete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish delete message",
			log.FieldInvoiceID, id, log.FieldError, err)
	}
}

func indexOf(all []core.Invoice, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}
