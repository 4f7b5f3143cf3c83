package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fatture/internal/core"
	"fatture/internal/log"
	"fatture/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps sqlite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements store.InvoiceStore.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Invoice, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM collections WHERE name = ?`, store.CollectionInvoices,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []core.Invoice{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	return decodeOrEmpty(ctx, r.logger, []byte(payload)), nil
}

// Save implements store.InvoiceStore.
func (r *SQLiteRepository) Save(ctx context.Context, invoices []core.Invoice) error {
	payload, err := store.Encode(invoices)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO collections (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		store.CollectionInvoices, string(payload), r.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save invoices: %w", err)
	}
	r.logger.DebugContext(ctx, "Invoices saved to SQLite", log.FieldCount, len(invoices))
	return nil
}

// decodeOrEmpty treats an unreadable payload as an empty collection so that a
// corrupted document does not take the whole service down.
func decodeOrEmpty(ctx context.Context, logger *log.Logger, payload []byte) []core.Invoice {
	invoices, err := store.Decode(payload)
	if err != nil {
		logger.WarnContext(ctx, "Stored invoices could not be decoded, treating as empty",
			log.FieldError, err, log.FieldOperation, log.OpRead)
		return []core.Invoice{}
	}
	return invoices
}
