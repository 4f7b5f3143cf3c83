package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fatture/internal/core"
	"fatture/internal/log"
	"fatture/internal/store"

	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewPostgresRepository(ctx context.Context, dsn string, logger *log.Logger) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunPostgresMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &PostgresRepository{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (r *PostgresRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements store.InvoiceStore.
func (r *PostgresRepository) Load(ctx context.Context) ([]core.Invoice, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM collections WHERE name = $1`, store.CollectionInvoices,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []core.Invoice{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	return decodeOrEmpty(ctx, r.logger, payload), nil
}

// Save implements store.InvoiceStore.
func (r *PostgresRepository) Save(ctx context.Context, invoices []core.Invoice) error {
	payload, err := store.Encode(invoices)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO collections (name, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		store.CollectionInvoices, string(payload),
	)
	if err != nil {
		return fmt.Errorf("save invoices: %w", err)
	}
	r.logger.DebugContext(ctx, "Invoices saved to Postgres", log.FieldCount, len(invoices))
	return nil
}
