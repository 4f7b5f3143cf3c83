package cli

import (
	"context"
	"fmt"

	"fatture/internal/amqp"
	"fatture/internal/attachments"
	"fatture/internal/backend"
	"fatture/internal/config"
	"fatture/internal/invoices"
	"fatture/internal/log"
	"fatture/internal/sheets"
	gsheet "fatture/internal/sheets/google"
	memsheet "fatture/internal/sheets/memory"
)

// OpenStore creates the invoice store selected by DATA_BACKEND.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, bcfg)
}

// AttachmentStorage creates the storage selected by ATTACHMENT_BACKEND.
func AttachmentStorage(cfg *config.Config) (attachments.Storage, error) {
	return attachments.New(cfg.AttachmentBackend, attachments.S3Config{
		Bucket:   cfg.S3Bucket,
		Region:   cfg.S3Region,
		Endpoint: cfg.S3Endpoint,
	})
}

// Publisher connects to AMQP when AMQP_URL is set. It returns nil, nil when
// publishing is disabled.
func Publisher(cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}
	return client, nil
}

// ServiceOptions turns configuration into invoice service options. A nil
// publisher leaves publishing off.
func ServiceOptions(cfg *config.Config, att attachments.Storage, pub *amqp.Client, logger *log.Logger) []invoices.Option {
	opts := []invoices.Option{
		invoices.WithAttachmentStorage(att),
		invoices.WithTaxRate(cfg.TaxRatePercent),
		invoices.WithLogger(logger),
	}
	if pub != nil {
		opts = append(opts, invoices.WithPublisher(pub))
	}
	return opts
}

// Syncer returns the Google Sheets syncer when credentials are configured and
// an in-memory one otherwise.
func Syncer(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.Syncer, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, syncing to memory")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
