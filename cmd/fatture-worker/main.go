package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"fatture/internal/cli"
	"fatture/internal/invoices"
	"fatture/internal/log"
	"fatture/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	logger.Info("Starting fatture-worker", log.FieldOperation, log.OpStartup)
	if err := run(logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(logger *log.Logger) error {
	cfg := cli.MustConfig(logger)
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

	ctx, cancel := cli.GracefulShutdown(logger)
	defer cancel()

	backend, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize %s backend: %w", cfg.DataBackend, err)
	}
	defer backend.Close()

	syncer, err := cli.Syncer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := cli.Publisher(cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(backend.Store, syncer, logger)

	// Rows missed while the sheet was unreachable are repaired by a full pass.
	logger.Info("Performing startup sync")
	if n, err := syncWorker.ResyncAll(ctx); err != nil {
		logger.Error("Startup sync incomplete", log.FieldError, err, log.FieldCount, n)
	} else {
		logger.Info("Startup sync complete", log.FieldCount, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeInvoiceSync(gctx, syncWorker.HandleSyncMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.OverdueSweepInterval > 0 {
		att, err := cli.AttachmentStorage(cfg)
		if err != nil {
			return fmt.Errorf("initialize attachment storage: %w", err)
		}
		svc := invoices.NewService(backend.Store, cli.ServiceOptions(cfg, att, client, logger)...)
		sweeper := invoices.NewOverdueSweeper(svc, cfg.OverdueSweepInterval, logger)
		g.Go(func() error { return sweeper.Run(gctx) })
	}

	return g.Wait()
}
