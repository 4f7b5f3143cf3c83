package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fatture/internal/cli"
	apphttp "fatture/internal/http"
	"fatture/internal/invoices"
	"fatture/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	if err := run(logger); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(logger *log.Logger) error {
	cfg := cli.MustConfig(logger)

	ctx, cancel := cli.GracefulShutdown(logger)
	defer cancel()

	backend, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize %s backend: %w", cfg.DataBackend, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close storage backend", log.FieldError, err)
		}
	}()

	att, err := cli.AttachmentStorage(cfg)
	if err != nil {
		return fmt.Errorf("initialize attachment storage: %w", err)
	}

	pub, err := cli.Publisher(cfg, logger)
	if err != nil {
		return err
	}
	if pub != nil {
		defer pub.Close()
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	svc := invoices.NewService(backend.Store, cli.ServiceOptions(cfg, att, pub, logger)...)
	sweeper := invoices.NewOverdueSweeper(svc, cfg.OverdueSweepInterval, logger)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:         logger,
		CacheTTL:       cfg.CacheTTL,
		Ready:          backend.Ping,
		TrustedProxies: cfg.TrustedProxies,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fatture server", "port", cfg.Port, "backend", cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
