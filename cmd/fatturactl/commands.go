package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	setup "fatture/internal/cli"
	"fatture/internal/core"
	"fatture/internal/export"
	"fatture/internal/invoices"
	"fatture/internal/render"
	"fatture/internal/store"
)

type action func(c *cli.Context, svc *invoices.Service) error

// withService opens the configured store for the duration of one command.
func withService(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := setup.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		logger := stderrLogger(c.App.ErrWriter, cfg.LogLevel)

		backend, err := setup.OpenStore(c.Context, cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		att, err := setup.AttachmentStorage(cfg)
		if err != nil {
			return err
		}
		pub, err := setup.Publisher(cfg, logger)
		if err != nil {
			return err
		}
		if pub != nil {
			defer pub.Close()
		}

		svc := invoices.NewService(backend.Store, setup.ServiceOptions(cfg, att, pub, logger)...)
		return fn(c, svc)
	}
}

func listAction(c *cli.Context, svc *invoices.Service) error {
	criteria, err := criteriaFromFlags(c.String("status"), c.String("from"), c.String("to"), c.String("search"))
	if err != nil {
		return err
	}
	list, err := svc.List(c.Context, criteria, core.ParseSortKey(c.String("sort")), core.ParseSortOrder(c.String("order")))
	if err != nil {
		return err
	}
	return writeTable(c.App.Writer, list, colorizer(c.Bool("no-color")))
}

func showAction(c *cli.Context, svc *invoices.Service) error {
	id, err := requireArg(c, "invoice id")
	if err != nil {
		return err
	}
	inv, err := svc.Get(c.Context, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(inv)
}

func statsAction(c *cli.Context, svc *invoices.Service) error {
	s, err := svc.Stats(c.Context)
	if err != nil {
		return err
	}
	return writeSummary(c.App.Writer, s, colorizer(c.Bool("no-color")))
}

func exportAction(c *cli.Context, svc *invoices.Service) error {
	criteria, err := criteriaFromFlags(c.String("status"), "", "", "")
	if err != nil {
		return err
	}
	list, err := svc.List(c.Context, criteria, core.SortByDate, core.Descending)
	if err != nil {
		return err
	}

	out := c.String("out")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := export.WriteXLSX(f, list); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Exported %d invoices to %s\n", len(list), out)
	return nil
}

func pdfAction(c *cli.Context, svc *invoices.Service) error {
	id, err := requireArg(c, "invoice id")
	if err != nil {
		return err
	}
	inv, err := svc.Get(c.Context, id)
	if err != nil {
		return err
	}
	doc, err := render.InvoicePDF(inv)
	if err != nil {
		return err
	}
	out := c.String("out")
	if out == "" {
		out = pdfFileName(inv)
	}
	if err := os.WriteFile(out, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", out)
	return nil
}

func importAction(c *cli.Context, svc *invoices.Service) error {
	list, err := readInvoiceFile(c)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(list),
		progressbar.OptionSetWriter(c.App.ErrWriter),
		progressbar.OptionSetDescription("Importing invoices"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	res, err := svc.Import(c.Context, list, func(done, _ int) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "\nImported %d invoices (%d added, %d replaced)\n", res.Added+res.Replaced, res.Added, res.Replaced)
	return nil
}

func seedAction(c *cli.Context, svc *invoices.Service) error {
	list, err := readInvoiceFile(c)
	if err != nil {
		return err
	}
	seeded, err := svc.Seed(c.Context, list)
	if err != nil {
		return err
	}
	if !seeded {
		fmt.Fprintln(c.App.Writer, "Store already has invoices; nothing seeded")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Seeded %d invoices\n", len(list))
	return nil
}

func markOverdueAction(c *cli.Context, svc *invoices.Service) error {
	ctx, cancel := context.WithTimeout(c.Context, time.Minute)
	defer cancel()
	n, err := svc.MarkOverdue(ctx, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Marked %d invoices overdue\n", n)
	return nil
}

func requireArg(c *cli.Context, what string) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit(fmt.Sprintf("expected exactly one argument: %s", what), 2)
	}
	return c.Args().First(), nil
}

func readInvoiceFile(c *cli.Context) ([]core.Invoice, error) {
	path, err := requireArg(c, "JSON file")
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	list, err := store.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return list, nil
}
