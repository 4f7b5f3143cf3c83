// Command fatturactl manages invoices directly against the configured store.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	setup "fatture/internal/cli"
)

func main() {
	setup.LoadEnvFile()
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fatturactl",
		Usage: "inspect and maintain the invoice store",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list invoices",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "paid, pending, overdue or all"},
					&cli.StringFlag{Name: "from", Usage: "earliest invoice date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "to", Usage: "latest invoice date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "match client name or invoice number"},
					&cli.StringFlag{Name: "sort", Value: "date", Usage: "date, total or client"},
					&cli.StringFlag{Name: "order", Value: "desc", Usage: "asc or desc"},
				},
				Action: withService(listAction),
			},
			{
				Name:      "show",
				Usage:     "print one invoice as JSON",
				ArgsUsage: "<id>",
				Action:    withService(showAction),
			},
			{
				Name:   "stats",
				Usage:  "print totals per payment status",
				Action: withService(statsAction),
			},
			{
				Name:  "export",
				Usage: "write invoices to an Excel workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "invoices.xlsx", Usage: "output file"},
					&cli.StringFlag{Name: "status", Usage: "paid, pending, overdue or all"},
				},
				Action: withService(exportAction),
			},
			{
				Name:      "pdf",
				Usage:     "render one invoice as PDF",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output file (default <invoice number>.pdf)"},
				},
				Action: withService(pdfAction),
			},
			{
				Name:      "import",
				Usage:     "add or replace invoices from a JSON array",
				ArgsUsage: "<file.json>",
				Action:    withService(importAction),
			},
			{
				Name:      "seed",
				Usage:     "load invoices from a JSON array when the store is empty",
				ArgsUsage: "<file.json>",
				Action:    withService(seedAction),
			},
			{
				Name:   "mark-overdue",
				Usage:  "relabel pending invoices past their due date",
				Action: withService(markOverdueAction),
			},
		},
	}
}
