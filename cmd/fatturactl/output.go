package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/colorstring"

	"fatture/internal/core"
	"fatture/internal/log"
)

// stderrLogger keeps diagnostics off stdout. Only warnings and errors are
// shown unless LOG_LEVEL is debug.
func stderrLogger(w io.Writer, level string) *log.Logger {
	lvl := log.ParseLevel(level)
	if lvl > slog.LevelDebug && lvl < slog.LevelWarn {
		lvl = slog.LevelWarn
	}
	return log.New(log.Config{
		Handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}),
	})
}

func colorizer(disable bool) *colorstring.Colorize {
	return &colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: disable,
		Reset:   true,
	}
}

func statusColor(s core.PaymentStatus) string {
	switch s {
	case core.StatusPaid:
		return "green"
	case core.StatusOverdue:
		return "red"
	default:
		return "yellow"
	}
}

func criteriaFromFlags(status, from, to, search string) (core.Criteria, error) {
	c := core.Criteria{
		Status:      core.PaymentStatus(strings.ToLower(strings.TrimSpace(status))),
		StartDate:   strings.TrimSpace(from),
		EndDate:     strings.TrimSpace(to),
		SearchQuery: strings.TrimSpace(search),
	}
	if c.Status == "all" {
		c.Status = ""
	}
	if c.Status != "" && !c.Status.IsValid() {
		return core.Criteria{}, fmt.Errorf("unknown status %q: use paid, pending, overdue or all", status)
	}
	return c, nil
}

// writeTable prints one line per invoice. The colored status goes last so
// escape codes do not disturb column alignment.
func writeTable(w io.Writer, list []core.Invoice, color *colorstring.Colorize) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No invoices found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tCLIENT\tDATE\tDUE\tTOTAL\tSTATUS")
	for _, inv := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.ID,
			inv.InvoiceNumber,
			inv.ClientName,
			core.FormatDate(inv.Date),
			core.FormatDate(inv.DueDate),
			core.FormatCurrency(inv.Total),
			color.Color(fmt.Sprintf("[%s]%s", statusColor(inv.Status), inv.Status)),
		)
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, s core.Summary, color *colorstring.Colorize) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Invoices\t%d\n", s.Count)
	fmt.Fprintf(tw, "Total\t%s\n", core.FormatCurrency(s.Total))
	fmt.Fprintf(tw, "%s\t%s\n", color.Color("[green]Paid"), core.FormatCurrency(s.Paid))
	fmt.Fprintf(tw, "%s\t%s\n", color.Color("[yellow]Pending"), core.FormatCurrency(s.Pending))
	fmt.Fprintf(tw, "%s\t%s\n", color.Color("[red]Overdue"), core.FormatCurrency(s.Overdue))
	return tw.Flush()
}

func pdfFileName(inv core.Invoice) string {
	name := inv.InvoiceNumber
	if name == "" {
		name = inv.ID
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
	return name + ".pdf"
}
