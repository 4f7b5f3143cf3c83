package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"fatture/internal/core"
)

const seedJSON = `[
  {"id":"1","invoiceNumber":"INV-001","clientName":"Acme Corp","clientEmail":"a@acme.com","date":"2024-01-10","dueDate":"2024-02-10","status":"paid","subtotal":1000,"tax":100,"total":1100,
   "items":[{"id":"1","description":"Design","quantity":1,"price":1000,"total":1000}]},
  {"id":"2","invoiceNumber":"INV-002","clientName":"TechStart","clientEmail":"t@techstart.io","date":"2024-02-15","dueDate":"2000-03-15","status":"pending","total":2200}
]`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "fatture.db"))
	t.Setenv("ATTACHMENT_BACKEND", "inline")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("PORT", "8080")
	return dir
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"fatturactl", "--no-color"}, args...))
	return out.String(), err
}

func TestCommandsAgainstSQLite(t *testing.T) {
	dir := setupEnv(t)
	seedFile := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seedFile, []byte(seedJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runApp(t, "seed", seedFile)
	if err != nil || !strings.Contains(out, "Seeded 2 invoices") {
		t.Fatalf("seed = %q, %v", out, err)
	}
	out, err = runApp(t, "seed", seedFile)
	if err != nil || !strings.Contains(out, "nothing seeded") {
		t.Fatalf("second seed = %q, %v", out, err)
	}

	out, err = runApp(t, "list", "--status", "pending")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "INV-002") || strings.Contains(out, "INV-001") {
		t.Fatalf("list output:\n%s", out)
	}

	out, err = runApp(t, "mark-overdue")
	if err != nil || !strings.Contains(out, "Marked 1 invoices overdue") {
		t.Fatalf("mark-overdue = %q, %v", out, err)
	}

	out, err = runApp(t, "stats")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "$3,300.00") || !strings.Contains(out, "$2,200.00") {
		t.Fatalf("stats output:\n%s", out)
	}

	xlsx := filepath.Join(dir, "out.xlsx")
	if _, err := runApp(t, "export", "--out", xlsx); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(xlsx); err != nil || fi.Size() == 0 {
		t.Fatalf("export file: %v", err)
	}

	pdf := filepath.Join(dir, "inv.pdf")
	if _, err := runApp(t, "pdf", "--out", pdf, "1"); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(pdf)
	if err != nil || !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("pdf file: %v", err)
	}

	out, err = runApp(t, "show", "1")
	if err != nil || !strings.Contains(out, `"invoiceNumber": "INV-001"`) {
		t.Fatalf("show = %q, %v", out, err)
	}
}

func TestImportReplacesAndAppends(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "import.json")
	if err := os.WriteFile(file, []byte(seedJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := runApp(t, "import", file)
	if err != nil || !strings.Contains(out, "2 added, 0 replaced") {
		t.Fatalf("import = %q, %v", out, err)
	}
	out, err = runApp(t, "import", file)
	if err != nil || !strings.Contains(out, "0 added, 2 replaced") {
		t.Fatalf("re-import = %q, %v", out, err)
	}
}

func TestCommandErrors(t *testing.T) {
	setupEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"show without id", []string{"show"}},
		{"show missing", []string{"show", "nope"}},
		{"bad status", []string{"list", "--status", "cancelled"}},
		{"import missing file", []string{"import", "/does/not/exist.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runApp(t, tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	list := []core.Invoice{{ID: "1", InvoiceNumber: "INV-001", ClientName: "Acme", Date: "2024-01-10", DueDate: "2024-02-10", Status: core.StatusOverdue, Total: 1234.5}}
	if err := writeTable(&buf, list, colorizer(true)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"NUMBER", "INV-001", "Jan 10, 2024", "$1,234.50", "overdue"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("escape codes written with color disabled")
	}

	buf.Reset()
	if err := writeTable(&buf, nil, colorizer(true)); err != nil || !strings.Contains(buf.String(), "No invoices found") {
		t.Fatalf("empty table = %q, %v", buf.String(), err)
	}
}

func TestStatusColorAndColorizer(t *testing.T) {
	tests := map[core.PaymentStatus]string{
		core.StatusPaid:    "green",
		core.StatusPending: "yellow",
		core.StatusOverdue: "red",
	}
	for status, want := range tests {
		if got := statusColor(status); got != want {
			t.Errorf("statusColor(%s) = %s, want %s", status, got, want)
		}
	}
	if got := colorizer(false).Color("[red]x"); !strings.Contains(got, "\x1b[31m") {
		t.Errorf("colored output = %q", got)
	}
}

func TestCriteriaFromFlags(t *testing.T) {
	c, err := criteriaFromFlags(" ALL ", "2024-01-01", "", " acme ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != "" || c.StartDate != "2024-01-01" || c.SearchQuery != "acme" {
		t.Fatalf("criteria = %+v", c)
	}
	if _, err := criteriaFromFlags("void", "", "", ""); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestPDFFileName(t *testing.T) {
	if got := pdfFileName(core.Invoice{ID: "x", InvoiceNumber: "INV/2024:1"}); got != "INV-2024-1.pdf" {
		t.Fatalf("pdfFileName = %q", got)
	}
	if got := pdfFileName(core.Invoice{ID: "abc"}); got != "abc.pdf" {
		t.Fatalf("pdfFileName = %q", got)
	}
}
