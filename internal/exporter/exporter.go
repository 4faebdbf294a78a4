package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"ledgerpulse/internal/config"
	"ledgerpulse/internal/dataprocessing"
	"ledgerpulse/internal/infrastructure"
	"ledgerpulse/pkg/contracts/domain"
)

// Sheet names of the dashboard workbook
const (
	SheetWorks    = "Works"
	SheetExpenses = "Expenses"
	SheetSummary  = "Summary"
)

// Export formats as recorded in metrics
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const amountFormat = "#,##0.00"

// Exporter writes dashboard data as CSV files and XLSX workbooks
type Exporter struct {
	csv          *CSVWriter
	dir          string
	workbookName string
	metrics      *infrastructure.DashboardMetrics
	logger       *slog.Logger
}

// New creates an exporter. metrics may be nil.
func New(cfg config.ExportConfig, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.WorkbookName
	if name == "" {
		name = "ledgerpulse.xlsx"
	}
	return &Exporter{
		csv:          NewCSVWriter(cfg.CSVBOM),
		dir:          cfg.Dir,
		workbookName: name,
		metrics:      metrics,
		logger:       infrastructure.WithComponent(logger, "exporter"),
	}
}

// WriteWorksCSV writes works as CSV to w
func (e *Exporter) WriteWorksCSV(ctx context.Context, w io.Writer, works []domain.WorkRecord) error {
	err := e.csv.WriteCSV(w, WriteOptions{Headers: WorksHeaders, Records: WorksRows(works)})
	e.record(ctx, FormatCSV, string(domain.FeedWorks), len(works), err)
	return err
}

// WriteExpensesCSV writes expenses as CSV to w
func (e *Exporter) WriteExpensesCSV(ctx context.Context, w io.Writer, expenses []domain.ExpenseRecord) error {
	err := e.csv.WriteCSV(w, WriteOptions{Headers: ExpensesHeaders, Records: ExpensesRows(expenses)})
	e.record(ctx, FormatCSV, string(domain.FeedExpenses), len(expenses), err)
	return err
}

// WriteWorkbook writes the three-sheet dashboard workbook to w
func (e *Exporter) WriteWorkbook(ctx context.Context, w io.Writer, snap domain.Snapshot) error {
	f, err := BuildWorkbook(snap)
	if err != nil {
		e.record(ctx, FormatXLSX, "dashboard", 0, err)
		return err
	}
	defer f.Close()

	err = f.Write(w)
	if err != nil {
		err = fmt.Errorf("failed to write workbook: %w", err)
	}
	e.record(ctx, FormatXLSX, "dashboard", len(snap.Works)+len(snap.Expenses), err)
	return err
}

// SaveWorkbook saves the workbook to path, or to the configured export
// directory when path is empty, and returns the path written.
func (e *Exporter) SaveWorkbook(ctx context.Context, path string, snap domain.Snapshot) (string, error) {
	if path == "" {
		path = filepath.Join(e.dir, e.workbookName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := e.WriteWorkbook(ctx, file, snap); err != nil {
		file.Close()
		return "", err
	}
	return path, file.Close()
}

func (e *Exporter) record(ctx context.Context, format, target string, rows int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		e.logger.ErrorContext(ctx, "export failed",
			slog.String("format", format),
			slog.String("target", target),
			slog.String("error", err.Error()))
	} else {
		e.logger.InfoContext(ctx, "export written",
			slog.String("format", format),
			slog.String("target", target),
			slog.Int("rows", rows))
	}

	if e.metrics != nil {
		e.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("format", format),
			attribute.String("status", status)))
	}
}

// BuildWorkbook lays out works, expenses and the summary as sheets of a new
// workbook. The caller must Close the returned file.
func BuildWorkbook(snap domain.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetWorks); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetExpenses, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	b := &sheetBuilder{f: f}
	if err := b.init(); err != nil {
		f.Close()
		return nil, err
	}

	b.table(SheetWorks, WorksHeaders, len(snap.Works), func(i int) []any {
		w := snap.Works[i]
		return []any{w.Date, w.Client, w.Description, w.Price, string(w.Status)}
	}, "D")
	b.table(SheetExpenses, ExpensesHeaders, len(snap.Expenses), func(i int) []any {
		x := snap.Expenses[i]
		return []any{x.Date, x.Credit, x.Debit, x.Counterparty, x.Client, x.RowBalance}
	}, "B", "C", "F")
	b.summary(dataprocessing.View(snap.Summary))

	if b.err != nil {
		f.Close()
		return nil, b.err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// sheetBuilder keeps the first error so the layout code reads top to bottom
type sheetBuilder struct {
	f      *excelize.File
	header int
	amount int
	err    error
}

func (b *sheetBuilder) init() error {
	var err error
	b.header, err = b.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	numFmt := amountFormat
	b.amount, err = b.f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}
	return nil
}

func (b *sheetBuilder) row(sheet string, rowNum int, values []any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("failed to write %s row %d: %w", sheet, rowNum, err)
	}
}

func (b *sheetBuilder) style(sheet, from, to string, style int) {
	if b.err != nil {
		return
	}
	if err := b.f.SetCellStyle(sheet, from, to, style); err != nil {
		b.err = fmt.Errorf("failed to style %s!%s:%s: %w", sheet, from, to, err)
	}
}

// table writes a header row and n data rows. amountCols name the columns
// that get the amount number format.
func (b *sheetBuilder) table(sheet string, headers []string, n int, rowAt func(int) []any, amountCols ...string) {
	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	b.row(sheet, 1, head)

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return
	}
	b.style(sheet, "A1", lastCol+"1", b.header)

	for i := 0; i < n; i++ {
		b.row(sheet, i+2, rowAt(i))
	}

	if n > 0 {
		last := fmt.Sprint(n + 1)
		for _, col := range amountCols {
			b.style(sheet, col+"2", col+last, b.amount)
		}
	}

	if b.err == nil {
		if err := b.f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
			b.err = err
			return
		}
		b.err = b.f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
}

func (b *sheetBuilder) summary(view domain.SummaryView) {
	b.row(SheetSummary, 1, []any{"Metric", "Value", "Display"})
	b.row(SheetSummary, 2, []any{"Total Revenue", view.TotalRevenue, view.TotalRevenueDisplay})
	b.row(SheetSummary, 3, []any{"Total Credit", view.TotalCredit, view.TotalCreditDisplay})
	b.row(SheetSummary, 4, []any{"Current Balance", view.CurrentBalance, view.CurrentBalanceDisplay})
	b.row(SheetSummary, 5, []any{"Clients", view.ClientCount, ""})
	b.style(SheetSummary, "A1", "C1", b.header)
	b.style(SheetSummary, "B2", "B4", b.amount)

	b.row(SheetSummary, 7, []any{"Top Client", "Revenue", "Share"})
	b.style(SheetSummary, "A7", "C7", b.header)
	for i, c := range view.TopClients {
		b.row(SheetSummary, 8+i, []any{c.Client, c.Revenue, formatPercent(c.Percent)})
	}
	if n := len(view.TopClients); n > 0 {
		b.style(SheetSummary, "B8", fmt.Sprintf("B%d", 7+n), b.amount)
	}

	if b.err == nil {
		b.err = b.f.SetColWidth(SheetSummary, "A", "C", 22)
	}
}
