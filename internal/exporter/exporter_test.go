package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"ledgerpulse/internal/config"
	"ledgerpulse/internal/infrastructure"
	"ledgerpulse/internal/shared/testutil"
	"ledgerpulse/pkg/contracts/domain"
)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Works: []domain.WorkRecord{
			{Date: "Nov 11, 2024", Client: "Acme", Description: "Logo", Price: 1500, Status: domain.WorkStatusPaid},
			{Date: "Nov 12, 2024", Client: "Globex", Description: "Brochure, 4 pages", Price: 2500, Status: domain.WorkStatusPending},
		},
		Expenses: []domain.ExpenseRecord{
			{Date: "Nov 1, 2024", Credit: 5000, Counterparty: "Acme", Client: "Acme", RowBalance: 5000},
		},
		Summary: domain.Summary{
			TotalRevenue:   4000,
			TotalCredit:    5000,
			CurrentBalance: 5000,
			UniqueClients:  []string{"Acme", "Globex"},
			ClientCount:    2,
			TopClients: []domain.ClientRevenue{
				{Client: "Globex", Revenue: 2500, Percent: 100},
				{Client: "Acme", Revenue: 1500, Percent: 60},
			},
		},
	}
}

func newTestExporter(t *testing.T, dir string, metrics *infrastructure.DashboardMetrics) *Exporter {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return New(config.ExportConfig{Dir: dir, WorkbookName: "dash.xlsx", CSVBOM: false}, metrics, logger)
}

func TestBuildWorkbook(t *testing.T) {
	f, err := BuildWorkbook(testSnapshot())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetWorks, SheetExpenses, SheetSummary}, f.GetSheetList())

	works, err := f.GetRows(SheetWorks)
	require.NoError(t, err)
	require.Len(t, works, 3)
	assert.Equal(t, WorksHeaders, works[0])
	assert.Equal(t, "Brochure, 4 pages", works[2][2])
	assert.Equal(t, "Pending", works[2][4])

	price, err := f.GetCellValue(SheetWorks, "D2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1500", price)

	expenses, err := f.GetRows(SheetExpenses)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "Acme", expenses[1][3])

	cell, err := f.GetCellValue(SheetSummary, "C2")
	require.NoError(t, err)
	assert.Equal(t, "₹4,000", cell)

	top, err := f.GetCellValue(SheetSummary, "A8")
	require.NoError(t, err)
	assert.Equal(t, "Globex", top)

	share, err := f.GetCellValue(SheetSummary, "C9")
	require.NoError(t, err)
	assert.Equal(t, "60.0%", share)
}

func TestBuildWorkbook_Empty(t *testing.T) {
	f, err := BuildWorkbook(domain.Snapshot{})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetWorks)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExporter_WriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter(t, "", nil).WriteWorkbook(context.Background(), &buf, testSnapshot()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), SheetSummary)
}

func TestExporter_SaveWorkbook(t *testing.T) {
	dir := t.TempDir()
	exp := newTestExporter(t, filepath.Join(dir, "exports"), nil)

	path, err := exp.SaveWorkbook(context.Background(), "", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "dash.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	f.Close()

	explicit := filepath.Join(dir, "other.xlsx")
	path, err = exp.SaveWorkbook(context.Background(), explicit, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
}

func TestExporter_CSVAndMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := infrastructure.CreateDashboardMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	exp := newTestExporter(t, "", metrics)
	snap := testSnapshot()

	var works, expenses bytes.Buffer
	require.NoError(t, exp.WriteWorksCSV(context.Background(), &works, snap.Works))
	require.NoError(t, exp.WriteExpensesCSV(context.Background(), &expenses, snap.Expenses))

	assert.True(t, strings.HasPrefix(works.String(), "Date,Client,Description,Price,Status\n"))
	assert.Contains(t, works.String(), `"Brochure, 4 pages"`)
	assert.Contains(t, expenses.String(), `"Nov 1, 2024",5000,0,Acme,Acme,5000`)

	rows, err := csv.NewReader(&expenses).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Nov 1, 2024", "5000", "0", "Acme", "Acme", "5000"}, rows[1])

	workRows, err := csv.NewReader(&works).ReadAll()
	require.NoError(t, err)
	require.Len(t, workRows, 3)
	assert.Equal(t, "Brochure, 4 pages", workRows[2][2])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "exports_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}
