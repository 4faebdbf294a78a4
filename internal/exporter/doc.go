// Package exporter writes the dashboard collections out as CSV and XLSX.
//
// CSVWriter handles the CSV side with an optional UTF-8 BOM so Excel opens
// rupee signs and non-ASCII client names correctly. Exporter builds the
// three-sheet workbook (Works, Expenses, Summary) with excelize and records
// every export in the dashboard metrics.
//
// Example usage:
//
//	exp := exporter.New(cfg.Export, metrics, logger)
//	err := exp.WriteWorkbook(ctx, w, dashboard.Snapshot())
//
//	path, err := exp.SaveWorkbook(ctx, "", dashboard.Snapshot())
package exporter
