package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ledgerpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WorksHeaders is the header row of a works export
var WorksHeaders = []string{"Date", "Client", "Description", "Price", "Status"}

// ExpensesHeaders is the header row of an expenses export
var ExpensesHeaders = []string{"Date", "Credit", "Debit", "To/From", "Client", "Balance"}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	bom bool
}

// NewCSVWriter creates a new CSV writer. bom prefixes every file with a
// UTF-8 byte order mark for Excel.
func NewCSVWriter(bom bool) *CSVWriter {
	return &CSVWriter{bom: bom}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string
}

// WriteCSV writes headers and records to w
func (c *CSVWriter) WriteCSV(w io.Writer, options WriteOptions) error {
	if c.bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes a CSV file, creating its directory if needed
func (c *CSVWriter) WriteFile(path string, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := c.WriteCSV(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WorksRows converts works to CSV rows
func WorksRows(works []domain.WorkRecord) [][]string {
	rows := make([][]string, 0, len(works))
	for _, w := range works {
		rows = append(rows, []string{w.Date, w.Client, w.Description, formatFloat(w.Price), string(w.Status)})
	}
	return rows
}

// ExpensesRows converts expenses to CSV rows
func ExpensesRows(expenses []domain.ExpenseRecord) [][]string {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			e.Date,
			formatFloat(e.Credit),
			formatFloat(e.Debit),
			e.Counterparty,
			e.Client,
			formatFloat(e.RowBalance),
		})
	}
	return rows
}
