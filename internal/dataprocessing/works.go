package dataprocessing

import (
	"strings"

	"ledgerpulse/pkg/contracts/domain"
)

// Works sheet columns
const (
	worksColDate = iota
	worksColClient
	worksColDescription
	worksColPrice
	worksColNote

	WorksMinFields = 5
)

// ParseStats counts what a mapper did with the body rows of one feed
type ParseStats struct {
	Rows    int `json:"rows"`
	Records int `json:"records"`
	Dropped int `json:"dropped"`
}

// WorksParse is the result of parsing a works feed
type WorksParse struct {
	Records []domain.WorkRecord
	Stats   ParseStats
}

// ParseWorks splits and maps a works CSV document
func ParseWorks(text string) WorksParse {
	return ParseWorksRows(SplitDocument(text))
}

// ParseWorksRows maps already tokenized works rows and reports counts
func ParseWorksRows(rows []Row) WorksParse {
	records := MapWorks(rows)
	return WorksParse{
		Records: records,
		Stats: ParseStats{
			Rows:    len(rows),
			Records: len(records),
			Dropped: len(rows) - len(records),
		},
	}
}

// MapWorks converts body rows into work records, in order. Rows with fewer
// than five fields or an empty date are dropped.
func MapWorks(rows []Row) []domain.WorkRecord {
	records := make([]domain.WorkRecord, 0, len(rows))

	for _, row := range rows {
		if len(row.Fields) < WorksMinFields || row.Fields[worksColDate] == "" {
			continue
		}

		note := row.Field(worksColNote)
		if note == "" {
			note = string(domain.WorkStatusPending)
		}

		records = append(records, domain.WorkRecord{
			Date:        NormalizeDate(row.Fields[worksColDate]),
			Client:      row.Field(worksColClient),
			Description: row.Field(worksColDescription),
			Price:       ParseAmount(row.Field(worksColPrice)),
			Status:      ClassifyStatus(note),
		})
	}

	return records
}

// ClassifyStatus maps a free-text note to Paid or Pending. "Paid", "PAID in
// full" and "paid cash" are Paid; "unpaid" and "paidup" are not.
func ClassifyStatus(note string) domain.WorkStatus {
	n := strings.ToLower(strings.TrimSpace(note))
	if n == "paid" || strings.HasPrefix(n, "paid ") {
		return domain.WorkStatusPaid
	}
	return domain.WorkStatusPending
}
