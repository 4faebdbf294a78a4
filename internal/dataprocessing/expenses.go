package dataprocessing

import "ledgerpulse/pkg/contracts/domain"

// Expenses sheet columns
const (
	expensesColDate = iota
	expensesColCredit
	expensesColDebit
	expensesColCounterparty
	expensesColClient
	expensesColBalance
	expensesColTotals

	ExpensesMinFields = 3
)

// ExpensesParse is the result of parsing an expenses feed
type ExpensesParse struct {
	Records   []domain.ExpenseRecord
	Aggregate domain.ExpenseAggregate
	Stats     ParseStats
}

// ParseExpenses splits and maps an expenses CSV document
func ParseExpenses(text string) ExpensesParse {
	return ParseExpensesRows(SplitDocument(text))
}

// ParseExpensesRows maps already tokenized expenses rows and reports counts
func ParseExpensesRows(rows []Row) ExpensesParse {
	records, agg := MapExpenses(rows)
	return ExpensesParse{
		Records:   records,
		Aggregate: agg,
		Stats: ParseStats{
			Rows:    len(rows),
			Records: len(records),
			Dropped: len(rows) - len(records),
		},
	}
}

// MapExpenses converts body rows into expense records and lifts the sheet
// totals out of column G.
func MapExpenses(rows []Row) ([]domain.ExpenseRecord, domain.ExpenseAggregate) {
	records := make([]domain.ExpenseRecord, 0, len(rows))
	accepted := make([]Row, 0, len(rows))

	for _, row := range rows {
		if !acceptExpenseRow(row) {
			continue
		}
		accepted = append(accepted, row)

		records = append(records, domain.ExpenseRecord{
			Date:         NormalizeDate(row.Fields[expensesColDate]),
			Credit:       ParseAmount(row.Field(expensesColCredit)),
			Debit:        ParseAmount(row.Field(expensesColDebit)),
			Counterparty: row.Field(expensesColCounterparty),
			Client:       row.Field(expensesColClient),
			RowBalance:   ParseNumber(row.Field(expensesColBalance)),
		})
	}

	return records, LegacyPositionalAggregate(accepted)
}

func acceptExpenseRow(row Row) bool {
	return len(row.Fields) >= ExpensesMinFields && row.Fields[expensesColDate] != ""
}
