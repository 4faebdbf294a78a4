package dataprocessing

import "ledgerpulse/pkg/contracts/domain"

// Body rows of the expenses sheet whose column G holds the totals.
// Sheet rows G2 and G3 sum to the total credit, G5 is the balance.
const (
	creditTotalLineA = 0
	creditTotalLineB = 1
	balanceLine      = 3
)

// LegacyPositionalAggregate reads the fixed total cells of the expenses
// sheet. Only rows that carry a column G contribute, and only on body lines
// 0 and 1 (credit, summed) and 3 (balance, last write wins). Rows that the
// mapper dropped must not be passed in.
func LegacyPositionalAggregate(rows []Row) domain.ExpenseAggregate {
	var agg domain.ExpenseAggregate

	for _, row := range rows {
		if len(row.Fields) <= expensesColTotals {
			continue
		}
		value := ParseNumber(row.Fields[expensesColTotals])

		switch row.Line {
		case creditTotalLineA, creditTotalLineB:
			agg.TotalCredit += value
		case balanceLine:
			agg.Balance = value
		}
	}

	return agg
}
