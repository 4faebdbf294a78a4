package domain

// ExpenseRecord is one ledger row from the expenses feed
type ExpenseRecord struct {
	Date         string  `json:"date"`
	Credit       float64 `json:"credit" validate:"gte=0"`
	Debit        float64 `json:"debit" validate:"gte=0"`
	Counterparty string  `json:"counterparty"`
	Client       string  `json:"client"`
	RowBalance   float64 `json:"row_balance"`
}

// ExpenseAggregate holds totals lifted from fixed cells of the expenses sheet.
// The values are positional and do not derive from the Credit/Debit columns.
type ExpenseAggregate struct {
	TotalCredit float64 `json:"total_credit"`
	Balance     float64 `json:"balance"`
}
