package dataprocessing

import (
	"strings"

	"ledgerpulse/pkg/contracts/domain"
)

// FilterWorks returns the works whose client, description or display date
// contains query, ignoring case. The input slice is not modified.
func FilterWorks(works []domain.WorkRecord, query string) []domain.WorkRecord {
	q := strings.ToLower(query)
	out := make([]domain.WorkRecord, 0, len(works))

	for _, w := range works {
		if containsFold(w.Client, q) || containsFold(w.Description, q) || containsFold(w.Date, q) {
			out = append(out, w)
		}
	}
	return out
}

// FilterExpenses returns the expenses whose counterparty, client or display
// date contains query, ignoring case.
func FilterExpenses(expenses []domain.ExpenseRecord, query string) []domain.ExpenseRecord {
	q := strings.ToLower(query)
	out := make([]domain.ExpenseRecord, 0, len(expenses))

	for _, e := range expenses {
		if containsFold(e.Counterparty, q) || containsFold(e.Client, q) || containsFold(e.Date, q) {
			out = append(out, e)
		}
	}
	return out
}

// containsFold expects lowerQuery to be lower-cased already
func containsFold(field, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(field), lowerQuery)
}
