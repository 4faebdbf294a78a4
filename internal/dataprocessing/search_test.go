package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerpulse/internal/shared/testutil"
)

func TestFilterWorks(t *testing.T) {
	works := ParseWorks(testutil.WorksCSV).Records
	original := append(works[:0:0], works...)

	tests := []struct {
		name    string
		query   string
		clients []string
	}{
		{"client case-insensitive", "ACME", []string{"Acme", "Acme"}},
		{"description", "brochure", []string{"Globex"}},
		{"display date", "nov 13", []string{"Acme"}},
		{"note is not searchable", "paid", []string{}},
		{"no match", "zzz", []string{}},
		{"empty query keeps all", "", []string{"Acme", "Globex", "Acme", "Initech", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterWorks(works, tt.query)
			clients := make([]string, 0, len(got))
			for _, w := range got {
				clients = append(clients, w.Client)
			}
			assert.Equal(t, tt.clients, clients)
		})
	}

	assert.Equal(t, original, works)
}

func TestFilterExpenses(t *testing.T) {
	expenses := ParseExpenses(testutil.ExpensesCSV).Records

	got := FilterExpenses(expenses, "globex")
	require.Len(t, got, 1)
	assert.Equal(t, 2500.0, got[0].Credit)

	got = FilterExpenses(expenses, "COURIER")
	require.Len(t, got, 1)
	assert.Equal(t, 250.0, got[0].Debit)

	assert.Len(t, FilterExpenses(expenses, "nov"), 6)
	assert.Len(t, FilterExpenses(expenses, "acme"), 1)
	assert.Empty(t, FilterExpenses(expenses, "5000"))
	assert.Empty(t, FilterExpenses(nil, "x"))
}
