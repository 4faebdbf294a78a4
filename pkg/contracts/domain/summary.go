package domain

import "time"

// ClientRevenue is one entry of the top-clients ranking
type ClientRevenue struct {
	Client  string  `json:"client"`
	Revenue float64 `json:"revenue"`
	Percent float64 `json:"percent"`
}

// Summary holds the dashboard aggregates
type Summary struct {
	TotalRevenue   float64         `json:"total_revenue"`
	TotalCredit    float64         `json:"total_credit"`
	CurrentBalance float64         `json:"current_balance"`
	UniqueClients  []string        `json:"unique_clients"`
	ClientCount    int             `json:"client_count"`
	TopClients     []ClientRevenue `json:"top_clients"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// SummaryView is the summary plus rupee display strings for the dashboard cards
type SummaryView struct {
	Summary
	TotalRevenueDisplay   string `json:"total_revenue_display"`
	TotalCreditDisplay    string `json:"total_credit_display"`
	CurrentBalanceDisplay string `json:"current_balance_display"`
}
