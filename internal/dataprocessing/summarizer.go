package dataprocessing

import (
	"log/slog"
	"sort"
	"time"

	"ledgerpulse/pkg/contracts/domain"
)

// DefaultTopClients is the size of the top-clients ranking
const DefaultTopClients = 5

// Summarizer computes the dashboard aggregates from the current records
type Summarizer struct {
	logger   *slog.Logger
	topLimit int
	now      func() time.Time
}

// SummarizerConfig holds configuration options for the Summarizer
type SummarizerConfig struct {
	TopClients int              // Maximum number of ranked clients
	Clock      func() time.Time // Source of Summary.ComputedAt
}

// DefaultSummarizerConfig returns the dashboard defaults
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{TopClients: DefaultTopClients, Clock: time.Now}
}

// NewSummarizer creates a summarizer with the given configuration
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopClients <= 0 {
		config.TopClients = DefaultTopClients
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Summarizer{
		logger:   logger.With("component", "summarizer"),
		topLimit: config.TopClients,
		now:      config.Clock,
	}
}

// Summarize computes the aggregates for one refresh cycle
func (s *Summarizer) Summarize(works []domain.WorkRecord, agg domain.ExpenseAggregate) domain.Summary {
	summary := Summarize(works, agg, s.topLimit)
	summary.ComputedAt = s.now().UTC()

	s.logger.Debug("summary computed",
		slog.Int("works", len(works)),
		slog.Int("clients", summary.ClientCount),
		slog.Float64("total_revenue", summary.TotalRevenue))

	return summary
}

// Summarize computes totals, unique clients and the top-client ranking.
// Credit and balance come straight from the expense aggregate.
func Summarize(works []domain.WorkRecord, agg domain.ExpenseAggregate, topLimit int) domain.Summary {
	var revenue float64
	for _, w := range works {
		revenue += w.Price
	}

	clients := UniqueClients(works)

	return domain.Summary{
		TotalRevenue:   revenue,
		TotalCredit:    agg.TotalCredit,
		CurrentBalance: agg.Balance,
		UniqueClients:  clients,
		ClientCount:    len(clients),
		TopClients:     TopClients(works, topLimit),
	}
}

// UniqueClients returns the distinct non-empty client names in first-seen
// order. Names are compared exactly, so "Acme" and "acme" are two clients.
func UniqueClients(works []domain.WorkRecord) []string {
	seen := make(map[string]struct{}, len(works))
	clients := make([]string, 0)

	for _, w := range works {
		if w.Client == "" {
			continue
		}
		if _, ok := seen[w.Client]; ok {
			continue
		}
		seen[w.Client] = struct{}{}
		clients = append(clients, w.Client)
	}

	return clients
}

// TopClients ranks clients by summed price, highest first, and keeps at
// most limit entries (DefaultTopClients when limit is not positive). Equal revenues keep first-seen order. Percent is
// relative to the highest revenue in the result; when that is 0 every
// percent is 0.
func TopClients(works []domain.WorkRecord, limit int) []domain.ClientRevenue {
	index := make(map[string]int)
	ranking := make([]domain.ClientRevenue, 0)

	for _, w := range works {
		if w.Client == "" {
			continue
		}
		i, ok := index[w.Client]
		if !ok {
			i = len(ranking)
			index[w.Client] = i
			ranking = append(ranking, domain.ClientRevenue{Client: w.Client})
		}
		ranking[i].Revenue += w.Price
	}

	sort.SliceStable(ranking, func(a, b int) bool {
		return ranking[a].Revenue > ranking[b].Revenue
	})

	if limit <= 0 {
		limit = DefaultTopClients
	}
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}

	if len(ranking) > 0 && ranking[0].Revenue > 0 {
		top := ranking[0].Revenue
		for i := range ranking {
			ranking[i].Percent = ranking[i].Revenue / top * 100
		}
	}

	return ranking
}
