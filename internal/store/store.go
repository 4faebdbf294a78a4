// Package store holds the current works and expenses collections and the
// aggregates computed from them.
package store

import (
	"slices"
	"sync"
	"time"

	"ledgerpulse/pkg/contracts/domain"
)

// SummaryFunc computes aggregates from a consistent view of the records
type SummaryFunc func(works []domain.WorkRecord, agg domain.ExpenseAggregate) domain.Summary

// MemoryStore is the in-memory dashboard state. Each collection is replaced
// as a whole; readers always get copies.
type MemoryStore struct {
	mu sync.RWMutex

	works     []domain.WorkRecord
	expenses  []domain.ExpenseRecord
	aggregate domain.ExpenseAggregate
	summary   domain.Summary

	feeds map[domain.FeedKind]domain.FeedStatus

	worksVersion    uint64
	expensesVersion uint64
}

// NewMemoryStore creates an empty store with a status entry per feed
func NewMemoryStore() *MemoryStore {
	feeds := make(map[domain.FeedKind]domain.FeedStatus, len(domain.AllFeeds))
	for _, kind := range domain.AllFeeds {
		feeds[kind] = domain.FeedStatus{Kind: kind}
	}

	return &MemoryStore{
		works:    []domain.WorkRecord{},
		expenses: []domain.ExpenseRecord{},
		summary:  domain.Summary{UniqueClients: []string{}, TopClients: []domain.ClientRevenue{}},
		feeds:    feeds,
	}
}

// ReplaceWorks swaps in a new works collection and returns its version
func (s *MemoryStore) ReplaceWorks(records []domain.WorkRecord, fetchedAt time.Time) uint64 {
	cp := slices.Clone(records)
	if cp == nil {
		cp = []domain.WorkRecord{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.works = cp
	s.worksVersion++
	s.markLoaded(domain.FeedWorks, len(cp), fetchedAt)
	return s.worksVersion
}

// ReplaceExpenses swaps in a new expenses collection together with the
// aggregate lifted from the same document, and returns the new version.
func (s *MemoryStore) ReplaceExpenses(records []domain.ExpenseRecord, agg domain.ExpenseAggregate, fetchedAt time.Time) uint64 {
	cp := slices.Clone(records)
	if cp == nil {
		cp = []domain.ExpenseRecord{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses = cp
	s.aggregate = agg
	s.expensesVersion++
	s.markLoaded(domain.FeedExpenses, len(cp), fetchedAt)
	return s.expensesVersion
}

func (s *MemoryStore) markLoaded(kind domain.FeedKind, records int, at time.Time) {
	st := s.feeds[kind]
	st.Kind = kind
	st.Records = records
	st.LastSuccess = at
	st.Stale = false
	st.LastError = ""
	st.LastErrorKind = ""
	s.feeds[kind] = st
}

// UpdateFeedStatus applies fn to the status of one feed under the write lock
func (s *MemoryStore) UpdateFeedStatus(kind domain.FeedKind, fn func(*domain.FeedStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.feeds[kind]
	st.Kind = kind
	fn(&st)
	s.feeds[kind] = st
}

// RecomputeSummary runs compute against the current records and stores the
// result. The write lock is held throughout, so concurrent refresh cycles
// cannot store a summary of older data over a newer one.
func (s *MemoryStore) RecomputeSummary(compute SummaryFunc) domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summary = compute(s.works, s.aggregate)
	return cloneSummary(s.summary)
}

// Works returns a copy of the works collection
func (s *MemoryStore) Works() []domain.WorkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.works)
}

// Expenses returns a copy of the expenses collection
func (s *MemoryStore) Expenses() []domain.ExpenseRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expenses)
}

// Summary returns the last computed summary
func (s *MemoryStore) Summary() domain.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSummary(s.summary)
}

// FeedStatus returns the status of one feed
func (s *MemoryStore) FeedStatus(kind domain.FeedKind) domain.FeedStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feeds[kind]
}

// FeedStatuses returns the status of every feed
func (s *MemoryStore) FeedStatuses() map[domain.FeedKind]domain.FeedStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFeeds(s.feeds)
}

// Loaded reports whether the feed has been replaced at least once
func (s *MemoryStore) Loaded(kind domain.FeedKind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionOf(kind) > 0
}

// Version returns the replacement counter of a feed
func (s *MemoryStore) Version(kind domain.FeedKind) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionOf(kind)
}

func (s *MemoryStore) versionOf(kind domain.FeedKind) uint64 {
	switch kind {
	case domain.FeedWorks:
		return s.worksVersion
	case domain.FeedExpenses:
		return s.expensesVersion
	}
	return 0
}

// Snapshot returns a consistent copy of the whole state
func (s *MemoryStore) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Snapshot{
		Works:            slices.Clone(s.works),
		Expenses:         slices.Clone(s.expenses),
		ExpenseAggregate: s.aggregate,
		Summary:          cloneSummary(s.summary),
		Feeds:            cloneFeeds(s.feeds),
		WorksVersion:     s.worksVersion,
		ExpensesVersion:  s.expensesVersion,
	}
}

func cloneSummary(sum domain.Summary) domain.Summary {
	sum.UniqueClients = slices.Clone(sum.UniqueClients)
	sum.TopClients = slices.Clone(sum.TopClients)
	return sum
}

func cloneFeeds(in map[domain.FeedKind]domain.FeedStatus) map[domain.FeedKind]domain.FeedStatus {
	out := make(map[domain.FeedKind]domain.FeedStatus, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
