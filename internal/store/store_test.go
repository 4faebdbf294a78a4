package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerpulse/pkg/contracts/domain"
)

func sumPrices(works []domain.WorkRecord, agg domain.ExpenseAggregate) domain.Summary {
	var total float64
	for _, w := range works {
		total += w.Price
	}
	return domain.Summary{TotalRevenue: total, TotalCredit: agg.TotalCredit, CurrentBalance: agg.Balance}
}

func TestNewMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	snap := s.Snapshot()
	assert.NotNil(t, snap.Works)
	assert.NotNil(t, snap.Expenses)
	assert.Empty(t, snap.Works)
	assert.Len(t, snap.Feeds, 2)
	assert.Equal(t, domain.FeedWorks, snap.Feeds[domain.FeedWorks].Kind)
	assert.False(t, s.Loaded(domain.FeedWorks))
	assert.False(t, s.Loaded(domain.FeedExpenses))
}

func TestReplaceWorks(t *testing.T) {
	s := NewMemoryStore()
	at := time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC)

	records := []domain.WorkRecord{{Client: "Acme", Price: 10}}
	v := s.ReplaceWorks(records, at)
	assert.Equal(t, uint64(1), v)

	// Caller mutation does not leak in
	records[0].Client = "changed"
	assert.Equal(t, "Acme", s.Works()[0].Client)

	// Reader mutation does not leak in either
	got := s.Works()
	got[0].Client = "changed"
	assert.Equal(t, "Acme", s.Works()[0].Client)

	st := s.FeedStatus(domain.FeedWorks)
	assert.Equal(t, 1, st.Records)
	assert.Equal(t, at, st.LastSuccess)
	assert.True(t, s.Loaded(domain.FeedWorks))

	assert.Equal(t, uint64(2), s.ReplaceWorks(nil, at))
	assert.NotNil(t, s.Works())
	assert.Empty(t, s.Works())
}

func TestReplaceExpenses(t *testing.T) {
	s := NewMemoryStore()
	agg := domain.ExpenseAggregate{TotalCredit: 1500, Balance: 6500}

	v := s.ReplaceExpenses([]domain.ExpenseRecord{{Credit: 5}}, agg, time.Now())
	assert.Equal(t, uint64(1), v)
	assert.Equal(t, uint64(1), s.Version(domain.FeedExpenses))
	assert.Equal(t, uint64(0), s.Version(domain.FeedWorks))
	assert.Equal(t, agg, s.Snapshot().ExpenseAggregate)
	assert.Len(t, s.Expenses(), 1)
}

func TestReplaceClearsStaleFlag(t *testing.T) {
	s := NewMemoryStore()

	s.UpdateFeedStatus(domain.FeedWorks, func(st *domain.FeedStatus) {
		st.Stale = true
		st.LastError = "boom"
		st.LastErrorKind = "NETWORK"
	})
	assert.True(t, s.FeedStatus(domain.FeedWorks).Stale)

	s.ReplaceWorks([]domain.WorkRecord{{}}, time.Now())
	st := s.FeedStatus(domain.FeedWorks)
	assert.False(t, st.Stale)
	assert.Empty(t, st.LastError)
	assert.Empty(t, st.LastErrorKind)
}

func TestRecomputeSummary(t *testing.T) {
	s := NewMemoryStore()
	s.ReplaceWorks([]domain.WorkRecord{{Price: 10}, {Price: 5}}, time.Now())
	s.ReplaceExpenses(nil, domain.ExpenseAggregate{TotalCredit: 3, Balance: 4}, time.Now())

	got := s.RecomputeSummary(sumPrices)
	assert.Equal(t, domain.Summary{TotalRevenue: 15, TotalCredit: 3, CurrentBalance: 4}, got)
	assert.Equal(t, got, s.Summary())
	assert.Equal(t, got, s.Snapshot().Summary)
}

func TestSummaryIsCopied(t *testing.T) {
	s := NewMemoryStore()
	s.RecomputeSummary(func([]domain.WorkRecord, domain.ExpenseAggregate) domain.Summary {
		return domain.Summary{UniqueClients: []string{"Acme"}}
	})

	got := s.Summary()
	got.UniqueClients[0] = "changed"
	assert.Equal(t, "Acme", s.Summary().UniqueClients[0])
}

func TestFeedStatusesIsCopied(t *testing.T) {
	s := NewMemoryStore()
	feeds := s.FeedStatuses()
	feeds[domain.FeedWorks] = domain.FeedStatus{Records: 99}

	assert.Zero(t, s.FeedStatus(domain.FeedWorks).Records)
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			s.ReplaceWorks([]domain.WorkRecord{{Price: float64(i)}}, time.Now())
		}(i)
		go func() {
			defer wg.Done()
			s.RecomputeSummary(sumPrices)
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	require.Equal(t, uint64(20), s.Version(domain.FeedWorks))
	final := s.RecomputeSummary(sumPrices)
	assert.Equal(t, s.Works()[0].Price, final.TotalRevenue)
}
