package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"ledgerpulse/internal/errors"
	"ledgerpulse/internal/feeds"
	"ledgerpulse/internal/infrastructure"
	"ledgerpulse/internal/shared/testutil"
	"ledgerpulse/internal/store"
	"ledgerpulse/pkg/contracts/domain"
	"ledgerpulse/pkg/contracts/events"
)

type recordedMessage struct {
	Type events.MessageType
	Data any
}

type fakeHub struct {
	mu       sync.Mutex
	messages []recordedMessage
}

func (h *fakeHub) BroadcastMessage(_ context.Context, msgType events.MessageType, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, recordedMessage{Type: msgType, Data: data})
}

func (h *fakeHub) ofType(t events.MessageType) []recordedMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []recordedMessage
	for _, m := range h.messages {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (h *fakeHub) ClientCount() int { return 0 }

type fixture struct {
	source *feeds.StaticSource
	store  *store.MemoryStore
	hub    *fakeHub
	svc    *DashboardService
	logs   *testutil.BufferedSlogHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	f := &fixture{
		source: feeds.NewStaticSource(testutil.WorksCSV, testutil.ExpensesCSV),
		store:  store.NewMemoryStore(),
		hub:    &fakeHub{},
		logs:   logs,
	}
	f.svc = NewDashboardService(DashboardDeps{
		Source:  f.source,
		Store:   f.store,
		Hub:     f.hub,
		Metrics: infrastructure.NoopDashboardMetrics(),
		Logger:  logger,
		Clock:   func() time.Time { return time.Date(2024, 11, 11, 9, 0, 0, 0, time.UTC) },
	})
	return f
}

func TestRefreshOnce_Success(t *testing.T) {
	f := newFixture(t)

	report := f.svc.RefreshOnce(context.Background())

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.NotEmpty(t, report.ID)
	require.Len(t, report.Feeds, 2)

	works, ok := report.Result(domain.FeedWorks)
	require.True(t, ok)
	assert.True(t, works.OK)
	assert.Equal(t, 5, works.Stats.Records)
	assert.Equal(t, 1, works.Stats.Dropped)
	assert.Equal(t, uint64(1), works.Version)

	expenses, ok := report.Result(domain.FeedExpenses)
	require.True(t, ok)
	assert.Equal(t, 6, expenses.Stats.Records)

	assert.Equal(t, 4600.0, report.Summary.TotalRevenue)
	assert.Equal(t, 1500.0, report.Summary.TotalCredit)
	assert.Equal(t, 6500.0, report.Summary.CurrentBalance)
	assert.Equal(t, 3, report.Summary.ClientCount)
	assert.Equal(t, "₹4,600", report.Summary.TotalRevenueDisplay)

	assert.Len(t, f.svc.Works(""), 5)
	assert.Len(t, f.svc.Expenses(""), 6)
	assert.True(t, f.svc.Loaded())

	snapshots := f.hub.ofType(events.MessageTypeDashboardSnapshot)
	require.Len(t, snapshots, 1)
	payload := snapshots[0].Data.(events.DashboardSnapshot)
	assert.Equal(t, report.ID, payload.CycleID)
	assert.Equal(t, uint64(1), payload.WorksVersion)
	assert.Equal(t, 4600.0, payload.Summary.TotalRevenue)
	assert.Empty(t, f.hub.ofType(events.MessageTypeFeedError))

	assert.True(t, f.logs.ContainsMessage("refresh cycle completed"))
}

func TestRefreshOnce_StaleAndFreshMix(t *testing.T) {
	f := newFixture(t)
	first := f.svc.RefreshOnce(context.Background())
	require.Equal(t, OutcomeSuccess, first.Outcome)

	// Works feed goes down, expenses feed changes
	f.source.Fail(domain.FeedWorks, errors.NewNetworkError("connection refused", nil))
	f.source.Set(domain.FeedExpenses, "Date,Credit,Debit,To,Client,Balance,G\n"+
		"2024-12-01,100,0,Acme,Acme,100,40\n"+
		"2024-12-02,0,10,Fee,,90,2\n")

	report := f.svc.RefreshOnce(context.Background())

	assert.Equal(t, OutcomePartial, report.Outcome)

	works, _ := report.Result(domain.FeedWorks)
	assert.False(t, works.OK)
	assert.Equal(t, errors.ErrTypeNetwork, works.ErrKind)
	assert.Contains(t, works.Error, "connection refused")

	expenses, _ := report.Result(domain.FeedExpenses)
	assert.True(t, expenses.OK)
	assert.Equal(t, uint64(2), expenses.Version)

	// Works kept from the first cycle, expenses replaced
	assert.Len(t, f.svc.Works(""), 5)
	assert.Len(t, f.svc.Expenses(""), 2)
	assert.Equal(t, uint64(1), f.store.Version(domain.FeedWorks))

	// Aggregates recomputed from stale works and fresh expenses
	assert.Equal(t, 4600.0, report.Summary.TotalRevenue)
	assert.Equal(t, 42.0, report.Summary.TotalCredit)
	assert.Equal(t, 0.0, report.Summary.CurrentBalance)

	st := f.store.FeedStatus(domain.FeedWorks)
	assert.True(t, st.Stale)
	assert.Equal(t, "NETWORK", st.LastErrorKind)
	assert.False(t, f.store.FeedStatus(domain.FeedExpenses).Stale)

	feedErrors := f.hub.ofType(events.MessageTypeFeedError)
	require.Len(t, feedErrors, 1)
	assert.Equal(t, domain.FeedWorks, feedErrors[0].Data.(events.FeedError).Feed)
	assert.Len(t, f.hub.ofType(events.MessageTypeDashboardSnapshot), 2)

	testutil.AssertLogContains(t, f.logs, slog.LevelWarn, "feed fetch failed, keeping previous data")
}

func TestRefreshOnce_AllFail(t *testing.T) {
	f := newFixture(t)
	f.source.Fail(domain.FeedWorks, errors.NewHTTPStatusError("http://x", 500))
	f.source.Fail(domain.FeedExpenses, errors.NewTimeoutError("slow", nil))

	report := f.svc.RefreshOnce(context.Background())

	assert.Equal(t, OutcomeFailure, report.Outcome)
	assert.False(t, f.svc.Loaded())
	assert.Empty(t, f.svc.Works(""))

	// Aggregates are still computed and published
	assert.Zero(t, report.Summary.TotalRevenue)
	assert.Len(t, f.hub.ofType(events.MessageTypeDashboardSnapshot), 1)
	assert.Len(t, f.hub.ofType(events.MessageTypeFeedError), 2)

	expenses, _ := report.Result(domain.FeedExpenses)
	assert.Equal(t, errors.ErrTypeTimeout, expenses.ErrKind)
}

func TestRefreshOnce_RecoveryClearsStale(t *testing.T) {
	f := newFixture(t)
	f.source.Fail(domain.FeedWorks, errors.NewNetworkError("down", nil))
	f.svc.RefreshOnce(context.Background())
	require.True(t, f.store.FeedStatus(domain.FeedWorks).Stale)

	f.source.Set(domain.FeedWorks, testutil.WorksCSV)
	report := f.svc.RefreshOnce(context.Background())

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	st := f.store.FeedStatus(domain.FeedWorks)
	assert.False(t, st.Stale)
	assert.Empty(t, st.LastError)
	assert.Equal(t, 1, st.Dropped)
}

func TestRefreshOnce_FetchesBothFeedsEveryCycle(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.svc.RefreshOnce(context.Background())
	}
	assert.Equal(t, 3, f.source.Calls(domain.FeedWorks))
	assert.Equal(t, 3, f.source.Calls(domain.FeedExpenses))
}

func TestRefreshOnce_ConcurrentCycles(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.RefreshOnce(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(8), f.store.Version(domain.FeedWorks))
	assert.Equal(t, 4600.0, f.svc.Summary().TotalRevenue)
}

func TestRefreshOnce_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := infrastructure.CreateDashboardMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	src := feeds.NewStaticSource(testutil.WorksCSV, testutil.ExpensesCSV)
	src.Fail(domain.FeedExpenses, errors.NewNetworkError("down", nil))
	svc := NewDashboardService(DashboardDeps{Source: src, Metrics: metrics})

	svc.RefreshOnce(context.Background())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["refresh_cycles_total"])
	assert.True(t, names["feed_fetches_total"])
	assert.True(t, names["feed_fetch_errors_total"])
	assert.True(t, names["feed_rows_dropped_total"])
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	f.svc.RefreshOnce(context.Background())

	assert.Len(t, f.svc.Works("acme"), 2)
	assert.Len(t, f.svc.Expenses("courier"), 1)
	assert.Empty(t, f.svc.Works("nothing-matches"))

	snap := f.svc.Snapshot()
	assert.Len(t, snap.Works, 5)
	assert.Equal(t, domain.ExpenseAggregate{TotalCredit: 1500, Balance: 6500}, snap.ExpenseAggregate)
	assert.Len(t, f.svc.FeedStatuses(), 2)
	assert.Equal(t, "₹6,500", f.svc.Summary().CurrentBalanceDisplay)
}

func TestNewDashboardService_Defaults(t *testing.T) {
	svc := NewDashboardService(DashboardDeps{Source: feeds.NewStaticSource("", "")})
	report := svc.RefreshOnce(context.Background())

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Empty(t, svc.Works(""))
	assert.Zero(t, svc.Summary().TotalRevenue)
}
