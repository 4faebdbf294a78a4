package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"ledgerpulse/internal/dataprocessing"
	"ledgerpulse/internal/errors"
	"ledgerpulse/internal/feeds"
	"ledgerpulse/internal/infrastructure"
	"ledgerpulse/internal/store"
	"ledgerpulse/pkg/contracts/domain"
	"ledgerpulse/pkg/contracts/events"
)

// Cycle outcomes
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

// WebSocketHub is the part of the hub the dashboard publishes to
type WebSocketHub interface {
	BroadcastMessage(ctx context.Context, msgType events.MessageType, data any)
}

// FeedResult is the outcome of fetching and parsing one feed in a cycle
type FeedResult struct {
	Kind     domain.FeedKind           `json:"kind"`
	OK       bool                      `json:"ok"`
	Err      error                     `json:"-"`
	Error    string                    `json:"error,omitempty"`
	ErrKind  errors.ErrorType          `json:"error_kind,omitempty"`
	Stats    dataprocessing.ParseStats `json:"stats"`
	Bytes    int64                     `json:"bytes"`
	Origin   string                    `json:"origin,omitempty"`
	Version  uint64                    `json:"version"`
	Duration time.Duration             `json:"duration_ns"`
}

// CycleReport describes one completed refresh cycle
type CycleReport struct {
	ID          string             `json:"id"`
	Outcome     string             `json:"outcome"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
	Duration    time.Duration      `json:"duration_ns"`
	Feeds       []FeedResult       `json:"feeds"`
	Summary     domain.SummaryView `json:"summary"`
}

// Result returns the result for one feed
func (r CycleReport) Result(kind domain.FeedKind) (FeedResult, bool) {
	for _, fr := range r.Feeds {
		if fr.Kind == kind {
			return fr, true
		}
	}
	return FeedResult{}, false
}

// DashboardDeps holds the collaborators of a DashboardService
type DashboardDeps struct {
	Source         feeds.Source
	Store          *store.MemoryStore
	Hub            WebSocketHub                     // optional
	Metrics        *infrastructure.DashboardMetrics // optional
	Logger         *slog.Logger
	TopClients     int
	RefreshTimeout time.Duration
	Clock          func() time.Time
}

// DashboardService runs refresh cycles and answers dashboard queries
type DashboardService struct {
	source         feeds.Source
	store          *store.MemoryStore
	summarizer     *dataprocessing.Summarizer
	hub            WebSocketHub
	metrics        *infrastructure.DashboardMetrics
	tracer         trace.Tracer
	logger         *slog.Logger
	refreshTimeout time.Duration
	now            func() time.Time
}

// NewDashboardService creates a dashboard service
func NewDashboardService(deps DashboardDeps) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st := deps.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &DashboardService{
		source: deps.Source,
		store:  st,
		summarizer: dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{
			TopClients: deps.TopClients,
			Clock:      clock,
		}),
		hub:            deps.Hub,
		metrics:        deps.Metrics,
		tracer:         otel.Tracer("ledgerpulse/services"),
		logger:         infrastructure.WithComponent(logger, "dashboard"),
		refreshTimeout: deps.RefreshTimeout,
		now:            clock,
	}
}

// RefreshOnce runs one refresh cycle. It never returns an error: per-feed
// failures are reported in the returned CycleReport and leave that feed's
// previous data in place.
func (s *DashboardService) RefreshOnce(ctx context.Context) CycleReport {
	cycleID := uuid.NewString()
	ctx = infrastructure.EnsureTraceID(ctx)
	if s.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.refreshTimeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.refresh",
		trace.WithAttributes(attribute.String("cycle.id", cycleID)))
	defer span.End()

	if s.metrics != nil {
		s.metrics.RefreshInFlight.Add(ctx, 1)
		defer s.metrics.RefreshInFlight.Add(ctx, -1)
	}

	started := s.now()
	logger := s.logger.With("cycle_id", cycleID)
	logger.DebugContext(ctx, "refresh cycle started", slog.String("source", s.source.Name()))

	// Plain errgroup: one failed feed must not cancel the other
	results := make([]FeedResult, len(domain.AllFeeds))
	var g errgroup.Group
	for i, kind := range domain.AllFeeds {
		g.Go(func() error {
			results[i] = s.refreshFeed(ctx, cycleID, kind)
			return nil
		})
	}
	_ = g.Wait()

	summary := s.store.RecomputeSummary(s.summarizer.Summarize)
	view := dataprocessing.View(summary)

	completed := s.now()
	report := CycleReport{
		ID:          cycleID,
		Outcome:     outcomeOf(results),
		StartedAt:   started.UTC(),
		CompletedAt: completed.UTC(),
		Duration:    completed.Sub(started),
		Feeds:       results,
		Summary:     view,
	}

	s.publishSnapshot(ctx, report)

	infrastructure.RecordRefreshCycle(ctx, s.metrics, report.Duration, report.Outcome)
	span.SetAttributes(attribute.String("cycle.outcome", report.Outcome))
	if report.Outcome == OutcomeFailure {
		span.SetStatus(codes.Error, "all feeds failed")
	}

	level := slog.LevelInfo
	if report.Outcome != OutcomeSuccess {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "refresh cycle completed",
		slog.String("outcome", report.Outcome),
		slog.Duration("duration", report.Duration),
		slog.Int("works", recordsOf(results, domain.FeedWorks)),
		slog.Int("expenses", recordsOf(results, domain.FeedExpenses)),
		slog.Float64("total_revenue", summary.TotalRevenue),
		slog.Int("clients", summary.ClientCount))

	return report
}

// refreshFeed fetches, parses and applies one feed
func (s *DashboardService) refreshFeed(ctx context.Context, cycleID string, kind domain.FeedKind) FeedResult {
	ctx, span := s.tracer.Start(ctx, "dashboard.refresh_feed",
		trace.WithAttributes(attribute.String("feed", string(kind))))
	defer span.End()

	logger := infrastructure.WithFeed(s.logger.With("cycle_id", cycleID), string(kind))
	start := time.Now()
	attempt := s.now().UTC()
	result := FeedResult{Kind: kind}

	doc, err := s.source.Fetch(ctx, kind)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		result.Error = err.Error()
		result.ErrKind = errors.KindOf(err)

		infrastructure.RecordError(ctx, err)
		infrastructure.RecordFeedFetch(ctx, s.metrics, string(kind), result.Duration, 0, string(result.ErrKind))

		s.store.UpdateFeedStatus(kind, func(st *domain.FeedStatus) {
			st.LastAttempt = attempt
			st.LastError = result.Error
			st.LastErrorKind = string(result.ErrKind)
			st.Stale = true
		})

		logger.WarnContext(ctx, "feed fetch failed, keeping previous data",
			slog.String("error", result.Error),
			slog.String("error_kind", string(result.ErrKind)),
			slog.Uint64("kept_version", s.store.Version(kind)))

		s.publish(ctx, events.MessageTypeFeedError, events.FeedError{
			CycleID: cycleID,
			Feed:    kind,
			Kind:    string(result.ErrKind),
			Message: result.Error,
		})
		return result
	}

	result.OK = true
	result.Bytes = doc.Bytes
	result.Origin = doc.Origin
	infrastructure.RecordFeedFetch(ctx, s.metrics, string(kind), result.Duration, doc.Bytes, "")

	switch kind {
	case domain.FeedWorks:
		parsed := dataprocessing.ParseWorksRows(doc.Rows)
		result.Stats = parsed.Stats
		result.Version = s.store.ReplaceWorks(parsed.Records, doc.FetchedAt)
	case domain.FeedExpenses:
		parsed := dataprocessing.ParseExpensesRows(doc.Rows)
		result.Stats = parsed.Stats
		result.Version = s.store.ReplaceExpenses(parsed.Records, parsed.Aggregate, doc.FetchedAt)
	}

	s.store.UpdateFeedStatus(kind, func(st *domain.FeedStatus) {
		st.LastAttempt = attempt
		st.Dropped = result.Stats.Dropped
		st.Bytes = doc.Bytes
	})

	infrastructure.RecordRows(ctx, s.metrics, string(kind), result.Stats.Records, result.Stats.Dropped)
	span.SetAttributes(
		attribute.Int("feed.records", result.Stats.Records),
		attribute.Int("feed.dropped", result.Stats.Dropped),
		attribute.Int64("feed.bytes", doc.Bytes))

	logger.DebugContext(ctx, "feed applied",
		slog.Int("records", result.Stats.Records),
		slog.Int("dropped", result.Stats.Dropped),
		slog.Uint64("version", result.Version))

	return result
}

func (s *DashboardService) publishSnapshot(ctx context.Context, report CycleReport) {
	s.publish(ctx, events.MessageTypeDashboardSnapshot, events.DashboardSnapshot{
		CycleID:         report.ID,
		Summary:         report.Summary,
		Feeds:           s.store.FeedStatuses(),
		WorksVersion:    s.store.Version(domain.FeedWorks),
		ExpensesVersion: s.store.Version(domain.FeedExpenses),
		CompletedAt:     report.CompletedAt,
	})
}

func (s *DashboardService) publish(ctx context.Context, msgType events.MessageType, data any) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastMessage(ctx, msgType, data)
}

// Summary returns the current aggregates with display strings
func (s *DashboardService) Summary() domain.SummaryView {
	return dataprocessing.View(s.store.Summary())
}

// Works returns the works matching query, or all works for an empty query
func (s *DashboardService) Works(query string) []domain.WorkRecord {
	works := s.store.Works()
	if query == "" {
		return works
	}
	return dataprocessing.FilterWorks(works, query)
}

// Expenses returns the expenses matching query
func (s *DashboardService) Expenses(query string) []domain.ExpenseRecord {
	expenses := s.store.Expenses()
	if query == "" {
		return expenses
	}
	return dataprocessing.FilterExpenses(expenses, query)
}

// Snapshot returns a consistent copy of the dashboard state
func (s *DashboardService) Snapshot() domain.Snapshot {
	return s.store.Snapshot()
}

// FeedStatuses returns the last fetch status of each feed
func (s *DashboardService) FeedStatuses() map[domain.FeedKind]domain.FeedStatus {
	return s.store.FeedStatuses()
}

// Loaded reports whether every feed has been applied at least once
func (s *DashboardService) Loaded() bool {
	for _, kind := range domain.AllFeeds {
		if !s.store.Loaded(kind) {
			return false
		}
	}
	return true
}

func outcomeOf(results []FeedResult) string {
	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	switch ok {
	case len(results):
		return OutcomeSuccess
	case 0:
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}

func recordsOf(results []FeedResult, kind domain.FeedKind) int {
	for _, r := range results {
		if r.Kind == kind {
			return r.Stats.Records
		}
	}
	return 0
}
