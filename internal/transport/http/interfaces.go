package http

import (
	"context"
	"io"

	"ledgerpulse/internal/services"
	"ledgerpulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	RefreshOnce(ctx context.Context) services.CycleReport
	Summary() domain.SummaryView
	Works(query string) []domain.WorkRecord
	Expenses(query string) []domain.ExpenseRecord
	Snapshot() domain.Snapshot
	FeedStatuses() map[domain.FeedKind]domain.FeedStatus
	Loaded() bool
}

// ExporterInterface defines the export operations the handlers use
type ExporterInterface interface {
	WriteWorkbook(ctx context.Context, w io.Writer, snap domain.Snapshot) error
	WriteWorksCSV(ctx context.Context, w io.Writer, works []domain.WorkRecord) error
	WriteExpensesCSV(ctx context.Context, w io.Writer, expenses []domain.ExpenseRecord) error
}
