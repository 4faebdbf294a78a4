package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "ledgerpulse/internal/errors"
	"ledgerpulse/internal/middleware"
	"ledgerpulse/internal/services"
	"ledgerpulse/pkg/contracts/domain"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// DashboardHandler serves the dashboard data, refresh and export endpoints
type DashboardHandler struct {
	service      DashboardServiceInterface
	exporter     ExporterInterface
	validator    *middleware.QueryValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	now          func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, exporter ExporterInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		exporter:     exporter,
		validator:    middleware.NewQueryValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		now:          time.Now,
	}
}

// Routes registers the dashboard routes on r
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/works", h.GetWorks)
		r.Get("/expenses", h.GetExpenses)
		r.Get("/summary", h.GetSummary)
		r.Get("/snapshot", h.GetSnapshot)
		r.Get("/feeds", h.GetFeeds)
		r.Post("/refresh", h.Refresh)
	})

	r.Route("/export", func(r chi.Router) {
		r.Use(h.requireData)
		r.Get("/dashboard.xlsx", h.ExportWorkbook)
		r.Get("/{feed}.csv", h.ExportCSV)
	})
}

// requireData answers 503 until at least one feed has been applied
func (h *DashboardHandler) requireData(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := h.service.Snapshot()
		if snap.WorksVersion == 0 && snap.ExpensesVersion == 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrDataNotLoaded)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetWorks handles GET /api/works?q=
func (h *DashboardHandler) GetWorks(w http.ResponseWriter, r *http.Request) {
	query, ok := h.validator.Search(w, r)
	if !ok {
		return
	}

	works := h.service.Works(query)
	h.logger.DebugContext(r.Context(), "works listed",
		slog.String("query", query),
		slog.Int("count", len(works)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   works,
		"count":  len(works),
	})
}

// GetExpenses handles GET /api/expenses?q=
func (h *DashboardHandler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	query, ok := h.validator.Search(w, r)
	if !ok {
		return
	}

	expenses := h.service.Expenses(query)
	h.logger.DebugContext(r.Context(), "expenses listed",
		slog.String("query", query),
		slog.Int("count", len(expenses)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   expenses,
		"count":  len(expenses),
	})
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Summary(),
		"loaded": h.service.Loaded(),
	})
}

// GetSnapshot handles GET /api/snapshot
func (h *DashboardHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Snapshot(),
	})
}

// GetFeeds handles GET /api/feeds
func (h *DashboardHandler) GetFeeds(w http.ResponseWriter, r *http.Request) {
	statuses := h.service.FeedStatuses()
	feeds := make([]domain.FeedStatus, 0, len(statuses))
	for _, kind := range domain.AllFeeds {
		if st, ok := statuses[kind]; ok {
			feeds = append(feeds, st)
		}
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   feeds,
		"count":  len(feeds),
	})
}

// Refresh handles POST /api/refresh. A cycle in which every feed failed
// answers 502 with the per-feed errors; partial cycles answer 200.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	report := h.service.RefreshOnce(r.Context())

	h.logger.InfoContext(r.Context(), "manual refresh",
		slog.String("cycle_id", report.ID),
		slog.String("outcome", report.Outcome),
		slog.Duration("duration", report.Duration))

	if report.Outcome == services.OutcomeFailure {
		h.errorHandler.HandleError(w, r, apierrors.RefreshFailedError(report.Feeds))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// ExportWorkbook handles GET /api/export/dashboard.xlsx
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	// Build in memory so a failure can still produce an error response
	var buf bytes.Buffer
	if err := h.exporter.WriteWorkbook(r.Context(), &buf, h.service.Snapshot()); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ExportError("xlsx", err))
		return
	}

	h.writeAttachment(w, contentTypeXLSX, "dashboard", "xlsx", buf.Bytes())
}

// ExportCSV handles GET /api/export/{feed}.csv?q=
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.validator.Feed(w, r, chi.URLParam(r, "feed"))
	if !ok {
		return
	}
	query, ok := h.validator.Search(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	var err error
	switch kind {
	case domain.FeedWorks:
		err = h.exporter.WriteWorksCSV(r.Context(), &buf, h.service.Works(query))
	case domain.FeedExpenses:
		err = h.exporter.WriteExpensesCSV(r.Context(), &buf, h.service.Expenses(query))
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ExportError("csv", err))
		return
	}

	h.writeAttachment(w, contentTypeCSV, string(kind), "csv", buf.Bytes())
}

func (h *DashboardHandler) writeAttachment(w http.ResponseWriter, contentType, name, ext string, data []byte) {
	filename := fmt.Sprintf("%s_%s.%s", name, h.now().Format("2006_01_02"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
