package feeds

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ledgerpulse/internal/config"
	"ledgerpulse/internal/dataprocessing"
	"ledgerpulse/internal/errors"
	"ledgerpulse/pkg/contracts/domain"
)

// SheetsSource reads the works and expenses tabs through the Sheets API.
// Cells are read as formatted values so the rows match the CSV export.
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	ranges        map[domain.FeedKind]string
	timeout       time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewSheetsSource authenticates with a service account file or an API key
func NewSheetsSource(ctx context.Context, cfg config.FeedsConfig, logger *slog.Logger, opts ...option.ClientOption) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.NewConfigError("spreadsheet id is required for the sheets source", nil)
	}

	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, option.WithUserAgent(cfg.UserAgent))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError("failed to create sheets service", err)
	}

	return NewSheetsSourceWithService(svc, cfg, logger), nil
}

// NewSheetsSourceWithService wraps an existing service
func NewSheetsSourceWithService(svc *sheets.Service, cfg config.FeedsConfig, logger *slog.Logger) *SheetsSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsSource{
		service:       svc,
		spreadsheetID: cfg.SpreadsheetID,
		ranges: map[domain.FeedKind]string{
			domain.FeedWorks:    cfg.WorksRange,
			domain.FeedExpenses: cfg.ExpensesRange,
		},
		timeout: cfg.FetchTimeout,
		logger:  logger.With("component", "feeds.sheets"),
		now:     time.Now,
	}
}

// Name identifies the source in logs and status output
func (s *SheetsSource) Name() string { return config.SourceSheets }

// Fetch reads one tab and converts it to body rows
func (s *SheetsSource) Fetch(ctx context.Context, kind domain.FeedKind) (*Document, error) {
	rng, ok := s.ranges[kind]
	if !ok || rng == "" {
		return nil, errors.NewNotFoundError(fmt.Sprintf("feed %q", kind))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifySheetsError(ctx, err).
			WithContext("spreadsheet_id", s.spreadsheetID).
			WithContext("range", rng)
	}

	grid := make([][]string, len(resp.Values))
	var size int64
	for i, row := range resp.Values {
		grid[i] = make([]string, len(row))
		for j, cell := range row {
			grid[i][j] = fmt.Sprint(cell)
			size += int64(len(grid[i][j]))
		}
	}

	doc := &Document{
		Kind:      kind,
		Rows:      dataprocessing.RowsFromValues(grid),
		Bytes:     size,
		FetchedAt: s.now().UTC(),
		Origin:    fmt.Sprintf("sheets://%s/%s", s.spreadsheetID, rng),
	}

	s.logger.DebugContext(ctx, "sheet range read",
		slog.String("feed", string(kind)),
		slog.String("range", rng),
		slog.Int("rows", len(doc.Rows)))

	return doc, nil
}

func classifySheetsError(ctx context.Context, err error) *errors.AppError {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		appErr := errors.NewAppError(errors.ErrTypeHTTPStatus,
			fmt.Sprintf("unexpected status %d", apiErr.Code), err)
		return appErr.WithContext("status", apiErr.Code)
	}
	return classifyTransportError(ctx, "sheets request failed", err)
}
