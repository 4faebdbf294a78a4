package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ledgerpulse/internal/config"
	"ledgerpulse/internal/dataprocessing"
	"ledgerpulse/pkg/contracts/domain"
)

// Document is one fetched feed, split into body rows
type Document struct {
	Kind      domain.FeedKind
	Rows      []dataprocessing.Row
	Bytes     int64
	FetchedAt time.Time
	Origin    string
}

// Source fetches one feed at a time. Implementations must be safe for
// concurrent use since both feeds are fetched in parallel.
type Source interface {
	Fetch(ctx context.Context, kind domain.FeedKind) (*Document, error)
	Name() string
}

// New builds the source selected by cfg.Source
func New(ctx context.Context, cfg config.FeedsConfig, logger *slog.Logger) (Source, error) {
	switch cfg.Source {
	case config.SourceCSV, "":
		return NewHTTPSource(cfg, logger), nil
	case config.SourceSheets:
		return NewSheetsSource(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.Source)
	}
}
