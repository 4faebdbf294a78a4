package feeds

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"ledgerpulse/internal/config"
	"ledgerpulse/internal/dataprocessing"
	"ledgerpulse/internal/errors"
	"ledgerpulse/pkg/contracts/domain"
)

// HTTPSource downloads published CSV exports
type HTTPSource struct {
	client    *http.Client
	urls      map[domain.FeedKind]string
	timeout   time.Duration
	maxBytes  int64
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger
	now       func() time.Time
}

// HTTPOption customizes an HTTPSource
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the instrumented default client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithClock sets the source of Document.FetchedAt
func WithClock(now func() time.Time) HTTPOption {
	return func(s *HTTPSource) { s.now = now }
}

// NewHTTPSource creates a CSV source from the feeds config. Outbound
// requests are traced through otelhttp and throttled by a token bucket.
func NewHTTPSource(cfg config.FeedsConfig, logger *slog.Logger, opts ...HTTPOption) *HTTPSource {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.FetchRPS > 0 {
		limit = rate.Limit(cfg.FetchRPS)
	}
	burst := cfg.FetchBurst
	if burst <= 0 {
		burst = 1
	}

	s := &HTTPSource{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "feeds.fetch " + r.URL.Host
				})),
		},
		urls: map[domain.FeedKind]string{
			domain.FeedWorks:    cfg.WorksURL,
			domain.FeedExpenses: cfg.ExpensesURL,
		},
		timeout:   cfg.FetchTimeout,
		maxBytes:  cfg.MaxBodyBytes,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger.With("component", "feeds.http"),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the source in logs and status output
func (s *HTTPSource) Name() string { return config.SourceCSV }

// Fetch downloads and tokenizes one feed
func (s *HTTPSource) Fetch(ctx context.Context, kind domain.FeedKind) (*Document, error) {
	url, ok := s.urls[kind]
	if !ok || url == "" {
		return nil, errors.NewNotFoundError(fmt.Sprintf("feed %q", kind))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, errors.NewTimeoutError("feed fetch throttled past its deadline", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewConfigError("invalid feed url", err).WithContext("url", url)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, "feed request failed", err).WithContext("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, errors.NewHTTPStatusError(url, resp.StatusCode)
	}

	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "text/html" {
		return nil, errors.NewParsingError("feed returned an HTML page instead of CSV", nil).
			WithContext("url", url)
	}

	body, err := s.readBody(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, "reading feed body", err).WithContext("url", url)
	}
	if s.maxBytes > 0 && int64(len(body)) > s.maxBytes {
		return nil, errors.NewParsingError(
			fmt.Sprintf("feed body exceeds %s", humanize.IBytes(uint64(s.maxBytes))), nil).
			WithContext("url", url)
	}

	doc := &Document{
		Kind:      kind,
		Rows:      dataprocessing.SplitDocument(string(body)),
		Bytes:     int64(len(body)),
		FetchedAt: s.now().UTC(),
		Origin:    url,
	}

	s.logger.DebugContext(ctx, "feed downloaded",
		slog.String("feed", string(kind)),
		slog.String("size", humanize.Bytes(uint64(doc.Bytes))),
		slog.Int("rows", len(doc.Rows)),
		slog.Duration("duration", time.Since(start)))

	return doc, nil
}

// readBody reads at most maxBytes+1 bytes so oversize bodies are detected
// without buffering them whole.
func (s *HTTPSource) readBody(r io.Reader) ([]byte, error) {
	if s.maxBytes > 0 {
		r = io.LimitReader(r, s.maxBytes+1)
	}
	return io.ReadAll(r)
}

// classifyTransportError maps client and context errors to error kinds
func classifyTransportError(ctx context.Context, msg string, err error) *errors.AppError {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewTimeoutError(msg, err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewTimeoutError(msg, err)
	}
	return errors.NewNetworkError(msg, err)
}
