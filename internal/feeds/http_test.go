package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerpulse/internal/config"
	"ledgerpulse/internal/errors"
	"ledgerpulse/internal/shared/testutil"
	"ledgerpulse/pkg/contracts/domain"
)

func feedsConfig(worksURL, expensesURL string) config.FeedsConfig {
	cfg := config.Default().Feeds
	cfg.WorksURL = worksURL
	cfg.ExpensesURL = expensesURL
	cfg.FetchRPS = 0
	return cfg
}

func newFeedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_Fetch(t *testing.T) {
	var gotUA, gotAccept string
	srv := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		switch r.URL.Path {
		case "/works":
			_, _ = w.Write([]byte(testutil.WorksCSV))
		case "/expenses":
			_, _ = w.Write([]byte(testutil.ExpensesCSV))
		default:
			http.NotFound(w, r)
		}
	})

	fixed := time.Date(2024, 11, 11, 12, 0, 0, 0, time.UTC)
	src := NewHTTPSource(feedsConfig(srv.URL+"/works", srv.URL+"/expenses"), nil, WithClock(func() time.Time { return fixed }))

	doc, err := src.Fetch(context.Background(), domain.FeedWorks)
	require.NoError(t, err)

	assert.Equal(t, domain.FeedWorks, doc.Kind)
	assert.Len(t, doc.Rows, 6)
	assert.Equal(t, int64(len(testutil.WorksCSV)), doc.Bytes)
	assert.Equal(t, fixed, doc.FetchedAt)
	assert.Equal(t, srv.URL+"/works", doc.Origin)
	assert.Equal(t, "LedgerPulse/1.0.0", gotUA)
	assert.Contains(t, gotAccept, "text/csv")

	doc, err = src.Fetch(context.Background(), domain.FeedExpenses)
	require.NoError(t, err)
	assert.Len(t, doc.Rows, 6)
	assert.Equal(t, "csv", src.Name())
}

func TestHTTPSource_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		mutate   func(*config.FeedsConfig)
		wantKind errors.ErrorType
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantKind: errors.ErrTypeHTTPStatus,
		},
		{
			name: "not found status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantKind: errors.ErrTypeHTTPStatus,
		},
		{
			name: "html sign-in page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte("<html>sign in</html>"))
			},
			wantKind: errors.ErrTypeParsing,
		},
		{
			name: "body too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("a,b,c\n", 100)))
			},
			mutate:   func(c *config.FeedsConfig) { c.MaxBodyBytes = 64 },
			wantKind: errors.ErrTypeParsing,
		},
		{
			name: "slow upstream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			mutate:   func(c *config.FeedsConfig) { c.FetchTimeout = 50 * time.Millisecond },
			wantKind: errors.ErrTypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFeedServer(t, tt.handler)
			cfg := feedsConfig(srv.URL+"/works", srv.URL+"/expenses")
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			doc, err := NewHTTPSource(cfg, nil).Fetch(context.Background(), domain.FeedWorks)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.Equal(t, tt.wantKind, errors.KindOf(err))
		})
	}
}

func TestHTTPSource_StatusErrorContext(t *testing.T) {
	srv := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := NewHTTPSource(feedsConfig(srv.URL, srv.URL), nil).Fetch(context.Background(), domain.FeedExpenses)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusForbidden, appErr.Context["status"])
	assert.Equal(t, srv.URL, appErr.Context["url"])
}

func TestHTTPSource_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(feedsConfig(url, url), nil).Fetch(context.Background(), domain.FeedWorks)
	assert.Equal(t, errors.ErrTypeNetwork, errors.KindOf(err))
}

func TestHTTPSource_MissingURL(t *testing.T) {
	_, err := NewHTTPSource(feedsConfig("", ""), nil).Fetch(context.Background(), domain.FeedWorks)
	assert.Equal(t, errors.ErrTypeNotFound, errors.KindOf(err))
}

func TestHTTPSource_RateLimited(t *testing.T) {
	srv := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("h\nx"))
	})

	cfg := feedsConfig(srv.URL, srv.URL)
	cfg.FetchRPS = 0.001
	cfg.FetchBurst = 1
	cfg.FetchTimeout = 100 * time.Millisecond
	src := NewHTTPSource(cfg, nil)

	_, err := src.Fetch(context.Background(), domain.FeedWorks)
	require.NoError(t, err)

	// Bucket is empty and the next token is far beyond the deadline
	_, err = src.Fetch(context.Background(), domain.FeedWorks)
	assert.Equal(t, errors.ErrTypeTimeout, errors.KindOf(err))
}

func TestNew(t *testing.T) {
	src, err := New(context.Background(), config.Default().Feeds, nil)
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)

	cfg := config.Default().Feeds
	cfg.Source = "ftp"
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
