package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"ledgerpulse/internal/infrastructure"
)

func TestOTelMiddleware(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := infrastructure.CreateDashboardMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	m := NewOTelMiddleware(&infrastructure.OTelProviders{Tracer: tp.Tracer("test")}, metrics)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/export/{feed}.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/works.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /api/export/{feed}.csv", ended[0].Name())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var routes []string
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "http_requests_total" {
				continue
			}
			for _, dp := range metric.Data.(metricdata.Sum[int64]).DataPoints {
				route, _ := dp.Attributes.Value("route")
				routes = append(routes, route.AsString())
			}
		}
	}
	assert.Equal(t, []string{"/api/export/{feed}.csv"}, routes)
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", GetRealIP(req))

	req.Header.Set("X-Real-IP", "1.2.3.4")
	assert.Equal(t, "1.2.3.4", GetRealIP(req))

	req.Header.Set("X-Forwarded-For", "5.6.7.8")
	assert.Equal(t, "5.6.7.8", GetRealIP(req))
}
