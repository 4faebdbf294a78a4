package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"ledgerpulse/internal/config"
)

func readLastLogLine(t *testing.T, path string) map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "nested", "test.log")

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	entry := readLastLogLine(t, logFile)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestInitializeLogger_OnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	dir := t.TempDir()
	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "file", FilePath: filepath.Join(dir, "a.log")})
	require.NoError(t, err)

	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "file", FilePath: filepath.Join(dir, "b.log")})
	require.NoError(t, err)

	assert.Same(t, first, second)
	_, statErr := os.Stat(filepath.Join(dir, "b.log"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test-trace-123", entry["trace_id"])
}

func TestTraceIDFromSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	NewLogger(&buf, "info").InfoContext(ctx, "inside span")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		warnSeen  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warning", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)
			logger.Debug("debug line")
			logger.Warn("warn line")

			assert.Equal(t, tt.debugSeen, strings.Contains(buf.String(), "debug line"))
			assert.Equal(t, tt.warnSeen, strings.Contains(buf.String(), "warn line"))
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := ContextWithTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.NotEmpty(t, traceID)

	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)))
	assert.NotEmpty(t, GetTraceID(EnsureTraceID(context.Background())))
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	WithFeed(WithComponent(logger, "refresh"), "works").Info("scoped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "refresh", entry["component"])
	assert.Equal(t, "works", entry["feed"])
}
