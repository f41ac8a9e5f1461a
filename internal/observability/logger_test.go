package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/persona-relay/internal/observability"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, observability.ParseLevel(in), in)
	}
}

func TestNewJSONRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := observability.New("warn", observability.FormatJSON, buf)

	l.Info("hidden")
	l.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestNewConsole(t *testing.T) {
	buf := &bytes.Buffer{}
	l := observability.New("info", observability.FormatConsole, buf)
	l.Info("console message")
	assert.Contains(t, buf.String(), "console message")
}

func TestLoggerFromContextAddsRequestID(t *testing.T) {
	prev := observability.Logger()
	t.Cleanup(func() { observability.SetLogger(prev) })

	buf := &bytes.Buffer{}
	observability.SetLogger(observability.New("info", observability.FormatJSON, buf))

	ctx := observability.WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", observability.RequestIDFromContext(ctx))

	observability.LoggerFromContext(ctx).Info("with id")
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
}

func TestLoggerFromContextWithoutRequestID(t *testing.T) {
	assert.Equal(t, observability.Logger(), observability.LoggerFromContext(context.Background()))
}
