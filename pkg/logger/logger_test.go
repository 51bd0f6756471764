package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNewWithOptions_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{
		Output: &buf,
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Attrs:  []slog.Attr{slog.String("service", "promo-hub")},
	})

	log.Debug("hidden")
	log.Info("counter bumped", "increment", 12)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "counter bumped", rec["msg"])
	assert.Equal(t, "promo-hub", rec["service"])
	assert.EqualValues(t, 12, rec["increment"])
}

func TestNewWithOptions_Text(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Output: &buf, Level: slog.LevelDebug, Format: "TEXT"})

	Component(log, "scheduler").Debug("tick")
	assert.Contains(t, buf.String(), "component=scheduler")
	assert.Contains(t, buf.String(), "msg=tick")
}

func TestContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	l := Discard()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
