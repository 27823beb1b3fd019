package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/chargebox-core/internal/infrastructure/config"
)

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		logger := New(config.LoggingConfig{Level: "info", Format: format, Output: "stderr"}, "1.0.0")
		require.NotNil(t, logger, "format %q", format)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestNewWithWriter_DefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "2.3.4", &buf)

	logger.Info("charge box connected", "charge_box_id", "CP001")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "chargebox-core", entry["service"])
	assert.Equal(t, "2.3.4", entry["version"])
	assert.Equal(t, "CP001", entry["charge_box_id"])
	assert.Equal(t, "charge box connected", entry["msg"])
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "test", &buf)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "text"}, "test", &buf)

	base.With("component", "gateway").Debug("hello")

	assert.True(t, strings.Contains(buf.String(), "component=gateway"))
}

func TestComponent_SharesLevel(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "test", &buf)
	gw := base.Component("gateway")

	gw.Debug("hidden")
	assert.Empty(t, buf.String())

	base.SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, gw.Level())
	gw.Debug("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gateway", entry["component"])
	assert.Equal(t, "shown", entry["msg"])
}

func TestTimestampsAreUTC(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(config.LoggingConfig{Format: "json"}, "test", &buf).Info("tick")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	ts, ok := entry["time"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(ts, "Z"), ts)
}

func TestDefault(t *testing.T) {
	l := Default()
	require.NotNil(t, l)
	assert.Equal(t, slog.LevelInfo, l.Level())
}
