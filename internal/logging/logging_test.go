package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"error":   slog.LevelError,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		" debug ": slog.LevelDebug,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("trace")
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "json")
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("rule evaluation error", "rule", "payment_terms_reasonable")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "rule evaluation error", entry["msg"])
	assert.Equal(t, "payment_terms_reasonable", entry["rule"])
}

func TestNew_LogfmtAndText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "logfmt")
	require.NoError(t, err)
	logger.Info("analysis complete", "risk", "Low")
	assert.Contains(t, buf.String(), `msg="analysis complete" risk=Low`)

	buf.Reset()
	logger, err = New(&buf, "debug", "text")
	require.NoError(t, err)
	logger.Debug("scored", "profile", "msa")
	assert.Contains(t, buf.String(), "scored")
	assert.Contains(t, buf.String(), "msa")

	_, err = New(&buf, "info", "yaml")
	assert.Error(t, err)
}
