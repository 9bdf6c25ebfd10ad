package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger_levels(t *testing.T) {
	t.Parallel()

	quiet := newLogger(&bytes.Buffer{}, loggerOptions{})
	require.False(t, quiet.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, quiet.Enabled(context.Background(), slog.LevelWarn))

	verbose := newLogger(&bytes.Buffer{}, loggerOptions{Debug: true})
	require.True(t, verbose.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewLogger_json(t *testing.T) {
	t.Parallel()

	var buff bytes.Buffer
	log := newLogger(&buff, loggerOptions{Json: true})

	log.Warn("Export queue full", slog.String("storage", "influx"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buff.Bytes(), &entry))
	require.Equal(t, "Export queue full", entry["msg"])
	require.Equal(t, "influx", entry["storage"])
	require.Equal(t, "WARN", entry["level"])
}
