package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLogLevel(in))
		})
	}
}

func TestSetupLoggerWritesJSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	tm := &TelemetryManager{config: TelemetryConfig{ServiceName: "fleetdata", LogLevel: "debug"}, out: &buf}
	require.NoError(t, tm.Initialize(context.Background()))

	buf.Reset()
	slog.Debug("Collection stored", slog.Int64("collection_id", 7))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Collection stored", line["msg"])
	assert.Equal(t, "fleetdata", line["service"])
	assert.Equal(t, float64(7), line["collection_id"])
}

func TestConvertAttr(t *testing.T) {
	assert.True(t, log.Int64("id", 3).Equal(convertAttr(slog.Int64("id", 3))))
	assert.True(t, log.Bool("ok", true).Equal(convertAttr(slog.Bool("ok", true))))
	assert.True(t, log.String("name", "x").Equal(convertAttr(slog.String("name", "x"))))
	assert.Equal(t, log.SeverityWarn, severity(slog.LevelWarn))
	assert.Equal(t, log.SeverityError, severity(slog.LevelError+4))
}
