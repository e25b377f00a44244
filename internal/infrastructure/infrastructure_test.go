package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"wazecli/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLogLevel(in))
		})
	}
}

func TestCreateLogger_InjectsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := createLogger(config.LoggingConfig{Level: "info", Output: "console"}, &buf)
	require.NoError(t, err)

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "export started", slog.Int("count", 3))
	logger.DebugContext(ctx, "filtered out")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "export started", entry["msg"])
	assert.Equal(t, "run-123", entry["run_id"])
	assert.EqualValues(t, 3, entry["count"])
}

func TestCreateLogger_FileOutput(t *testing.T) {
	defer CloseLogFile()

	path := filepath.Join(t.TempDir(), "logs", "run.log")
	var console bytes.Buffer
	logger, err := createLogger(config.LoggingConfig{Level: "debug", Output: "both", FilePath: path}, &console)
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, CloseLogFile())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, console.String(), `"msg":"hello"`)
}

func TestInitializeLogger_OncePerProcess(t *testing.T) {
	prev := slog.Default()
	ResetLoggerForTesting()
	t.Cleanup(func() {
		ResetLoggerForTesting()
		slog.SetDefault(prev)
	})

	path := filepath.Join(t.TempDir(), "run.log")
	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "file", FilePath: path})
	require.NoError(t, err)
	assert.Same(t, logger, GetLogger())

	again, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)
	assert.Same(t, logger, again, "later calls keep the first logger")

	ResetLoggerForTesting()
	assert.Nil(t, globalLogFile, "reset closes the log file")

	fresh, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)
	assert.NotSame(t, logger, fresh)
}

func TestEnsureRunID(t *testing.T) {
	ctx := EnsureRunID(context.Background())
	id := GetRunID(ctx)
	assert.Len(t, id, 36)

	assert.Equal(t, id, GetRunID(EnsureRunID(ctx)))
	assert.Empty(t, GetRunID(context.Background()))
}

func TestTelemetry_WritesMetricsFile(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-telemetry")
	metricsFile := filepath.Join(t.TempDir(), "wazecli.prom")

	tel, err := InitializeTelemetry(ctx, config.TelemetryConfig{
		TraceExporter: "none",
		MetricsFile:   metricsFile,
	}, "wazecli-test", nil, slog.Default())
	require.NoError(t, err)

	tel.Metrics.RecordsExported.Add(ctx, 42)
	tel.Metrics.ArtifactsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("artifact", "summary")))
	_, end := tel.StartStage(ctx, "export")
	end(nil)
	_, end = tel.StartStage(ctx, "load")
	end(errors.New("boom"))

	require.NoError(t, tel.Shutdown(ctx))

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "wazecli_records_exported_total 42")
	assert.Contains(t, text, "wazecli_stage_duration_seconds")
	assert.Contains(t, text, `stage="export"`)
	assert.Contains(t, text, "# HELP wazecli_artifacts_written_total Report artifacts written, by artifact\n")
	assert.Contains(t, text, `artifact="summary"`)
}

func TestTelemetry_StdoutTraces(t *testing.T) {
	var traces bytes.Buffer
	ctx := context.Background()

	tel, err := InitializeTelemetry(ctx, config.TelemetryConfig{TraceExporter: "stdout"}, "wazecli-test", &traces, nil)
	require.NoError(t, err)

	_, end := tel.StartStage(ctx, "render")
	end(nil)
	require.NoError(t, tel.Shutdown(ctx))

	assert.Contains(t, traces.String(), `"Name": "render"`)
}

func TestTelemetry_UnknownExporter(t *testing.T) {
	_, err := InitializeTelemetry(context.Background(), config.TelemetryConfig{TraceExporter: "zipkin"}, "x", nil, nil)
	assert.Error(t, err)
}
