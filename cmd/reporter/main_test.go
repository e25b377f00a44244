package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wazecli/internal/config"
	"wazecli/internal/infrastructure"
)

func newTestReporter(t *testing.T, inputDir, outputDir string) *reporter {
	t.Helper()

	cfg := config.Default()
	cfg.Report.InputDir = inputDir
	cfg.Report.OverrideOutputDir(outputDir)

	telemetry, err := infrastructure.InitializeTelemetry(context.Background(),
		config.TelemetryConfig{TraceExporter: "none"}, "wazecli-reporter-test", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = telemetry.Shutdown(context.Background()) })

	r := newReporter(cfg, infrastructure.GetLogger(), telemetry)
	r.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func put(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestReporter_Run(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "analysis_results")
	paths := config.NewResultPaths(in)
	put(t, paths.TypeStats, "JAM,500,6.1\nACCIDENT,120,8.0\n")
	put(t, paths.TopComunas, "Santiago,120,7.5,80.2\n")
	put(t, paths.HourlyStats, "8,120\n9,300\n17,300\n")
	put(t, paths.Metrics["raw_count"], "100000")
	put(t, paths.Metrics["clean_count"], "95000")

	var stdout bytes.Buffer
	code := newTestReporter(t, in, out).Run(context.Background(), &stdout)

	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Valid data rate: 95.0%")
	assert.Contains(t, stdout.String(), "Peak hour: 9:00 hrs")

	reportPaths := config.NewReportPaths(out, "")
	for _, p := range []string{
		reportPaths.SummaryJSON,
		reportPaths.Workbook,
		reportPaths.TypesChart,
		reportPaths.ComunasChart,
		reportPaths.HourlyChart,
	} {
		assert.True(t, config.FileExists(p), "missing %s", p)
	}
}

func TestReporter_NothingLoaded(t *testing.T) {
	out := filepath.Join(t.TempDir(), "analysis_results")

	var stdout bytes.Buffer
	code := newTestReporter(t, t.TempDir(), out).Run(context.Background(), &stdout)

	assert.Equal(t, 0, code)
	assert.Empty(t, stdout.String())
	assert.False(t, config.FileExists(out), "no artifacts without input")
}

func TestReporter_JSONFailureExitsNonZero(t *testing.T) {
	in := t.TempDir()
	put(t, config.NewResultPaths(in).HourlyStats, "8,120\n")

	// a regular file where the output directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	put(t, blocker, "x")

	r := newTestReporter(t, in, filepath.Join(blocker, "out"))
	r.cfg.Report.Charts = false
	r.cfg.Report.Workbook = false

	var stdout bytes.Buffer
	assert.Equal(t, 1, r.Run(context.Background(), &stdout))
}
