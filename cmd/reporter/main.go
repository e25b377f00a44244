package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"wazecli/internal/charts"
	"wazecli/internal/config"
	"wazecli/internal/infrastructure"
	"wazecli/internal/report"
	"wazecli/internal/results"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Stdout))
}

// run returns the process exit code; the console summary goes to stdout
func run(stdout io.Writer) int {
	inputDir := flag.String("in", "", "batch output directory (overrides REPORT_INPUT_DIR)")
	outputDir := flag.String("out", "", "artifact directory (overrides REPORT_OUTPUT_DIR)")
	summaryFile := flag.String("summary", "", "JSON summary path (overrides REPORT_SUMMARY_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if *inputDir != "" {
		cfg.Report.InputDir = *inputDir
	}
	if *outputDir != "" {
		cfg.Report.OverrideOutputDir(*outputDir)
	}
	if *summaryFile != "" {
		cfg.Report.SummaryFile = *summaryFile
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()
	logger = infrastructure.WithComponent(logger, "reporter-cli")

	ctx := infrastructure.EnsureRunID(context.Background())

	telemetry, err := infrastructure.InitializeTelemetry(ctx, cfg.Telemetry, "wazecli-reporter", os.Stderr, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	return newReporter(cfg, logger, telemetry).Run(ctx, stdout)
}

// reporter wires the loader, aggregator and sinks for one run
type reporter struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	now       func() time.Time
}

func newReporter(cfg *config.Config, logger *slog.Logger, telemetry *infrastructure.Telemetry) *reporter {
	return &reporter{cfg: cfg, logger: logger, telemetry: telemetry, now: time.Now}
}

// Run executes load, console, charts, workbook and JSON in order and returns the exit code
func (r *reporter) Run(ctx context.Context, stdout io.Writer) int {
	r.logger.InfoContext(ctx, "Starting post-processing analysis", slog.String("input_dir", r.cfg.Report.InputDir))

	loadCtx, endLoad := r.telemetry.StartStage(ctx, "load")
	loader := results.NewLoader(r.logger, r.telemetry.Metrics, []rune(r.cfg.Report.Delimiter)[0])
	rs := loader.Load(loadCtx, config.NewResultPaths(r.cfg.Report.InputDir))
	endLoad(nil)

	if rs.Empty() {
		r.logger.WarnContext(ctx, "No batch results found, make sure the batch job ran successfully",
			slog.String("input_dir", r.cfg.Report.InputDir))
		return 0
	}

	now := r.now()
	if err := report.NewConsolePrinter(stdout).Print(report.Build(rs, report.ConsoleLimits, now)); err != nil {
		r.logger.WarnContext(ctx, "Failed to print console summary", slog.String("error", err.Error()))
	}

	paths := config.NewReportPaths(r.cfg.Report.OutputDir, r.cfg.Report.SummaryFile)
	if err := paths.EnsureDirectories(); err != nil {
		r.logger.WarnContext(ctx, "Failed to create output directory", slog.String("error", err.Error()))
	}

	if r.cfg.Report.Charts {
		renderCtx, endRender := r.telemetry.StartStage(ctx, "render")
		written := charts.NewRenderer(r.logger, r.telemetry.Metrics).RenderAll(renderCtx, rs, paths)
		endRender(nil)
		r.logger.InfoContext(ctx, "Detailed analysis generated",
			slog.String("output_dir", paths.OutputDir),
			slog.Int("charts", len(written)))
	}

	jsonSummary := report.Build(rs, report.JSONLimits, now)

	if r.cfg.Report.Workbook {
		wbCtx, endWorkbook := r.telemetry.StartStage(ctx, "workbook")
		err := report.WriteWorkbook(paths.Workbook, rs, jsonSummary)
		endWorkbook(err)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping workbook", slog.String("error", err.Error()))
		} else {
			r.artifactWritten(wbCtx, "workbook", paths.Workbook)
		}
	}

	jsonCtx, endJSON := r.telemetry.StartStage(ctx, "json")
	err := report.WriteJSON(paths.SummaryJSON, jsonSummary)
	endJSON(err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to export JSON summary",
			slog.String("path", paths.SummaryJSON),
			slog.String("error", err.Error()))
		return 1
	}
	r.artifactWritten(jsonCtx, "summary", paths.SummaryJSON)

	r.logger.InfoContext(ctx, "Analysis completed", slog.String("output_dir", paths.OutputDir))
	return 0
}

func (r *reporter) artifactWritten(ctx context.Context, kind, path string) {
	r.logger.InfoContext(ctx, "Artifact written", slog.String("artifact", kind), slog.String("path", path))
	r.telemetry.Metrics.ArtifactsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("artifact", kind)))
}
