package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"wazecli/internal/config"
	"wazecli/internal/exporter"
	"wazecli/internal/infrastructure"
	"wazecli/internal/source"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens before exit
func run() int {
	outputPath := flag.String("out", "", "CSV output path (overrides EXPORT_OUTPUT_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if *outputPath != "" {
		cfg.Export.OutputPath = *outputPath
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()
	logger = infrastructure.WithComponent(logger, "exporter-cli")

	ctx := infrastructure.EnsureRunID(context.Background())

	telemetry, err := infrastructure.InitializeTelemetry(ctx, cfg.Telemetry, "wazecli-exporter", os.Stderr, logger)
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

	return newExporterCLI(cfg, logger, telemetry, openMongo).Run(ctx)
}

// openFunc connects to the document source for one run
type openFunc func(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (source.DocumentSource, error)

func openMongo(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (source.DocumentSource, error) {
	src, err := source.OpenMongo(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// exporterCLI wires the document source and CSV exporter for one run
type exporterCLI struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	open      openFunc
}

func newExporterCLI(cfg *config.Config, logger *slog.Logger, telemetry *infrastructure.Telemetry, open openFunc) *exporterCLI {
	return &exporterCLI{cfg: cfg, logger: logger, telemetry: telemetry, open: open}
}

// Run connects, exports and returns the exit code. The source is closed on every path once opened.
func (e *exporterCLI) Run(ctx context.Context) int {
	e.logger.InfoContext(ctx, "Starting incident export",
		slog.String("database", e.cfg.Mongo.Database),
		slog.String("collection", e.cfg.Mongo.Collection),
		slog.String("output", e.cfg.Export.OutputPath))

	connectCtx, endConnect := e.telemetry.StartStage(ctx, "connect")
	src, err := e.open(connectCtx, e.cfg.Mongo, e.logger)
	endConnect(err)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := src.Close(context.WithoutCancel(ctx)); err != nil {
			e.logger.WarnContext(ctx, "Failed to close MongoDB connection", slog.String("error", err.Error()))
		}
	}()

	exp := exporter.NewExporter(e.logger, e.telemetry.Metrics, exporter.Config{
		ProgressEvery: e.cfg.Export.ProgressEvery,
		BOMPrefix:     e.cfg.Export.BOM,
	})

	exportCtx, endExport := e.telemetry.StartStage(ctx, "export")
	result, err := exp.Export(exportCtx, src, e.cfg.Export.OutputPath)
	endExport(err)
	if err != nil {
		e.logger.ErrorContext(ctx, "Export failed", slog.String("error", err.Error()))
		return 1
	}

	e.logger.InfoContext(ctx, "Export finished",
		slog.Int("records", result.Records),
		slog.String("path", result.Path))
	return 0
}
