package exporter

import (
	"context"
	"log/slog"
	"os"
	"time"

	apperrors "wazecli/internal/errors"
	"wazecli/internal/incident"
	"wazecli/internal/infrastructure"
	"wazecli/internal/source"
)

// DefaultProgressEvery is how many records pass between progress log lines
const DefaultProgressEvery = 1000

// Config holds exporter options
type Config struct {
	ProgressEvery int
	BOMPrefix     bool
}

// Result describes a finished export
type Result struct {
	Path      string
	Total     int64 // documents reported by the source before the export started
	Records   int
	SizeBytes int64
	Duration  time.Duration
}

// Exporter streams a DocumentSource into the fixed-column incident CSV
type Exporter struct {
	logger  *slog.Logger
	metrics *infrastructure.RunMetrics
	config  Config
}

// NewExporter creates an exporter. metrics may be nil.
func NewExporter(logger *slog.Logger, metrics *infrastructure.RunMetrics, config Config) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = DefaultProgressEvery
	}
	return &Exporter{
		logger:  infrastructure.WithComponent(logger, "exporter"),
		metrics: metrics,
		config:  config,
	}
}

// Export writes one CSV row per document of src to path. An empty collection yields
// a header-only file. On failure the rows already flushed stay on disk.
func (e *Exporter) Export(ctx context.Context, src source.DocumentSource, path string) (*Result, error) {
	start := time.Now()

	if err := src.Ping(ctx); err != nil {
		return nil, err
	}

	total, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "Documents in collection", slog.Int64("total", total))
	if total == 0 {
		e.logger.WarnContext(ctx, "No documents to export, writing header only")
	}

	e.logger.InfoContext(ctx, "Exporting incidents", slog.String("path", path))

	sw, err := CreateStreamWriter(path, WriteOptions{
		Headers:   incident.Header(),
		BOMPrefix: e.config.BOMPrefix,
	})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create output file", err).WithContext("path", path)
	}

	err = src.Each(ctx, func(doc incident.Document) error {
		if err := sw.WriteRecord(FormatRecord(incident.Normalize(doc))); err != nil {
			return apperrors.NewStorageError("failed to write record", err).WithContext("row", sw.Rows()+1)
		}

		if n := sw.Rows(); n%e.config.ProgressEvery == 0 {
			e.logger.InfoContext(ctx, "Export progress", slog.Int("exported", n))
			if err := sw.Flush(); err != nil {
				return apperrors.NewStorageError("failed to flush output file", err)
			}
		}
		return nil
	})
	e.recordExported(ctx, sw.Rows())

	if err != nil {
		if closeErr := sw.Close(); closeErr != nil {
			e.logger.WarnContext(ctx, "Failed to close partial output",
				slog.String("path", path),
				slog.String("error", closeErr.Error()))
		}
		e.logger.ErrorContext(ctx, "Export aborted",
			slog.Int("exported", sw.Rows()),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := sw.Close(); err != nil {
		return nil, apperrors.NewStorageError("failed to close output file", err).WithContext("path", path)
	}

	result := &Result{
		Path:     path,
		Total:    total,
		Records:  sw.Rows(),
		Duration: time.Since(start),
	}
	if info, err := os.Stat(path); err == nil {
		result.SizeBytes = info.Size()
	}

	e.logger.InfoContext(ctx, "Export completed",
		slog.Int("records", result.Records),
		slog.String("path", path),
		slog.Float64("size_kb", float64(result.SizeBytes)/1024),
		slog.Duration("duration", result.Duration))

	return result, nil
}

func (e *Exporter) recordExported(ctx context.Context, n int) {
	if e.metrics == nil || n == 0 {
		return
	}
	e.metrics.RecordsExported.Add(ctx, int64(n))
}
