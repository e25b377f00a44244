package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"wazecli/internal/config"
)

const (
	ServiceVersion = "1.0.0"
	MeterName      = "wazecli"
)

// Telemetry holds the OpenTelemetry providers of one program run
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Metrics        *RunMetrics

	metricsFile string
	logger      *slog.Logger
}

// RunMetrics are the instruments shared by the exporter and the reporter
type RunMetrics struct {
	RecordsExported  metric.Int64Counter
	ResultsLoaded    metric.Int64Counter
	ArtifactsWritten metric.Int64Counter
	StageDuration    metric.Float64Histogram
}

// InitializeTelemetry wires tracing and metrics for a batch run.
// Traces go to traceOut when the stdout exporter is selected; metrics are kept in a
// private Prometheus registry and written to cfg.MetricsFile on Shutdown.
func InitializeTelemetry(ctx context.Context, cfg config.TelemetryConfig, serviceName string, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}
	if traceOut == nil {
		traceOut = os.Stderr
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
			attribute.String("service.instance.id", GetRunID(ctx)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t := &Telemetry{
		metricsFile: cfg.MetricsFile,
		logger:      logger,
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(t.TracerProvider)
		t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
	case "none", "":
		// global provider is a no-op until one is installed
		t.Tracer = otel.Tracer(MeterName)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	t.Registry = prometheus.NewRegistry()
	promExporter, err := otelprom.New(
		otelprom.WithRegisterer(t.Registry),
		otelprom.WithoutScopeInfo(),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))

	t.Metrics, err = NewRunMetrics(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create run metrics: %w", err)
	}

	logger.DebugContext(ctx, "Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_file", cfg.MetricsFile))

	return t, nil
}

// NewRunMetrics creates the run instruments on meter
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	recordsExported, err := meter.Int64Counter(
		"wazecli_records_exported",
		metric.WithDescription("Documents written to the incident CSV"),
	)
	if err != nil {
		return nil, err
	}

	resultsLoaded, err := meter.Int64Counter(
		"wazecli_results_loaded",
		metric.WithDescription("Batch job sub-results loaded by the reporter"),
	)
	if err != nil {
		return nil, err
	}

	artifactsWritten, err := meter.Int64Counter(
		"wazecli_artifacts_written",
		metric.WithDescription("Report artifacts written, by artifact"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"wazecli_stage_duration",
		metric.WithDescription("Duration of a pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		RecordsExported:  recordsExported,
		ResultsLoaded:    resultsLoaded,
		ArtifactsWritten: artifactsWritten,
		StageDuration:    stageDuration,
	}, nil
}

// StartStage opens a span for a pipeline stage. The returned func ends the span,
// records the stage duration and marks the span failed when err is non-nil.
func (t *Telemetry) StartStage(ctx context.Context, stage string) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := t.Tracer.Start(ctx, stage, trace.WithAttributes(attribute.String("stage", stage)))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		t.Metrics.StageDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("stage", stage)))
	}
}

// Shutdown flushes spans, writes the metrics textfile when configured and releases providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.metricsFile != "" {
		if err := prometheus.WriteToTextfile(t.metricsFile, t.Registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics file: %w", err))
		} else {
			t.logger.DebugContext(ctx, "Metrics written", slog.String("path", t.metricsFile))
		}
	}

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}
