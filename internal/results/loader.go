package results

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"wazecli/internal/config"
	apperrors "wazecli/internal/errors"
	"wazecli/internal/infrastructure"
)

// errNoRows marks a sub-result file that exists but holds no data
var errNoRows = errors.New("no rows")

// Loader reads the batch job output directory into a ResultSet
type Loader struct {
	logger    *slog.Logger
	metrics   *infrastructure.RunMetrics
	delimiter rune
}

// NewLoader creates a loader for files separated by delimiter. metrics may be nil.
func NewLoader(logger *slog.Logger, metrics *infrastructure.RunMetrics, delimiter rune) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &Loader{
		logger:    infrastructure.WithComponent(logger, "result_loader"),
		metrics:   metrics,
		delimiter: delimiter,
	}
}

// Load probes every conventional sub-path and returns whatever could be read.
// It never fails: missing files are skipped and unreadable ones are logged and omitted.
func (l *Loader) Load(ctx context.Context, paths *config.ResultPaths) *ResultSet {
	l.logger.InfoContext(ctx, "Loading batch results", slog.String("base_dir", paths.BaseDir))

	rs := &ResultSet{}

	rs.CleanIncidents = loadTable(ctx, l, config.ResultCleanIncidents, paths.CleanIncidents,
		len(CleanIncidentColumns), func(row []string) ([]string, error) { return row, nil })
	rs.ComunaStats = loadTable(ctx, l, config.ResultComunaStats, paths.ComunaStats, 4, parseComunaStat)
	rs.TypeStats = loadTable(ctx, l, config.ResultTypeStats, paths.TypeStats, 3, parseTypeStat)
	rs.HourlyStats = loadTable(ctx, l, config.ResultHourlyStats, paths.HourlyStats, 2, parseHourlyStat)
	rs.TopComunas = loadTable(ctx, l, config.ResultTopComunas, paths.TopComunas, 4, parseComunaStat)

	for _, name := range config.MetricNames {
		value, err := readCounter(paths.Metrics[name])
		switch {
		case err == nil:
			if rs.ProcessingMetrics == nil {
				rs.ProcessingMetrics = make(map[string]int64)
			}
			rs.ProcessingMetrics[name] = value
		case errors.Is(err, os.ErrNotExist):
			l.logger.DebugContext(ctx, "Metric not present", slog.String("metric", name))
		default:
			l.logger.WarnContext(ctx, "Skipping unreadable metric",
				slog.String("metric", name),
				slog.String("path", paths.Metrics[name]),
				slog.String("error", err.Error()))
		}
	}
	if len(rs.ProcessingMetrics) > 0 {
		l.loaded(ctx, config.ResultProcessingMetrics, len(rs.ProcessingMetrics))
	}

	return rs
}

func (l *Loader) loaded(ctx context.Context, name string, rows int) {
	l.logger.InfoContext(ctx, "Loaded result", slog.String("result", name), slog.Int("rows", rows))
	if l.metrics != nil {
		l.metrics.ResultsLoaded.Add(ctx, 1, metric.WithAttributes(attribute.String("result", name)))
	}
}

// loadTable reads a headerless delimited file and parses every row. Any error
// discards the whole table so no partial result is ever returned.
func loadTable[T any](ctx context.Context, l *Loader, name, path string, columns int, parse func([]string) (T, error)) []T {
	rows, err := l.readRows(path, columns)
	if errors.Is(err, os.ErrNotExist) {
		l.logger.DebugContext(ctx, "Result not present", slog.String("result", name), slog.String("path", path))
		return nil
	}

	var out []T
	if err == nil {
		out = make([]T, 0, len(rows))
		for i, row := range rows {
			item, perr := parse(row)
			if perr != nil {
				err = apperrors.NewParsingError(fmt.Sprintf("row %d", i+1), perr)
				break
			}
			out = append(out, item)
		}
	}

	if err != nil {
		l.logger.WarnContext(ctx, "Skipping unreadable result",
			slog.String("result", name),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil
	}

	l.loaded(ctx, name, len(out))
	return out
}

func (l *Loader) readRows(path string, columns int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = l.delimiter
	reader.FieldsPerRecord = columns
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read delimited file", err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("empty result file", errNoRows)
	}
	return rows, nil
}

// readCounter parses a single-integer metric file
func readCounter(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return parseCount(string(data))
}

func parseComunaStat(row []string) (ComunaStat, error) {
	total, err := parseCount(row[1])
	if err != nil {
		return ComunaStat{}, fmt.Errorf("total_incidents: %w", err)
	}
	rel, err := parseAverage(row[2])
	if err != nil {
		return ComunaStat{}, fmt.Errorf("avg_reliability: %w", err)
	}
	conf, err := parseAverage(row[3])
	if err != nil {
		return ComunaStat{}, fmt.Errorf("avg_confidence: %w", err)
	}
	return ComunaStat{Comuna: row[0], TotalIncidents: total, AvgReliability: rel, AvgConfidence: conf}, nil
}

func parseTypeStat(row []string) (TypeStat, error) {
	total, err := parseCount(row[1])
	if err != nil {
		return TypeStat{}, fmt.Errorf("total_count: %w", err)
	}
	rel, err := parseAverage(row[2])
	if err != nil {
		return TypeStat{}, fmt.Errorf("avg_reliability: %w", err)
	}
	return TypeStat{IncidentType: row[0], TotalCount: total, AvgReliability: rel}, nil
}

func parseHourlyStat(row []string) (HourlyStat, error) {
	hour, err := parseCount(row[0])
	if err != nil {
		return HourlyStat{}, fmt.Errorf("hour: %w", err)
	}
	count, err := parseCount(row[1])
	if err != nil {
		return HourlyStat{}, fmt.Errorf("incidents_count: %w", err)
	}
	return HourlyStat{Hour: int(hour), IncidentsCount: count}, nil
}

// parseCount accepts integers and integral floats such as "120.0"
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-integral count %q", s)
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("count out of range %q", s)
	}
	return int64(f), nil
}

// parseAverage parses a mean column; an empty value (null aggregate) reads as 0
func parseAverage(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return f, nil
}
