package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Well-known reporter artifact names
const (
	SummaryFileName      = "summary.json"
	WorkbookFileName     = "summary.xlsx"
	TypesChartFileName   = "incident_types_distribution.png"
	ComunasChartFileName = "top_comunas_incidents.png"
	HourlyChartFileName  = "hourly_incidents_distribution.png"
)

// Result names used by the reporter; each maps to one sub-path of the input directory.
const (
	ResultCleanIncidents    = "clean_incidents"
	ResultComunaStats       = "comuna_stats"
	ResultTypeStats         = "type_stats"
	ResultHourlyStats       = "hourly_stats"
	ResultTopComunas        = "top_comunas"
	ResultProcessingMetrics = "processing_metrics"
)

// Metric counter names read from metrics_<name>/part-r-00000
var MetricNames = []string{"raw_count", "clean_count", "final_count"}

// ResultPaths is the filesystem convention of the batch job output directory.
// This is the single source of truth for every input path the reporter probes.
type ResultPaths struct {
	BaseDir string

	CleanIncidents string
	ComunaStats    string
	TypeStats      string
	HourlyStats    string
	TopComunas     string
	Metrics        map[string]string
}

// NewResultPaths resolves every conventional sub-path under base
func NewResultPaths(base string) *ResultPaths {
	metrics := make(map[string]string, len(MetricNames))
	for _, name := range MetricNames {
		metrics[name] = filepath.Join(base, "metrics_"+name, "part-r-00000")
	}

	return &ResultPaths{
		BaseDir:        base,
		CleanIncidents: filepath.Join(base, "clean_incidents", "part-m-00000"),
		ComunaStats:    filepath.Join(base, "comuna_analysis", "part-r-00000"),
		TypeStats:      filepath.Join(base, "type_analysis", "part-r-00000"),
		HourlyStats:    filepath.Join(base, "temporal_analysis", "part-r-00000"),
		TopComunas:     filepath.Join(base, "top_critical_comunas", "part-r-00000"),
		Metrics:        metrics,
	}
}

// ReportPaths holds the artifact locations of a reporter run
type ReportPaths struct {
	OutputDir    string
	SummaryJSON  string
	Workbook     string
	TypesChart   string
	ComunasChart string
	HourlyChart  string
}

// NewReportPaths derives artifact paths from the output directory.
// summaryFile overrides the JSON location when non-empty.
func NewReportPaths(outputDir, summaryFile string) *ReportPaths {
	if summaryFile == "" {
		summaryFile = filepath.Join(outputDir, SummaryFileName)
	}
	return &ReportPaths{
		OutputDir:    outputDir,
		SummaryJSON:  summaryFile,
		Workbook:     filepath.Join(outputDir, WorkbookFileName),
		TypesChart:   filepath.Join(outputDir, TypesChartFileName),
		ComunasChart: filepath.Join(outputDir, ComunasChartFileName),
		HourlyChart:  filepath.Join(outputDir, HourlyChartFileName),
	}
}

// EnsureDirectories creates the output directory if it doesn't exist
func (p *ReportPaths) EnsureDirectories() error {
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.OutputDir, err)
	}
	slog.Debug("Ensured directory exists", slog.String("directory", p.OutputDir))
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
