package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"wazecli/internal/config"
	apperrors "wazecli/internal/errors"
	"wazecli/internal/results"
)

// Worksheet names of summary.xlsx
const (
	SheetSummary     = "Summary"
	SheetTypes       = "Types"
	SheetTopComunas  = "TopComunas"
	SheetComunaStats = "ComunaStats"
	SheetHourly      = "Hourly"
)

// WriteWorkbook writes the loaded results to an xlsx workbook with one sheet per
// present result and a native chart for types, top comunas and hours.
func WriteWorkbook(path string, rs *results.ResultSet, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return apperrors.NewRenderError("failed to name summary sheet", err)
	}
	if err := writeSummarySheet(f, rs, s); err != nil {
		return err
	}

	if rs.Has(config.ResultTypeStats) {
		rows := make([][]any, 0, len(rs.TypeStats))
		for _, t := range rs.TypeStats {
			rows = append(rows, []any{t.IncidentType, t.TotalCount, t.AvgReliability})
		}
		if err := writeTableSheet(f, SheetTypes, []any{"incident_type", "total_count", "avg_reliability"}, rows); err != nil {
			return err
		}
		if err := addChart(f, SheetTypes, "E2", excelize.Bar, "Incident Type Distribution", len(rows)); err != nil {
			return err
		}
	}

	if rs.Has(config.ResultTopComunas) {
		top := TopComunas(rs.TopComunas, ChartComunaLimit)
		if err := writeTableSheet(f, SheetTopComunas, comunaHeader, comunaRows(top)); err != nil {
			return err
		}
		title := fmt.Sprintf("Top %d Comunas by Incidents", ChartComunaLimit)
		if err := addChart(f, SheetTopComunas, "F2", excelize.Bar, title, len(top)); err != nil {
			return err
		}
	}

	if rs.Has(config.ResultComunaStats) {
		if err := writeTableSheet(f, SheetComunaStats, comunaHeader, comunaRows(rs.ComunaStats)); err != nil {
			return err
		}
	}

	if rs.Has(config.ResultHourlyStats) {
		hourly := make([]results.HourlyStat, len(rs.HourlyStats))
		copy(hourly, rs.HourlyStats)
		sort.SliceStable(hourly, func(i, j int) bool { return hourly[i].Hour < hourly[j].Hour })

		rows := make([][]any, 0, len(hourly))
		for _, h := range hourly {
			rows = append(rows, []any{h.Hour, h.IncidentsCount})
		}
		if err := writeTableSheet(f, SheetHourly, []any{"hour", "incidents_count"}, rows); err != nil {
			return err
		}
		if err := addChart(f, SheetHourly, "D2", excelize.Line, "Incidents by Hour of Day", len(rows)); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory for workbook", err).WithContext("path", path)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}
	return nil
}

var comunaHeader = []any{"comuna", "total_incidents", "avg_reliability", "avg_confidence"}

func comunaRows(stats []results.ComunaStat) [][]any {
	rows := make([][]any, 0, len(stats))
	for _, c := range stats {
		rows = append(rows, []any{c.Comuna, c.TotalIncidents, c.AvgReliability, c.AvgConfidence})
	}
	return rows
}

func writeSummarySheet(f *excelize.File, rs *results.ResultSet, s Summary) error {
	rows := [][]any{
		{"generated_at", s.Timestamp.Format(ProcessingDateLayout)},
	}
	for _, name := range rs.MetricNames() {
		rows = append(rows, []any{name, rs.ProcessingMetrics[name]})
	}
	if s.CleanRate != nil {
		rows = append(rows, []any{"clean_rate_pct", *s.CleanRate})
	}
	if s.Temporal != nil {
		rows = append(rows,
			[]any{"peak_hour", s.Temporal.PeakHour},
			[]any{"peak_incidents", s.Temporal.PeakIncidents})
	}
	return writeRows(f, SheetSummary, append([][]any{{"key", "value"}}, rows...))
}

func writeTableSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return apperrors.NewRenderError("failed to create sheet", err).WithContext("sheet", sheet)
	}
	return writeRows(f, sheet, append([][]any{header}, rows...))
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperrors.NewRenderError("invalid cell reference", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewRenderError("failed to write row", err).WithContext("sheet", sheet)
		}
	}
	return nil
}

// addChart plots column B against column A for the n data rows below the header
func addChart(f *excelize.File, sheet, anchor string, chartType excelize.ChartType, title string, n int) error {
	last := n + 1
	err := f.AddChart(sheet, anchor, &excelize.Chart{
		Type: chartType,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", sheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, last),
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
	if err != nil {
		return apperrors.NewRenderError("failed to add chart", err).WithContext("sheet", sheet)
	}
	return nil
}
