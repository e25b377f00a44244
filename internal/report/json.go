package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	apperrors "wazecli/internal/errors"
	"wazecli/internal/results"
)

// jsonSummary fixes the key set and order of summary.json
type jsonSummary struct {
	Timestamp        string               `json:"timestamp"`
	ProcessingDate   string               `json:"processing_date"`
	Metrics          map[string]int64     `json:"metrics"`
	TopIncidentTypes []results.TypeStat   `json:"top_incident_types"`
	TopComunas       []results.ComunaStat `json:"top_comunas"`
	TemporalAnalysis any                  `json:"temporal_analysis"`
}

type jsonTemporal struct {
	PeakHour           int                  `json:"peak_hour"`
	PeakIncidents      int64                `json:"peak_incidents"`
	HourlyDistribution []results.HourlyStat `json:"hourly_distribution"`
}

func newJSONSummary(s Summary) jsonSummary {
	out := jsonSummary{
		Timestamp:        s.Timestamp.Format(time.RFC3339),
		ProcessingDate:   s.ProcessingDate,
		Metrics:          s.Metrics,
		TopIncidentTypes: s.TopIncidentTypes,
		TopComunas:       s.TopComunas,
		TemporalAnalysis: struct{}{},
	}

	// absent sections still serialize as {} and []
	if out.Metrics == nil {
		out.Metrics = map[string]int64{}
	}
	if out.TopIncidentTypes == nil {
		out.TopIncidentTypes = []results.TypeStat{}
	}
	if out.TopComunas == nil {
		out.TopComunas = []results.ComunaStat{}
	}
	if s.Temporal != nil {
		out.TemporalAnalysis = jsonTemporal{
			PeakHour:           s.Temporal.PeakHour,
			PeakIncidents:      s.Temporal.PeakIncidents,
			HourlyDistribution: s.Temporal.Distribution,
		}
	}
	return out
}

// WriteJSON writes the summary digest to path, creating parent directories.
// Build the summary with JSONLimits.
func WriteJSON(path string, s Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory for JSON summary", err).WithContext("path", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create JSON summary", err).WithContext("path", path)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(newJSONSummary(s)); err != nil {
		file.Close()
		return apperrors.NewStorageError("failed to encode JSON summary", err).WithContext("path", path)
	}

	if err := file.Close(); err != nil {
		return apperrors.NewStorageError("failed to close JSON summary", err).WithContext("path", path)
	}
	return nil
}
