// Package results loads the aggregated outputs of the incident batch job.
package results

import (
	"sort"

	"wazecli/internal/config"
)

// ComunaStat is one row of comuna_analysis and top_critical_comunas
type ComunaStat struct {
	Comuna         string  `json:"comuna"`
	TotalIncidents int64   `json:"total_incidents"`
	AvgReliability float64 `json:"avg_reliability"`
	AvgConfidence  float64 `json:"avg_confidence"`
}

// TypeStat is one row of type_analysis
type TypeStat struct {
	IncidentType   string  `json:"incident_type"`
	TotalCount     int64   `json:"total_count"`
	AvgReliability float64 `json:"avg_reliability"`
}

// HourlyStat is one row of temporal_analysis
type HourlyStat struct {
	Hour           int   `json:"hour"`
	IncidentsCount int64 `json:"incidents_count"`
}

// CleanIncidentColumns is the schema of clean_incidents/part-m-00000
var CleanIncidentColumns = []string{
	"id", "incident_type", "subtype", "uuid", "pubMillis", "dateTime",
	"country", "state", "comuna", "street", "magvar", "reliability",
	"reportDescription", "reportRating", "confidence", "nComments",
	"latitude", "longitude", "x", "y",
}

// ResultSet is everything found under one batch output directory.
// Every member is optional; a nil member means the sub-result was absent or unreadable.
type ResultSet struct {
	CleanIncidents    [][]string
	ComunaStats       []ComunaStat
	TypeStats         []TypeStat
	HourlyStats       []HourlyStat
	TopComunas        []ComunaStat
	ProcessingMetrics map[string]int64
}

// Has reports whether the named sub-result was loaded
func (rs *ResultSet) Has(name string) bool {
	if rs == nil {
		return false
	}
	switch name {
	case config.ResultCleanIncidents:
		return len(rs.CleanIncidents) > 0
	case config.ResultComunaStats:
		return len(rs.ComunaStats) > 0
	case config.ResultTypeStats:
		return len(rs.TypeStats) > 0
	case config.ResultHourlyStats:
		return len(rs.HourlyStats) > 0
	case config.ResultTopComunas:
		return len(rs.TopComunas) > 0
	case config.ResultProcessingMetrics:
		return len(rs.ProcessingMetrics) > 0
	default:
		return false
	}
}

// Names lists the loaded sub-results in a stable order
func (rs *ResultSet) Names() []string {
	all := []string{
		config.ResultCleanIncidents,
		config.ResultComunaStats,
		config.ResultTypeStats,
		config.ResultHourlyStats,
		config.ResultTopComunas,
		config.ResultProcessingMetrics,
	}
	var names []string
	for _, n := range all {
		if rs.Has(n) {
			names = append(names, n)
		}
	}
	return names
}

// Empty reports whether nothing at all was loaded
func (rs *ResultSet) Empty() bool {
	return len(rs.Names()) == 0
}

// MetricNames returns the loaded counter names sorted alphabetically
func (rs *ResultSet) MetricNames() []string {
	names := make([]string, 0, len(rs.ProcessingMetrics))
	for k := range rs.ProcessingMetrics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
