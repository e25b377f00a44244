package report

import (
	"sort"
	"time"

	"wazecli/internal/results"
)

// ProcessingDateLayout is the human readable run date written next to the RFC 3339 timestamp
const ProcessingDateLayout = "2006-01-02 15:04:05"

// Limits caps the rankings a sink shows
type Limits struct {
	Types   int
	Comunas int
	Hours   int
}

var (
	// ConsoleLimits are the ranking sizes of the console summary
	ConsoleLimits = Limits{Types: 5, Comunas: 5, Hours: 3}
	// JSONLimits are the ranking sizes of summary.json
	JSONLimits = Limits{Types: 10, Comunas: 10, Hours: 3}
)

// ChartComunaLimit is how many comunas the comunas chart draws
const ChartComunaLimit = 15

// Temporal is the hourly block of a summary
type Temporal struct {
	PeakHour      int
	PeakIncidents int64
	TopHours      []results.HourlyStat
	Distribution  []results.HourlyStat // as loaded
}

// Summary is the projection of a ResultSet shared by every sink.
// Optional sections are nil when their input was absent.
type Summary struct {
	Timestamp        time.Time
	ProcessingDate   string
	Metrics          map[string]int64
	CleanRate        *float64
	TopIncidentTypes []results.TypeStat
	TopComunas       []results.ComunaStat
	Temporal         *Temporal
}

// Build derives the summary for one sink
func Build(rs *results.ResultSet, limits Limits, now time.Time) Summary {
	s := Summary{
		Timestamp:      now,
		ProcessingDate: now.Format(ProcessingDateLayout),
	}
	if rs == nil {
		return s
	}

	if len(rs.ProcessingMetrics) > 0 {
		s.Metrics = rs.ProcessingMetrics
		if rate, ok := CleanRate(rs.ProcessingMetrics); ok {
			s.CleanRate = &rate
		}
	}

	s.TopIncidentTypes = TopTypes(rs.TypeStats, limits.Types)
	s.TopComunas = TopComunas(rs.TopComunas, limits.Comunas)

	if peak, ok := PeakHour(rs.HourlyStats); ok {
		s.Temporal = &Temporal{
			PeakHour:      peak.Hour,
			PeakIncidents: peak.IncidentsCount,
			TopHours:      TopHours(rs.HourlyStats, limits.Hours),
			Distribution:  rs.HourlyStats,
		}
	}

	return s
}

// CleanRate is clean_count as a percentage of raw_count. It is undefined when
// either counter is missing or raw_count is zero.
func CleanRate(metrics map[string]int64) (float64, bool) {
	raw, okRaw := metrics["raw_count"]
	clean, okClean := metrics["clean_count"]
	if !okRaw || !okClean || raw == 0 {
		return 0, false
	}
	return float64(clean) / float64(raw) * 100, true
}

// TopTypes returns the first n type rows in load order. The batch job sorts them already.
func TopTypes(rows []results.TypeStat, n int) []results.TypeStat {
	return head(rows, n)
}

// TopComunas returns the first n comuna rows in load order
func TopComunas(rows []results.ComunaStat, n int) []results.ComunaStat {
	return head(rows, n)
}

// PeakHour returns the row with the highest incidents_count; the earliest row wins ties
func PeakHour(rows []results.HourlyStat) (results.HourlyStat, bool) {
	if len(rows) == 0 {
		return results.HourlyStat{}, false
	}
	peak := rows[0]
	for _, r := range rows[1:] {
		if r.IncidentsCount > peak.IncidentsCount {
			peak = r
		}
	}
	return peak, true
}

// TopHours returns the n busiest hours, ties kept in load order
func TopHours(rows []results.HourlyStat, n int) []results.HourlyStat {
	sorted := make([]results.HourlyStat, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].IncidentsCount > sorted[j].IncidentsCount
	})
	return head(sorted, n)
}

func head[T any](rows []T, n int) []T {
	if len(rows) == 0 || n <= 0 {
		return nil
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n:n]
}
