package report

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const bannerWidth = 60

// metricLabels are the console labels of the processing counters, in print order
var metricLabels = []struct {
	key   string
	label string
}{
	{"raw_count", "Raw records"},
	{"clean_count", "Records after cleaning"},
	{"final_count", "Final records (deduplicated)"},
}

// ConsolePrinter writes the human readable summary
type ConsolePrinter struct {
	w   io.Writer
	p   *message.Printer
	err error
}

// NewConsolePrinter creates a printer writing to w
func NewConsolePrinter(w io.Writer) *ConsolePrinter {
	return &ConsolePrinter{
		w: w,
		p: message.NewPrinter(language.English),
	}
}

// Print writes every section whose input is present. Build the summary with ConsoleLimits.
func (c *ConsolePrinter) Print(s Summary) error {
	rule := strings.Repeat("=", bannerWidth)
	c.printf("\n%s\n", rule)
	c.printf("SUMMARY REPORT - WAZE TRAFFIC INCIDENT ANALYSIS\n")
	c.printf("%s\n", rule)

	if s.Metrics != nil {
		c.printf("\nPROCESSING METRICS:\n")
		for _, m := range metricLabels {
			if v, ok := s.Metrics[m.key]; ok {
				c.printf("   • %s: %d\n", m.label, v)
			} else {
				c.printf("   • %s: N/A\n", m.label)
			}
		}
		if s.CleanRate != nil {
			c.printf("   • Valid data rate: %.1f%%\n", *s.CleanRate)
		}
	}

	if len(s.TopIncidentTypes) > 0 {
		c.printf("\nMOST FREQUENT INCIDENT TYPES:\n")
		for _, t := range s.TopIncidentTypes {
			c.printf("   • %s: %d incidents (Reliability: %.1f)\n", t.IncidentType, t.TotalCount, t.AvgReliability)
		}
	}

	if len(s.TopComunas) > 0 {
		c.printf("\nCOMUNAS WITH THE MOST INCIDENTS:\n")
		for _, cs := range s.TopComunas {
			c.printf("   • %s: %d incidents\n", cs.Comuna, cs.TotalIncidents)
		}
	}

	if s.Temporal != nil {
		c.printf("\nTEMPORAL ANALYSIS:\n")
		c.printf("   • Peak hour: %d:00 hrs (%d incidents)\n", s.Temporal.PeakHour, s.Temporal.PeakIncidents)
		c.printf("   • Top %d critical hours:\n", len(s.Temporal.TopHours))
		for _, h := range s.Temporal.TopHours {
			c.printf("     - %d:00 hrs: %d incidents\n", h.Hour, h.IncidentsCount)
		}
	}

	return c.err
}

// printf keeps the first write error and stops writing after it
func (c *ConsolePrinter) printf(format string, args ...any) {
	if c.err != nil {
		return
	}
	_, c.err = c.p.Fprintf(c.w, format, args...)
}
