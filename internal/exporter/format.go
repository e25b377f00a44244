package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"wazecli/internal/incident"
)

// Timestamps render the way the batch job expects them: microseconds are printed
// as six digits when present and omitted entirely otherwise.
const (
	dateTimeLayout      = "2006-01-02 15:04:05"
	dateTimeMicroLayout = "2006-01-02 15:04:05.000000"
)

// FormatValue stringifies a document value for CSV output. nil becomes the empty column.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return formatFloat(float64(val), 32)
	case float64:
		return formatFloat(val, 64)
	case bool:
		// downstream loaders read True/False
		if val {
			return "True"
		}
		return "False"
	case time.Time:
		return formatTime(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// formatFloat uses the shortest representation that round-trips. Decimal exponents
// below -4 or from 16 up switch to scientific notation ("1e+16", "1.5e-05"); otherwise
// integral values keep a trailing ".0" so numeric columns keep a float look.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, bits)
	if exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:]); err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(dateTimeLayout)
	}
	return t.Truncate(time.Microsecond).Format(dateTimeMicroLayout)
}

// FormatRecord stringifies every column of rec
func FormatRecord(rec incident.Record) []string {
	row := make([]string, len(rec))
	for i, v := range rec {
		row[i] = FormatValue(v)
	}
	return row
}
