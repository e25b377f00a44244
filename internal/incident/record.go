// Package incident defines the exported incident row and the normalization of
// loosely-typed traffic documents into it.
package incident

import "fmt"

// Column positions of a Record
const (
	ColID = iota
	ColType
	ColSubtype
	ColUUID
	ColPubMillis
	ColDateTime
	ColCountry
	ColState
	ColCity
	ColStreet
	ColMagvar
	ColReliability
	ColReportDescription
	ColReportRating
	ColConfidence
	ColNComments
	ColLatitude
	ColLongitude
	ColX
	ColY

	NumFields
)

// Fields is the fixed output header, in column order
var Fields = [NumFields]string{
	"_id", "type", "subtype", "uuid", "pubMillis", "dateTime",
	"country", "state", "city", "street", "magvar", "reliability",
	"reportDescription", "reportRating", "confidence", "nComments",
	"latitude", "longitude", "x", "y",
}

// passthrough lists columns copied verbatim from the same-named document field
var passthrough = []int{
	ColType, ColSubtype, ColUUID, ColPubMillis, ColDateTime,
	ColCountry, ColState, ColCity, ColStreet,
	ColMagvar, ColReliability, ColReportDescription, ColReportRating, ColConfidence, ColNComments,
}

// Record is one exported row. A nil value is written as an empty column.
type Record [NumFields]any

// Header returns the column names as a fresh slice
func Header() []string {
	h := make([]string, NumFields)
	copy(h, Fields[:])
	return h
}

// Normalize maps a document to exactly one Record. It never fails: absent fields
// stay nil.
//
// When "location" is a mapping it is the only source of latitude/longitude/x/y;
// otherwise latitude falls back to latitude then y, longitude to longitude then x,
// and x/y to their top-level values.
func Normalize(doc Document) Record {
	var rec Record

	if id, ok := doc.Get("_id"); ok && id != nil {
		rec[ColID] = stringifyID(id)
	}

	for _, col := range passthrough {
		rec[col] = doc.Value(Fields[col])
	}

	if loc, ok := doc.Map("location"); ok {
		rec[ColLatitude] = loc.Value("y")
		rec[ColLongitude] = loc.Value("x")
		rec[ColX] = loc.Value("x")
		rec[ColY] = loc.Value("y")
	} else {
		rec[ColLatitude] = doc.FirstNonEmpty("latitude", "y")
		rec[ColLongitude] = doc.FirstNonEmpty("longitude", "x")
		rec[ColX] = doc.Value("x")
		rec[ColY] = doc.Value("y")
	}

	return rec
}

// stringifyID renders the primary key. Sources convert driver-specific id types
// (ObjectID) to strings before normalization; anything else is printed.
func stringifyID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
