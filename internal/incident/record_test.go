package incident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	h := Header()
	require.Len(t, h, 20)
	assert.Equal(t, "_id", h[0])
	assert.Equal(t, "city", h[ColCity])
	assert.Equal(t, "nComments", h[ColNComments])
	assert.Equal(t, []string{"latitude", "longitude", "x", "y"}, h[ColLatitude:])

	h[0] = "mutated"
	assert.Equal(t, "_id", Fields[0])
}

func TestNormalize_EmptyDocument(t *testing.T) {
	rec := Normalize(Document{})
	for i, v := range rec {
		assert.Nil(t, v, "column %s", Fields[i])
	}

	rec = Normalize(nil)
	assert.Len(t, rec, NumFields)
}

func TestNormalize_Passthrough(t *testing.T) {
	doc := Document{
		"_id":               "65a1f0c2e4b0a1b2c3d4e5f6",
		"type":              "ACCIDENT",
		"subtype":           "ACCIDENT_MAJOR",
		"uuid":              "b1c2",
		"pubMillis":         int64(1700000000000),
		"dateTime":          "2023-11-14 22:13:20",
		"country":           "CI",
		"state":             "Región Metropolitana",
		"city":              "Providencia",
		"street":            "Av. Providencia",
		"magvar":            int32(270),
		"reliability":       int32(7),
		"reportDescription": "choque",
		"reportRating":      int32(3),
		"confidence":        int32(1),
		"nComments":         int32(0),
		"unrelated":         "ignored",
	}

	rec := Normalize(doc)

	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", rec[ColID])
	assert.Equal(t, "ACCIDENT", rec[ColType])
	assert.Equal(t, int64(1700000000000), rec[ColPubMillis])
	assert.Equal(t, "Providencia", rec[ColCity])
	assert.Equal(t, int32(270), rec[ColMagvar])
	assert.Equal(t, int32(0), rec[ColNComments])
	assert.Nil(t, rec[ColLatitude])
	assert.Nil(t, rec[ColX])
}

func TestNormalize_MissingFieldsStayEmpty(t *testing.T) {
	rec := Normalize(Document{"type": "JAM"})

	assert.Equal(t, "JAM", rec[ColType])
	for _, col := range []int{ColID, ColSubtype, ColUUID, ColCity, ColReliability, ColConfidence, ColLatitude, ColLongitude, ColX, ColY} {
		assert.Nil(t, rec[col], "column %s", Fields[col])
	}
}

type hexID string

func (h hexID) String() string { return "hex:" + string(h) }

func TestNormalize_IDStringification(t *testing.T) {
	assert.Equal(t, "42", Normalize(Document{"_id": 42})[ColID])
	assert.Equal(t, "hex:abc", Normalize(Document{"_id": hexID("abc")})[ColID])
	assert.Nil(t, Normalize(Document{"_id": nil})[ColID])
}

func TestNormalize_Location(t *testing.T) {
	tests := []struct {
		name           string
		doc            Document
		lat, lon, x, y any
	}{
		{
			name: "nested location wins over top-level fields",
			doc: Document{
				"location":  Document{"x": -70.6, "y": -33.4},
				"latitude":  1.0,
				"longitude": 2.0,
				"x":         3.0,
				"y":         4.0,
			},
			lat: -33.4, lon: -70.6, x: -70.6, y: -33.4,
		},
		{
			name: "plain map location",
			doc:  Document{"location": map[string]any{"x": -70.5, "y": -33.5}},
			lat:  -33.5, lon: -70.5, x: -70.5, y: -33.5,
		},
		{
			name: "nested location missing coordinates leaves them empty",
			doc:  Document{"location": Document{}, "latitude": 9.0, "x": 8.0},
			lat:  nil, lon: nil, x: nil, y: nil,
		},
		{
			name: "top-level latitude and longitude",
			doc:  Document{"latitude": -33.1, "longitude": -70.1},
			lat:  -33.1, lon: -70.1, x: nil, y: nil,
		},
		{
			name: "fallback to x and y",
			doc:  Document{"x": -70.2, "y": -33.2},
			lat:  -33.2, lon: -70.2, x: -70.2, y: -33.2,
		},
		{
			name: "empty string latitude falls through to y",
			doc:  Document{"latitude": "", "longitude": nil, "x": -70.3, "y": -33.3},
			lat:  -33.3, lon: -70.3, x: -70.3, y: -33.3,
		},
		{
			name: "zero latitude is kept",
			doc:  Document{"latitude": 0, "longitude": 0.0, "x": -70.3, "y": -33.3},
			lat:  0, lon: 0.0, x: -70.3, y: -33.3,
		},
		{
			name: "non-mapping location is ignored",
			doc:  Document{"location": "-33.4,-70.6", "latitude": -33.4, "longitude": -70.6},
			lat:  -33.4, lon: -70.6, x: nil, y: nil,
		},
		{
			name: "null location is ignored",
			doc:  Document{"location": nil, "y": -33.9},
			lat:  -33.9, lon: nil, x: nil, y: -33.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize(tt.doc)
			assert.Equal(t, tt.lat, rec[ColLatitude], "latitude")
			assert.Equal(t, tt.lon, rec[ColLongitude], "longitude")
			assert.Equal(t, tt.x, rec[ColX], "x")
			assert.Equal(t, tt.y, rec[ColY], "y")
		})
	}
}

func TestDocument_Accessors(t *testing.T) {
	doc := Document{"a": "", "b": 0, "nested": Document{"k": "v"}, "scalar": 1}

	v, ok := doc.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = doc.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, doc.Value("missing"))

	nested, ok := doc.Map("nested")
	require.True(t, ok)
	assert.Equal(t, "v", nested.Value("k"))

	_, ok = doc.Map("scalar")
	assert.False(t, ok)

	// zero numbers are values, only nil and "" count as empty
	assert.Equal(t, 0, doc.FirstNonEmpty("a", "b"))
	assert.Nil(t, doc.FirstNonEmpty("a", "missing"))

	var nilDoc Document
	_, ok = nilDoc.Get("x")
	assert.False(t, ok)
}
