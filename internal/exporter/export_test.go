package exporter

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wazecli/internal/errors"
	"wazecli/internal/incident"
)

// fakeSource is an in-memory DocumentSource
type fakeSource struct {
	docs    []incident.Document
	pingErr error
	failAt  int // Each fails before yielding this index when > 0
	closed  bool
}

func (f *fakeSource) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeSource) Count(ctx context.Context) (int64, error) { return int64(len(f.docs)), nil }

func (f *fakeSource) Each(ctx context.Context, fn func(incident.Document) error) error {
	for i, doc := range f.docs {
		if f.failAt > 0 && i == f.failAt {
			return apperrors.NewNetworkError("cursor iteration failed", errors.New("connection reset"))
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExporter_Export(t *testing.T) {
	src := &fakeSource{docs: []incident.Document{
		{
			"_id":         "65a1f0c2e4b0a1b2c3d4e5f6",
			"type":        "ACCIDENT",
			"city":        "Santiago",
			"reliability": int32(8),
			"location":    incident.Document{"x": -70.65, "y": -33.45},
			"latitude":    1.0,
		},
		{
			"type":      "JAM",
			"pubMillis": int64(1700000000000),
			"latitude":  -33.5,
			"longitude": -70.7,
		},
		{},
	}}

	path := filepath.Join(t.TempDir(), "export", "nested", "waze_incidents.csv")
	exp := NewExporter(slog.Default(), nil, Config{ProgressEvery: 2})

	result, err := exp.Export(context.Background(), src, path)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Records)
	assert.Equal(t, int64(3), result.Total)
	assert.Greater(t, result.SizeBytes, int64(0))

	rows := readCSV(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, incident.Header(), rows[0])
	for _, row := range rows {
		assert.Len(t, row, 20)
	}

	first := rows[1]
	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", first[incident.ColID])
	assert.Equal(t, "ACCIDENT", first[incident.ColType])
	assert.Equal(t, "8", first[incident.ColReliability])
	assert.Equal(t, "-33.45", first[incident.ColLatitude])
	assert.Equal(t, "-70.65", first[incident.ColLongitude])
	assert.Equal(t, "-70.65", first[incident.ColX])
	assert.Equal(t, "-33.45", first[incident.ColY])

	second := rows[2]
	assert.Equal(t, "", second[incident.ColID])
	assert.Equal(t, "1700000000000", second[incident.ColPubMillis])
	assert.Equal(t, "-33.5", second[incident.ColLatitude])
	assert.Equal(t, "", second[incident.ColX])

	assert.Equal(t, make([]string, 20), rows[3])
}

func TestExporter_EmptyCollectionWritesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waze_incidents.csv")
	exp := NewExporter(nil, nil, Config{})

	result, err := exp.Export(context.Background(), &fakeSource{}, path)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(incident.Fields[:], ",")+"\n", string(data))
}

func TestExporter_PingFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	src := &fakeSource{pingErr: apperrors.NewNetworkError("failed to ping MongoDB", errors.New("no reachable servers"))}

	_, err := NewExporter(nil, nil, Config{}).Export(context.Background(), src, path)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file is created before connectivity is confirmed")
}

func TestExporter_PartialOutputKeptOnFailure(t *testing.T) {
	docs := make([]incident.Document, 5)
	for i := range docs {
		docs[i] = incident.Document{"type": "HAZARD", "nComments": int32(i)}
	}
	src := &fakeSource{docs: docs, failAt: 3}
	path := filepath.Join(t.TempDir(), "out.csv")

	_, err := NewExporter(nil, nil, Config{ProgressEvery: 2}).Export(context.Background(), src, path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))

	rows := readCSV(t, path)
	assert.Len(t, rows, 4, "header plus the three rows written before the failure")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "Av. Libertador", "Av. Libertador"},
		{"int", 7, "7"},
		{"int32", int32(270), "270"},
		{"int64", int64(1700000000000), "1700000000000"},
		{"float", -33.4567, "-33.4567"},
		{"integral float", 5.0, "5.0"},
		{"float32", float32(0.5), "0.5"},
		{"large integral float", 123456789012345.0, "123456789012345.0"},
		{"float at exponent 16", 1e16, "1e+16"},
		{"small float", 1.5e-5, "1.5e-05"},
		{"float at exponent -4", 0.0001, "0.0001"},
		{"negative zero", math.Copysign(0, -1), "-0.0"},
		{"nan", math.NaN(), "nan"},
		{"negative infinity", math.Inf(-1), "-inf"},
		{"bool", true, "True"},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02 03:04:05"},
		{"time with milliseconds", time.Date(2024, 1, 2, 3, 4, 5, 123000000, time.UTC), "2024-01-02 03:04:05.123000"},
		{"time below a microsecond", time.Date(2024, 1, 2, 3, 4, 5, 999, time.UTC), "2024-01-02 03:04:05"},
		{"slice", []any{1, "a"}, "[1 a]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

func TestCreateStreamWriter_BOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	sw, err := CreateStreamWriter(path, WriteOptions{Headers: []string{"a", "b"}, BOMPrefix: true})
	require.NoError(t, err)
	require.NoError(t, sw.WriteRecord([]string{"1", "2"}))
	require.NoError(t, sw.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFa,b\n1,2\n", string(data))
	assert.Equal(t, 1, sw.Rows())
	assert.Equal(t, path, sw.Path())
}
