package roi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jssroberto/teraspot/internal/geometry"
	"github.com/jssroberto/teraspot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const twoSpaces = `{"spaces": [
	{"space_id": "A-01", "polygon": [[0,0],[10,0],[10,10],[0,10]]},
	{"space_id": "A-02", "polygon": [[10,0],[20,0],["20","10"],[10,10]]}
]}`

func newLoadedMapper(t *testing.T) *Mapper {
	t.Helper()
	m := NewMapper(zap.NewNop())
	entries, err := ParseROIConfig([]byte(twoSpaces))
	require.NoError(t, err)
	require.NoError(t, m.SetROISpaces(entries))
	return m
}

func TestParseROIConfig(t *testing.T) {
	entries, err := ParseROIConfig([]byte(`[{"space_id":"A-01","polygon":[[0,0],[1,0],[1,1]]}]`))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	for _, bad := range []string{`{}`, `[]`, `{"spaces": []}`, `42`, `not json`, `[1, 2]`} {
		_, err := ParseROIConfig([]byte(bad))
		var cfgErr *models.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr), "input %s", bad)
	}
}

func TestSetROISpaces_CoercesStrings(t *testing.T) {
	m := newLoadedMapper(t)
	spaces := m.Spaces()
	require.Len(t, spaces, 2)
	assert.Equal(t, geometry.Point{X: 20, Y: 10}, spaces[1].Polygon[2])
}

func TestSetROISpaces_RejectsWholeSet(t *testing.T) {
	m := newLoadedMapper(t)

	cases := []map[string]interface{}{
		{"space_id": "", "polygon": []interface{}{[]interface{}{0.0, 0.0}, []interface{}{1.0, 0.0}, []interface{}{1.0, 1.0}}},
		{"space_id": 7.0, "polygon": []interface{}{[]interface{}{0.0, 0.0}, []interface{}{1.0, 0.0}, []interface{}{1.0, 1.0}}},
		{"space_id": "B-01", "polygon": []interface{}{[]interface{}{0.0, 0.0}, []interface{}{1.0, 0.0}}},
		{"space_id": "B-01", "polygon": []interface{}{[]interface{}{0.0}, []interface{}{1.0, 0.0}, []interface{}{1.0, 1.0}}},
		{"space_id": "B-01", "polygon": []interface{}{[]interface{}{"x", 0.0}, []interface{}{1.0, 0.0}, []interface{}{1.0, 1.0}}},
	}
	for i, bad := range cases {
		good := map[string]interface{}{"space_id": "B-02", "polygon": []interface{}{[]interface{}{0.0, 0.0}, []interface{}{1.0, 0.0}, []interface{}{1.0, 1.0}}}
		err := m.SetROISpaces([]map[string]interface{}{good, bad})
		var cfgErr *models.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr), "case %d", i)
	}

	// previous set untouched
	assert.Len(t, m.Spaces(), 2)
}

func TestMapDetectionsToSpaces(t *testing.T) {
	m := newLoadedMapper(t)

	detections := []models.Detection{
		{BBox: [4]float64{2, 2, 6, 6}, Confidence: 0.6},     // A-01
		{BBox: [4]float64{1, 1, 5, 5}, Confidence: 0.9},     // A-01, higher
		{BBox: [4]float64{12, 2, 16, 6}, Confidence: 0.7},   // A-02
		{BBox: [4]float64{50, 50, 60, 60}, Confidence: 0.99}, // unmatched
	}

	got := m.MapDetectionsToSpaces(detections)
	assert.Equal(t, map[string]float64{"A-01": 0.9, "A-02": 0.7}, got)
}

func TestMapDetectionsToSpaces_FirstPolygonWins(t *testing.T) {
	m := NewMapper(zap.NewNop())
	square := []interface{}{[]interface{}{0.0, 0.0}, []interface{}{10.0, 0.0}, []interface{}{10.0, 10.0}, []interface{}{0.0, 10.0}}
	require.NoError(t, m.SetROISpaces([]map[string]interface{}{
		{"space_id": "first", "polygon": square},
		{"space_id": "second", "polygon": square},
	}))

	got := m.MapDetectionsToSpaces([]models.Detection{{BBox: [4]float64{4, 4, 6, 6}, Confidence: 0.8}})
	assert.Equal(t, map[string]float64{"first": 0.8}, got)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roi.json")
	require.NoError(t, os.WriteFile(path, []byte(twoSpaces), 0o600))

	m := NewMapper(zap.NewNop())
	require.NoError(t, m.LoadFromFile(path))
	assert.True(t, m.HasSpaces())

	err := m.LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	var cfgErr *models.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/roi.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(twoSpaces))
	}))
	defer srv.Close()

	m := NewMapper(zap.NewNop())
	require.NoError(t, m.LoadFromURL(srv.URL+"/roi.json"))
	assert.Len(t, m.Spaces(), 2)

	err := NewMapper(zap.NewNop()).LoadFromURL(srv.URL + "/missing.json")
	var cfgErr *models.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSetROISpaces_RejectsEmptySet(t *testing.T) {
	m := newLoadedMapper(t)

	for _, entries := range [][]map[string]interface{}{nil, {}} {
		err := m.SetROISpaces(entries)
		var cfgErr *models.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, cfgErr.Reason, "non-empty")
	}

	// previous set untouched
	assert.True(t, m.HasSpaces())
	assert.Len(t, m.Spaces(), 2)
}
