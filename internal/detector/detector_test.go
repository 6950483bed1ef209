package detector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jssroberto/teraspot/internal/models"
	"github.com/jssroberto/teraspot/internal/roi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDetector struct {
	detections []models.Detection
	err        error
}

func (f *fakeDetector) Detect(_ context.Context, _ *Frame) ([]models.Detection, error) {
	return f.detections, f.err
}

func (f *fakeDetector) Model() string { return "yolo11n" }

type fakeSource struct {
	closed bool
}

func (f *fakeSource) Next() (*Frame, error) { return &Frame{Name: "f.jpg", Data: []byte("x")}, nil }
func (f *fakeSource) Close() error { f.closed = true; return nil }

func writeFrames(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o600))
	}
	return dir
}

func TestSequenceSource_SkipAndRewind(t *testing.T) {
	dir := writeFrames(t, "0001.jpg", "0002.jpg", "0003.jpg", "0004.jpg", "0005.jpg", "notes.txt")
	src, err := NewSequenceSource(dir, 1)
	require.NoError(t, err)

	var got []string
	for i := 0; i < 4; i++ {
		f, err := src.Next()
		require.NoError(t, err)
		got = append(got, f.Name)
	}
	// skip 1 per read: 2, 4, then end -> rewind to 1, then 3
	assert.Equal(t, []string{"0002.jpg", "0004.jpg", "0001.jpg", "0003.jpg"}, got)
}

func TestSequenceSource_Exhausted(t *testing.T) {
	dir := writeFrames(t, "0001.jpg")
	src, err := NewSequenceSource(dir, 0)
	require.NoError(t, err)

	_, err = src.Next()
	require.NoError(t, err)

	// frame disappears: rewind retry fails once, then error
	require.NoError(t, os.Remove(filepath.Join(dir, "0001.jpg")))
	_, err = src.Next()
	assert.True(t, errors.Is(err, ErrSourceExhausted))

	require.NoError(t, src.Close())
	_, err = src.Next()
	assert.True(t, errors.Is(err, ErrSourceExhausted))
}

func TestNewSequenceSource_NegativeSkipReadsEveryFrame(t *testing.T) {
	dir := writeFrames(t, "0003.png", "0001.jpg", "0002.JPEG")
	src, err := NewSequenceSource(dir, -3)
	require.NoError(t, err)

	var got []string
	for i := 0; i < 4; i++ {
		f, err := src.Next()
		require.NoError(t, err)
		got = append(got, f.Name)
	}
	assert.Equal(t, []string{"0001.jpg", "0002.JPEG", "0003.png", "0001.jpg"}, got)
}

func TestNewSequenceSource_Empty(t *testing.T) {
	_, err := NewSequenceSource(writeFrames(t, "readme.md"), 0)
	assert.Error(t, err)
}

func TestImageSource(t *testing.T) {
	dir := writeFrames(t, "lot.jpg")
	src, err := NewImageSource(filepath.Join(dir, "lot.jpg"))
	require.NoError(t, err)

	f, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("lot.jpg"), f.Data)

	_, err = NewImageSource(filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)
}

func TestHTTPDetector_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "0.5", r.FormValue("conf"))
		assert.Equal(t, "yolo11n", r.FormValue("model"))

		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		body, _ := io.ReadAll(file)
		assert.Equal(t, "frame-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"detections":[{"bbox":[1,2,3,4],"confidence":0.88},{"bbox":[1,2],"confidence":0.9}]}`))
	}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, "yolo11n", zap.NewNop())
	got, err := d.Detect(context.Background(), &Frame{Name: "a.jpg", Data: []byte("frame-bytes")})
	require.NoError(t, err)
	assert.Equal(t, []models.Detection{{BBox: [4]float64{1, 2, 3, 4}, Confidence: 0.88}}, got)
}

func TestSimulatedSnapshot(t *testing.T) {
	s := SimulatedSnapshot(10, 5)

	// int(10*0.7) = 7 vehicles, capped at 5
	assert.Equal(t, 5, s.TotalOccupied)
	assert.Equal(t, 0, s.TotalVacant)
	assert.Equal(t, 7, *s.VehicleCount)
	assert.True(t, s.Simulated)
	assert.Equal(t, []string{"A-01", "A-02", "A-03", "A-04", "A-05"}, s.SpaceIDs)
	assert.InDelta(t, 0.921, s.Spaces["A-01"].Confidence, 1e-9)

	s = SimulatedSnapshot(3, 30)
	assert.Equal(t, 2, s.TotalOccupied)
	assert.Equal(t, models.StatusOccupied, s.Spaces["A-02"].Status)
	assert.Equal(t, models.StatusVacant, s.Spaces["A-03"].Status)
	assert.InDelta(t, 0.95, s.Spaces["A-30"].Confidence, 1e-9)
}

func TestProcessor_WithROI(t *testing.T) {
	mapper := roi.NewMapper(zap.NewNop())
	entries, err := roi.ParseROIConfig([]byte(`[
		{"space_id": "B-01", "polygon": [[0,0],[10,0],[10,10],[0,10]]},
		{"space_id": "B-02", "polygon": [[10,0],[20,0],[20,10],[10,10]]}
	]`))
	require.NoError(t, err)
	require.NoError(t, mapper.SetROISpaces(entries))

	det := &fakeDetector{detections: []models.Detection{{BBox: [4]float64{2, 2, 4, 4}, Confidence: 0.77}}}
	src := &fakeSource{}
	p := NewProcessor(det, src, mapper, zap.NewNop())

	s, err := p.DetectParkingSpaces(context.Background(), 30)
	require.NoError(t, err)
	assert.False(t, s.Simulated)
	assert.Equal(t, 1, *s.DetectionsCount)
	assert.Equal(t, models.SpaceState{Status: models.StatusOccupied, Confidence: 0.77}, s.Spaces["B-01"])
	assert.Equal(t, models.SpaceState{Status: models.StatusVacant, Confidence: VacantConfidence}, s.Spaces["B-02"])
	assert.Equal(t, "yolo11n", p.DataSource())

	require.NoError(t, p.Close())
	assert.True(t, src.closed)
}

func TestProcessor_InferenceError(t *testing.T) {
	p := NewProcessor(&fakeDetector{err: errors.New("boom")}, &fakeSource{}, nil, zap.NewNop())
	_, err := p.DetectParkingSpaces(context.Background(), 10)
	assert.Error(t, err)
}
