package edge

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/jssroberto/teraspot/internal/detector"
	"github.com/jssroberto/teraspot/internal/models"
)

// MockedDataSource data_source of generated snapshots
const MockedDataSource = "mocked"

const occupiedProbability = 0.6

// confidence bands: [min, max) with cumulative selection probability
var confidenceBands = []struct {
	min, max, probability float64
}{
	{0.90, 1.00, 0.7},
	{0.70, 0.89, 0.2},
	{0.40, 0.69, 0.1},
}

// GenerateMockedSpaces count spaces A-01.., about 60% occupied, confidence
// drawn from the high/medium/low bands and rounded to 3 decimals
func GenerateMockedSpaces(count int, rng *rand.Rand) *models.Snapshot {
	snapshot := models.NewSnapshot(count)
	for i := 1; i <= count; i++ {
		status := models.StatusVacant
		if rng.Float64() < occupiedProbability {
			status = models.StatusOccupied
		}
		snapshot.Set(detector.SpaceID(i), models.SpaceState{
			Status:     status,
			Confidence: mockedConfidence(rng),
		})
	}
	return snapshot
}

func mockedConfidence(rng *rand.Rand) float64 {
	pick := rng.Float64()
	band := confidenceBands[0]
	cumulative := 0.0
	for _, b := range confidenceBands {
		cumulative += b.probability
		if pick <= cumulative {
			band = b
			break
		}
	}
	c := band.min + rng.Float64()*(band.max-band.min)
	return math.Round(c*1000) / 1000
}

// MockSource SnapshotSource backed by GenerateMockedSpaces
type MockSource struct {
	rng *rand.Rand
}

// NewMockSource rng may be nil; a time-seeded one is used then
func NewMockSource(rng *rand.Rand) *MockSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MockSource{rng: rng}
}

// DetectParkingSpaces generates a fresh snapshot
func (m *MockSource) DetectParkingSpaces(_ context.Context, totalSpaces int) (*models.Snapshot, error) {
	return GenerateMockedSpaces(totalSpaces, m.rng), nil
}

// DataSource "mocked"
func (m *MockSource) DataSource() string { return MockedDataSource }

// Close no-op
func (m *MockSource) Close() error { return nil }
