package detector

import (
	"context"
	"fmt"
	"math"

	"github.com/jssroberto/teraspot/internal/models"
	"github.com/jssroberto/teraspot/internal/roi"
	"go.uber.org/zap"
)

const (
	// VacantConfidence reported for ROI spaces with no detection
	VacantConfidence = 0.95

	// simulated distribution
	vehicleRatio       = 0.7
	simulatedBaseConf  = 0.92
	simulatedConfStep  = 0.001
	simulatedConfRange = 0.08
)

// Processor one inference pass -> per-space snapshot
type Processor struct {
	detector Detector
	source   FrameSource
	mapper   *roi.Mapper
	logger   *zap.Logger
}

// NewProcessor mapper may be nil or empty; the simulated distribution is used then
func NewProcessor(detector Detector, source FrameSource, mapper *roi.Mapper, logger *zap.Logger) *Processor {
	return &Processor{
		detector: detector,
		source:   source,
		mapper:   mapper,
		logger:   logger,
	}
}

// DataSource model name used as data_source on published events
func (p *Processor) DataSource() string {
	return p.detector.Model()
}

// DetectParkingSpaces reads a frame, runs inference and maps the result
func (p *Processor) DetectParkingSpaces(ctx context.Context, totalSpaces int) (*models.Snapshot, error) {
	// 1. frame
	frame, err := p.source.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}

	// 2. inference
	detections, err := p.detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}
	p.logger.Info("Detected objects", zap.Int("count", len(detections)), zap.String("frame", frame.Name))

	// 3. per-space occupancy
	var snapshot *models.Snapshot
	if p.mapper != nil && p.mapper.HasSpaces() {
		snapshot = p.fromROI(detections)
	} else {
		snapshot = SimulatedSnapshot(len(detections), totalSpaces)
		p.logger.Warn("No ROI configured: using simulated occupancy distribution, not for production use",
			zap.Int("detections", len(detections)),
			zap.Int("total_spaces", totalSpaces),
		)
	}

	count := len(detections)
	snapshot.DetectionsCount = &count
	return snapshot, nil
}

// Close releases the frame source
func (p *Processor) Close() error {
	return p.source.Close()
}

func (p *Processor) fromROI(detections []models.Detection) *models.Snapshot {
	matches := p.mapper.MapDetectionsToSpaces(detections)
	spaces := p.mapper.Spaces()

	snapshot := models.NewSnapshot(len(spaces))
	for _, space := range spaces {
		if conf, ok := matches[space.SpaceID]; ok {
			snapshot.Set(space.SpaceID, models.SpaceState{Status: models.StatusOccupied, Confidence: conf})
		} else {
			snapshot.Set(space.SpaceID, models.SpaceState{Status: models.StatusVacant, Confidence: VacantConfidence})
		}
	}
	return snapshot
}

// SimulatedSnapshot deterministic stand-in when no ROI is configured:
// 70% of detections are vehicles, spaces A-01.. filled in order.
func SimulatedSnapshot(detectionCount, totalSpaces int) *models.Snapshot {
	if totalSpaces < 0 {
		totalSpaces = 0
	}
	vehicles := int(float64(detectionCount) * vehicleRatio)
	occupied := vehicles
	if occupied > totalSpaces {
		occupied = totalSpaces
	}

	snapshot := models.NewSnapshot(totalSpaces)
	for i := 1; i <= totalSpaces; i++ {
		status := models.StatusVacant
		if i <= occupied {
			status = models.StatusOccupied
		}
		snapshot.Set(SpaceID(i), models.SpaceState{
			Status:     status,
			Confidence: simulatedBaseConf + math.Mod(float64(i)*simulatedConfStep, simulatedConfRange),
		})
	}
	snapshot.VehicleCount = &vehicles
	snapshot.Simulated = true
	return snapshot
}

// SpaceID A-01 style identifier, 1-based
func SpaceID(i int) string {
	return fmt.Sprintf("A-%02d", i)
}
