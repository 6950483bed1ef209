package service

import (
	"context"
	"fmt"

	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Occupancy tiers reported by the stats view. Strict comparisons, unlike the
// alert thresholds.
const (
	TierNormal   = "NORMAL"
	TierHigh     = "HIGH"
	TierCritical = "CRITICAL"
)

// SpaceReader read side of the current-state table
type SpaceReader interface {
	Get(ctx context.Context, spaceID string) (*models.SpaceItem, error)
	List(ctx context.Context) ([]models.SpaceItem, error)
	ListByStatus(ctx context.Context, status string) ([]models.SpaceItem, error)
}

// HistoryReader read side of the history table
type HistoryReader interface {
	ListBySpace(ctx context.Context, spaceID string, limit int) ([]models.HistoryEntry, error)
}

// Summary totals over a set of spaces
type Summary struct {
	Total         int     `json:"total"`
	Occupied      int     `json:"occupied"`
	Vacant        int     `json:"vacant"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// AllSpaces GET /status
type AllSpaces struct {
	Spaces  []models.SpaceItem `json:"spaces"`
	Summary Summary            `json:"summary"`
}

// Statistics GET /status/stats
type Statistics struct {
	OccupancyRate     float64 `json:"occupancy_rate"`
	OccupiedCount     int     `json:"occupied_count"`
	VacantCount       int     `json:"vacant_count"`
	TotalSpaces       int     `json:"total_spaces"`
	AverageConfidence float64 `json:"average_confidence"`
	ConfidenceStdDev  float64 `json:"confidence_stddev"`
	LowConfidence     int     `json:"low_confidence_count"`
	Status            string  `json:"status"`
}

// StatusService read API over current state and history
type StatusService struct {
	spaces  SpaceReader
	history HistoryReader
	logger  *zap.Logger
}

// NewStatusService read-only view
func NewStatusService(spaces SpaceReader, history HistoryReader, logger *zap.Logger) *StatusService {
	return &StatusService{spaces: spaces, history: history, logger: logger}
}

// All every space plus a summary
func (s *StatusService) All(ctx context.Context) (*AllSpaces, error) {
	items, err := s.spaces.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	if items == nil {
		items = []models.SpaceItem{}
	}

	counts := models.CountOccupancy(items)
	s.logger.Info("Retrieved parking spaces", zap.Int("count", len(items)))
	return &AllSpaces{
		Spaces: items,
		Summary: Summary{
			Total:         counts.Total,
			Occupied:      counts.Occupied,
			Vacant:        counts.Total - counts.Occupied,
			OccupancyRate: counts.Ratio(),
		},
	}, nil
}

// Space one space; models.ErrNotFound when unknown
func (s *StatusService) Space(ctx context.Context, spaceID string) (*models.SpaceItem, error) {
	return s.spaces.Get(ctx, spaceID)
}

// ByStatus spaces in one status
func (s *StatusService) ByStatus(ctx context.Context, status string) ([]models.SpaceItem, error) {
	items, err := s.spaces.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s spaces: %w", status, err)
	}
	if items == nil {
		items = []models.SpaceItem{}
	}
	return items, nil
}

// Stats occupancy rate, confidence mean/stddev and tier
func (s *StatusService) Stats(ctx context.Context) (*Statistics, error) {
	items, err := s.spaces.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	return ComputeStatistics(items), nil
}

// History newest-first history rows of one space
func (s *StatusService) History(ctx context.Context, spaceID string, limit int) ([]models.HistoryEntry, error) {
	entries, err := s.history.ListBySpace(ctx, spaceID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// ComputeStatistics an empty lot reports zeros and NORMAL
func ComputeStatistics(items []models.SpaceItem) *Statistics {
	counts := models.CountOccupancy(items)
	out := &Statistics{
		OccupiedCount: counts.Occupied,
		VacantCount:   counts.Total - counts.Occupied,
		TotalSpaces:   counts.Total,
		OccupancyRate: counts.Ratio(),
		Status:        Tier(counts.Ratio()),
	}
	if len(items) == 0 {
		return out
	}

	confidences := make([]float64, len(items))
	for i, item := range items {
		confidences[i] = item.Confidence
		if item.IsLowConfidence() {
			out.LowConfidence++
		}
	}
	out.AverageConfidence = stat.Mean(confidences, nil)
	if len(confidences) > 1 {
		out.ConfidenceStdDev = stat.StdDev(confidences, nil)
	}
	return out
}

// Tier > 0.95 CRITICAL, > 0.80 HIGH, else NORMAL
func Tier(rate float64) string {
	switch {
	case rate > 0.95:
		return TierCritical
	case rate > 0.80:
		return TierHigh
	default:
		return TierNormal
	}
}
