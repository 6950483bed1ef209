package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jssroberto/teraspot/internal/models"
)

// Occupancy thresholds
const (
	HighOccupancy     = 0.80
	CriticalOccupancy = 0.95
)

// GenerateAlerts one LOW_CONFIDENCE alert per low-confidence item, then at
// most one occupancy alert. stats nil means occupancy is unknown.
func GenerateAlerts(items []models.SpaceItem, stats *models.OccupancyStats, now time.Time) []models.Alert {
	alerts := make([]models.Alert, 0, len(items)+1)

	for _, item := range items {
		if !item.IsLowConfidence() {
			continue
		}
		confidence := item.Confidence
		alerts = append(alerts, models.Alert{
			AlertID:    uuid.New().String(),
			Type:       models.AlertTypeLowConfidence,
			Severity:   models.SeverityWarning,
			Message:    fmt.Sprintf("Low confidence %s: %.2f", item.SpaceID, confidence),
			Timestamp:  now,
			SpaceID:    item.SpaceID,
			Confidence: &confidence,
		})
	}

	if stats == nil {
		return alerts
	}

	if alert, ok := occupancyAlert(*stats, now); ok {
		alerts = append(alerts, alert)
	}
	return alerts
}

func occupancyAlert(stats models.OccupancyStats, now time.Time) (models.Alert, bool) {
	ratio := stats.Ratio()

	var alertType, severity string
	switch {
	case ratio >= CriticalOccupancy:
		alertType, severity = models.AlertTypeCritical, models.SeverityCritical
	case ratio >= HighOccupancy:
		alertType, severity = models.AlertTypeHigh, models.SeverityWarning
	default:
		return models.Alert{}, false
	}

	percent := ratio * 100
	occupied, total := stats.Occupied, stats.Total
	return models.Alert{
		AlertID:          uuid.New().String(),
		Type:             alertType,
		Severity:         severity,
		Message:          fmt.Sprintf("%.0f%% full", percent),
		Timestamp:        now,
		OccupancyPercent: &percent,
		OccupiedCount:    &occupied,
		TotalCount:       &total,
	}, true
}
