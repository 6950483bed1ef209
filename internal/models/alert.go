package models

import "time"

// Alert types
const (
	AlertTypeLowConfidence = "LOW_CONFIDENCE"
	AlertTypeHigh          = "HIGH"
	AlertTypeCritical      = "CRITICAL"
)

// Alert severities
const (
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Alert ephemeral notification produced per ingest batch
type Alert struct {
	AlertID   string    `json:"alert_id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`

	// LOW_CONFIDENCE
	SpaceID    string   `json:"space_id,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`

	// HIGH / CRITICAL
	OccupancyPercent *float64 `json:"occupancy_percent,omitempty"`
	OccupiedCount    *int     `json:"occupied_count,omitempty"`
	TotalCount       *int     `json:"total_count,omitempty"`
}

// DeadLetter envelope stored when an alert could not be delivered
type DeadLetter struct {
	OriginalMessage Alert     `json:"original_message"`
	ErrorReason     string    `json:"error_reason"`
	Timestamp       time.Time `json:"timestamp"`
}
