package models

import "strings"

// Space status values
const (
	StatusOccupied = "occupied"
	StatusVacant   = "vacant"
)

// LowConfidenceThreshold items below this are logged, alerted on and counted
// as low confidence in statistics
const LowConfidenceThreshold = 0.8

// DefaultUnknown fills missing device/facility/zone/source fields
const DefaultUnknown = "unknown"

// RawEvent one decoded inbound event object. Only the parser and the QA layer
// touch this shape; everything downstream uses SpaceItem.
type RawEvent map[string]interface{}

// Clone returns a shallow copy
func (e RawEvent) Clone() RawEvent {
	out := make(RawEvent, len(e)+5)
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Has reports whether key is present with a non-null value
func (e RawEvent) Has(key string) bool {
	v, ok := e[key]
	return ok && v != nil
}

// String returns the value for key when it is a string, else ""
func (e RawEvent) String(key string) string {
	if s, ok := e[key].(string); ok {
		return s
	}
	return ""
}

// SpaceItem a validated per-space observation (current-state row)
type SpaceItem struct {
	SpaceID    string  `json:"space_id"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
	DeviceID   string  `json:"device_id"`
	FacilityID string  `json:"facility_id"`
	ZoneID     string  `json:"zone_id"`
	DataSource string  `json:"data_source"`
}

// IsLowConfidence confidence strictly below LowConfidenceThreshold
func (s SpaceItem) IsLowConfidence() bool {
	return s.Confidence < LowConfidenceThreshold
}

// IsOccupied compares status case-insensitively
func (s SpaceItem) IsOccupied() bool {
	return strings.EqualFold(s.Status, StatusOccupied)
}

// HistoryEntry one row of the history table
type HistoryEntry struct {
	ID         int64   `json:"id"`
	SpaceID    string  `json:"space_id"`
	Timestamp  string  `json:"timestamp"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	DeviceID   string  `json:"device_id"`
	FacilityID string  `json:"facility_id"`
	ZoneID     string  `json:"zone_id"`
	DataSource string  `json:"data_source"`
}

// NewHistoryEntry copies an item into a history row
func NewHistoryEntry(item SpaceItem) HistoryEntry {
	return HistoryEntry{
		SpaceID:    item.SpaceID,
		Timestamp:  item.Timestamp,
		Status:     item.Status,
		Confidence: item.Confidence,
		DeviceID:   item.DeviceID,
		FacilityID: item.FacilityID,
		ZoneID:     item.ZoneID,
		DataSource: item.DataSource,
	}
}
