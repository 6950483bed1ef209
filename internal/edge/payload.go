package edge

import (
	"time"
)

// Metadata fields attached to every published change
type Metadata struct {
	DeviceID   string
	FacilityID string
	ZoneID     string
	DataSource string
}

// ChangeEvent wire shape of one published space change
type ChangeEvent struct {
	SpaceID    string  `json:"space_id"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
	DeviceID   string  `json:"device_id"`
	FacilityID string  `json:"facility_id"`
	ZoneID     string  `json:"zone_id"`
	DataSource string  `json:"data_source"`
}

// BuildChangePayload stamps every change with the same timestamp and metadata
func BuildChangePayload(changes []Change, meta Metadata, now time.Time) []ChangeEvent {
	timestamp := now.UTC().Format(time.RFC3339Nano)
	events := make([]ChangeEvent, 0, len(changes))
	for _, c := range changes {
		events = append(events, ChangeEvent{
			SpaceID:    c.SpaceID,
			Status:     c.Status,
			Confidence: c.Confidence,
			Timestamp:  timestamp,
			DeviceID:   meta.DeviceID,
			FacilityID: meta.FacilityID,
			ZoneID:     meta.ZoneID,
			DataSource: meta.DataSource,
		})
	}
	return events
}
