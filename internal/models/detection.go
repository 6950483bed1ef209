package models

// Detection one inference result: pixel bbox [x1, y1, x2, y2] and score
type Detection struct {
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

// Center bbox midpoint
func (d Detection) Center() (float64, float64) {
	return (d.BBox[0] + d.BBox[2]) / 2, (d.BBox[1] + d.BBox[3]) / 2
}

// SpaceState status/confidence pair of one space inside a snapshot
type SpaceState struct {
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
}

// Snapshot per-space states of one edge observation.
// SpaceIDs preserves report order; Spaces is keyed by the same ids.
type Snapshot struct {
	SpaceIDs        []string              `json:"-"`
	Spaces          map[string]SpaceState `json:"spaces"`
	TotalOccupied   int                   `json:"total_occupied"`
	TotalVacant     int                   `json:"total_vacant"`
	DetectionsCount *int                  `json:"detections_count,omitempty"`
	VehicleCount    *int                  `json:"vehicle_count,omitempty"`
	Simulated       bool                  `json:"simulated,omitempty"`
}

// NewSnapshot empty snapshot with capacity hint
func NewSnapshot(capacity int) *Snapshot {
	return &Snapshot{
		SpaceIDs: make([]string, 0, capacity),
		Spaces:   make(map[string]SpaceState, capacity),
	}
}

// Set records a space, keeping first-seen order and the occupied/vacant totals
func (s *Snapshot) Set(spaceID string, state SpaceState) {
	if prev, ok := s.Spaces[spaceID]; ok {
		if prev.Status == StatusOccupied {
			s.TotalOccupied--
		} else {
			s.TotalVacant--
		}
	} else {
		s.SpaceIDs = append(s.SpaceIDs, spaceID)
	}
	s.Spaces[spaceID] = state
	if state.Status == StatusOccupied {
		s.TotalOccupied++
	} else {
		s.TotalVacant++
	}
}
