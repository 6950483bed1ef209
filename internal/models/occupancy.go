package models

// OccupancyStats occupied/total pair over a set of spaces
type OccupancyStats struct {
	Occupied int `json:"occupied"`
	Total    int `json:"total"`
}

// Ratio occupied/total, 0 when there are no spaces
func (s OccupancyStats) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Occupied) / float64(s.Total)
}

// CountOccupancy counts a batch; used when the fleet scan is unavailable
func CountOccupancy(items []SpaceItem) OccupancyStats {
	stats := OccupancyStats{Total: len(items)}
	for _, item := range items {
		if item.IsOccupied() {
			stats.Occupied++
		}
	}
	return stats
}
