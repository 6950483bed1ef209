package alerts

import (
	"context"
	"fmt"

	"github.com/jssroberto/teraspot/internal/models"
)

// DefaultScanCount page size hint for CurrentOccupancy
const DefaultScanCount = 100

// Scanner paginated read over the current-state table.
// A returned cursor of 0 means the scan is complete.
type Scanner interface {
	Scan(ctx context.Context, cursor uint64, count int64) ([]models.SpaceItem, uint64, error)
}

// CurrentOccupancy counts occupied spaces across every page of the table.
// A space returned on more than one page is counted once.
func CurrentOccupancy(ctx context.Context, table Scanner) (models.OccupancyStats, error) {
	var stats models.OccupancyStats
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		items, next, err := table.Scan(ctx, cursor, DefaultScanCount)
		if err != nil {
			return models.OccupancyStats{}, fmt.Errorf("failed to scan current state: %w", err)
		}
		for _, item := range items {
			if _, dup := seen[item.SpaceID]; dup {
				continue
			}
			seen[item.SpaceID] = struct{}{}
			stats.Total++
			if item.Status == models.StatusOccupied {
				stats.Occupied++
			}
		}
		if next == 0 {
			return stats, nil
		}
		cursor = next
	}
}
