// Package edge implements the edge publisher: per-space change tracking,
// the mocked occupancy generator and the publish loop.
package edge

import (
	"errors"

	"github.com/jssroberto/teraspot/internal/models"
)

// ErrCacheMiss no previous state for the space
var ErrCacheMiss = errors.New("cache miss")

// Change one space whose status differs from the previous cycle
type Change struct {
	SpaceID    string
	Status     string
	Confidence float64
}

// SpaceStateTracker last-known state per space, owned by one publisher run.
// Not safe for concurrent use.
type SpaceStateTracker struct {
	last map[string]models.SpaceState
}

// NewSpaceStateTracker empty tracker
func NewSpaceStateTracker() *SpaceStateTracker {
	return &SpaceStateTracker{last: make(map[string]models.SpaceState)}
}

// Previous last recorded state, ErrCacheMiss if the space was never seen
func (t *SpaceStateTracker) Previous(spaceID string) (models.SpaceState, error) {
	state, ok := t.last[spaceID]
	if !ok {
		return models.SpaceState{}, ErrCacheMiss
	}
	return state, nil
}

// DetectChanges returns the spaces that are new or whose status changed, in
// snapshot order. The cache is updated for every space, changed or not.
func (t *SpaceStateTracker) DetectChanges(snapshot *models.Snapshot) []Change {
	if snapshot == nil {
		return nil
	}

	var changes []Change
	for _, spaceID := range snapshot.SpaceIDs {
		current := snapshot.Spaces[spaceID]
		prev, err := t.Previous(spaceID)
		if errors.Is(err, ErrCacheMiss) || prev.Status != current.Status {
			changes = append(changes, Change{
				SpaceID:    spaceID,
				Status:     current.Status,
				Confidence: current.Confidence,
			})
		}
		t.last[spaceID] = current
	}
	return changes
}

// Len number of tracked spaces
func (t *SpaceStateTracker) Len() int {
	return len(t.last)
}
