package roi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jssroberto/teraspot/internal/geometry"
	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

// SpaceROI one named parking space and its polygon in image coordinates
type SpaceROI struct {
	SpaceID string           `json:"space_id"`
	Polygon []geometry.Point `json:"polygon"`
}

// Match highest-confidence detection that fell into a space
type Match struct {
	SpaceID    string
	Confidence float64
}

// Mapper assigns detections to configured spaces.
// The space set is replaced as a whole on reload.
type Mapper struct {
	mu     sync.RWMutex
	spaces []SpaceROI
	logger *zap.Logger
}

// NewMapper empty until SetROISpaces succeeds
func NewMapper(logger *zap.Logger) *Mapper {
	return &Mapper{logger: logger}
}

// ParseROIConfig accepts {"spaces": [...]} or a bare array of entries
func ParseROIConfig(data []byte) ([]map[string]interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, models.NewConfigurationError("roi", "invalid JSON", err)
	}

	var list []interface{}
	switch v := doc.(type) {
	case map[string]interface{}:
		list, _ = v["spaces"].([]interface{})
	case []interface{}:
		list = v
	}
	if len(list) == 0 {
		return nil, models.NewConfigurationError("roi", "configuration must include a non-empty 'spaces' list with polygons", nil)
	}

	entries := make([]map[string]interface{}, 0, len(list))
	for i, raw := range list {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return nil, models.NewConfigurationError("roi", fmt.Sprintf("entry %d is not an object", i), nil)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SetROISpaces validates every entry and swaps the space set.
// An empty list or a single malformed entry rejects the whole set and the
// old set stays.
func (m *Mapper) SetROISpaces(entries []map[string]interface{}) error {
	if len(entries) == 0 {
		return models.NewConfigurationError("roi", "configuration must include a non-empty 'spaces' list with polygons", nil)
	}

	parsed := make([]SpaceROI, 0, len(entries))
	for i, entry := range entries {
		space, err := parseEntry(entry)
		if err != nil {
			return models.NewConfigurationError("roi", fmt.Sprintf("entry %d", i), err)
		}
		parsed = append(parsed, space)
	}

	m.mu.Lock()
	m.spaces = parsed
	m.mu.Unlock()

	m.logger.Info("ROI spaces loaded", zap.Int("count", len(parsed)))
	return nil
}

// Spaces copy of the current set
func (m *Mapper) Spaces() []SpaceROI {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SpaceROI, len(m.spaces))
	copy(out, m.spaces)
	return out
}

// HasSpaces true once a non-empty set was accepted
func (m *Mapper) HasSpaces() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.spaces) > 0
}

// MapDetectionsToSpaces returns space_id -> max confidence.
// The first polygon (config order) containing the bbox center wins.
func (m *Mapper) MapDetectionsToSpaces(detections []models.Detection) map[string]float64 {
	m.mu.RLock()
	spaces := m.spaces
	m.mu.RUnlock()

	matches := make(map[string]float64)
	for _, det := range detections {
		cx, cy := det.Center()
		center := geometry.Point{X: cx, Y: cy}
		for _, space := range spaces {
			if !geometry.PointInPolygon(center, space.Polygon) {
				continue
			}
			if prev, ok := matches[space.SpaceID]; !ok || det.Confidence > prev {
				matches[space.SpaceID] = det.Confidence
			}
			break
		}
	}
	return matches
}

func parseEntry(entry map[string]interface{}) (SpaceROI, error) {
	spaceID, ok := entry["space_id"].(string)
	if !ok || strings.TrimSpace(spaceID) == "" {
		return SpaceROI{}, fmt.Errorf("space_id must be a non-empty string")
	}

	rawPolygon, ok := entry["polygon"].([]interface{})
	if !ok || len(rawPolygon) < 3 {
		return SpaceROI{}, fmt.Errorf("space %s: polygon needs at least 3 points", spaceID)
	}

	polygon := make([]geometry.Point, 0, len(rawPolygon))
	for i, rawPoint := range rawPolygon {
		pair, ok := rawPoint.([]interface{})
		if !ok || len(pair) != 2 {
			return SpaceROI{}, fmt.Errorf("space %s: point %d must be [x, y]", spaceID, i)
		}
		x, err := toFloat(pair[0])
		if err != nil {
			return SpaceROI{}, fmt.Errorf("space %s: point %d: %w", spaceID, i, err)
		}
		y, err := toFloat(pair[1])
		if err != nil {
			return SpaceROI{}, fmt.Errorf("space %s: point %d: %w", spaceID, i, err)
		}
		polygon = append(polygon, geometry.Point{X: x, Y: y})
	}

	return SpaceROI{SpaceID: spaceID, Polygon: polygon}, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("coordinate %q is not numeric", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("coordinate %v is not numeric", v)
	}
}
