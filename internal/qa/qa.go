// Package qa enriches and validates normalized events before they are
// accepted as SpaceItems.
package qa

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

var defaultedFields = []string{"device_id", "facility_id", "zone_id", "data_source"}

// ValidationError reason an event was rejected
type ValidationError struct {
	SpaceID string
	Reason  string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func reject(spaceID, format string, args ...interface{}) *ValidationError {
	return &ValidationError{SpaceID: spaceID, Reason: fmt.Sprintf(format, args...)}
}

// EnrichEvent returns a copy with defaults for missing or null fields.
// An empty timestamp counts as missing. Applying it twice changes nothing.
func EnrichEvent(ev models.RawEvent, now time.Time) models.RawEvent {
	out := ev.Clone()
	if ts, ok := out["timestamp"]; !ok || ts == nil || ts == "" {
		out["timestamp"] = now.UTC().Format(time.RFC3339Nano)
	}
	for _, key := range defaultedFields {
		if !out.Has(key) {
			out[key] = models.DefaultUnknown
		}
	}
	return out
}

// ValidateData checks an enriched event. Rules run in a fixed order and the
// first failure is returned.
func ValidateData(spaceID string, ev models.RawEvent) error {
	// 1. space_id
	if spaceID == "" {
		return reject(spaceID, "Missing space_id")
	}

	// 2. confidence type (bool is not a number here)
	confidence, ok := ev["confidence"].(float64)
	if !ok {
		return reject(spaceID, "Invalid confidence type")
	}

	// 3. confidence range, closed interval
	if confidence < 0 || confidence > 1 {
		return reject(spaceID, "Confidence out of range: %s", formatFloat(confidence))
	}

	// 4. status
	status := normalizeStatus(ev)
	if status != models.StatusOccupied && status != models.StatusVacant {
		return reject(spaceID, "Invalid status: %s", status)
	}

	// 5. timestamp
	if !validTimestamp(ev["timestamp"]) {
		return reject(spaceID, "Invalid timestamp")
	}

	return nil
}

// BuildItem converts a validated event into an immutable item
func BuildItem(ev models.RawEvent) models.SpaceItem {
	confidence, _ := ev["confidence"].(float64)
	return models.SpaceItem{
		SpaceID:    stringField(ev, "space_id"),
		Status:     normalizeStatus(ev),
		Confidence: confidence,
		Timestamp:  stringField(ev, "timestamp"),
		DeviceID:   stringFieldOr(ev, "device_id", models.DefaultUnknown),
		FacilityID: stringFieldOr(ev, "facility_id", models.DefaultUnknown),
		ZoneID:     stringFieldOr(ev, "zone_id", models.DefaultUnknown),
		DataSource: stringFieldOr(ev, "data_source", models.DefaultUnknown),
	}
}

// Validator ValidateData plus the low-confidence warning log
type Validator struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewValidator uses the wall clock for defaulted timestamps
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger, now: time.Now}
}

// Check enriches, validates and builds one event.
// A non-nil error is always a *ValidationError.
func (v *Validator) Check(ev models.RawEvent) (models.SpaceItem, error) {
	enriched := EnrichEvent(ev, v.now())
	spaceID := enriched.String("space_id")

	if err := ValidateData(spaceID, enriched); err != nil {
		return models.SpaceItem{}, err
	}

	item := BuildItem(enriched)
	if item.IsLowConfidence() {
		v.logger.Warn("Low confidence detected",
			zap.String("space_id", item.SpaceID),
			zap.Float64("confidence", item.Confidence),
		)
	}
	return item, nil
}

func normalizeStatus(ev models.RawEvent) string {
	v, ok := ev["status"]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case nil:
		return "none"
	default:
		return strings.ToLower(fmt.Sprint(s))
	}
}

func stringField(ev models.RawEvent, key string) string {
	switch v := ev[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func stringFieldOr(ev models.RawEvent, key, fallback string) string {
	if s := stringField(ev, key); s != "" {
		return s
	}
	return fallback
}

// formatFloat prints 2 as "2.0" and 1.5 as "1.5"
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
