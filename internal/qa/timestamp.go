package qa

import (
	"strings"
	"time"
)

// ISO-8601 shapes accepted for event timestamps, after "Z" becomes "+00:00"
var timestampLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// validTimestamp empty/missing is valid (treated as now); non-strings are not
func validTimestamp(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	if s == "" {
		return true
	}
	_, err := ParseTimestamp(s)
	return err == nil
}

// ParseTimestamp parses an ISO-8601 timestamp; a trailing Z means UTC
func ParseTimestamp(s string) (time.Time, error) {
	normalized := strings.ReplaceAll(s, "Z", "+00:00")
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, normalized)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
