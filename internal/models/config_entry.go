package models

import (
	"encoding/json"
	"time"
)

// Config types accepted by the configuration store
const (
	ConfigTypeThreshold = "threshold"
	ConfigTypeZone      = "zone"
	ConfigTypeDevice    = "device"
	ConfigTypeAlertRule = "alert_rule"
)

// ValidConfigTypes in display order
var ValidConfigTypes = []string{ConfigTypeThreshold, ConfigTypeZone, ConfigTypeDevice, ConfigTypeAlertRule}

// ConfigEntry one stored configuration record
type ConfigEntry struct {
	ConfigID   string          `json:"config_id"`
	ConfigType string          `json:"config_type"`
	Value      json.RawMessage `json:"value"`
	Timestamp  time.Time       `json:"timestamp"`
	Version    int             `json:"version"`
	UpdatedBy  string          `json:"updated_by"`
	Active     bool            `json:"active"`
}
