package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

// Config actions
const (
	ActionSave = "SAVE"
	ActionGet  = "GET"
	ActionList = "LIST"
)

// ConfigStore persistence for configuration entries
type ConfigStore interface {
	Save(ctx context.Context, entry models.ConfigEntry) error
	Get(ctx context.Context, configID string) (*models.ConfigEntry, error)
	ListByType(ctx context.Context, configType string) ([]models.ConfigEntry, error)
}

// ConfigRequest body of POST /config
type ConfigRequest struct {
	Action     string                 `json:"action"`
	Config     map[string]interface{} `json:"config"`
	ConfigID   string                 `json:"config_id"`
	ConfigType string                 `json:"config_type"`
}

// ConfigResponse status code plus JSON body
type ConfigResponse struct {
	StatusCode int
	Body       interface{}
}

// ConfigService SAVE / GET / LIST of configuration entries
type ConfigService struct {
	store  ConfigStore
	logger *zap.Logger
	now    func() time.Time
}

// NewConfigService timestamps saved entries in UTC
func NewConfigService(store ConfigStore, logger *zap.Logger) *ConfigService {
	return &ConfigService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle dispatches on the action (default SAVE, case-insensitive)
func (s *ConfigService) Handle(ctx context.Context, req ConfigRequest) *ConfigResponse {
	action := strings.ToUpper(req.Action)
	if action == "" {
		action = ActionSave
	}

	switch action {
	case ActionSave:
		return s.save(ctx, req.Config)
	case ActionGet:
		return s.get(ctx, req.ConfigID)
	case ActionList:
		return s.list(ctx, req.ConfigType)
	default:
		return errorResponse(http.StatusBadRequest, fmt.Sprintf("Unknown action: %s", action))
	}
}

func (s *ConfigService) save(ctx context.Context, cfg map[string]interface{}) *ConfigResponse {
	configID, _ := cfg["config_id"].(string)

	entry, err := BuildConfigEntry(cfg, s.now())
	if err != nil {
		s.logger.Warn("Config validation failed", zap.String("config_id", configID), zap.Error(err))
		return &ConfigResponse{StatusCode: http.StatusBadRequest, Body: map[string]interface{}{
			"message":   err.Error(),
			"config_id": cfg["config_id"],
			"success":   false,
		}}
	}

	if err := s.store.Save(ctx, *entry); err != nil {
		s.logger.Error("Failed to save config", zap.String("config_id", entry.ConfigID), zap.Error(err))
		return &ConfigResponse{StatusCode: http.StatusBadRequest, Body: map[string]interface{}{
			"message":   err.Error(),
			"config_id": entry.ConfigID,
			"success":   false,
		}}
	}

	s.logger.Info("Saved config", zap.String("config_id", entry.ConfigID), zap.String("config_type", entry.ConfigType))
	return &ConfigResponse{StatusCode: http.StatusOK, Body: map[string]interface{}{
		"message":   fmt.Sprintf("Config %s saved successfully", entry.ConfigID),
		"config_id": entry.ConfigID,
		"success":   true,
	}}
}

func (s *ConfigService) get(ctx context.Context, configID string) *ConfigResponse {
	if configID == "" {
		return errorResponse(http.StatusBadRequest, "config_id required")
	}

	entry, err := s.store.Get(ctx, configID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("Failed to get config", zap.String("config_id", configID), zap.Error(err))
		}
		return &ConfigResponse{StatusCode: http.StatusOK, Body: map[string]interface{}{"config": map[string]interface{}{}}}
	}
	return &ConfigResponse{StatusCode: http.StatusOK, Body: map[string]interface{}{"config": entry}}
}

func (s *ConfigService) list(ctx context.Context, configType string) *ConfigResponse {
	if configType == "" {
		return errorResponse(http.StatusBadRequest, "config_type required")
	}

	entries, err := s.store.ListByType(ctx, configType)
	if err != nil {
		s.logger.Error("Failed to list configs", zap.String("config_type", configType), zap.Error(err))
		entries = []models.ConfigEntry{}
	}
	return &ConfigResponse{StatusCode: http.StatusOK, Body: map[string]interface{}{
		"config_type": configType,
		"count":       len(entries),
		"items":       entries,
	}}
}

// ValidateConfig required fields, known type, per-type value shape
func ValidateConfig(cfg map[string]interface{}) error {
	for _, field := range []string{"config_id", "config_type", "value"} {
		if _, ok := cfg[field]; !ok {
			return fmt.Errorf("Missing required field: %s", field)
		}
	}

	configType, _ := cfg["config_type"].(string)
	if !isValidConfigType(configType) {
		return fmt.Errorf("Invalid config_type. Must be one of: ['%s']", strings.Join(models.ValidConfigTypes, "', '"))
	}

	value, isObject := cfg["value"].(map[string]interface{})
	switch configType {
	case models.ConfigTypeThreshold:
		if !isObject {
			return errors.New("threshold value must be a dict with numeric values")
		}
	case models.ConfigTypeZone:
		if !hasKeys(value, "name", "total_spaces") {
			return errors.New("zone must have 'name' and 'total_spaces'")
		}
	case models.ConfigTypeDevice:
		if !hasKeys(value, "ip", "port") {
			return errors.New("device must have 'ip' and 'port'")
		}
	}
	return nil
}

// BuildConfigEntry validates and applies defaults: version 1,
// updated_by "system", active true
func BuildConfigEntry(cfg map[string]interface{}, now time.Time) (*models.ConfigEntry, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	value, err := json.Marshal(cfg["value"])
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}

	entry := &models.ConfigEntry{
		ConfigID:   fmt.Sprint(cfg["config_id"]),
		ConfigType: cfg["config_type"].(string),
		Value:      value,
		Timestamp:  now,
		Version:    1,
		UpdatedBy:  "system",
		Active:     true,
	}
	if v, ok := cfg["version"].(float64); ok {
		entry.Version = int(v)
	}
	if v, ok := cfg["updated_by"].(string); ok && v != "" {
		entry.UpdatedBy = v
	}
	if v, ok := cfg["active"].(bool); ok {
		entry.Active = v
	}
	return entry, nil
}

func isValidConfigType(t string) bool {
	for _, valid := range models.ValidConfigTypes {
		if t == valid {
			return true
		}
	}
	return false
}

func hasKeys(m map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

func errorResponse(code int, msg string) *ConfigResponse {
	return &ConfigResponse{StatusCode: code, Body: map[string]interface{}{"error": msg}}
}
