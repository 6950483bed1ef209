package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jssroberto/teraspot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryConfigStore struct {
	entries map[string]models.ConfigEntry
	saveErr error
}

func newMemoryConfigStore() *memoryConfigStore {
	return &memoryConfigStore{entries: map[string]models.ConfigEntry{}}
}

func (m *memoryConfigStore) Save(_ context.Context, entry models.ConfigEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[entry.ConfigID] = entry
	return nil
}

func (m *memoryConfigStore) Get(_ context.Context, id string) (*models.ConfigEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &entry, nil
}

func (m *memoryConfigStore) ListByType(_ context.Context, t string) ([]models.ConfigEntry, error) {
	out := []models.ConfigEntry{}
	for _, e := range m.entries {
		if e.ConfigType == t {
			out = append(out, e)
		}
	}
	return out, nil
}

func decodeConfig(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  string
		want string
	}{
		{"threshold ok", `{"config_id": "t1", "config_type": "threshold", "value": {"low": 0.8}}`, ""},
		{"zone ok", `{"config_id": "z1", "config_type": "zone", "value": {"name": "A", "total_spaces": 30}}`, ""},
		{"device ok", `{"config_id": "d1", "config_type": "device", "value": {"ip": "10.0.0.1", "port": 554}}`, ""},
		{"alert rule ok", `{"config_id": "r1", "config_type": "alert_rule", "value": "anything"}`, ""},
		{"missing id", `{"config_type": "zone", "value": {}}`, "Missing required field: config_id"},
		{"missing value", `{"config_id": "x", "config_type": "zone"}`, "Missing required field: value"},
		{"bad type", `{"config_id": "x", "config_type": "camera", "value": {}}`, "Invalid config_type. Must be one of: ['threshold', 'zone', 'device', 'alert_rule']"},
		{"threshold scalar", `{"config_id": "x", "config_type": "threshold", "value": 0.8}`, "threshold value must be a dict with numeric values"},
		{"zone incomplete", `{"config_id": "x", "config_type": "zone", "value": {"name": "A"}}`, "zone must have 'name' and 'total_spaces'"},
		{"device incomplete", `{"config_id": "x", "config_type": "device", "value": {"ip": "1.2.3.4"}}`, "device must have 'ip' and 'port'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(decodeConfig(t, tt.cfg))
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestBuildConfigEntry_Defaults(t *testing.T) {
	now := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)

	entry, err := BuildConfigEntry(decodeConfig(t, `{"config_id": "z1", "config_type": "zone", "value": {"name": "A", "total_spaces": 30}}`), now)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Version)
	assert.Equal(t, "system", entry.UpdatedBy)
	assert.True(t, entry.Active)
	assert.Equal(t, now, entry.Timestamp)
	assert.JSONEq(t, `{"name": "A", "total_spaces": 30}`, string(entry.Value))

	entry, err = BuildConfigEntry(decodeConfig(t, `{"config_id": "z1", "config_type": "zone", "value": {"name": "A", "total_spaces": 30}, "version": 3, "updated_by": "ops", "active": false}`), now)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Version)
	assert.Equal(t, "ops", entry.UpdatedBy)
	assert.False(t, entry.Active)
}

func TestConfigService_SaveGetList(t *testing.T) {
	store := newMemoryConfigStore()
	svc := NewConfigService(store, zap.NewNop())
	ctx := context.Background()

	resp := svc.Handle(ctx, ConfigRequest{Config: decodeConfig(t, `{"config_id": "z1", "config_type": "zone", "value": {"name": "A", "total_spaces": 30}}`)})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"message": "Config z1 saved successfully", "config_id": "z1", "success": true}, resp.Body)

	resp = svc.Handle(ctx, ConfigRequest{Action: "get", ConfigID: "z1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := resp.Body.(map[string]interface{})
	entry, ok := body["config"].(*models.ConfigEntry)
	require.True(t, ok)
	assert.Equal(t, "zone", entry.ConfigType)

	resp = svc.Handle(ctx, ConfigRequest{Action: "LIST", ConfigType: "zone"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, resp.Body.(map[string]interface{})["count"])
}

func TestConfigService_Errors(t *testing.T) {
	store := newMemoryConfigStore()
	svc := NewConfigService(store, zap.NewNop())
	ctx := context.Background()

	resp := svc.Handle(ctx, ConfigRequest{Action: "SAVE", Config: decodeConfig(t, `{"config_id": "x", "config_type": "zone", "value": {}}`)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, resp.Body.(map[string]interface{})["success"])

	resp = svc.Handle(ctx, ConfigRequest{Action: "GET"})
	assert.Equal(t, map[string]interface{}{"error": "config_id required"}, resp.Body)

	resp = svc.Handle(ctx, ConfigRequest{Action: "LIST"})
	assert.Equal(t, map[string]interface{}{"error": "config_type required"}, resp.Body)

	resp = svc.Handle(ctx, ConfigRequest{Action: "delete"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"error": "Unknown action: DELETE"}, resp.Body)

	resp = svc.Handle(ctx, ConfigRequest{Action: "GET", ConfigID: "missing"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"config": map[string]interface{}{}}, resp.Body)

	store.saveErr = errors.New("db down")
	resp = svc.Handle(ctx, ConfigRequest{Config: decodeConfig(t, `{"config_id": "t1", "config_type": "threshold", "value": {}}`)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "db down", resp.Body.(map[string]interface{})["message"])
}
