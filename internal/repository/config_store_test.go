package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jssroberto/teraspot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockConfigDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *ConfigRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewConfigRepository(db, zap.NewNop())
}

var configColumns = []string{"config_id", "config_type", "value", "timestamp", "version", "updated_by", "active"}

func TestConfigSave(t *testing.T) {
	db, mock, repo := setupMockConfigDB(t)
	defer db.Close()

	ts := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	entry := models.ConfigEntry{
		ConfigID:   "zone-a",
		ConfigType: models.ConfigTypeZone,
		Value:      json.RawMessage(`{"name":"Zone A","total_spaces":30}`),
		Timestamp:  ts,
		Version:    1,
		UpdatedBy:  "system",
		Active:     true,
	}

	mock.ExpectExec(`INSERT INTO teraspot_config`).
		WithArgs("zone-a", "zone", []byte(`{"name":"Zone A","total_spaces":30}`), ts, 1, "system", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigGet(t *testing.T) {
	db, mock, repo := setupMockConfigDB(t)
	defer db.Close()

	ts := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT`).
		WithArgs("zone-a").
		WillReturnRows(sqlmock.NewRows(configColumns).
			AddRow("zone-a", "zone", []byte(`{"name":"Zone A"}`), ts, 2, "ops", false))

	entry, err := repo.Get(context.Background(), "zone-a")
	require.NoError(t, err)
	assert.Equal(t, "zone", entry.ConfigType)
	assert.JSONEq(t, `{"name":"Zone A"}`, string(entry.Value))
	assert.Equal(t, 2, entry.Version)
	assert.False(t, entry.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigGet_NotFound(t *testing.T) {
	db, mock, repo := setupMockConfigDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(configColumns))

	_, err := repo.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigListByType(t *testing.T) {
	db, mock, repo := setupMockConfigDB(t)
	defer db.Close()

	ts := time.Now().UTC()
	mock.ExpectQuery(`SELECT`).
		WithArgs("device").
		WillReturnRows(sqlmock.NewRows(configColumns).
			AddRow("cam-1", "device", []byte(`{"ip":"10.0.0.1","port":554}`), ts, 1, "system", true).
			AddRow("cam-2", "device", []byte(`{"ip":"10.0.0.2","port":554}`), ts, 1, "system", true))

	entries, err := repo.ListByType(context.Background(), "device")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cam-2", entries[1].ConfigID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigListByType_Empty(t *testing.T) {
	db, mock, repo := setupMockConfigDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("alert_rule").
		WillReturnRows(sqlmock.NewRows(configColumns))

	entries, err := repo.ListByType(context.Background(), "alert_rule")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
