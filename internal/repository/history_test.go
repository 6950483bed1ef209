package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jssroberto/teraspot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockHistoryDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *HistoryRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewHistoryRepository(db, zap.NewNop())
}

func TestHistorySave_Success(t *testing.T) {
	db, mock, repo := setupMockHistoryDB(t)
	defer db.Close()

	item := space("A-01", models.StatusOccupied, 0.93)
	mock.ExpectExec(`INSERT INTO parking_history`).
		WithArgs("A-01", "2025-11-03T21:36:00Z", "occupied", 0.93, "dev-1", "fac-1", "zone-1", "mocked").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Save(context.Background(), item))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistorySave_Error(t *testing.T) {
	db, mock, repo := setupMockHistoryDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO parking_history`).
		WillReturnError(errors.New("connection reset"))

	err := repo.Save(context.Background(), space("A-01", models.StatusOccupied, 0.93))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A-01")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryListBySpace(t *testing.T) {
	db, mock, repo := setupMockHistoryDB(t)
	defer db.Close()

	ts := time.Date(2025, 11, 3, 21, 36, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "space_id", "timestamp", "status", "confidence",
		"device_id", "facility_id", "zone_id", "data_source",
	}).
		AddRow(2, "A-01", ts.Add(time.Minute), "vacant", 0.95, "dev-1", "fac-1", "zone-1", "yolo11n").
		AddRow(1, "A-01", ts, "occupied", 0.88, "dev-1", "fac-1", "zone-1", "yolo11n")

	mock.ExpectQuery(`SELECT`).
		WithArgs("A-01", DefaultHistoryLimit).
		WillReturnRows(rows)

	entries, err := repo.ListBySpace(context.Background(), "A-01", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.Equal(t, "2025-11-03T21:37:00Z", entries[0].Timestamp)
	assert.Equal(t, "occupied", entries[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryListBySpace_RequiresID(t *testing.T) {
	db, _, repo := setupMockHistoryDB(t)
	defer db.Close()

	_, err := repo.ListBySpace(context.Background(), "", 10)
	assert.Error(t, err)
}

func TestEnsureSchema(t *testing.T) {
	db, mock, _ := setupMockHistoryDB(t)
	defer db.Close()

	for range schemaStatements {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, EnsureSchema(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
