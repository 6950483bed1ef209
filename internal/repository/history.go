package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

// DefaultHistoryLimit rows returned when the caller passes no limit
const DefaultHistoryLimit = 100

// HistoryRepository append-only log of accepted items
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository wraps a Postgres handle
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Save appends one row
func (r *HistoryRepository) Save(ctx context.Context, item models.SpaceItem) error {
	query := `
		INSERT INTO parking_history (
			space_id, timestamp, status, confidence,
			device_id, facility_id, zone_id, data_source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.SpaceID,
		item.Timestamp,
		item.Status,
		item.Confidence,
		item.DeviceID,
		item.FacilityID,
		item.ZoneID,
		item.DataSource,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history for %s: %w", item.SpaceID, err)
	}
	return nil
}

// ListBySpace newest first
func (r *HistoryRepository) ListBySpace(ctx context.Context, spaceID string, limit int) ([]models.HistoryEntry, error) {
	if spaceID == "" {
		return nil, fmt.Errorf("space_id is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT
			id,
			space_id,
			timestamp,
			status,
			confidence,
			device_id,
			facility_id,
			zone_id,
			data_source
		FROM parking_history
		WHERE space_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, spaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var ts time.Time
		if err := rows.Scan(
			&e.ID,
			&e.SpaceID,
			&ts,
			&e.Status,
			&e.Confidence,
			&e.DeviceID,
			&e.FacilityID,
			&e.ZoneID,
			&e.DataSource,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Timestamp = ts.UTC().Format(time.RFC3339Nano)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	return entries, nil
}
