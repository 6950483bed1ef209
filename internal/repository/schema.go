package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS parking_history (
		id          BIGSERIAL PRIMARY KEY,
		space_id    TEXT NOT NULL,
		timestamp   TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL,
		confidence  DOUBLE PRECISION NOT NULL,
		device_id   TEXT NOT NULL DEFAULT 'unknown',
		facility_id TEXT NOT NULL DEFAULT 'unknown',
		zone_id     TEXT NOT NULL DEFAULT 'unknown',
		data_source TEXT NOT NULL DEFAULT 'unknown',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_parking_history_space_ts
		ON parking_history (space_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS teraspot_config (
		config_id   TEXT PRIMARY KEY,
		config_type TEXT NOT NULL,
		value       JSONB NOT NULL,
		timestamp   TIMESTAMPTZ NOT NULL,
		version     INTEGER NOT NULL DEFAULT 1,
		updated_by  TEXT NOT NULL DEFAULT 'system',
		active      BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_teraspot_config_type
		ON teraspot_config (config_type)`,
}

// EnsureSchema creates the history and config tables when missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
