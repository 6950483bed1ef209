package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

// ConfigRepository configuration entries keyed by config_id
type ConfigRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewConfigRepository wraps a Postgres handle
func NewConfigRepository(db *sql.DB, logger *zap.Logger) *ConfigRepository {
	return &ConfigRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts or replaces an entry
func (r *ConfigRepository) Save(ctx context.Context, entry models.ConfigEntry) error {
	query := `
		INSERT INTO teraspot_config (
			config_id, config_type, value, timestamp, version, updated_by, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (config_id) DO UPDATE SET
			config_type = EXCLUDED.config_type,
			value       = EXCLUDED.value,
			timestamp   = EXCLUDED.timestamp,
			version     = EXCLUDED.version,
			updated_by  = EXCLUDED.updated_by,
			active      = EXCLUDED.active
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ConfigID,
		entry.ConfigType,
		[]byte(entry.Value),
		entry.Timestamp,
		entry.Version,
		entry.UpdatedBy,
		entry.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save config %s: %w", entry.ConfigID, err)
	}
	return nil
}

// Get returns models.ErrNotFound when the id is unknown
func (r *ConfigRepository) Get(ctx context.Context, configID string) (*models.ConfigEntry, error) {
	query := `
		SELECT config_id, config_type, value, timestamp, version, updated_by, active
		FROM teraspot_config
		WHERE config_id = $1
	`
	entry, err := scanConfig(r.db.QueryRowContext(ctx, query, configID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get config %s: %w", configID, err)
	}
	return entry, nil
}

// ListByType entries of one config_type ordered by id
func (r *ConfigRepository) ListByType(ctx context.Context, configType string) ([]models.ConfigEntry, error) {
	query := `
		SELECT config_id, config_type, value, timestamp, version, updated_by, active
		FROM teraspot_config
		WHERE config_type = $1
		ORDER BY config_id
	`
	rows, err := r.db.QueryContext(ctx, query, configType)
	if err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	defer rows.Close()

	entries := []models.ConfigEntry{}
	for rows.Next() {
		entry, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan config row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate config rows: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConfig(row rowScanner) (*models.ConfigEntry, error) {
	var entry models.ConfigEntry
	var value []byte
	if err := row.Scan(
		&entry.ConfigID,
		&entry.ConfigType,
		&value,
		&entry.Timestamp,
		&entry.Version,
		&entry.UpdatedBy,
		&entry.Active,
	); err != nil {
		return nil, err
	}
	entry.Value = value
	return &entry, nil
}
