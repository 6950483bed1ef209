package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jssroberto/teraspot/common/config"

	_ "github.com/lib/pq"
)

const (
	connectTimeout  = 5 * time.Second
	connMaxLifetime = 30 * time.Minute
)

// NewPostgresDB opens the lib/pq pool and verifies it with a bounded ping.
// The pool is closed again when the ping fails.
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}

	return db, nil
}

// Close nil-safe
func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
