// Package remote implements the shared remote snapshot store: one row per
// company key, last write wins.
package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"till-go/internal/model"
	"till-go/internal/till"
)

const (
	maxOpenConns    = 4
	connMaxLifetime = 5 * time.Minute
)

// PostgresSnapshots stores snapshots in a Postgres table with an
// upsert-on-conflict by company key.
type PostgresSnapshots struct {
	db *sqlx.DB
}

// NewPostgresSnapshots connects and makes sure the snapshots table exists.
// The application owns its cloud database, so schema setup is done here
// rather than through an out-of-band migration.
func NewPostgresSnapshots(dsn string) (*PostgresSnapshots, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to snapshot store: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			company_key  TEXT PRIMARY KEY,
			device_id    TEXT NOT NULL,
			payload      JSONB NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring snapshots table: %w", err)
	}
	return &PostgresSnapshots{db: db}, nil
}

// Fetch returns the snapshot row for companyKey, or nil when none exists.
func (p *PostgresSnapshots) Fetch(ctx context.Context, companyKey string) (*model.Snapshot, error) {
	var snap model.Snapshot
	err := p.db.GetContext(ctx, &snap,
		"SELECT company_key, device_id, payload, updated_at FROM snapshots WHERE company_key = $1",
		companyKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w: %w", till.ErrRemoteUnavailable, err)
	}
	return &snap, nil
}

// Upsert overwrites the tenant's row unconditionally.
func (p *PostgresSnapshots) Upsert(ctx context.Context, snap *model.Snapshot) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO snapshots (company_key, device_id, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_key) DO UPDATE SET
			device_id  = excluded.device_id,
			payload    = excluded.payload,
			updated_at = excluded.updated_at`,
		snap.CompanyKey, snap.DeviceID, snap.Payload, snap.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w: %w", till.ErrRemoteUnavailable, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (p *PostgresSnapshots) Close() error { return p.db.Close() }
