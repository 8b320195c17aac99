// Package database implements the local store contract on SQLite.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"till-go/internal/model"
	"till-go/internal/till"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SyncedSettings are the settings keys that travel inside the Dataset and
// are therefore replaced by a sync pull. Everything else in the settings
// table — device id, sync watermarks, storage grants — is local-only and
// must survive a full dataset replace.
var SyncedSettings = []string{
	till.SettingLanguage,
	till.SettingBackupSchedule,
	"notification_token",
	"role_permissions",
}

// SQLiteStore implements till.Store on a SQLite file.
//
// The connection pool is capped at one connection, so the full-replace
// transactions (import apply, sync pull apply) are serialized by
// construction and can never interleave row by row.
type SQLiteStore struct {
	mu   sync.Mutex // guards db swap during RestoreFrom
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (and migrates) a SQLite database at path.
// path can be ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection and brings the
// schema up to date. Exported for tests that need a raw configured handle.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and a single
	// handle makes :memory: databases behave like a file.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *SQLiteStore) conn() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// ReadDataset returns the entire business state, including the synced
// subset of settings.
func (s *SQLiteStore) ReadDataset(ctx context.Context) (*model.Dataset, error) {
	db := s.conn()
	ds := &model.Dataset{Settings: map[string]string{}}
	var err error

	if ds.Products, err = readProducts(ctx, db); err != nil {
		return nil, err
	}
	if ds.Customers, err = readCustomers(ctx, db); err != nil {
		return nil, err
	}
	if ds.Sales, err = readSales(ctx, db); err != nil {
		return nil, err
	}
	if ds.Vendors, err = readVendors(ctx, db); err != nil {
		return nil, err
	}
	if ds.Purchases, err = readPurchases(ctx, db); err != nil {
		return nil, err
	}
	if ds.Expenditures, err = readExpenditures(ctx, db); err != nil {
		return nil, err
	}
	if ds.CreditTransactions, err = readCreditTransactions(ctx, db); err != nil {
		return nil, err
	}

	for _, key := range SyncedSettings {
		value, found, err := s.GetSetting(ctx, key)
		if err != nil {
			return nil, err
		}
		if found {
			ds.Settings[key] = value
		}
	}
	return ds, nil
}

// ReplaceDataset replaces every collection, and the synced settings keys,
// in one transaction.
func (s *SQLiteStore) ReplaceDataset(ctx context.Context, ds *model.Dataset) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{
			"variants", "products", "customers", "vendors",
			"sales", "purchases", "expenditures", "credit_transactions",
		} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		if err := insertProducts(ctx, tx, ds.Products); err != nil {
			return err
		}
		if err := insertCustomers(ctx, tx, ds.Customers); err != nil {
			return err
		}
		if err := insertVendors(ctx, tx, ds.Vendors); err != nil {
			return err
		}
		if err := insertSales(ctx, tx, ds.Sales); err != nil {
			return err
		}
		if err := insertPurchases(ctx, tx, ds.Purchases); err != nil {
			return err
		}
		if err := insertExpenditures(ctx, tx, ds.Expenditures); err != nil {
			return err
		}
		if err := insertCreditTransactions(ctx, tx, ds.CreditTransactions); err != nil {
			return err
		}

		for _, key := range SyncedSettings {
			if value, ok := ds.Settings[key]; ok {
				if err := upsertSetting(ctx, tx, key, value); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ReplaceProducts replaces only the product collection in one transaction.
func (s *SQLiteStore) ReplaceProducts(ctx context.Context, products []model.Product) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM variants"); err != nil {
			return fmt.Errorf("clearing variants: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
			return fmt.Errorf("clearing products: %w", err)
		}
		return insertProducts(ctx, tx, products)
	})
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn().QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.conn().ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) SyncState(ctx context.Context, name string) (*model.SyncState, error) {
	st := &model.SyncState{Name: name}
	var pushed, pulled sql.NullTime
	err := s.conn().QueryRowContext(ctx,
		"SELECT last_pushed_at, last_pulled_at FROM sync_state WHERE name = ?", name).
		Scan(&pushed, &pulled)
	if err == sql.ErrNoRows {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sync state %s: %w", name, err)
	}
	if pushed.Valid {
		st.LastPushedAt = pushed.Time
	}
	if pulled.Valid {
		st.LastPulledAt = pulled.Time
	}
	return st, nil
}

func (s *SQLiteStore) SetLastPushedAt(ctx context.Context, name string, t time.Time) error {
	_, err := s.conn().ExecContext(ctx,
		`INSERT INTO sync_state (name, last_pushed_at) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET last_pushed_at = excluded.last_pushed_at`,
		name, t.UTC())
	if err != nil {
		return fmt.Errorf("recording last push for %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) SetLastPulledAt(ctx context.Context, name string, t time.Time) error {
	_, err := s.conn().ExecContext(ctx,
		`INSERT INTO sync_state (name, last_pulled_at) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET last_pulled_at = excluded.last_pulled_at`,
		name, t.UTC())
	if err != nil {
		return fmt.Errorf("recording last pull for %s: %w", name, err)
	}
	return nil
}

// CheckpointWAL flushes the write-ahead log into the main file so the main
// file alone is a self-contained copy target.
func (s *SQLiteStore) CheckpointWAL(ctx context.Context) error {
	if _, err := s.conn().ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

// LiveFiles returns the main database path plus the WAL and shared-memory
// side file paths. Empty for in-memory databases.
func (s *SQLiteStore) LiveFiles() []string {
	if s.path == "" || s.path == ":memory:" {
		return nil
	}
	return []string{s.path, s.path + "-wal", s.path + "-shm"}
}

// RestoreFrom replaces the live database file with the file at path and
// reopens the connection. Side files of the old database are removed so
// SQLite does not recover stale WAL frames over the restored file.
func (s *SQLiteStore) RestoreFrom(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" || s.path == ":memory:" {
		return fmt.Errorf("store has no backing file to restore over")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("restore source %s: %w", path, till.ErrNotFound)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing live database: %w", err)
	}

	if err := overwriteFile(path, s.path); err != nil {
		return fmt.Errorf("replacing live database: %w", err)
	}
	os.Remove(s.path + "-wal")
	os.Remove(s.path + "-shm")

	db, err := OpenConnection(s.path)
	if err != nil {
		return fmt.Errorf("reopening restored database: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func upsertSetting(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// overwriteFile copies src over dst in place.
func overwriteFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
