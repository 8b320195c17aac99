package till

import (
	"context"
	"time"

	"till-go/internal/model"
)

// Store is the narrow contract over the embedded local database. It is the
// single system of record; sync and import code only ever sees transient
// Dataset copies.
//
// Implementations must serialize the full-replace operations
// (ReplaceDataset, ReplaceProducts) so that two concurrent replacements —
// an import racing a sync pull — can never interleave row by row.
type Store interface {
	// Dataset operations

	// ReadDataset returns a copy of the entire business state.
	ReadDataset(ctx context.Context) (*model.Dataset, error)

	// ReplaceDataset replaces every collection with the given Dataset in a
	// single transaction. Delete-then-reinsert per entity type; either all
	// collections are replaced or none are.
	ReplaceDataset(ctx context.Context, ds *model.Dataset) error

	// ReplaceProducts replaces only the product collection (and its
	// variants) in a single transaction.
	ReplaceProducts(ctx context.Context, products []model.Product) error

	// Settings operations

	// GetSetting returns the value for a settings key, or "" with found
	// false when the key has never been written.
	GetSetting(ctx context.Context, key string) (value string, found bool, err error)

	// SetSetting writes a settings key.
	SetSetting(ctx context.Context, key, value string) error

	// Sync state operations

	// SyncState returns the push/pull watermarks for a logical dataset
	// name. A never-synced name yields zero times, not an error.
	SyncState(ctx context.Context, name string) (*model.SyncState, error)

	// SetLastPushedAt records a completed push.
	SetLastPushedAt(ctx context.Context, name string, t time.Time) error

	// SetLastPulledAt records a completed pull.
	SetLastPulledAt(ctx context.Context, name string, t time.Time) error

	// File-level operations

	// CheckpointWAL flushes pending write-ahead-log records into the main
	// database file so a copy of that file alone is self-contained.
	CheckpointWAL(ctx context.Context) error

	// LiveFiles returns the on-disk paths of the live database: main file
	// first, then any write-ahead/shared-memory side files that may exist.
	// Empty for stores without a backing file.
	LiveFiles() []string

	// RestoreFrom replaces the live database file with the file at path and
	// reopens the connection. The store is unusable if this fails partway.
	RestoreFrom(ctx context.Context, path string) error

	// Close closes the database connection.
	Close() error
}

// Settings keys owned by the durability core.
const (
	SettingDeviceID       = "device_id"
	SettingLanguage       = "language"
	SettingBackupSchedule = "backup_schedule"
	SettingExternalDir    = "external_dir_grant"
	SettingLastExport     = "last_inventory_export"
)

// SnapshotDatasetName is the logical dataset name used for sync state.
// There is currently exactly one synced dataset.
const SnapshotDatasetName = "snapshot"
