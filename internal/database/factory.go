package database

import (
	"fmt"
	"os"
	"path/filepath"

	"till-go/internal/config"
	"till-go/internal/till"
)

// NewStoreFromConfig creates a Store implementation based on the store
// config type.
func NewStoreFromConfig(cfg config.StoreConfig) (till.Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "till.db"))
	case "memory":
		return NewSQLiteStore(":memory:")
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
