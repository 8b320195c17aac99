package remote

import (
	"fmt"

	"till-go/internal/config"
	"till-go/internal/till"
)

// NewSnapshotsFromConfig creates a RemoteSnapshots implementation based on
// the remote config type.
func NewSnapshotsFromConfig(cfg config.RemoteConfig) (till.RemoteSnapshots, error) {
	switch cfg.Type {
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres remote")
		}
		return NewPostgresSnapshots(cfg.DSN)
	case "memory":
		return NewMemorySnapshots(), nil
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}
