package till

import (
	"context"

	"till-go/internal/model"
)

// RemoteSnapshots provides an interface for the shared remote snapshot
// store: one row per company key, last write wins.
type RemoteSnapshots interface {
	// Fetch returns the snapshot row for companyKey, or nil when no row
	// exists. Absence is a valid, non-error state: no sync has ever
	// happened for this tenant.
	Fetch(ctx context.Context, companyKey string) (*model.Snapshot, error)

	// Upsert writes the snapshot row for snap.CompanyKey, overwriting any
	// previous row unconditionally.
	Upsert(ctx context.Context, snap *model.Snapshot) error
}
