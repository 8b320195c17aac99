package remote

import (
	"context"
	"sync"

	"till-go/internal/model"
)

// MemorySnapshots is an in-memory snapshot store. Useful for tests and for
// running fully offline. Safe for concurrent use.
type MemorySnapshots struct {
	mu   sync.RWMutex
	rows map[string]model.Snapshot
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{rows: make(map[string]model.Snapshot)}
}

func (m *MemorySnapshots) Fetch(_ context.Context, companyKey string) (*model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.rows[companyKey]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate the stored row.
	cp := snap
	cp.Payload = append([]byte(nil), snap.Payload...)
	return &cp, nil
}

func (m *MemorySnapshots) Upsert(_ context.Context, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *snap
	cp.Payload = append([]byte(nil), snap.Payload...)
	m.rows[snap.CompanyKey] = cp
	return nil
}
