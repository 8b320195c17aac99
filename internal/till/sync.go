package till

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"till-go/internal/model"
)

type syncPhase int

const (
	syncIdle syncPhase = iota
	syncRunning
)

// SyncEngine reconciles the local dataset with the single shared remote
// snapshot row using whole-dataset last-writer-wins.
type SyncEngine struct {
	store      Store
	remote     RemoteSnapshots
	identity   *DeviceIdentity
	companyKey string
	clock      Clock
	logger     Logger

	mu    sync.Mutex
	phase syncPhase
}

// SyncResult reports what a SyncNow call actually did.
type SyncResult struct {
	Ran      bool      // false when another sync was already in flight
	PushedAt time.Time // remote updatedAt written by the push
	Pulled   bool      // whether local data was replaced by the pull
	PulledAt time.Time // remote updatedAt recorded as lastPulledAt, if any
}

func NewSyncEngine(store Store, remote RemoteSnapshots, identity *DeviceIdentity, companyKey string, clock Clock, logger Logger) *SyncEngine {
	return &SyncEngine{
		store:      store,
		remote:     remote,
		identity:   identity,
		companyKey: companyKey,
		clock:      clock,
		logger:     logger,
	}
}

// SyncNow runs one push followed by one pull. It is non-reentrant: a call
// arriving while a previous call is still running returns immediately with
// Ran=false instead of queueing, so at most one sync is in flight and two
// full-dataset replaces can never interleave.
//
// Push runs before pull to narrow the window in which a device that made
// offline edits overwrites them with a newer remote snapshot.
func (e *SyncEngine) SyncNow(ctx context.Context) (*SyncResult, error) {
	e.mu.Lock()
	if e.phase == syncRunning {
		e.mu.Unlock()
		e.logger.Debug("sync already in flight, skipping")
		return &SyncResult{Ran: false}, nil
	}
	e.phase = syncRunning
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.phase = syncIdle
		e.mu.Unlock()
	}()

	deviceID := e.identity.DeviceID(ctx)
	res := &SyncResult{Ran: true}

	pushedAt, err := e.push(ctx, deviceID)
	if err != nil {
		return res, fmt.Errorf("push: %w", err)
	}
	res.PushedAt = pushedAt

	pulled, pulledAt, err := e.pull(ctx, deviceID)
	if err != nil {
		return res, fmt.Errorf("pull: %w", err)
	}
	res.Pulled = pulled
	res.PulledAt = pulledAt

	return res, nil
}

// push uploads the full local dataset as this tenant's snapshot row.
// On failure local sync state is left unchanged: no partial push is ever
// recorded as successful.
func (e *SyncEngine) push(ctx context.Context, deviceID string) (time.Time, error) {
	ds, err := e.store.ReadDataset(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading local dataset: %w", err)
	}

	payload, err := json.Marshal(ds)
	if err != nil {
		return time.Time{}, fmt.Errorf("encoding dataset: %w", err)
	}

	now := e.clock.Now().UTC()
	snap := &model.Snapshot{
		CompanyKey: e.companyKey,
		DeviceID:   deviceID,
		Payload:    payload,
		UpdatedAt:  now,
	}
	if err := e.remote.Upsert(ctx, snap); err != nil {
		return time.Time{}, err
	}

	if err := e.store.SetLastPushedAt(ctx, SnapshotDatasetName, now); err != nil {
		return time.Time{}, fmt.Errorf("recording push watermark: %w", err)
	}

	e.logger.Info("snapshot pushed", "companyKey", e.companyKey, "updatedAt", now)
	return now, nil
}

// pull fetches the tenant's snapshot row and applies it when it is newer
// than what was last pulled and was authored by a different device.
func (e *SyncEngine) pull(ctx context.Context, deviceID string) (bool, time.Time, error) {
	snap, err := e.remote.Fetch(ctx, e.companyKey)
	if err != nil {
		return false, time.Time{}, err
	}
	if snap == nil {
		// First run: no snapshot has ever been pushed for this tenant.
		return false, time.Time{}, nil
	}

	st, err := e.store.SyncState(ctx, SnapshotDatasetName)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("reading sync state: %w", err)
	}
	if !st.LastPulledAt.IsZero() && !snap.UpdatedAt.After(st.LastPulledAt) {
		// Already current.
		return false, time.Time{}, nil
	}

	if snap.DeviceID == deviceID {
		// This device authored the newest snapshot itself. Advance the
		// watermark without touching local data, so a device never
		// clobbers its own fresher local state with its own push.
		if err := e.store.SetLastPulledAt(ctx, SnapshotDatasetName, snap.UpdatedAt); err != nil {
			return false, time.Time{}, fmt.Errorf("recording pull watermark: %w", err)
		}
		return false, snap.UpdatedAt, nil
	}

	var ds model.Dataset
	if err := json.Unmarshal(snap.Payload, &ds); err != nil {
		return false, time.Time{}, fmt.Errorf("decoding remote payload: %w", err)
	}

	if err := e.store.ReplaceDataset(ctx, &ds); err != nil {
		return false, time.Time{}, fmt.Errorf("applying remote dataset: %w", err)
	}
	if err := e.store.SetLastPulledAt(ctx, SnapshotDatasetName, snap.UpdatedAt); err != nil {
		return false, time.Time{}, fmt.Errorf("recording pull watermark: %w", err)
	}

	e.logger.Info("snapshot pulled", "companyKey", e.companyKey, "authoredBy", snap.DeviceID, "updatedAt", snap.UpdatedAt)
	return true, snap.UpdatedAt, nil
}
