package testutil

import (
	"context"
	"sync"
	"time"

	"till-go/internal/model"
	"till-go/internal/till"
)

// MemoryStore is an in-memory till.Store for unit tests. It keeps whole
// Dataset copies, a settings map, and per-name sync watermarks. Error
// injection fields let tests force individual operations to fail.
type MemoryStore struct {
	mu       sync.Mutex
	dataset  model.Dataset
	settings map[string]string
	states   map[string]model.SyncState

	// Counters for asserting call patterns.
	ReplaceCalls    int
	CheckpointCalls int

	// LivePaths backs LiveFiles; point the first entry at a real temp
	// file to exercise backup creation. RestoredFrom records RestoreFrom
	// calls.
	LivePaths    []string
	RestoredFrom []string

	// When set, the matching operation returns this error.
	ReadErr    error
	ReplaceErr error
	SettingErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: make(map[string]string),
		states:   make(map[string]model.SyncState),
	}
}

func (s *MemoryStore) ReadDataset(ctx context.Context) (*model.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	ds := s.dataset
	return &ds, nil
}

func (s *MemoryStore) ReplaceDataset(ctx context.Context, ds *model.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReplaceCalls++
	if s.ReplaceErr != nil {
		return s.ReplaceErr
	}
	s.dataset = *ds
	return nil
}

func (s *MemoryStore) ReplaceProducts(ctx context.Context, products []model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReplaceCalls++
	if s.ReplaceErr != nil {
		return s.ReplaceErr
	}
	s.dataset.Products = products
	return nil
}

func (s *MemoryStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SettingErr != nil {
		return "", false, s.SettingErr
	}
	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *MemoryStore) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SettingErr != nil {
		return s.SettingErr
	}
	s.settings[key] = value
	return nil
}

func (s *MemoryStore) SyncState(ctx context.Context, name string) (*model.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[name]
	st.Name = name
	return &st, nil
}

func (s *MemoryStore) SetLastPushedAt(ctx context.Context, name string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[name]
	st.LastPushedAt = t
	s.states[name] = st
	return nil
}

func (s *MemoryStore) SetLastPulledAt(ctx context.Context, name string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[name]
	st.LastPulledAt = t
	s.states[name] = st
	return nil
}

func (s *MemoryStore) CheckpointWAL(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CheckpointCalls++
	return nil
}

func (s *MemoryStore) LiveFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LivePaths
}

func (s *MemoryStore) RestoreFrom(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RestoredFrom = append(s.RestoredFrom, path)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Dataset returns a copy of the current dataset for assertions.
func (s *MemoryStore) Dataset() model.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// SeedDataset sets the dataset without going through ReplaceDataset.
func (s *MemoryStore) SeedDataset(ds model.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds
}

var _ till.Store = (*MemoryStore)(nil)
