package mirror

import (
	"context"
	"sync"
)

// MemoryMirror keeps uploads in memory. Useful for tests.
// Safe for concurrent use.
type MemoryMirror struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{objects: make(map[string][]byte)}
}

func (m *MemoryMirror) Upload(_ context.Context, name string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = append([]byte(nil), content...)
	return nil
}

// Object returns a stored upload and whether it exists.
func (m *MemoryMirror) Object(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[name]
	return data, ok
}

// NopMirror discards every upload. Used when no mirror is configured.
type NopMirror struct{}

func (NopMirror) Upload(context.Context, string, []byte) error { return nil }
