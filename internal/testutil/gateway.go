package testutil

import (
	"context"
	"sync"

	"till-go/internal/till"
)

// WrittenFile records a single FakeGateway write.
type WrittenFile struct {
	Dir     string
	Name    string
	Mime    string
	Content []byte
}

// FakeGateway is a scriptable till.Gateway. Tests control whether the
// capability exists, whether a grant is held, and whether the next prompt
// or write fails.
type FakeGateway struct {
	mu sync.Mutex

	Supported bool   // reported by Available
	Grant     string // persisted grant; empty means none held

	// PromptDirs are consumed one per RequestGrant call; an empty string
	// in the queue simulates the user denying the prompt.
	PromptDirs []string

	// WriteErrs are consumed one per WriteFile call; nil means success.
	WriteErrs []error

	Files        map[string][]byte // keyed by URI, readable via ReadFile
	Writes       []WrittenFile
	GrantCleared int
	PromptCalls  int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Supported: true,
		Files:     make(map[string][]byte),
	}
}

func (g *FakeGateway) Available() bool { return g.Supported }

func (g *FakeGateway) GrantedDir(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.Supported {
		return "", till.ErrCapabilityUnavailable
	}
	if g.Grant == "" {
		return "", till.ErrPermissionDenied
	}
	return g.Grant, nil
}

func (g *FakeGateway) RequestGrant(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.Supported {
		return "", till.ErrCapabilityUnavailable
	}
	g.PromptCalls++
	if len(g.PromptDirs) == 0 {
		return "", till.ErrPermissionDenied
	}
	dir := g.PromptDirs[0]
	g.PromptDirs = g.PromptDirs[1:]
	if dir == "" {
		return "", till.ErrPermissionDenied
	}
	g.Grant = dir
	return dir, nil
}

func (g *FakeGateway) ClearGrant(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Grant = ""
	g.GrantCleared++
	return nil
}

func (g *FakeGateway) WriteFile(ctx context.Context, dir, name, mimeType string, content []byte) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.Supported {
		return "", till.ErrCapabilityUnavailable
	}
	if len(g.WriteErrs) > 0 {
		err := g.WriteErrs[0]
		g.WriteErrs = g.WriteErrs[1:]
		if err != nil {
			return "", err
		}
	}
	uri := dir + "/" + name
	g.Files[uri] = append([]byte(nil), content...)
	g.Writes = append(g.Writes, WrittenFile{Dir: dir, Name: name, Mime: mimeType, Content: content})
	return uri, nil
}

func (g *FakeGateway) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.Supported {
		return nil, till.ErrCapabilityUnavailable
	}
	data, ok := g.Files[uri]
	if !ok {
		return nil, till.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

var _ till.Gateway = (*FakeGateway)(nil)
