// Package gateway implements restricted external directory access: an
// explicit, revocable, user-granted location outside private storage.
package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"till-go/internal/till"
)

// PromptFunc asks the user to pick a directory. Returning an error wrapped
// around till.ErrPermissionDenied means the user declined.
type PromptFunc func(ctx context.Context) (string, error)

// DirGateway models external storage as a directory path granted by the
// user and persisted in the local store's settings. A grant is valid while
// the directory still exists and is writable; the user revokes it by
// moving or deleting the directory.
type DirGateway struct {
	store  till.Store
	prompt PromptFunc // nil means this host cannot prompt
	logger till.Logger
}

func NewDirGateway(store till.Store, prompt PromptFunc, logger till.Logger) *DirGateway {
	return &DirGateway{store: store, prompt: prompt, logger: logger}
}

func (g *DirGateway) Available() bool { return true }

// GrantedDir returns the persisted grant if it is still valid.
func (g *DirGateway) GrantedDir(ctx context.Context) (string, error) {
	dir, found, err := g.store.GetSetting(ctx, till.SettingExternalDir)
	if err != nil {
		return "", fmt.Errorf("reading grant: %w", err)
	}
	if !found || dir == "" {
		return "", fmt.Errorf("no directory grant held: %w", till.ErrPermissionDenied)
	}
	if err := probeWritable(dir); err != nil {
		g.logger.Debug("persisted grant no longer valid", "dir", dir, "error", err)
		return "", fmt.Errorf("grant for %s revoked: %w", dir, till.ErrPermissionDenied)
	}
	return dir, nil
}

// RequestGrant prompts the user for a directory and persists it on
// success. Hosts that cannot prompt report the capability as unavailable
// so callers fall back to private storage without treating it as a
// user-fixable denial.
func (g *DirGateway) RequestGrant(ctx context.Context) (string, error) {
	if g.prompt == nil {
		return "", fmt.Errorf("no way to prompt for a directory: %w", till.ErrCapabilityUnavailable)
	}

	dir, err := g.prompt(ctx)
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", fmt.Errorf("directory grant declined: %w", till.ErrPermissionDenied)
	}
	if err := probeWritable(dir); err != nil {
		return "", fmt.Errorf("granted directory %s unusable: %w", dir, till.ErrPermissionDenied)
	}

	if err := g.store.SetSetting(ctx, till.SettingExternalDir, dir); err != nil {
		return "", fmt.Errorf("persisting grant: %w", err)
	}
	g.logger.Info("external directory granted", "dir", dir)
	return dir, nil
}

// ClearGrant forgets the persisted grant.
func (g *DirGateway) ClearGrant(ctx context.Context) error {
	if err := g.store.SetSetting(ctx, till.SettingExternalDir, ""); err != nil {
		return fmt.Errorf("clearing grant: %w", err)
	}
	return nil
}

// WriteFile writes content into the granted directory. Failures that look
// like a revoked grant are reported as permission errors so the caller's
// retry-once contract kicks in.
func (g *DirGateway) WriteFile(_ context.Context, dir, name, _ string, content []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		if os.IsPermission(err) || os.IsNotExist(err) {
			return "", fmt.Errorf("writing %s: %w", path, till.ErrPermissionDenied)
		}
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ReadFile reads a file from a granted location.
func (g *DirGateway) ReadFile(_ context.Context, uri string) ([]byte, error) {
	data, err := os.ReadFile(uri)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", uri, till.ErrNotFound)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%s: %w", uri, till.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("reading %s: %w", uri, err)
	}
	return data, nil
}

// probeWritable verifies a directory exists and accepts writes.
func probeWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".till-probe-*")
	if err != nil {
		return err
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// Unsupported is the gateway for hosts without any external-directory
// capability. Every operation reports unavailability, never denial.
type Unsupported struct{}

func (Unsupported) Available() bool { return false }

func (Unsupported) GrantedDir(context.Context) (string, error) {
	return "", till.ErrCapabilityUnavailable
}

func (Unsupported) RequestGrant(context.Context) (string, error) {
	return "", till.ErrCapabilityUnavailable
}

func (Unsupported) ClearGrant(context.Context) error { return till.ErrCapabilityUnavailable }

func (Unsupported) WriteFile(context.Context, string, string, string, []byte) (string, error) {
	return "", till.ErrCapabilityUnavailable
}

func (Unsupported) ReadFile(context.Context, string) ([]byte, error) {
	return nil, till.ErrCapabilityUnavailable
}
