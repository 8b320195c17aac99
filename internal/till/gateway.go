package till

import (
	"context"
	"errors"
	"fmt"
)

// Gateway abstracts platforms where writing outside the app's private
// storage requires an explicit, revocable, user-granted directory.
type Gateway interface {
	// Available reports whether the host supports external directory
	// grants at all. When false, every other method fails with
	// ErrCapabilityUnavailable and callers use private storage instead.
	Available() bool

	// GrantedDir returns a previously persisted grant if it is still
	// valid, or ErrPermissionDenied when no valid grant is held.
	GrantedDir(ctx context.Context) (string, error)

	// RequestGrant prompts the user for a directory. On denial it fails
	// with ErrPermissionDenied; on success the grant is persisted for
	// reuse and returned.
	RequestGrant(ctx context.Context) (string, error)

	// ClearGrant forgets a persisted grant, forcing the next caller
	// through RequestGrant.
	ClearGrant(ctx context.Context) error

	// WriteFile writes content under the granted directory and returns the
	// resulting file URI.
	WriteFile(ctx context.Context, dir, name, mimeType string, content []byte) (string, error)

	// ReadFile reads a file previously written to a granted location.
	ReadFile(ctx context.Context, uri string) ([]byte, error)
}

// SaveExternal writes a file through the gateway with the uniform retry
// contract: try the cached grant; on a permission-shaped failure, clear the
// grant, request a fresh one, and retry exactly once. A second failure
// propagates. ErrCapabilityUnavailable propagates immediately so the
// caller can fall back to private storage.
func SaveExternal(ctx context.Context, g Gateway, name, mimeType string, content []byte) (string, error) {
	if !g.Available() {
		return "", ErrCapabilityUnavailable
	}

	dir, err := g.GrantedDir(ctx)
	if err == nil {
		uri, werr := g.WriteFile(ctx, dir, name, mimeType, content)
		if werr == nil {
			return uri, nil
		}
		if !errors.Is(werr, ErrPermissionDenied) {
			return "", fmt.Errorf("writing %s: %w", name, werr)
		}
		// The grant went stale (directory moved or deleted). Fall through
		// to a fresh request.
		if cerr := g.ClearGrant(ctx); cerr != nil {
			return "", fmt.Errorf("clearing stale grant: %w", cerr)
		}
	} else if !errors.Is(err, ErrPermissionDenied) {
		return "", err
	}

	dir, err = g.RequestGrant(ctx)
	if err != nil {
		return "", err
	}

	uri, err := g.WriteFile(ctx, dir, name, mimeType, content)
	if err != nil {
		return "", fmt.Errorf("writing %s after re-grant: %w", name, err)
	}
	return uri, nil
}
