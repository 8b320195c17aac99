package gateway_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"till-go/internal/gateway"
	"till-go/internal/testutil"
	"till-go/internal/till"
)

func TestDirGateway_GrantedDir(t *testing.T) {
	ctx := context.Background()

	t.Run("no persisted grant is a denial", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		gw := gateway.NewDirGateway(store, nil, till.NewNopLogger())

		_, err := gw.GrantedDir(ctx)
		if !errors.Is(err, till.ErrPermissionDenied) {
			t.Errorf("GrantedDir() error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("valid persisted grant is returned", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		dir := t.TempDir()
		if err := store.SetSetting(ctx, till.SettingExternalDir, dir); err != nil {
			t.Fatalf("SetSetting() error = %v", err)
		}
		gw := gateway.NewDirGateway(store, nil, till.NewNopLogger())

		got, err := gw.GrantedDir(ctx)
		if err != nil {
			t.Fatalf("GrantedDir() error = %v", err)
		}
		if got != dir {
			t.Errorf("GrantedDir() = %q, want %q", got, dir)
		}
	})

	t.Run("grant for a deleted directory is revoked", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		dir := filepath.Join(t.TempDir(), "vanished")
		if err := store.SetSetting(ctx, till.SettingExternalDir, dir); err != nil {
			t.Fatalf("SetSetting() error = %v", err)
		}
		gw := gateway.NewDirGateway(store, nil, till.NewNopLogger())

		_, err := gw.GrantedDir(ctx)
		if !errors.Is(err, till.ErrPermissionDenied) {
			t.Errorf("GrantedDir() error = %v, want ErrPermissionDenied", err)
		}
	})
}

func TestDirGateway_RequestGrant(t *testing.T) {
	ctx := context.Background()

	t.Run("nil prompt means the capability is missing", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		gw := gateway.NewDirGateway(store, nil, till.NewNopLogger())

		_, err := gw.RequestGrant(ctx)
		if !errors.Is(err, till.ErrCapabilityUnavailable) {
			t.Errorf("RequestGrant() error = %v, want ErrCapabilityUnavailable", err)
		}
	})

	t.Run("empty answer is a denial", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		gw := gateway.NewDirGateway(store, gateway.FixedPrompt(""), till.NewNopLogger())

		_, err := gw.RequestGrant(ctx)
		if !errors.Is(err, till.ErrPermissionDenied) {
			t.Errorf("RequestGrant() error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("unusable directory is a denial", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		gw := gateway.NewDirGateway(store, gateway.FixedPrompt(filepath.Join(t.TempDir(), "missing")), till.NewNopLogger())

		_, err := gw.RequestGrant(ctx)
		if !errors.Is(err, till.ErrPermissionDenied) {
			t.Errorf("RequestGrant() error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("granted directory is persisted for reuse", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		dir := t.TempDir()
		gw := gateway.NewDirGateway(store, gateway.FixedPrompt(dir), till.NewNopLogger())

		got, err := gw.RequestGrant(ctx)
		if err != nil {
			t.Fatalf("RequestGrant() error = %v", err)
		}
		if got != dir {
			t.Errorf("RequestGrant() = %q, want %q", got, dir)
		}

		persisted, found, _ := store.GetSetting(ctx, till.SettingExternalDir)
		if !found || persisted != dir {
			t.Errorf("persisted grant = %q (found %v), want %q", persisted, found, dir)
		}
	})
}

func TestDirGateway_Files(t *testing.T) {
	ctx := context.Background()

	t.Run("write and read back", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		gw := gateway.NewDirGateway(store, nil, till.NewNopLogger())
		dir := t.TempDir()

		uri, err := gw.WriteFile(ctx, dir, "out.json", "application/json", []byte(`{}`))
		if err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if uri != filepath.Join(dir, "out.json") {
			t.Errorf("uri = %q, want path under %q", uri, dir)
		}

		data, err := gw.ReadFile(ctx, uri)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(data) != `{}` {
			t.Errorf("content = %q, want {}", data)
		}
	})

	t.Run("write into a vanished directory is a denial", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		gw := gateway.NewDirGateway(store, nil, till.NewNopLogger())

		_, err := gw.WriteFile(ctx, filepath.Join(t.TempDir(), "gone"), "out.json", "application/json", []byte(`{}`))
		if !errors.Is(err, till.ErrPermissionDenied) {
			t.Errorf("WriteFile() error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("reading a missing file is not found", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		gw := gateway.NewDirGateway(store, nil, till.NewNopLogger())

		_, err := gw.ReadFile(ctx, filepath.Join(t.TempDir(), "gone.json"))
		if !errors.Is(err, till.ErrNotFound) {
			t.Errorf("ReadFile() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSaveExternal(t *testing.T) {
	ctx := context.Background()

	t.Run("writes through a cached grant", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		dir := t.TempDir()
		if err := store.SetSetting(ctx, till.SettingExternalDir, dir); err != nil {
			t.Fatalf("SetSetting() error = %v", err)
		}
		gw := gateway.NewDirGateway(store, nil, till.NewNopLogger())

		uri, err := till.SaveExternal(ctx, gw, "out.json", "application/json", []byte(`{}`))
		if err != nil {
			t.Fatalf("SaveExternal() error = %v", err)
		}
		if _, serr := os.Stat(uri); serr != nil {
			t.Errorf("written file missing: %v", serr)
		}
	})

	t.Run("stale grant is cleared and re-requested exactly once", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		stale := t.TempDir()
		if err := store.SetSetting(ctx, till.SettingExternalDir, stale); err != nil {
			t.Fatalf("SetSetting() error = %v", err)
		}

		fresh := t.TempDir()
		prompts := 0
		prompt := func(context.Context) (string, error) {
			prompts++
			return fresh, nil
		}
		gw := gateway.NewDirGateway(store, prompt, till.NewNopLogger())

		// The user revokes the grant by deleting the directory.
		if err := os.RemoveAll(stale); err != nil {
			t.Fatalf("RemoveAll() error = %v", err)
		}

		uri, err := till.SaveExternal(ctx, gw, "out.json", "application/json", []byte(`{}`))
		if err != nil {
			t.Fatalf("SaveExternal() error = %v", err)
		}
		if prompts != 1 {
			t.Errorf("prompts = %d, want exactly 1", prompts)
		}
		if filepath.Dir(uri) != fresh {
			t.Errorf("uri = %q, want file under fresh grant %q", uri, fresh)
		}

		persisted, _, _ := store.GetSetting(ctx, till.SettingExternalDir)
		if persisted != fresh {
			t.Errorf("persisted grant = %q, want %q", persisted, fresh)
		}
	})

	t.Run("second denial propagates", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		gw := gateway.NewDirGateway(store, gateway.FixedPrompt(""), till.NewNopLogger())

		_, err := till.SaveExternal(ctx, gw, "out.json", "application/json", []byte(`{}`))
		if !errors.Is(err, till.ErrPermissionDenied) {
			t.Errorf("SaveExternal() error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("unsupported host reports unavailability", func(t *testing.T) {
		_, err := till.SaveExternal(ctx, gateway.Unsupported{}, "out.json", "application/json", []byte(`{}`))
		if !errors.Is(err, till.ErrCapabilityUnavailable) {
			t.Errorf("SaveExternal() error = %v, want ErrCapabilityUnavailable", err)
		}
	})
}
