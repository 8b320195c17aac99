package till_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"till-go/internal/testutil"
	"till-go/internal/till"
)

// brokenPlatform has no hardware id to offer.
type brokenPlatform struct{}

func (brokenPlatform) HardwareID() (string, error) {
	return "", errors.New("unsupported platform")
}

func TestDeviceIdentity_DeviceID(t *testing.T) {
	ctx := context.Background()

	t.Run("derives from the platform and persists", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		identity := till.NewDeviceIdentity(store, fixedPlatform{id: "hw-123"}, testutil.FixedClock(), till.NewNopLogger(), "till")

		id := identity.DeviceID(ctx)
		if id != "hw-123" {
			t.Errorf("DeviceID() = %q, want %q", id, "hw-123")
		}

		v, found, err := store.GetSetting(ctx, till.SettingDeviceID)
		if err != nil || !found {
			t.Fatalf("GetSetting() = %q, %v, %v; want persisted id", v, found, err)
		}
		if v != "hw-123" {
			t.Errorf("persisted id = %q, want %q", v, "hw-123")
		}
	})

	t.Run("prefers a previously persisted id", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		if err := store.SetSetting(ctx, till.SettingDeviceID, "original-id"); err != nil {
			t.Fatalf("SetSetting() error = %v", err)
		}

		identity := till.NewDeviceIdentity(store, fixedPlatform{id: "hw-456"}, testutil.FixedClock(), till.NewNopLogger(), "till")
		if id := identity.DeviceID(ctx); id != "original-id" {
			t.Errorf("DeviceID() = %q, want persisted %q", id, "original-id")
		}
	})

	t.Run("generates a fallback id when the platform has none", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		identity := till.NewDeviceIdentity(store, brokenPlatform{}, testutil.FixedClock(), till.NewNopLogger(), "till")

		id := identity.DeviceID(ctx)
		if !strings.HasPrefix(id, "till-") {
			t.Errorf("DeviceID() = %q, want generated id with app prefix", id)
		}
	})

	t.Run("is stable across calls even when persistence fails", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.SettingErr = errors.New("disk full")
		identity := till.NewDeviceIdentity(store, fixedPlatform{id: "hw-789"}, testutil.FixedClock(), till.NewNopLogger(), "till")

		first := identity.DeviceID(ctx)
		second := identity.DeviceID(ctx)
		if first == "" {
			t.Fatal("DeviceID() = \"\", want an id despite persistence failure")
		}
		if first != second {
			t.Errorf("DeviceID() unstable: %q then %q", first, second)
		}
	})
}
