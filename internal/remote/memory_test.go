package remote

import (
	"context"
	"testing"
	"time"

	"till-go/internal/model"
)

func TestMemorySnapshots(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch of an unknown tenant is nil, not an error", func(t *testing.T) {
		snaps := NewMemorySnapshots()

		snap, err := snaps.Fetch(ctx, "nobody")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if snap != nil {
			t.Errorf("Fetch() = %+v, want nil for absent tenant", snap)
		}
	})

	t.Run("upsert keeps one row per tenant", func(t *testing.T) {
		snaps := NewMemorySnapshots()
		first := &model.Snapshot{
			CompanyKey: "company-1",
			DeviceID:   "device-a",
			Payload:    []byte(`{"v":1}`),
			UpdatedAt:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		}
		second := &model.Snapshot{
			CompanyKey: "company-1",
			DeviceID:   "device-b",
			Payload:    []byte(`{"v":2}`),
			UpdatedAt:  time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC),
		}

		if err := snaps.Upsert(ctx, first); err != nil {
			t.Fatalf("first Upsert() error = %v", err)
		}
		if err := snaps.Upsert(ctx, second); err != nil {
			t.Fatalf("second Upsert() error = %v", err)
		}

		snap, err := snaps.Fetch(ctx, "company-1")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if snap.DeviceID != "device-b" || string(snap.Payload) != `{"v":2}` {
			t.Errorf("snapshot = %+v, want the second write to win", snap)
		}
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		snaps := NewMemorySnapshots()
		if err := snaps.Upsert(ctx, &model.Snapshot{CompanyKey: "company-1", Payload: []byte(`a`)}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if err := snaps.Upsert(ctx, &model.Snapshot{CompanyKey: "company-2", Payload: []byte(`b`)}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		snap, _ := snaps.Fetch(ctx, "company-1")
		if string(snap.Payload) != "a" {
			t.Errorf("company-1 payload = %q, want a", snap.Payload)
		}
	})

	t.Run("callers cannot mutate stored rows", func(t *testing.T) {
		snaps := NewMemorySnapshots()
		payload := []byte(`original`)
		if err := snaps.Upsert(ctx, &model.Snapshot{CompanyKey: "company-1", Payload: payload}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		payload[0] = 'X'

		snap, _ := snaps.Fetch(ctx, "company-1")
		if string(snap.Payload) != "original" {
			t.Errorf("stored payload = %q, want original untouched", snap.Payload)
		}

		snap.Payload[0] = 'Y'
		again, _ := snaps.Fetch(ctx, "company-1")
		if string(again.Payload) != "original" {
			t.Errorf("stored payload = %q, want original after fetched copy mutation", again.Payload)
		}
	})
}
