package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"till-go/internal/till"
)

func TestTicker(t *testing.T) {
	t.Run("runs a registered task repeatedly", func(t *testing.T) {
		ticker := NewTicker(till.NewNopLogger())
		defer ticker.Close()

		var runs atomic.Int32
		err := ticker.Register("tick", 10*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		deadline := time.After(2 * time.Second)
		for runs.Load() < 2 {
			select {
			case <-deadline:
				t.Fatalf("runs = %d after 2s, want >= 2", runs.Load())
			case <-time.After(5 * time.Millisecond):
			}
		}
	})

	t.Run("task failures do not stop the schedule", func(t *testing.T) {
		ticker := NewTicker(till.NewNopLogger())
		defer ticker.Close()

		var runs atomic.Int32
		err := ticker.Register("flaky", 10*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		})
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		deadline := time.After(2 * time.Second)
		for runs.Load() < 3 {
			select {
			case <-deadline:
				t.Fatalf("runs = %d after 2s, want >= 3 despite failures", runs.Load())
			case <-time.After(5 * time.Millisecond):
			}
		}
	})

	t.Run("re-registering a name is a no-op", func(t *testing.T) {
		ticker := NewTicker(till.NewNopLogger())
		defer ticker.Close()

		var first, second atomic.Int32
		ticker.Register("task", 10*time.Millisecond, func(context.Context) error {
			first.Add(1)
			return nil
		})
		ticker.Register("task", 10*time.Millisecond, func(context.Context) error {
			second.Add(1)
			return nil
		})

		deadline := time.After(2 * time.Second)
		for first.Load() < 2 {
			select {
			case <-deadline:
				t.Fatalf("first runs = %d after 2s, want >= 2", first.Load())
			case <-time.After(5 * time.Millisecond):
			}
		}
		if second.Load() != 0 {
			t.Errorf("second task ran %d times, want 0", second.Load())
		}
	})

	t.Run("unregister stops the task", func(t *testing.T) {
		ticker := NewTicker(till.NewNopLogger())
		defer ticker.Close()

		var runs atomic.Int32
		ticker.Register("task", 5*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return nil
		})

		deadline := time.After(2 * time.Second)
		for runs.Load() < 1 {
			select {
			case <-deadline:
				t.Fatal("task never ran")
			case <-time.After(2 * time.Millisecond):
			}
		}

		if err := ticker.Unregister("task"); err != nil {
			t.Fatalf("Unregister() error = %v", err)
		}
		after := runs.Load()
		time.Sleep(30 * time.Millisecond)
		// One in-flight run may still land; the count must then stay put.
		if got := runs.Load(); got > after+1 {
			t.Errorf("runs grew from %d to %d after unregister", after, got)
		}

		if err := ticker.Unregister("unknown"); err != nil {
			t.Errorf("Unregister(unknown) error = %v, want nil", err)
		}
	})

	t.Run("close waits for tasks and stops everything", func(t *testing.T) {
		ticker := NewTicker(till.NewNopLogger())

		var runs atomic.Int32
		ticker.Register("a", 5*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return nil
		})
		ticker.Register("b", 5*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return nil
		})

		ticker.Close()
		after := runs.Load()
		time.Sleep(30 * time.Millisecond)
		if got := runs.Load(); got != after {
			t.Errorf("runs grew from %d to %d after close", after, got)
		}
	})
}

func TestNoop(t *testing.T) {
	n := Noop{}
	if n.Available() {
		t.Error("Available() = true, want false")
	}
	if err := n.Register("x", time.Hour, func(context.Context) error { return nil }); err != nil {
		t.Errorf("Register() error = %v, want nil", err)
	}
	if err := n.Unregister("x"); err != nil {
		t.Errorf("Unregister() error = %v, want nil", err)
	}
}
