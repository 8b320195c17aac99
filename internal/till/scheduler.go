package till

import (
	"context"
	"time"
)

// Task is one unit of scheduled background work. A failing run is reported
// to the scheduler, never thrown past it.
type Task func(ctx context.Context) error

// Scheduler provides an interface for the host's background-task facility.
type Scheduler interface {
	// Available reports whether background execution exists in this host
	// at all. When false, Register and Unregister are silent no-ops.
	Available() bool

	// Register schedules task to run every interval under the given name.
	// Registering a name that is already registered is a no-op.
	Register(name string, interval time.Duration, task Task) error

	// Unregister cancels a scheduled task. Unknown names are a no-op.
	Unregister(name string) error
}
