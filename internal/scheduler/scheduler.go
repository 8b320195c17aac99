// Package scheduler implements the background-task port on real timers,
// plus a no-op variant for hosts without background execution.
package scheduler

import (
	"context"
	"sync"
	"time"

	"till-go/internal/till"
)

// Ticker runs each registered task on its own interval timer until the
// task is unregistered or the scheduler is closed.
type Ticker struct {
	logger till.Logger

	mu    sync.Mutex
	tasks map[string]chan struct{} // name -> stop channel
	wg    sync.WaitGroup
}

func NewTicker(logger till.Logger) *Ticker {
	return &Ticker{logger: logger, tasks: make(map[string]chan struct{})}
}

func (t *Ticker) Available() bool { return true }

// Register schedules task every interval. Re-registering a name that is
// already scheduled is a no-op.
func (t *Ticker) Register(name string, interval time.Duration, task till.Task) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.tasks[name]; exists {
		return nil
	}

	stop := make(chan struct{})
	t.tasks[name] = stop
	t.wg.Add(1)

	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// A failing run is reported here and the schedule
				// continues; tasks never take the scheduler down.
				if err := task(context.Background()); err != nil {
					t.logger.Warn("scheduled task failed", "task", name, "error", err)
				}
			}
		}
	}()

	t.logger.Info("task scheduled", "task", name, "interval", interval)
	return nil
}

// Unregister stops a scheduled task. Unknown names are a no-op.
func (t *Ticker) Unregister(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	stop, exists := t.tasks[name]
	if !exists {
		return nil
	}
	close(stop)
	delete(t.tasks, name)
	t.logger.Info("task unscheduled", "task", name)
	return nil
}

// Close stops every task and waits for in-flight runs to finish.
func (t *Ticker) Close() {
	t.mu.Lock()
	for name, stop := range t.tasks {
		close(stop)
		delete(t.tasks, name)
	}
	t.mu.Unlock()
	t.wg.Wait()
}

// Noop is the scheduler for hosts without background execution: both
// registration paths are silent no-ops rather than errors.
type Noop struct{}

func (Noop) Available() bool                                  { return false }
func (Noop) Register(string, time.Duration, till.Task) error  { return nil }
func (Noop) Unregister(string) error                          { return nil }
