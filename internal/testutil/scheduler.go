package testutil

import (
	"context"
	"sync"
	"time"

	"till-go/internal/till"
)

// ManualScheduler records registered tasks and runs them only when a test
// calls Fire. No goroutines, no timers.
type ManualScheduler struct {
	mu        sync.Mutex
	tasks     map[string]till.Task
	intervals map[string]time.Duration
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{
		tasks:     make(map[string]till.Task),
		intervals: make(map[string]time.Duration),
	}
}

func (s *ManualScheduler) Available() bool { return true }

func (s *ManualScheduler) Register(name string, interval time.Duration, task till.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = task
	s.intervals[name] = interval
	return nil
}

func (s *ManualScheduler) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, name)
	delete(s.intervals, name)
	return nil
}

// Registered reports whether a task with the given name is scheduled, and
// at what interval.
func (s *ManualScheduler) Registered(name string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.intervals[name]
	return d, ok
}

// Fire runs the named task once, as the ticker would.
func (s *ManualScheduler) Fire(ctx context.Context, name string) error {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return task(ctx)
}

var _ till.Scheduler = (*ManualScheduler)(nil)
