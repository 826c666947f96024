// Package scheduler runs the periodic triggers in-process. Registration is
// idempotent by job name: re-registering replaces the previous entry, so a
// restart never accumulates duplicate triggers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner with named, replaceable entries.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a stopped Scheduler using standard 5-field cron expressions.
func New(log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// Register installs a trigger under a name. An existing entry with the same
// name is removed first.
func (s *Scheduler) Register(name, spec string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.entries[name]; exists {
		s.cron.Remove(id)
		delete(s.entries, name)
	}

	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("failed to register trigger %q (%s): %w", name, spec, err)
	}
	s.entries[name] = id
	s.log.Info("trigger registered", "name", name, "schedule", spec)
	return nil
}

// Len reports the number of installed triggers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Next returns the next fire time of a named trigger. The zero time means
// the trigger is unknown or the scheduler has not started yet.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start begins firing triggers.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts new fires and waits for in-flight jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("shutdown deadline reached with scheduled jobs still running")
	}
}

// Heartbeat returns a job that appends an RFC3339 timestamp to the
// health-check log. External monitoring tails this file to detect a stalled
// scheduler.
func Heartbeat(path string, log *slog.Logger) func() {
	return func() {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Error("heartbeat failed", "error", err, "file", path)
			return
		}
		defer f.Close()
		if _, err := f.WriteString(time.Now().Format(time.RFC3339) + "\n"); err != nil {
			log.Error("heartbeat write failed", "error", err, "file", path)
		}
	}
}
