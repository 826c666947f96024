package scheduler

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegister_IdempotentByName(t *testing.T) {
	s := New(testLogger())

	if err := s.Register("report", "0 6 * * *", func() {}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := s.Register("report", "0 6 * * *", func() {}); err != nil {
		t.Fatalf("re-registration failed: %v", err)
	}

	if got := s.Len(); got != 1 {
		t.Errorf("Len() = %d after re-registering the same name, want 1", got)
	}
}

func TestRegister_DistinctNames(t *testing.T) {
	s := New(testLogger())

	if err := s.Register("report", "0 6 * * *", func() {}); err != nil {
		t.Fatal(err)
	}
	if err := s.Register("heartbeat", "0 */6 * * *", func() {}); err != nil {
		t.Fatal(err)
	}

	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestRegister_InvalidSpec(t *testing.T) {
	s := New(testLogger())

	err := s.Register("report", "not a schedule", func() {})
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
	if s.Len() != 0 {
		t.Error("failed registration must not leave an entry behind")
	}
}

func TestRegister_ReplacementKeepsNewSchedule(t *testing.T) {
	s := New(testLogger())

	if err := s.Register("report", "0 6 * * *", func() {}); err != nil {
		t.Fatal(err)
	}
	if err := s.Register("report", "30 7 * * *", func() {}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop(context.Background())

	next := s.Next("report")
	if next.IsZero() {
		t.Fatal("Next() returned zero time for a registered trigger")
	}
	if next.Minute() != 30 || next.Hour() != 7 {
		t.Errorf("next fire = %v, want 07:30", next)
	}
}

func TestNext_UnknownTrigger(t *testing.T) {
	s := New(testLogger())
	if got := s.Next("missing"); !got.IsZero() {
		t.Errorf("Next for unknown trigger = %v, want zero time", got)
	}
}

func TestHeartbeat_AppendsTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.log")
	beat := Heartbeat(path, testLogger())

	beat()
	beat()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("heartbeat file missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("heartbeat wrote %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if _, err := time.Parse(time.RFC3339, line); err != nil {
			t.Errorf("line %q is not RFC3339: %v", line, err)
		}
	}
}
