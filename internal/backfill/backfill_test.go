package backfill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reportplane/internal/config"
	"reportplane/internal/toolrunner"
	"reportplane/internal/warehouse"
)

// fakeRuntime records every invocation and fails the ones listed in failOn.
type fakeRuntime struct {
	started []toolrunner.StartOptions
	failOn  map[int]int // invocation index -> exit code
}

func (f *fakeRuntime) Start(ctx context.Context, opts toolrunner.StartOptions) (toolrunner.Handle, error) {
	idx := len(f.started)
	f.started = append(f.started, opts)
	if code, ok := f.failOn[idx]; ok {
		return &fakeHandle{exitCode: code}, nil
	}
	return &fakeHandle{}, nil
}

type fakeHandle struct {
	exitCode int
}

func (h *fakeHandle) Wait(ctx context.Context) (toolrunner.ExitResult, error) {
	return toolrunner.ExitResult{ExitCode: h.exitCode}, nil
}

func (h *fakeHandle) Stop(ctx context.Context) error { return nil }

func (h *fakeHandle) StreamLogs(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	profilesDir := t.TempDir()
	profile := `analytics:
  target: prod
  outputs:
    prod:
      type: snowflake
      threads: 4
`
	if err := os.WriteFile(filepath.Join(profilesDir, "profiles.yml"), []byte(profile), 0o600); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		Project:         "analytics",
		TransformTool:   "dbt",
		WorkspaceDir:    t.TempDir(),
		ProfilesDir:     profilesDir,
		LogsDir:         t.TempDir(),
		BackfillThreads: 16,
	}
}

func newRunner(t *testing.T, cfg *config.Config, rt toolrunner.Runtime) *Runner {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tools := toolrunner.NewRunner(rt, log, cfg.LogsDir)
	bundle := &warehouse.Bundle{Kind: config.WarehouseSnowflake, Env: map[string]string{"DBT_PROFILES_DIR": cfg.ProfilesDir}}
	return New(cfg, tools, bundle, nil, log)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseRange(t *testing.T) {
	from, to, err := ParseRange("2024-01-01", "2024-01-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from.Format("2006-01-02") != "2024-01-01" || to.Format("2006-01-02") != "2024-01-03" {
		t.Errorf("range = [%v, %v]", from, to)
	}

	if _, _, err := ParseRange("01/01/2024", "2024-01-03"); err == nil {
		t.Error("expected error for non-ISO start date")
	}
	if _, _, err := ParseRange("2024-01-03", "2024-01-01"); err == nil {
		t.Error("expected error for end before start")
	}

	// A single-day range is valid.
	if _, _, err := ParseRange("2024-01-01", "2024-01-01"); err != nil {
		t.Errorf("single-day range rejected: %v", err)
	}
}

func TestRun_OneInvocationPerDay(t *testing.T) {
	cfg := testConfig(t)
	rt := &fakeRuntime{}
	r := newRunner(t, cfg, rt)

	if err := r.Run(context.Background(), day("2024-01-01"), day("2024-01-03")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rt.started) != 3 {
		t.Fatalf("got %d invocations, want 3", len(rt.started))
	}

	wantVars := []string{
		`{start_time: "2024-01-01 00:00:00", end_time: "2024-01-02 00:00:00"}`,
		`{start_time: "2024-01-02 00:00:00", end_time: "2024-01-03 00:00:00"}`,
		`{start_time: "2024-01-03 00:00:00", end_time: "2024-01-04 00:00:00"}`,
	}
	for i, opts := range rt.started {
		if opts.Name != "dbt" {
			t.Errorf("invocation %d tool = %q, want dbt", i, opts.Name)
		}
		args := strings.Join(opts.Args, " ")
		if !strings.Contains(args, "run --select tag:backfill") {
			t.Errorf("invocation %d args = %q", i, args)
		}
		if !strings.Contains(args, wantVars[i]) {
			t.Errorf("invocation %d vars: got %q, want substring %q", i, args, wantVars[i])
		}
		if opts.Env["DBT_PROFILES_DIR"] != cfg.ProfilesDir {
			t.Errorf("invocation %d missing credential env", i)
		}
	}
}

func TestRun_SingleDay(t *testing.T) {
	cfg := testConfig(t)
	rt := &fakeRuntime{}
	r := newRunner(t, cfg, rt)

	if err := r.Run(context.Background(), day("2024-06-10"), day("2024-06-10")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rt.started) != 1 {
		t.Errorf("got %d invocations, want 1", len(rt.started))
	}
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	cfg := testConfig(t)
	rt := &fakeRuntime{failOn: map[int]int{1: 2}}
	r := newRunner(t, cfg, rt)

	err := r.Run(context.Background(), day("2024-01-01"), day("2024-01-05"))
	if err == nil {
		t.Fatal("expected error when a day fails")
	}
	if !strings.Contains(err.Error(), "2024-01-02") {
		t.Errorf("error should name the failing day: %v", err)
	}
	if len(rt.started) != 2 {
		t.Errorf("got %d invocations after failure on the second day, want 2", len(rt.started))
	}
}

func TestRun_RaisesProfileThreadsFirst(t *testing.T) {
	cfg := testConfig(t)
	rt := &fakeRuntime{}
	r := newRunner(t, cfg, rt)

	if err := r.Run(context.Background(), day("2024-01-01"), day("2024-01-01")); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(cfg.ProfilePath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), fmt.Sprintf("threads: %d", cfg.BackfillThreads)) {
		t.Errorf("profile threads not raised: %s", raw)
	}
}

func TestRun_MissingProfileFailsBeforeAnyInvocation(t *testing.T) {
	cfg := testConfig(t)
	if err := os.Remove(cfg.ProfilePath()); err != nil {
		t.Fatal(err)
	}
	rt := &fakeRuntime{}
	r := newRunner(t, cfg, rt)

	if err := r.Run(context.Background(), day("2024-01-01"), day("2024-01-03")); err == nil {
		t.Fatal("expected error when the profile is missing")
	}
	if len(rt.started) != 0 {
		t.Errorf("tool invoked %d times despite profile failure, want 0", len(rt.started))
	}
}
