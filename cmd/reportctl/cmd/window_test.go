package cmd

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"reportplane/internal/window"
)

func runWindowCommand(t *testing.T, args ...string) string {
	t.Helper()
	resetViper()
	windowYearly = false
	windowQuarterly = false

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs(append([]string{"window"}, args...))

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return stdout.String()
}

func TestWindowCommand_Monthly(t *testing.T) {
	out := runWindowCommand(t)

	win := window.Compute(time.Now(), false, false)
	want := fmt.Sprintf("monthly window: %s .. %s\n", win.StartDate(), win.EndDate())
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestWindowCommand_Quarterly(t *testing.T) {
	out := runWindowCommand(t, "--quarterly")

	win := window.Compute(time.Now(), false, true)
	want := fmt.Sprintf("quarterly window: %s .. %s\n", win.StartDate(), win.EndDate())
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestWindowCommand_Yearly(t *testing.T) {
	out := runWindowCommand(t, "--yearly")

	win := window.Compute(time.Now(), true, false)
	want := fmt.Sprintf("yearly window: %s .. %s\n", win.StartDate(), win.EndDate())
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}
