package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"reportplane/pkg/status"
)

func TestStatusCommand_Success(t *testing.T) {
	resetViper()

	lastRun := time.Now().Add(-2 * time.Hour)
	nextRun := time.Now().Add(4 * time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/status" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		resp := status.Response{
			Project:       "analytics",
			Warehouse:     "snowflake",
			StartedAt:     time.Now().Add(-3 * time.Hour),
			UptimeSeconds: 10800,
			LastRunAt:     &lastRun,
			NextRunAt:     &nextRun,
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"status"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "Project:    analytics") {
		t.Errorf("project missing from output: %s", out)
	}
	if !strings.Contains(out, "Warehouse:  snowflake") {
		t.Errorf("warehouse missing from output: %s", out)
	}
	if !strings.Contains(out, "Uptime:     10800s") {
		t.Errorf("uptime missing from output: %s", out)
	}
	if !strings.Contains(out, "Next run:") {
		t.Errorf("next run missing from output: %s", out)
	}
	if strings.Contains(out, "Last error:") {
		t.Errorf("error line printed for a clean run: %s", out)
	}
}

func TestStatusCommand_DaemonError(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(status.ErrorResponse{Error: "scheduler stalled", Code: "internal"})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"status"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for non-200 daemon response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestStatusCommand_DaemonUnreachable(t *testing.T) {
	resetViper()
	viper.Set("url", "http://127.0.0.1:1")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"status"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error when the daemon is unreachable")
	}
}
