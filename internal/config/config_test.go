package config

import (
	"strings"
	"testing"
	"time"
)

// setRequired sets the minimum environment a successful Load needs.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("REPO_URL", "https://example.com/org/analytics.git")
	t.Setenv("PROJECT_NAME", "analytics")
	t.Setenv("WAREHOUSE", "bigquery")
}

func TestLoad_RequiresRepoURL(t *testing.T) {
	setRequired(t)
	t.Setenv("REPO_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when REPO_URL is missing")
	}
	if err.Error() != "REPO_URL is required" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_RequiresProjectName(t *testing.T) {
	setRequired(t)
	t.Setenv("PROJECT_NAME", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when PROJECT_NAME is missing")
	}
}

func TestLoad_RejectsUnknownWarehouse(t *testing.T) {
	setRequired(t)
	t.Setenv("WAREHOUSE", "teradata")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unrecognized warehouse kind")
	}
	if !strings.Contains(err.Error(), "teradata") {
		t.Errorf("error should name the rejected value, got %v", err)
	}
}

func TestLoad_RejectsUnknownCredentialSource(t *testing.T) {
	setRequired(t)
	t.Setenv("CREDENTIAL_SOURCE", "vault")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unrecognized credential source")
	}
}

func TestLoad_SecretManagerRequiresProject(t *testing.T) {
	setRequired(t)
	t.Setenv("CREDENTIAL_SOURCE", "secret-manager-default")
	t.Setenv("GCP_PROJECT", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when GCP_PROJECT is missing for secret-manager source")
	}
}

func TestLoad_RejectsInvalidSchedule(t *testing.T) {
	setRequired(t)
	t.Setenv("SCHEDULE", "not a cron expression")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid SCHEDULE")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule != "0 6 * * *" {
		t.Errorf("expected default schedule 0 6 * * *, got %s", cfg.Schedule)
	}
	if cfg.HeartbeatSchedule != "0 */6 * * *" {
		t.Errorf("expected default heartbeat schedule 0 */6 * * *, got %s", cfg.HeartbeatSchedule)
	}
	if cfg.CredentialSource != SourceMounted {
		t.Errorf("expected default credential source mounted, got %s", cfg.CredentialSource)
	}
	if cfg.TransformTool != "dbt" || cfg.AnalysisTool != "edr" {
		t.Errorf("unexpected default tools: %s, %s", cfg.TransformTool, cfg.AnalysisTool)
	}
	if cfg.ReportPort != 8085 {
		t.Errorf("expected ReportPort 8085, got %d", cfg.ReportPort)
	}
	if cfg.HealthPort != 8086 {
		t.Errorf("expected HealthPort 8086, got %d", cfg.HealthPort)
	}
	if cfg.BackfillThreads != 16 {
		t.Errorf("expected BackfillThreads 16, got %d", cfg.BackfillThreads)
	}
	if cfg.ReadyGrace != 10*time.Second {
		t.Errorf("expected ReadyGrace 10s, got %v", cfg.ReadyGrace)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("expected PollInterval 30s, got %v", cfg.PollInterval)
	}
	if cfg.SlackEnabled || cfg.TeamsEnabled {
		t.Error("notifications should default to disabled")
	}
}

func TestLoad_DockerRuntimeRequiresImage(t *testing.T) {
	setRequired(t)
	t.Setenv("TOOL_RUNTIME", "docker")
	t.Setenv("TOOL_IMAGE", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when TOOL_RUNTIME is docker without TOOL_IMAGE")
	}
}

func TestParseWarehouseKind_AllVariants(t *testing.T) {
	for _, kind := range []string{"bigquery", "snowflake", "redshift", "fabric"} {
		got, err := ParseWarehouseKind(kind)
		if err != nil {
			t.Errorf("ParseWarehouseKind(%q) returned error: %v", kind, err)
		}
		if string(got) != kind {
			t.Errorf("ParseWarehouseKind(%q) = %q", kind, got)
		}
	}
}

func TestProjectPath(t *testing.T) {
	cfg := &Config{WorkspaceDir: "/workspace", ProjectDir: "transform"}
	if got := cfg.ProjectPath(); got != "/workspace/repo/transform" {
		t.Errorf("unexpected project path: %s", got)
	}

	cfg.ProjectDir = ""
	if got := cfg.ProjectPath(); got != "/workspace/repo" {
		t.Errorf("unexpected project path without subdirectory: %s", got)
	}
}
