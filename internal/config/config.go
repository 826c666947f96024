// Package config builds the immutable run configuration from environment
// variables. Every component receives a *Config explicitly; nothing else in
// the process reads the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// WarehouseKind is the target analytical database platform.
type WarehouseKind string

const (
	WarehouseBigQuery  WarehouseKind = "bigquery"
	WarehouseSnowflake WarehouseKind = "snowflake"
	WarehouseRedshift  WarehouseKind = "redshift"
	WarehouseFabric    WarehouseKind = "fabric"
)

// Kinds lists the supported warehouse kinds. The set is closed: anything
// else is a configuration error, never a silent no-op.
func Kinds() []WarehouseKind {
	return []WarehouseKind{WarehouseBigQuery, WarehouseSnowflake, WarehouseRedshift, WarehouseFabric}
}

// ParseWarehouseKind validates a warehouse selector against the closed set.
func ParseWarehouseKind(s string) (WarehouseKind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unrecognized WAREHOUSE %q (supported: bigquery, snowflake, redshift, fabric)", s)
}

// CredentialSource selects where warehouse credentials come from.
type CredentialSource string

const (
	// SourceSecretManagerSA reads secrets from the cloud secret manager,
	// authenticating with a mounted service-account key file.
	SourceSecretManagerSA CredentialSource = "secret-manager-service-account"
	// SourceSecretManagerDefault reads secrets from the cloud secret manager
	// using the runtime's default identity.
	SourceSecretManagerDefault CredentialSource = "secret-manager-default"
	// SourceMounted reads base64-encoded secret files mounted into the
	// container at fixed per-warehouse paths.
	SourceMounted CredentialSource = "mounted"
	// SourceManual expects the operator to have placed finished profile and
	// key files at their expected paths before startup.
	SourceManual CredentialSource = "manual"
)

// ParseCredentialSource validates a credential-source selector.
func ParseCredentialSource(s string) (CredentialSource, error) {
	switch CredentialSource(s) {
	case SourceSecretManagerSA, SourceSecretManagerDefault, SourceMounted, SourceManual:
		return CredentialSource(s), nil
	}
	return "", fmt.Errorf("unrecognized CREDENTIAL_SOURCE %q", s)
}

// Config holds all configuration for one run. Built once at startup,
// immutable thereafter.
type Config struct {
	// Version-control settings for the transformation project.
	RepoURL    string
	RepoToken  string
	ProjectDir string // subdirectory of the repository holding the project
	Project    string // logical project name, used in profile and log naming

	// Warehouse and credential selection.
	Warehouse        WarehouseKind
	CredentialSource CredentialSource
	GCPProject       string // secret-manager project, required for both secret-manager sources
	ServiceAccount   string // path to the service-account key file (SourceSecretManagerSA)
	SecretPrefix     string // secret-manager name prefix, default "reportplane"
	MountedSecretDir string // root of mounted secret files, default /var/secrets

	// Scheduling.
	Schedule          string // cron expression for the report trigger
	HeartbeatSchedule string

	// Report window selection. Yearly wins over quarterly; neither means
	// monthly. Granularity is always one day.
	ReportYearly    bool
	ReportQuarterly bool

	// Notification channels. The two channels deliberately use different
	// lookback windows.
	SlackEnabled bool
	TeamsEnabled bool

	// External tools.
	TransformTool string // transformation tool binary, default "dbt"
	AnalysisTool  string // analysis tool binary, default "edr"
	ToolRuntime   string // "exec" or "docker"
	ToolImage     string // image for the docker tool runtime

	// Filesystem layout.
	WorkspaceDir string
	ProfilesDir  string
	LogsDir      string

	// Network.
	ReportPort int // port the analysis tool's report server binds
	HealthPort int // side port for /healthz, /status, /metrics

	// Supervision.
	ReadyGrace   time.Duration
	PollInterval time.Duration

	// Backfill.
	BackfillStart   string // inclusive ISO date, backfill entrypoint only
	BackfillEnd     string
	BackfillThreads int

	// Observability.
	OTELEndpoint string
	Debug        bool
}

// Load reads configuration from the environment, optionally seeded from a
// .env file when one exists in the working directory.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is the normal case in containers.
	_ = godotenv.Load()

	cfg := &Config{
		RepoURL:    os.Getenv("REPO_URL"),
		RepoToken:  os.Getenv("REPO_TOKEN"),
		ProjectDir: os.Getenv("PROJECT_DIR"),
		Project:    os.Getenv("PROJECT_NAME"),

		GCPProject:     os.Getenv("GCP_PROJECT"),
		ServiceAccount: getenvDefault("GCP_SERVICE_ACCOUNT_FILE", "/var/secrets/gcp/service-account.json"),
		SecretPrefix:   getenvDefault("SECRET_PREFIX", "reportplane"),

		MountedSecretDir: getenvDefault("MOUNTED_SECRET_DIR", "/var/secrets"),

		Schedule:          getenvDefault("SCHEDULE", "0 6 * * *"),
		HeartbeatSchedule: getenvDefault("HEARTBEAT_SCHEDULE", "0 */6 * * *"),

		TransformTool: getenvDefault("TRANSFORM_TOOL", "dbt"),
		AnalysisTool:  getenvDefault("ANALYSIS_TOOL", "edr"),
		ToolRuntime:   getenvDefault("TOOL_RUNTIME", "exec"),
		ToolImage:     os.Getenv("TOOL_IMAGE"),

		WorkspaceDir: getenvDefault("WORKSPACE_DIR", "/workspace"),
		ProfilesDir:  getenvDefault("PROFILES_DIR", defaultProfilesDir()),
		LogsDir:      getenvDefault("LOGS_DIR", "/var/log/reportplane"),

		BackfillStart: os.Getenv("BACKFILL_START_DATE"),
		BackfillEnd:   os.Getenv("BACKFILL_END_DATE"),

		OTELEndpoint: getenvDefault("OTEL_ENDPOINT", "localhost:4317"),
	}

	if cfg.RepoURL == "" {
		return nil, fmt.Errorf("REPO_URL is required")
	}
	if cfg.Project == "" {
		return nil, fmt.Errorf("PROJECT_NAME is required")
	}

	kind, err := ParseWarehouseKind(os.Getenv("WAREHOUSE"))
	if err != nil {
		return nil, err
	}
	cfg.Warehouse = kind

	source, err := ParseCredentialSource(getenvDefault("CREDENTIAL_SOURCE", string(SourceMounted)))
	if err != nil {
		return nil, err
	}
	cfg.CredentialSource = source

	if (source == SourceSecretManagerSA || source == SourceSecretManagerDefault) && cfg.GCPProject == "" {
		return nil, fmt.Errorf("GCP_PROJECT is required when CREDENTIAL_SOURCE is %s", source)
	}

	// Validate cron expressions up front so a typo fails the whole startup
	// instead of the first scheduled fire.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE %q: %w", cfg.Schedule, err)
	}
	if _, err := parser.Parse(cfg.HeartbeatSchedule); err != nil {
		return nil, fmt.Errorf("invalid HEARTBEAT_SCHEDULE %q: %w", cfg.HeartbeatSchedule, err)
	}

	if cfg.ToolRuntime != "exec" && cfg.ToolRuntime != "docker" {
		return nil, fmt.Errorf("invalid TOOL_RUNTIME %q (supported: exec, docker)", cfg.ToolRuntime)
	}
	if cfg.ToolRuntime == "docker" && cfg.ToolImage == "" {
		return nil, fmt.Errorf("TOOL_IMAGE is required when TOOL_RUNTIME is docker")
	}

	cfg.ReportYearly, err = getenvBool("YEARLY_REPORT", false)
	if err != nil {
		return nil, err
	}
	cfg.ReportQuarterly, err = getenvBool("QUARTERLY_REPORT", false)
	if err != nil {
		return nil, err
	}
	cfg.SlackEnabled, err = getenvBool("SLACK_NOTIFICATIONS_ENABLED", false)
	if err != nil {
		return nil, err
	}
	cfg.TeamsEnabled, err = getenvBool("TEAMS_NOTIFICATIONS_ENABLED", false)
	if err != nil {
		return nil, err
	}
	cfg.Debug, err = getenvBool("DEBUG", false)
	if err != nil {
		return nil, err
	}

	cfg.ReportPort, err = getenvInt("REPORT_PORT", 8085)
	if err != nil {
		return nil, err
	}
	cfg.HealthPort, err = getenvInt("HEALTH_PORT", 8086)
	if err != nil {
		return nil, err
	}
	cfg.BackfillThreads, err = getenvInt("BACKFILL_THREADS", 16)
	if err != nil {
		return nil, err
	}

	cfg.ReadyGrace, err = getenvDuration("READY_GRACE", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.PollInterval, err = getenvDuration("POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ProjectPath is the absolute path of the transformation project inside the
// cloned working copy.
func (c *Config) ProjectPath() string {
	if c.ProjectDir == "" {
		return filepath.Join(c.WorkspaceDir, "repo")
	}
	return filepath.Join(c.WorkspaceDir, "repo", c.ProjectDir)
}

// ClonePath is the root of the cloned repository.
func (c *Config) ClonePath() string {
	return filepath.Join(c.WorkspaceDir, "repo")
}

// ProfilePath is the warehouse profile file consumed by both external tools.
func (c *Config) ProfilePath() string {
	return filepath.Join(c.ProfilesDir, "profiles.yml")
}

func defaultProfilesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/root/.dbt"
	}
	return filepath.Join(home, ".dbt")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
