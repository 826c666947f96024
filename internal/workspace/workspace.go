// Package workspace maintains the local working copy of the transformation
// project: clone, force-sync, compatibility repair, and dependency install.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"reportplane/internal/config"
	"reportplane/internal/toolrunner"
)

const projectConfigFile = "dbt_project.yml"

// Bootstrapper ensures the working copy exists and is current.
type Bootstrapper struct {
	cfg *config.Config
	git *toolrunner.Runner // always an exec runner; git lives in this container
	log *slog.Logger
}

// New creates a Bootstrapper. Git always runs through the exec runtime
// regardless of the configured tool runtime.
func New(cfg *config.Config, log *slog.Logger) *Bootstrapper {
	rt := toolrunner.NewExecRuntime(cfg.WorkspaceDir)
	return &Bootstrapper{
		cfg: cfg,
		git: toolrunner.NewRunner(rt, log, cfg.LogsDir),
		log: log,
	}
}

// Bootstrap prepares the workspace at startup: fresh clone (or sync of a
// pre-existing copy), then the compatibility repair of the project config.
func (b *Bootstrapper) Bootstrap(ctx context.Context) error {
	if err := b.Sync(ctx); err != nil {
		return err
	}
	return b.RepairProjectConfig()
}

// Clone creates a fresh working copy.
func (b *Bootstrapper) Clone(ctx context.Context) error {
	cloneURL, err := b.authenticatedURL()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(b.cfg.WorkspaceDir, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	b.log.Info("cloning transformation project", "url", RedactURL(b.cfg.RepoURL), "path", b.cfg.ClonePath())
	err = b.git.Run(ctx, toolrunner.StartOptions{
		Name: "git",
		Args: []string{"clone", cloneURL, b.cfg.ClonePath()},
		Dir:  b.cfg.WorkspaceDir,
	})
	if err != nil {
		return fmt.Errorf("clone failed: %w", err)
	}
	return nil
}

// Sync force-synchronizes an existing copy to the remote's latest state,
// discarding local modifications; a missing copy is cloned fresh.
func (b *Bootstrapper) Sync(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(b.cfg.ClonePath(), ".git")); err != nil {
		return b.Clone(ctx)
	}

	b.log.Info("syncing transformation project", "path", b.cfg.ClonePath())
	steps := [][]string{
		{"fetch", "origin"},
		{"reset", "--hard", "origin/HEAD"},
	}
	for _, args := range steps {
		err := b.git.Run(ctx, toolrunner.StartOptions{
			Name: "git",
			Args: args,
			Dir:  b.cfg.ClonePath(),
		})
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
	}
	return nil
}

// RepairProjectConfig appends the build-output-path setting the analysis
// tool requires when the project omits it.
func (b *Bootstrapper) RepairProjectConfig() error {
	path := filepath.Join(b.cfg.ProjectPath(), projectConfigFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", projectConfigFile, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", projectConfigFile, err)
	}
	if _, ok := doc["target-path"]; ok {
		return nil
	}

	b.log.Info("project config is missing target-path, appending default", "file", path)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", projectConfigFile, err)
	}
	defer f.Close()
	if _, err := f.WriteString("\ntarget-path: \"target\"\n"); err != nil {
		return fmt.Errorf("failed to repair %s: %w", projectConfigFile, err)
	}
	return nil
}

// InstallDeps runs the transformation tool's dependency-installation step.
// The runner may be the docker runtime, so it is passed in rather than the
// internal git runner.
func (b *Bootstrapper) InstallDeps(ctx context.Context, tools *toolrunner.Runner, env map[string]string) error {
	err := tools.Run(ctx, toolrunner.StartOptions{
		Name: b.cfg.TransformTool,
		Args: []string{
			"deps",
			"--project-dir", b.cfg.ProjectPath(),
			"--profiles-dir", b.cfg.ProfilesDir,
		},
		Env: env,
		Dir: b.cfg.ProjectPath(),
	})
	if err != nil {
		return fmt.Errorf("dependency install failed: %w", err)
	}
	return nil
}

// authenticatedURL embeds the repository token into the clone URL.
func (b *Bootstrapper) authenticatedURL() (string, error) {
	u, err := url.Parse(b.cfg.RepoURL)
	if err != nil {
		return "", fmt.Errorf("invalid REPO_URL: %w", err)
	}
	if b.cfg.RepoToken != "" {
		u.User = url.UserPassword("x-access-token", b.cfg.RepoToken)
	}
	return u.String(), nil
}

// RedactURL strips any embedded userinfo so the URL is safe to log.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		// Last resort for unparseable input: drop everything before '@'.
		if i := strings.LastIndex(raw, "@"); i >= 0 {
			return "***@" + raw[i+1:]
		}
		return raw
	}
	u.User = nil
	return u.String()
}
