package cmd

import (
	"context"
	"log/slog"

	"reportplane/internal/config"
	"reportplane/internal/logger"
	"reportplane/internal/secrets"
	"reportplane/internal/toolrunner"
	"reportplane/internal/warehouse"
	"reportplane/internal/workspace"
)

// env holds the shared pieces the workflow commands need.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	tools  *toolrunner.Runner
	ws     *workspace.Bootstrapper
	bundle *warehouse.Bundle

	cleanup func()
}

// setup loads configuration, bootstraps the workspace, and provisions
// credentials — the same startup sequence as the daemon, minus scheduler,
// metrics, and supervisor.
func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	slogger, logCleanup := logger.New(logger.Options{Dir: cfg.LogsDir, Debug: cfg.Debug})

	rt := toolrunner.NewExecRuntime(cfg.WorkspaceDir)
	tools := toolrunner.NewRunner(rt, slogger, cfg.LogsDir)

	ws := workspace.New(cfg, slogger)
	if err := ws.Bootstrap(ctx); err != nil {
		logCleanup()
		return nil, err
	}

	bundle, err := provisionCredentials(ctx, cfg, slogger)
	if err != nil {
		logCleanup()
		return nil, err
	}

	return &env{
		cfg:     cfg,
		log:     slogger,
		tools:   tools,
		ws:      ws,
		bundle:  bundle,
		cleanup: func() { logCleanup() },
	}, nil
}

func provisionCredentials(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (*warehouse.Bundle, error) {
	var src secrets.Source
	switch cfg.CredentialSource {
	case config.SourceSecretManagerSA:
		sm, err := secrets.NewSecretManagerSource(ctx, cfg.GCPProject, cfg.SecretPrefix, cfg.ServiceAccount)
		if err != nil {
			return nil, err
		}
		defer sm.Close()
		src = sm
	case config.SourceSecretManagerDefault:
		sm, err := secrets.NewSecretManagerSource(ctx, cfg.GCPProject, cfg.SecretPrefix, "")
		if err != nil {
			return nil, err
		}
		defer sm.Close()
		src = sm
	case config.SourceMounted:
		src = secrets.NewMountedSource(cfg.MountedSecretDir)
	case config.SourceManual:
		// Provision verifies the operator-managed files.
	}
	return warehouse.Provision(ctx, cfg, src, slogger)
}
