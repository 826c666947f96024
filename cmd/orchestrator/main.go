// Package main is the container entrypoint for the reportplane daemon.
// Startup order matters: workspace bootstrap, credential provisioning, one
// synchronous report run, then the scheduler and the supervised report
// server. The server never serves from a directory that has not been
// populated at least once.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"reportplane/internal/config"
	"reportplane/internal/health"
	"reportplane/internal/logger"
	"reportplane/internal/observability"
	"reportplane/internal/report"
	"reportplane/internal/scheduler"
	"reportplane/internal/secrets"
	"reportplane/internal/supervisor"
	"reportplane/internal/toolrunner"
	"reportplane/internal/warehouse"
	"reportplane/internal/workspace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger, cleanup := logger.New(logger.Options{Dir: cfg.LogsDir, Debug: cfg.Debug})
	defer cleanup()

	if err := run(cfg, slogger); err != nil {
		slogger.Error("fatal", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, slogger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "reportplane", cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slogger.Warn("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slogger.Warn("failed to shutdown metrics", "error", err)
		}
	}()
	runMetrics, err := observability.NewRunMetrics()
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	rt, err := newToolRuntime(cfg, slogger)
	if err != nil {
		return err
	}
	tools := toolrunner.NewRunner(rt, slogger, cfg.LogsDir)

	// Workspace bootstrap runs once, before anything touches the project.
	ws := workspace.New(cfg, slogger)
	if err := ws.Bootstrap(ctx); err != nil {
		return fmt.Errorf("workspace bootstrap failed: %w", err)
	}

	bundle, err := provision(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("credential provisioning failed: %w", err)
	}

	reporter := report.New(cfg, ws, tools, bundle, runMetrics, slogger)

	sched := scheduler.New(slogger)
	tracker := health.NewTracker(cfg.Project, string(cfg.Warehouse), func() time.Time {
		return sched.Next("report")
	})

	// Scheduled runs are independent job lifetimes: a failure is logged and
	// counted but does not take the daemon down, matching cron semantics.
	err = sched.Register("report", cfg.Schedule, func() {
		runErr := reporter.Run(ctx)
		tracker.RecordRun(time.Now(), runErr)
		if runErr != nil {
			slogger.Error("scheduled report run failed", "error", runErr)
		}
	})
	if err != nil {
		return err
	}
	heartbeatLog := filepath.Join(cfg.LogsDir, "healthcheck.log")
	if err := sched.Register("heartbeat", cfg.HeartbeatSchedule, scheduler.Heartbeat(heartbeatLog, slogger)); err != nil {
		return err
	}

	// The startup run is synchronous and fatal on failure: the report
	// directory must be populated before the server starts.
	slogger.Info("running startup report generation")
	if err := reporter.Run(ctx); err != nil {
		tracker.RecordRun(time.Now(), err)
		return fmt.Errorf("startup report run failed: %w", err)
	}
	tracker.RecordRun(time.Now(), nil)

	sched.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sched.Stop(stopCtx)
	}()

	go func() {
		srv := health.NewServer(tracker, metricsHandler)
		slogger.Info("side endpoints listening", "port", cfg.HealthPort)
		if err := srv.ListenAndServe(ctx, cfg.HealthPort); err != nil {
			slogger.Warn("side HTTP server error", "error", err)
		}
	}()

	sup := supervisor.New(cfg, rt, bundle.Env, slogger)
	if err := sup.Run(ctx); err != nil {
		var exitErr *supervisor.ExitError
		if errors.As(err, &exitErr) {
			slogger.Error("report server died", "exit_code", exitErr.ExitCode, "log", exitErr.LogPath)
		}
		return err
	}

	slogger.Info("shutdown complete")
	return nil
}

// newToolRuntime selects how the external tools are invoked.
func newToolRuntime(cfg *config.Config, slogger *slog.Logger) (toolrunner.Runtime, error) {
	switch cfg.ToolRuntime {
	case "docker":
		binds := []string{
			cfg.WorkspaceDir + ":" + cfg.WorkspaceDir,
			cfg.ProfilesDir + ":" + cfg.ProfilesDir,
			cfg.LogsDir + ":" + cfg.LogsDir,
		}
		rt, err := toolrunner.NewDockerRuntime(cfg.ToolImage, binds)
		if err != nil {
			return nil, fmt.Errorf("failed to create docker tool runtime: %w", err)
		}
		slogger.Info("using docker tool runtime", "image", cfg.ToolImage)
		return rt, nil
	default:
		slogger.Info("using exec tool runtime", "workdir", cfg.WorkspaceDir)
		return toolrunner.NewExecRuntime(cfg.WorkspaceDir), nil
	}
}

// provision resolves the credential source and materializes the warehouse
// bundle. Manual mode passes a nil source; Provision only verifies files.
func provision(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (*warehouse.Bundle, error) {
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
		// Nothing to fetch; Provision verifies the operator-managed files.
	}
	return warehouse.Provision(ctx, cfg, src, slogger)
}
