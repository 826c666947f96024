// Package supervisor starts the long-running report server and watches it
// for the lifetime of the process. There is no auto-restart: a server exit
// is fatal and propagates to the container's restart policy.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"reportplane/internal/config"
	"reportplane/internal/toolrunner"
)

// ExitError reports that the supervised server process disappeared. The
// dedicated server log holds whatever the process said on the way out.
type ExitError struct {
	ExitCode int
	LogPath  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("report server exited with code %d (log: %s)", e.ExitCode, e.LogPath)
}

// Supervisor owns the report server process.
type Supervisor struct {
	cfg *config.Config
	rt  toolrunner.Runtime
	env map[string]string
	log *slog.Logger
}

// New creates a Supervisor. env is the credential bundle's variable set,
// forwarded to the server process.
func New(cfg *config.Config, rt toolrunner.Runtime, env map[string]string, log *slog.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, rt: rt, env: env, log: log}
}

// Run starts the server, waits the readiness grace period, then polls
// liveness until ctx is cancelled. A detected exit returns *ExitError;
// cancellation stops the server and returns nil (the deliberate-stop path).
func (s *Supervisor) Run(ctx context.Context) error {
	logPath := filepath.Join(s.cfg.LogsDir, "report-server.log")

	handle, err := s.rt.Start(ctx, toolrunner.StartOptions{
		Name: s.cfg.AnalysisTool,
		Args: []string{
			"report-serve",
			"--port", strconv.Itoa(s.cfg.ReportPort),
			"--project-dir", s.cfg.ProjectPath(),
			"--profiles-dir", s.cfg.ProfilesDir,
		},
		Env: s.env,
		Dir: s.cfg.ProjectPath(),
	})
	if err != nil {
		return fmt.Errorf("failed to start report server: %w", err)
	}
	s.log.Info("report server starting", "port", s.cfg.ReportPort, "log", logPath)

	go s.captureLogs(ctx, handle, logPath)

	// Wait completes exactly once; fan the result into a channel so both the
	// readiness check and the supervision loop can select on it.
	exited := make(chan toolrunner.ExitResult, 1)
	go func() {
		result, _ := handle.Wait(context.Background())
		exited <- result
	}()

	// Readiness: the process surviving the grace period counts as up.
	select {
	case result := <-exited:
		return &ExitError{ExitCode: result.ExitCode, LogPath: logPath}
	case <-time.After(s.cfg.ReadyGrace):
	case <-ctx.Done():
		s.stop(handle)
		return nil
	}
	s.log.Info("report server is up", "port", s.cfg.ReportPort)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("shutting down report server")
			s.stop(handle)
			return nil
		case result := <-exited:
			return &ExitError{ExitCode: result.ExitCode, LogPath: logPath}
		case <-ticker.C:
			s.log.Debug("report server alive", "port", s.cfg.ReportPort)
		}
	}
}

func (s *Supervisor) stop(handle toolrunner.Handle) {
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := handle.Stop(stopCtx); err != nil {
		s.log.Warn("failed to stop report server cleanly", "error", err)
	}
}

func (s *Supervisor) captureLogs(ctx context.Context, handle toolrunner.Handle, path string) {
	rc, err := handle.StreamLogs(ctx)
	if err != nil {
		s.log.Warn("failed to get report server log stream", "error", err)
		return
	}
	defer rc.Close()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.log.Warn("failed to open report server log", "error", err, "file", path)
		return
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		s.log.Debug("report server log stream closed", "error", err)
	}
}
