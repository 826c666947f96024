package toolrunner

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Runner invokes external tools through a Runtime and captures their output
// into per-run job log files. Every failure is surfaced as an error; the
// caller decides whether it is fatal (in this system it always is).
type Runner struct {
	rt      Runtime
	log     *slog.Logger
	jobsDir string
}

// NewRunner creates a Runner writing job logs under <logsDir>/jobs.
func NewRunner(rt Runtime, log *slog.Logger, logsDir string) *Runner {
	return &Runner{
		rt:      rt,
		log:     log,
		jobsDir: filepath.Join(logsDir, "jobs"),
	}
}

// Run starts an invocation, streams its combined output to a dedicated job
// log, and blocks until it exits. A non-zero exit is returned as *ToolError.
func (r *Runner) Run(ctx context.Context, opts StartOptions) error {
	runID := uuid.New()

	tracer := otel.Tracer("toolrunner")
	ctx, span := tracer.Start(ctx, "tool_invocation",
		trace.WithAttributes(
			attribute.String("tool.name", opts.Name),
			attribute.String("run.id", runID.String()),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	logPath, logFile, err := r.openJobLog(runID.String())
	if err != nil {
		return err
	}
	defer logFile.Close()

	r.log.Info("invoking tool",
		"tool", opts.Name,
		"command", opts.CommandLine(),
		"run_id", runID.String(),
		"job_log", logPath,
	)

	handle, err := r.rt.Start(ctx, opts)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to start %s: %w", opts.Name, err)
	}

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		r.streamToFile(ctx, handle, logFile)
	}()

	result, err := handle.Wait(ctx)
	<-streamDone

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("waiting for %s: %w", opts.Name, err)
	}

	span.SetAttributes(attribute.Int("exit_code", result.ExitCode))
	if result.ExitCode != 0 {
		toolErr := &ToolError{
			Command:  opts.CommandLine(),
			ExitCode: result.ExitCode,
			LogPath:  logPath,
		}
		span.RecordError(toolErr)
		return toolErr
	}

	r.log.Info("tool completed", "tool", opts.Name, "run_id", runID.String())
	return nil
}

func (r *Runner) openJobLog(runID string) (string, *os.File, error) {
	if err := os.MkdirAll(r.jobsDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create job log directory: %w", err)
	}
	path := filepath.Join(r.jobsDir, runID+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open job log: %w", err)
	}
	return path, f, nil
}

// streamToFile batches output lines and flushes them to the job log at least
// once per second, so a crash loses at most the last partial batch.
func (r *Runner) streamToFile(ctx context.Context, handle Handle, out *os.File) {
	const (
		batchSize     = 100
		flushInterval = time.Second
	)

	rc, err := handle.StreamLogs(ctx)
	if err != nil {
		r.log.Warn("failed to get tool log stream", "error", err)
		return
	}
	defer rc.Close()

	lineChan := make(chan string, 100)
	go func() {
		defer close(lineChan)
		scanner := bufio.NewScanner(rc)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lineChan <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var batch []string
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if _, err := out.WriteString(strings.Join(batch, "\n") + "\n"); err != nil {
			r.log.Warn("failed to write job log", "error", err)
		}
		batch = batch[:0]
	}

	flushTicker := time.NewTicker(flushInterval)
	defer flushTicker.Stop()

	for {
		select {
		case line, ok := <-lineChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, line)
			if len(batch) >= batchSize {
				flush()
			}
		case <-flushTicker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}
