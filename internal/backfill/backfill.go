// Package backfill replays the transformation job across a historical date
// range, one calendar day at a time. The loop is at-least-once and
// non-resumable: the first failing day aborts the whole run and no
// already-done detection is performed on re-runs.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reportplane/internal/config"
	"reportplane/internal/observability"
	"reportplane/internal/toolrunner"
	"reportplane/internal/warehouse"
	"reportplane/internal/window"
)

// modelSelector restricts each day's run to the models tagged for backfill.
const modelSelector = "tag:backfill"

// ParseRange validates the operator-supplied inclusive date range.
func ParseRange(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid BACKFILL_START_DATE %q: %w", start, err)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid BACKFILL_END_DATE %q: %w", end, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("BACKFILL_END_DATE %s is before BACKFILL_START_DATE %s", end, start)
	}
	return from, to, nil
}

// Runner replays the transformation tool day by day.
type Runner struct {
	cfg     *config.Config
	tools   *toolrunner.Runner
	bundle  *warehouse.Bundle
	metrics *observability.RunMetrics
	log     *slog.Logger
}

// New creates a backfill Runner. metrics may be nil.
func New(cfg *config.Config, tools *toolrunner.Runner, bundle *warehouse.Bundle, metrics *observability.RunMetrics, log *slog.Logger) *Runner {
	return &Runner{cfg: cfg, tools: tools, bundle: bundle, metrics: metrics, log: log}
}

// Run iterates the inclusive [start, end] day range. Before the loop the
// warehouse profile's thread count is forcibly raised so the replay does not
// crawl at the interactive default.
func (r *Runner) Run(ctx context.Context, start, end time.Time) error {
	tracer := otel.Tracer("backfill")
	ctx, span := tracer.Start(ctx, "backfill_run",
		trace.WithAttributes(
			attribute.String("range.start", start.Format("2006-01-02")),
			attribute.String("range.end", end.Format("2006-01-02")),
		),
	)
	defer span.End()

	if err := warehouse.SetProfileThreads(r.cfg.ProfilePath(), r.cfg.Project, r.cfg.BackfillThreads); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to raise profile threads: %w", err)
	}
	r.log.Info("profile threads raised for backfill", "threads", r.cfg.BackfillThreads)

	days := 0
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		if err := r.runDay(ctx, cursor); err != nil {
			span.RecordError(err)
			return err
		}
		days++
	}

	span.SetAttributes(attribute.Int("days", days))
	r.log.Info("backfill completed", "days", days)
	return nil
}

func (r *Runner) runDay(ctx context.Context, day time.Time) error {
	win := window.Day(day)
	r.log.Info("backfilling day", "day", win.StartDate())

	vars := fmt.Sprintf("{start_time: %q, end_time: %q}", win.StartTimestamp(), win.EndTimestamp())
	err := r.tools.Run(ctx, toolrunner.StartOptions{
		Name: r.cfg.TransformTool,
		Args: []string{
			"run",
			"--select", modelSelector,
			"--project-dir", r.cfg.ProjectPath(),
			"--profiles-dir", r.cfg.ProfilesDir,
			"--vars", vars,
		},
		Env: r.bundle.Env,
		Dir: r.cfg.ProjectPath(),
	})
	if err != nil {
		return fmt.Errorf("backfill for %s failed: %w", win.StartDate(), err)
	}
	if r.metrics != nil {
		r.metrics.BackfillDays.Add(ctx, 1)
	}
	return nil
}
