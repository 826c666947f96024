// Package report regenerates the data-quality report: force-sync the
// project, compute the date window, invoke the analysis tool, and dispatch
// the enabled notification channels.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"reportplane/internal/config"
	"reportplane/internal/observability"
	"reportplane/internal/toolrunner"
	"reportplane/internal/warehouse"
	"reportplane/internal/window"
)

// Workspace is the subset of the bootstrapper a report run needs.
type Workspace interface {
	Sync(ctx context.Context) error
	RepairProjectConfig() error
	InstallDeps(ctx context.Context, tools *toolrunner.Runner, env map[string]string) error
}

// Lookbacks per notification channel, in days before today. The asymmetry
// is deliberate: slack digests cover the previous day, teams only today.
const (
	slackLookbackDays = 1
	teamsLookbackDays = 0
)

// Runner executes one report-generation run end to end.
type Runner struct {
	cfg     *config.Config
	ws      Workspace
	tools   *toolrunner.Runner
	bundle  *warehouse.Bundle
	metrics *observability.RunMetrics
	log     *slog.Logger

	now func() time.Time
}

// New creates a report Runner. metrics may be nil (backfill entrypoint runs
// without the metrics endpoint).
func New(cfg *config.Config, ws Workspace, tools *toolrunner.Runner, bundle *warehouse.Bundle, metrics *observability.RunMetrics, log *slog.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		ws:      ws,
		tools:   tools,
		bundle:  bundle,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// Run performs one full report cycle. Any step failing aborts the run; the
// caller treats the error as fatal.
func (r *Runner) Run(ctx context.Context) error {
	tracer := otel.Tracer("report")
	ctx, span := tracer.Start(ctx, "report_run", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	if err := r.run(ctx, span); err != nil {
		span.RecordError(err)
		if r.metrics != nil {
			r.metrics.ReportErrors.Add(ctx, 1)
		}
		return err
	}
	if r.metrics != nil {
		r.metrics.ReportRuns.Add(ctx, 1)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, span trace.Span) error {
	if err := r.ws.Sync(ctx); err != nil {
		return err
	}
	if err := r.ws.RepairProjectConfig(); err != nil {
		return err
	}
	if err := r.ws.InstallDeps(ctx, r.tools, r.bundle.Env); err != nil {
		return err
	}

	win := window.Compute(r.now(), r.cfg.ReportYearly, r.cfg.ReportQuarterly)
	span.SetAttributes(
		attribute.String("window.start", win.StartDate()),
		attribute.String("window.end", win.EndDate()),
	)
	r.log.Info("generating report", "start", win.StartDate(), "end", win.EndDate())

	err := r.tools.Run(ctx, toolrunner.StartOptions{
		Name: r.cfg.AnalysisTool,
		Args: []string{
			"report",
			"--project-dir", r.cfg.ProjectPath(),
			"--profiles-dir", r.cfg.ProfilesDir,
			"--start-date", win.StartDate(),
			"--end-date", win.EndDate(),
		},
		Env: r.bundle.Env,
		Dir: r.cfg.ProjectPath(),
	})
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	if r.cfg.SlackEnabled {
		if err := r.notify(ctx, "slack", slackLookbackDays); err != nil {
			return err
		}
	}
	if r.cfg.TeamsEnabled {
		if err := r.notify(ctx, "teams", teamsLookbackDays); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) notify(ctx context.Context, channel string, daysBack int) error {
	win := window.Lookback(r.now(), daysBack)
	r.log.Info("dispatching notifications", "channel", channel, "start", win.StartDate(), "end", win.EndDate())

	err := r.tools.Run(ctx, toolrunner.StartOptions{
		Name: r.cfg.AnalysisTool,
		Args: []string{
			"send-report",
			"--channel", channel,
			"--project-dir", r.cfg.ProjectPath(),
			"--profiles-dir", r.cfg.ProfilesDir,
			"--start-date", win.StartDate(),
			"--end-date", win.EndDate(),
		},
		Env: r.bundle.Env,
		Dir: r.cfg.ProjectPath(),
	})
	if err != nil {
		return fmt.Errorf("%s notification failed: %w", channel, err)
	}
	if r.metrics != nil {
		r.metrics.Notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
	}
	return nil
}
