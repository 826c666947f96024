package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes the OpenTelemetry metrics provider with a
// Prometheus exporter. It returns the HTTP handler for the /metrics endpoint
// and a shutdown function for graceful cleanup.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// RunMetrics counts report and backfill activity.
type RunMetrics struct {
	ReportRuns    metric.Int64Counter
	ReportErrors  metric.Int64Counter
	Notifications metric.Int64Counter
	BackfillDays  metric.Int64Counter
}

// NewRunMetrics registers the orchestrator's counters on the global meter.
func NewRunMetrics() (*RunMetrics, error) {
	meter := otel.Meter("reportplane")

	runs, err := meter.Int64Counter("reportplane.report.runs",
		metric.WithDescription("Completed report-generation runs"))
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter("reportplane.report.errors",
		metric.WithDescription("Failed report-generation runs"))
	if err != nil {
		return nil, err
	}
	notifs, err := meter.Int64Counter("reportplane.notifications.dispatched",
		metric.WithDescription("Notification dispatches, labeled by channel"))
	if err != nil {
		return nil, err
	}
	days, err := meter.Int64Counter("reportplane.backfill.days",
		metric.WithDescription("Completed backfill day replays"))
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		ReportRuns:    runs,
		ReportErrors:  errs,
		Notifications: notifs,
		BackfillDays:  days,
	}, nil
}
