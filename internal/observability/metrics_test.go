package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInitMetrics(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	if handler == nil {
		t.Fatal("expected a metrics handler")
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("metrics endpoint returned %d", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Error("metrics endpoint returned empty body")
	}
}

func TestRunMetrics_AppearInScrape(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	metrics, err := NewRunMetrics()
	if err != nil {
		t.Fatalf("NewRunMetrics failed: %v", err)
	}

	ctx := context.Background()
	metrics.ReportRuns.Add(ctx, 1)
	metrics.BackfillDays.Add(ctx, 3)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body := rr.Body.String()
	if !strings.Contains(body, "reportplane_report_runs") {
		t.Errorf("report run counter missing from scrape:\n%s", body)
	}
	if !strings.Contains(body, "reportplane_backfill_days") {
		t.Errorf("backfill day counter missing from scrape:\n%s", body)
	}
}
