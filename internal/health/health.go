// Package health serves the orchestrator's side HTTP endpoints: liveness,
// run status, and Prometheus metrics. The report UI itself is served by the
// analysis tool on its own port.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"reportplane/pkg/status"
)

// Tracker records run outcomes for the status endpoint.
type Tracker struct {
	mu        sync.Mutex
	project   string
	warehouse string
	startedAt time.Time
	lastRun   *time.Time
	lastErr   string
	nextRun   func() time.Time
}

// NewTracker creates a Tracker. nextRun reports the next scheduled report
// fire and may return the zero time before the scheduler starts.
func NewTracker(project, warehouse string, nextRun func() time.Time) *Tracker {
	return &Tracker{
		project:   project,
		warehouse: warehouse,
		startedAt: time.Now(),
		nextRun:   nextRun,
	}
}

// RecordRun notes the outcome of a report run.
func (t *Tracker) RecordRun(at time.Time, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRun = &at
	if err != nil {
		t.lastErr = err.Error()
	} else {
		t.lastErr = ""
	}
}

func (t *Tracker) snapshot() status.Response {
	t.mu.Lock()
	defer t.mu.Unlock()

	resp := status.Response{
		Project:       t.project,
		Warehouse:     t.warehouse,
		StartedAt:     t.startedAt,
		UptimeSeconds: int64(time.Since(t.startedAt).Seconds()),
		LastRunAt:     t.lastRun,
		LastRunError:  t.lastErr,
	}
	if next := t.nextRun(); !next.IsZero() {
		resp.NextRunAt = &next
	}
	return resp
}

// Server is the side HTTP server.
type Server struct {
	tracker *Tracker
	metrics http.Handler
	limiter *rate.Limiter
}

// NewServer wires the endpoints. The status endpoint is rate-limited; the
// side port faces the host network and a tight poll loop should not be able
// to starve the daemon.
func NewServer(tracker *Tracker, metricsHandler http.Handler) *Server {
	return &Server{
		tracker: tracker,
		metrics: metricsHandler,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.healthz)
	mux.HandleFunc("/status", s.status)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: s.Handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}
	s.respondJSON(w, http.StatusOK, s.tracker.snapshot())
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
