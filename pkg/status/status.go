// Package status contains the JSON types served on the orchestrator's side
// port. Shared between the daemon and the reportctl CLI.
package status

import "time"

// Response is the body of GET /status.
type Response struct {
	Project       string     `json:"project"`
	Warehouse     string     `json:"warehouse"`
	StartedAt     time.Time  `json:"started_at"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastRunError  string     `json:"last_run_error,omitempty"`
	NextRunAt     *time.Time `json:"next_run_at,omitempty"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
