// Package toolrunner provides the Runtime interface for invoking the
// external transformation and analysis tools.
package toolrunner

import (
	"context"
	"fmt"
	"io"
)

// Runtime defines the interface for executing external tool commands.
// Implementations include raw process execution and Docker containers.
type Runtime interface {
	// Start begins execution of a command and returns a handle.
	Start(ctx context.Context, opts StartOptions) (Handle, error)
}

// StartOptions contains the parameters for starting a tool invocation.
type StartOptions struct {
	Name string   // tool binary, e.g. "dbt" or "edr"
	Args []string
	Env  map[string]string // forwarded on top of the parent environment
	Dir  string            // working directory, usually the project path
}

// CommandLine renders the invocation for logs and error messages.
// Argument values are not quoted; this is diagnostic output, not shell input.
func (o StartOptions) CommandLine() string {
	line := o.Name
	for _, a := range o.Args {
		line += " " + a
	}
	return line
}

// ExitResult describes how an invocation finished.
type ExitResult struct {
	ExitCode int
	Error    error
}

// Handle represents a running tool invocation.
type Handle interface {
	// Wait blocks until the invocation completes.
	Wait(ctx context.Context) (ExitResult, error)

	// Stop forcefully terminates the invocation.
	Stop(ctx context.Context) error

	// StreamLogs returns a reader over the combined stdout/stderr.
	StreamLogs(ctx context.Context) (io.ReadCloser, error)
}

// ToolError is returned when an external tool exits non-zero. The per-run
// log file holds the tool's own output for diagnosis.
type ToolError struct {
	Command  string
	ExitCode int
	LogPath  string
}

func (e *ToolError) Error() string {
	if e.LogPath != "" {
		return fmt.Sprintf("%s exited with code %d (log: %s)", e.Command, e.ExitCode, e.LogPath)
	}
	return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
}
