package toolrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ExecRuntime implements the Runtime interface using raw OS processes.
// This is the default: the tools are installed in the same container.
type ExecRuntime struct {
	workDir string // fallback working directory when StartOptions.Dir is empty
}

// NewExecRuntime creates a new process-based runtime.
func NewExecRuntime(workDir string) *ExecRuntime {
	return &ExecRuntime{workDir: workDir}
}

// Start implements Runtime.Start using os/exec. The child gets its own
// process group so Stop can take down the whole tool process tree.
func (e *ExecRuntime) Start(ctx context.Context, opts StartOptions) (Handle, error) {
	cmd := exec.Command(opts.Name, opts.Args...)
	cmd.Dir = opts.Dir
	if cmd.Dir == "" {
		cmd.Dir = e.workDir
	}

	cmd.Env = os.Environ()
	for k, v := range opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create log pipe: %w", err)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("failed to start %s: %w", opts.Name, err)
	}
	// The child holds the write end now.
	w.Close()

	h := &ExecHandle{
		cmd:  cmd,
		logs: r,
		done: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.waitErr = err
		h.mu.Unlock()
		close(h.done)
	}()
	return h, nil
}

// ExecHandle represents a running OS process.
type ExecHandle struct {
	cmd  *exec.Cmd
	logs io.ReadCloser
	done chan struct{}

	mu      sync.Mutex
	waitErr error
}

func (h *ExecHandle) Wait(ctx context.Context) (ExitResult, error) {
	select {
	case <-h.done:
		return h.result(), nil
	case <-ctx.Done():
		return ExitResult{ExitCode: -1, Error: ctx.Err()}, ctx.Err()
	}
}

// Stop sends SIGTERM to the process group and escalates to SIGKILL if the
// process is still alive after a short grace window.
func (h *ExecHandle) Stop(ctx context.Context) error {
	pgid := -h.cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil && err != syscall.ESRCH {
		return fmt.Errorf("failed to signal process group: %w", err)
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(5 * time.Second):
	case <-ctx.Done():
	}

	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return fmt.Errorf("failed to kill process group: %w", err)
	}
	<-h.done
	return nil
}

func (h *ExecHandle) StreamLogs(ctx context.Context) (io.ReadCloser, error) {
	return h.logs, nil
}

func (h *ExecHandle) result() ExitResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.waitErr == nil {
		return ExitResult{ExitCode: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(h.waitErr, &exitErr) {
		return ExitResult{ExitCode: exitErr.ExitCode()}
	}
	return ExitResult{ExitCode: -1, Error: h.waitErr}
}
