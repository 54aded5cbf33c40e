// Package procrpc implements the invoker port by spawning one tool process
// per call and exchanging a single request/response pair over stdin/stdout.
//
// Tool processes are free to write diagnostic lines to stdout before the real
// result; the last newline-delimited, successfully-parseable JSON object wins.
// A tool whose final stdout line is not the response will be misread — that is
// a known property of the framing, kept as-is.
package procrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toolweaver/toolweaver/internal/domain/rpc"
	"github.com/toolweaver/toolweaver/internal/domain/tool"
)

// DefaultTimeout bounds a call when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

// maxStderr caps how much captured stderr is attached to an exit error.
const maxStderr = 4 * 1024

// waitDelay bounds how long Wait keeps the stdout/stderr copiers alive after
// the child exits or the deadline fires. Without it a descendant that
// inherited stdout (a process-group escapee) would hold the pipe open and
// block Wait indefinitely.
const waitDelay = time.Second

// Client spawns a child process per Invoke call. No pooling, no retries:
// callers desiring retry wrap Invoke themselves.
type Client struct {
	registry *tool.Registry
	timeout  time.Duration
}

// New creates a client over the given registry. timeout is used when the
// caller's context carries no deadline; zero means DefaultTimeout.
func New(registry *tool.Registry, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{registry: registry, timeout: timeout}
}

// Invoke resolves toolID, spawns its process, writes one tools/call request
// and returns the result payload from the last parseable stdout line.
//
// On every exit path the process is dead before Invoke returns: on timeout
// or cancellation the whole process group is killed, so helper processes a
// tool forked cannot outlive the call or hold the stdout pipe open past the
// deadline, and Wait reaps the child on normal exit.
func (c *Client) Invoke(ctx context.Context, toolID, action string, arguments any) (json.RawMessage, error) {
	spec, err := c.registry.Resolve(toolID)
	if err != nil {
		return nil, err
	}

	if _, err := exec.LookPath(spec.Command); err != nil {
		return nil, fmt.Errorf("tool %q: executable %q not found: %w", toolID, spec.Command, rpc.ErrNotInstalled)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := rpc.NewRequest(uuid.NewString(), action, arguments)
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request for tool %q: %w", toolID, err)
	}

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...) //nolint:gosec // command from trusted registry
	cmd.Env = append(os.Environ(), flattenEnv(spec.Env)...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		killProcessTree(cmd)
		return nil
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("tool %q: stdin pipe: %w", toolID, err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("tool %q: start %q: %w", toolID, spec.Command, rpc.ErrNotInstalled)
	}

	// A tool that answers without reading input may already have exited;
	// a broken pipe here is not fatal as long as a response shows up.
	if _, err := stdin.Write(append(payload, '\n')); err != nil {
		slog.Debug("request write failed", "tool", toolID, "error", err)
	}
	_ = stdin.Close() // signals "no more input"

	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		slog.Warn("tool call timed out, process killed", "tool", toolID, "action", action, "elapsed", elapsed)
		return nil, fmt.Errorf("tool %q: no response after %s: %w", toolID, elapsed.Round(time.Millisecond), rpc.ErrTimeout)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
			return nil, fmt.Errorf("tool %q exited with code %d: %s: %w",
				toolID, exitErr.ExitCode(), truncate(stderr.String(), maxStderr), rpc.ErrProcessExit)
		case errors.Is(waitErr, exec.ErrWaitDelay):
			// The tool exited cleanly but a descendant kept stdout open past
			// waitDelay. Whatever was captured before the pipe was abandoned
			// is all the output there will be.
			slog.Debug("stdout abandoned after tool exit", "tool", toolID)
		default:
			return nil, fmt.Errorf("tool %q: wait: %w", toolID, waitErr)
		}
	}

	resp, ok := lastResponse(stdout.Bytes())
	if !ok {
		return nil, fmt.Errorf("tool %q: no parseable response line in output: %w", toolID, rpc.ErrProtocol)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("tool %q: %s: %w", toolID, resp.Error.Message, rpc.ErrProtocol)
	}

	slog.Debug("tool call completed", "tool", toolID, "action", action, "duration", elapsed)
	return resp.Result, nil
}

// lastResponse scans stdout for the last newline-delimited line that parses
// as a JSON object and decodes it as an rpc.Response.
func lastResponse(out []byte) (*rpc.Response, bool) {
	lines := strings.Split(string(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || line[0] != '{' {
			continue
		}
		var resp rpc.Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			continue
		}
		return &resp, true
	}
	return nil, false
}

func flattenEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
