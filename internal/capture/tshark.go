package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

// Dissection errors.
var (
	// ErrToolUnavailable is returned when tshark is not installed or
	// not found in PATH.
	ErrToolUnavailable = errors.New("tshark is not installed or not in PATH")

	// ErrDissectionFailure is returned when tshark exits with an error
	// or produces output that is not valid JSON.
	ErrDissectionFailure = errors.New("tshark failed to dissect the capture")
)

// defaultBinary is the dissection tool executable name resolved via PATH.
const defaultBinary = "tshark"

// Runner invokes the external tshark process to dissect a capture file
// into per-packet JSON records.
//
// Design decision: The runner only shells out and decodes; it never
// interprets packet content. Interpretation lives in Reduce so it can be
// tested without tshark installed. There is no retry logic: a failed
// dissection is a pass-through failure surfaced to the caller.
type Runner struct {
	// binary is the tshark executable name or path.
	binary string

	// logger for structured logging.
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBinary overrides the tshark executable path.
func WithBinary(path string) RunnerOption {
	return func(r *Runner) {
		if path != "" {
			r.binary = path
		}
	}
}

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a tshark Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		binary: defaultBinary,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Available reports whether the tshark executable can be resolved.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// Run dissects the capture at path into per-packet records by invoking
// `tshark -r <path> -T json`.
//
// Failure modes are pass-through: a missing tool yields ErrToolUnavailable,
// a non-zero exit or undecodable output yields ErrDissectionFailure with
// tshark's stderr attached. An empty packet array from a successful exit
// is a valid result, not an error.
func (r *Runner) Run(ctx context.Context, path string) ([]Packet, error) {
	binary, err := exec.LookPath(r.binary)
	if err != nil {
		return nil, fmt.Errorf("%w (install Wireshark/tshark to analyze capture files)", ErrToolUnavailable)
	}

	cmd := exec.CommandContext(ctx, binary, "-r", path, "-T", "json")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("invoking dissection tool", "binary", binary, "file", path)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v (stderr: %s)",
			ErrDissectionFailure, err, bytes.TrimSpace(stderr.Bytes()))
	}

	// tshark emits an empty string (not "[]") for captures it can read
	// but has nothing to report on. Treat that as zero packets.
	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, nil
	}

	var packets []Packet
	if err := json.Unmarshal(out, &packets); err != nil {
		return nil, fmt.Errorf("%w: output is not valid JSON: %v", ErrDissectionFailure, err)
	}

	r.logger.Debug("dissection complete", "file", path, "packets", len(packets))

	return packets, nil
}
