// Package sandbox executes untrusted solutions in an isolated subprocess.
//
// Security model:
//   - Each submission runs in a fresh python3 subprocess, never reused.
//   - Resource limits (CPU time, memory, file size, process count) are
//     applied by the runner script via the POSIX resource module. On
//     platforms where that is unavailable the subprocess relies solely on
//     the wall-clock timeout enforced here.
//   - The subprocess has full filesystem read access; this sandbox does NOT
//     provide filesystem or network isolation. For production use, run the
//     server inside a container or seccomp sandbox.
package sandbox

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

//go:embed runner.py
var runnerScript string

const (
	defaultTimeout       = 10 * time.Second
	defaultMaxConcurrent = 4

	defaultCPUSeconds    = 5
	defaultMemoryBytes   = 256 * 1024 * 1024
	defaultFileSizeBytes = 1024 * 1024

	crashErrorLimit = 200
)

// Config controls sandbox behavior
type Config struct {
	PythonBin string
	Timeout   time.Duration
	// MaxConcurrent caps in-flight subprocess executions globally. Each run
	// is CPU-bound, so oversubscription degrades latency for every caller
	// without improving throughput.
	MaxConcurrent int
	CPUSeconds    int
	MemoryBytes   int64
	FileSizeBytes int64
	MaxChildProcs int
}

// DefaultConfig returns the default sandbox configuration
func DefaultConfig() Config {
	return Config{
		PythonBin:     "python3",
		Timeout:       defaultTimeout,
		MaxConcurrent: defaultMaxConcurrent,
		CPUSeconds:    defaultCPUSeconds,
		MemoryBytes:   defaultMemoryBytes,
		FileSizeBytes: defaultFileSizeBytes,
		MaxChildProcs: 0,
	}
}

// Request describes one code execution
type Request struct {
	Code       string   `json:"code"`
	EntryPoint string   `json:"entry_point"`
	TestCases  []string `json:"test_cases"`
	Preamble   string   `json:"preamble"`
	AnyOrder   bool     `json:"any_order"`
}

// FailureDetail describes the first failing test case
type FailureDetail struct {
	Input    string  `json:"input"`
	Expected *string `json:"expected"`
	Actual   *string `json:"actual"`
}

// Result is the structured outcome of one execution. All failure modes are
// reported here, never returned as errors.
type Result struct {
	Passed       int            `json:"passed"`
	Total        int            `json:"total"`
	Error        string         `json:"error,omitempty"`
	FirstFailure *FailureDetail `json:"first_failure,omitempty"`
	Stdout       string         `json:"stdout,omitempty"`
	Stderr       string         `json:"stderr,omitempty"`
	TimeMS       int64          `json:"time_ms"`
}

type limitsPayload struct {
	CPUSeconds  int   `json:"cpu_seconds"`
	MemoryBytes int64 `json:"memory_bytes"`
	FsizeBytes  int64 `json:"fsize_bytes"`
	NProc       int   `json:"nproc"`
}

type runnerPayload struct {
	Request
	Limits limitsPayload `json:"limits"`
}

// Runner executes submissions with a bounded concurrency pool
type Runner struct {
	cfg    Config
	sem    chan struct{}
	logger *slog.Logger
}

// NewRunner creates a sandbox runner
func NewRunner(cfg Config, logger *slog.Logger) *Runner {
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	return &Runner{
		cfg:    cfg,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
		logger: logger,
	}
}

// Run executes one submission against its test cases. It blocks until a
// concurrency slot is free, then until the subprocess completes or the
// wall-clock timeout fires. It always returns a Result; failures of the
// submission itself are reported inside it.
func (r *Runner) Run(ctx context.Context, req Request) Result {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return Result{Total: len(req.TestCases), Error: "Execution cancelled"}
	}
	defer func() { <-r.sem }()

	payload, err := json.Marshal(runnerPayload{
		Request: req,
		Limits: limitsPayload{
			CPUSeconds:  r.cfg.CPUSeconds,
			MemoryBytes: r.cfg.MemoryBytes,
			FsizeBytes:  r.cfg.FileSizeBytes,
			NProc:       r.cfg.MaxChildProcs,
		},
	})
	if err != nil {
		return Result{Total: len(req.TestCases), Error: fmt.Sprintf("Harness error: %v", err)}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.cfg.PythonBin, "-c", runnerScript)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	if runCtx.Err() == context.DeadlineExceeded {
		return Result{
			Total:  len(req.TestCases),
			Error:  fmt.Sprintf("Time limit exceeded (%ds)", int(r.cfg.Timeout.Seconds())),
			TimeMS: elapsed,
		}
	}

	out := strings.TrimSpace(stdout.String())
	if runErr != nil && out == "" {
		msg := truncate(strings.TrimSpace(stderr.String()), crashErrorLimit)
		if msg == "" {
			msg = "Process crashed"
		}
		return Result{Total: len(req.TestCases), Error: msg, TimeMS: elapsed}
	}

	// User prints are captured inside the child; its real stdout carries
	// only the result line. Parse the last line defensively in case
	// something slipped through before the redirect took effect.
	lines := strings.Split(out, "\n")
	var result Result
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &result); err != nil {
		r.logger.Warn("sandbox runner produced invalid output", "error", err)
		return Result{
			Total:  len(req.TestCases),
			Error:  fmt.Sprintf("Runner produced invalid output: %v", err),
			TimeMS: elapsed,
		}
	}

	result.TimeMS = elapsed
	return result
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
