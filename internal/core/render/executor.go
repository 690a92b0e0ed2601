// Package render runs the transcoder. Execution is a two-tier strategy: the
// full plan first, and on a non-zero exit (or timeout, treated the same) the
// reduced fallback plan exactly once. A fallback failure is terminal.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/core/compose"
	"storyreel/internal/logger"
)

// runFunc executes one transcoder invocation and returns its combined
// diagnostic stream alongside the exit error. Injectable so the retry policy
// is testable without spawning processes.
type runFunc func(ctx context.Context, bin string, args []string) (stderr string, err error)

// probeFunc executes one prober invocation and returns its stdout. Injectable
// for the same reason as runFunc.
type probeFunc func(ctx context.Context, bin string, args []string) (stdout string, err error)

type Executor struct {
	cfg     config.Config
	log     *logger.Logger
	timeout time.Duration
	run     runFunc
	probe   probeFunc
}

func NewExecutor(cfg config.Config) *Executor {
	return &Executor{
		cfg:     cfg,
		log:     logger.New("RenderExecutor"),
		timeout: time.Duration(cfg.RenderTimeoutSeconds) * time.Second,
		run:     runCommand,
		probe:   probeCommand,
	}
}

// Run executes the primary plan, falling back once on failure. It returns
// the output artifact path of whichever attempt succeeded.
func (e *Executor) Run(ctx context.Context, primary, fallback compose.Plan) (string, error) {
	stderr, err := e.runPlan(ctx, primary)
	if err == nil {
		return primary.OutputPath, nil
	}
	e.log.LogWarnf("primary composition failed, retrying with reduced plan: %v", err)
	e.log.LogDebugf("transcoder diagnostics: %s", tail(stderr))

	stderr, err = e.runPlan(ctx, fallback)
	if err != nil {
		e.log.LogErrorf("fallback composition failed: %v", err)
		e.log.LogDebugf("transcoder diagnostics: %s", tail(stderr))
		return "", fmt.Errorf("video composition failed: %w", err)
	}
	return fallback.OutputPath, nil
}

func (e *Executor) runPlan(ctx context.Context, plan compose.Plan) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.run(runCtx, e.cfg.FFmpegBin, plan.Args())
}

func runCommand(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		// A stuck transcoder counts as a failed attempt.
		return stderr.String(), fmt.Errorf("transcoder timed out")
	}
	if err != nil {
		return stderr.String(), fmt.Errorf("transcoder: %w", err)
	}
	return stderr.String(), nil
}

// tail keeps diagnostics loggable without dumping megabytes of encoder
// chatter.
func tail(s string) string {
	const max = 2048
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
