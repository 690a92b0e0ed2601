package render

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/core/compose"
	"storyreel/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExecutor(run runFunc) *Executor {
	return &Executor{
		cfg:     config.Config{FFmpegBin: "ffmpeg"},
		log:     logger.New("RenderExecutor"),
		timeout: time.Minute,
		run:     run,
	}
}

func testPlans() (compose.Plan, compose.Plan) {
	primary := compose.Plan{Graph: "primary", VideoLabel: "v3", OutputPath: "/out/a.mp4", TotalDuration: 4}
	fallback := compose.Plan{Graph: "fallback", VideoLabel: "v0", OutputPath: "/out/a.mp4", TotalDuration: 4}
	return primary, fallback
}

func TestRunPrimarySucceeds(t *testing.T) {
	var invocations [][]string
	e := testExecutor(func(_ context.Context, _ string, args []string) (string, error) {
		invocations = append(invocations, args)
		return "", nil
	})

	primary, fallback := testPlans()
	out, err := e.Run(context.Background(), primary, fallback)
	require.NoError(t, err)
	assert.Equal(t, "/out/a.mp4", out)
	require.Len(t, invocations, 1, "fallback must not run when primary succeeds")
	assert.Contains(t, invocations[0], "primary")
}

func TestRunFallsBackExactlyOnce(t *testing.T) {
	var invocations [][]string
	e := testExecutor(func(_ context.Context, _ string, args []string) (string, error) {
		invocations = append(invocations, args)
		if len(invocations) == 1 {
			return "filter parse error", fmt.Errorf("transcoder: exit status 1")
		}
		return "", nil
	})

	primary, fallback := testPlans()
	out, err := e.Run(context.Background(), primary, fallback)
	require.NoError(t, err)
	assert.Equal(t, "/out/a.mp4", out)
	require.Len(t, invocations, 2)
	assert.Contains(t, invocations[1], "fallback")
}

func TestRunBothAttemptsFail(t *testing.T) {
	calls := 0
	e := testExecutor(func(_ context.Context, _ string, _ []string) (string, error) {
		calls++
		return "boom", fmt.Errorf("transcoder: exit status 1")
	})

	primary, fallback := testPlans()
	_, err := e.Run(context.Background(), primary, fallback)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video composition failed")
	assert.Equal(t, 2, calls, "no third tier exists")
}
