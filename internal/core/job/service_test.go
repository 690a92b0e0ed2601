package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service { return NewService(NewMemoryStore()) }

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	require.NoError(t, s.InitQueued(ctx, "j1"))
	j, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, j.Status)
	assert.Equal(t, 0, j.Progress)

	require.NoError(t, s.Checkpoint(ctx, "j1", 0, "job accepted"))
	j, _ = s.Get(ctx, "j1")
	assert.Equal(t, StatusProcessing, j.Status)
	assert.Equal(t, 0, j.Progress)

	require.NoError(t, s.Checkpoint(ctx, "j1", 60, "rendering video"))
	require.NoError(t, s.Complete(ctx, "j1", "/files/videos/video_j1.mp4"))

	j, _ = s.Get(ctx, "j1")
	assert.Equal(t, StatusCompleted, j.Status)
	assert.Equal(t, 100, j.Progress)
	assert.Equal(t, "/files/videos/video_j1.mp4", j.VideoURL)
	assert.Empty(t, j.Error)
}

func TestProgressNeverDecreases(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	require.NoError(t, s.InitQueued(ctx, "j1"))

	require.NoError(t, s.Checkpoint(ctx, "j1", 60, "rendering video"))
	require.NoError(t, s.Checkpoint(ctx, "j1", 30, "stale checkpoint"))

	j, _ := s.Get(ctx, "j1")
	assert.Equal(t, 60, j.Progress)
}

func TestTerminalStatesAreWriteOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	require.NoError(t, s.InitQueued(ctx, "j1"))
	require.NoError(t, s.Fail(ctx, "j1", "no background clip available"))

	assert.Error(t, s.Checkpoint(ctx, "j1", 90, "late checkpoint"))
	assert.Error(t, s.Complete(ctx, "j1", "/files/videos/video_j1.mp4"))
	// A duplicate fail is ignored, not an error: the job already ended.
	assert.NoError(t, s.Fail(ctx, "j1", "another summary"))

	j, _ := s.Get(ctx, "j1")
	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, "no background clip available", j.Error)
	assert.Empty(t, j.VideoURL)
}

func TestGetUnknownJob(t *testing.T) {
	s := newTestService()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
