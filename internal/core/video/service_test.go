package video

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/core/compose"
	"storyreel/internal/core/job"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssets struct {
	background string
	banner     string
	font       string
	err        error
}

func (f *fakeAssets) ResolveBackground(context.Context, config.Category) (string, error) {
	return f.background, f.err
}
func (f *fakeAssets) ResolveBanner() (string, bool) { return f.banner, f.banner != "" }
func (f *fakeAssets) ResolveFont() (string, bool)   { return f.font, f.font != "" }

type fakeNarrator struct {
	audio []byte
	ok    bool
	err   error
}

func (f *fakeNarrator) Synthesize(context.Context, string, string) ([]byte, bool, error) {
	return f.audio, f.ok, f.err
}

type fakeRenderer struct {
	primary   *compose.Plan
	fallback  *compose.Plan
	durations map[string]float64
	runErr    error
}

func (f *fakeRenderer) Probe(_ context.Context, path string) (float64, error) {
	if d, ok := f.durations[path]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("probe %s: unreadable", path)
}

func (f *fakeRenderer) Run(_ context.Context, primary, fallback compose.Plan) (string, error) {
	f.primary = &primary
	f.fallback = &fallback
	if f.runErr != nil {
		return "", f.runErr
	}
	return primary.OutputPath, nil
}

type fakeStore struct{}

func (fakeStore) SaveVideo(_, name string) (string, error) { return "/files/videos/" + name, nil }

type fakeEnqueuer struct{ tasks []*asynq.Task }

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ string, _ int) error {
	f.tasks = append(f.tasks, task)
	return nil
}

// inlineEnqueuer runs the task handler synchronously, modelling a worker
// that picks the job up the instant it is queued.
type inlineEnqueuer struct{ svc *Service }

func (e *inlineEnqueuer) Enqueue(task *asynq.Task, _ string, _ int) error {
	return e.svc.HandleTask(context.Background(), task)
}

type failingEnqueuer struct{}

func (failingEnqueuer) Enqueue(*asynq.Task, string, int) error {
	return fmt.Errorf("queue unavailable")
}

type fixture struct {
	svc      *Service
	jobs     *job.Service
	assets   *fakeAssets
	narrator *fakeNarrator
	renderer *fakeRenderer
	enqueuer *fakeEnqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Config{DataDir: t.TempDir(), TaskMaxRetries: 1}
	f := &fixture{
		jobs:     job.NewService(job.NewMemoryStore()),
		assets:   &fakeAssets{background: "/assets/backgrounds/subway.mp4"},
		narrator: &fakeNarrator{},
		renderer: &fakeRenderer{},
		enqueuer: &fakeEnqueuer{},
	}
	f.svc = NewService(cfg, f.jobs, f.enqueuer, f.assets, f.narrator, f.renderer, fakeStore{})
	return f
}

func (f *fixture) runTask(t *testing.T, jobID string, req Request) {
	t.Helper()
	payload, err := json.Marshal(Payload{JobID: jobID, Request: req})
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleTask(context.Background(), asynq.NewTask(TaskTypeGenerate, payload)))
}

func TestEnqueueReturnsImmediatelyProcessing(t *testing.T) {
	f := newFixture(t)
	id, err := f.svc.Enqueue(context.Background(), Request{Title: "Hi", Story: "one two three"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Len(t, f.enqueuer.tasks, 1)

	j, err := f.jobs.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, job.StatusProcessing, j.Status)
	assert.Equal(t, 0, j.Progress)
}

// The submitter hands the job off before the queue sees it: even a worker
// that finishes the whole pipeline inside the enqueue call must not make
// Enqueue fail or regress the record the worker wrote.
func TestEnqueueSurvivesInstantWorker(t *testing.T) {
	f := newFixture(t)
	f.svc.tasks = &inlineEnqueuer{svc: f.svc}

	id, err := f.svc.Enqueue(context.Background(), Request{Title: "Hi", Story: "one two three"})
	require.NoError(t, err)

	j, err := f.jobs.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, j.Status)
	assert.Equal(t, 100, j.Progress)
	assert.Equal(t, "/files/videos/video_"+id+".mp4", j.VideoURL)
}

func TestEnqueueSurfacesQueueFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.tasks = failingEnqueuer{}

	_, err := f.svc.Enqueue(context.Background(), Request{Title: "Hi", Story: "one two three"})
	require.Error(t, err)
}

func TestEnqueueRequiresTitleAndStory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Enqueue(context.Background(), Request{Title: "Hi"})
	assert.Error(t, err)
	_, err = f.svc.Enqueue(context.Background(), Request{Story: "one"})
	assert.Error(t, err)
	assert.Empty(t, f.enqueuer.tasks)
}

// Silent-narration path: the synthesizer has nothing to say, nominal
// durations drive the timeline, and the plan carries no audio stage.
func TestSilentNarrationCompletesVideoOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.jobs.InitQueued(ctx, "j1"))

	f.runTask(t, "j1", Request{Title: "Hi", Story: "one two three", Category: "subway", Voice: "nobody"})

	j, err := f.jobs.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, j.Status)
	assert.Equal(t, 100, j.Progress)
	assert.Equal(t, "/files/videos/video_j1.mp4", j.VideoURL)

	require.NotNil(t, f.renderer.primary)
	p := f.renderer.primary
	assert.Empty(t, p.AudioLabel, "absent narration must yield a video-only plan")
	assert.Equal(t, 3, strings.Count(p.Graph, "drawtext="), "three caption windows over the nominal story duration")
	// Nominal opening 0.8s + nominal story 3.0s.
	assert.InDelta(t, 3.8, p.TotalDuration, 1e-9)
}

func TestProviderErrorDegradesToSilent(t *testing.T) {
	f := newFixture(t)
	f.narrator.err = fmt.Errorf("speech provider: status 500")
	ctx := context.Background()
	require.NoError(t, f.jobs.InitQueued(ctx, "j1"))

	f.runTask(t, "j1", Request{Title: "Hi", Story: "still works", Voice: "adam"})

	j, _ := f.jobs.Get(ctx, "j1")
	assert.Equal(t, job.StatusCompleted, j.Status)
	assert.Empty(t, f.renderer.primary.AudioLabel)
}

func TestBreakMarkerTruncatesNarratedBody(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.jobs.InitQueued(ctx, "j1"))

	f.runTask(t, "j1", Request{Title: "Hi", Story: "shown words [BREAK] hidden tail"})

	p := f.renderer.primary
	require.NotNil(t, p)
	assert.Equal(t, 2, strings.Count(p.Graph, "drawtext="))
	assert.Contains(t, p.Graph, "text='SHOWN'")
	assert.NotContains(t, p.Graph, "HIDDEN")
}

func TestResolverExhaustionFailsWithoutRendering(t *testing.T) {
	f := newFixture(t)
	f.assets.err = fmt.Errorf("no background clip reachable for category \"subway\"")
	ctx := context.Background()
	require.NoError(t, f.jobs.InitQueued(ctx, "j1"))

	f.runTask(t, "j1", Request{Title: "Hi", Story: "one two", Category: "subway"})

	j, _ := f.jobs.Get(ctx, "j1")
	assert.Equal(t, job.StatusFailed, j.Status)
	assert.Equal(t, "no background clip available", j.Error)
	assert.Nil(t, f.renderer.primary, "executor must not run when resolution is exhausted")
}

func TestRenderFailureEndsFailedOnce(t *testing.T) {
	f := newFixture(t)
	f.renderer.runErr = fmt.Errorf("video composition failed: transcoder: exit status 1")
	ctx := context.Background()
	require.NoError(t, f.jobs.InitQueued(ctx, "j1"))

	f.runTask(t, "j1", Request{Title: "Hi", Story: "one two"})

	j, _ := f.jobs.Get(ctx, "j1")
	assert.Equal(t, job.StatusFailed, j.Status)
	assert.NotEmpty(t, j.Error)
	assert.Empty(t, j.VideoURL, "a failed job never reports an artifact")
}
