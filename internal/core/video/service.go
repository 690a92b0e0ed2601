// Package video orchestrates the composition pipeline: asset resolution,
// narration synthesis, timing, filter graph composition and transcoder
// execution, with job status checkpoints at each phase. It is the only
// package other layers call into.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storyreel/internal/config"
	"storyreel/internal/core/captions"
	"storyreel/internal/core/compose"
	"storyreel/internal/core/job"
	"storyreel/internal/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// AssetSource resolves the background clip and the optional banner and font.
type AssetSource interface {
	ResolveBackground(ctx context.Context, category config.Category) (string, error)
	ResolveBanner() (string, bool)
	ResolveFont() (string, bool)
}

// Narrator converts text into audio, or signals absence.
type Narrator interface {
	Synthesize(ctx context.Context, text, voiceAlias string) ([]byte, bool, error)
}

// Renderer probes clip durations and executes composition plans.
type Renderer interface {
	Probe(ctx context.Context, path string) (float64, error)
	Run(ctx context.Context, primary, fallback compose.Plan) (string, error)
}

// ArtifactStore publishes the finished video and returns its URL.
type ArtifactStore interface {
	SaveVideo(localPath, name string) (string, error)
}

// TaskEnqueuer hands a job descriptor to the background queue.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, queue string, maxRetries int) error
}

type Service struct {
	cfg      config.Config
	log      *logger.Logger
	jobs     *job.Service
	tasks    TaskEnqueuer
	assets   AssetSource
	narrator Narrator
	renderer Renderer
	store    ArtifactStore
}

func NewService(cfg config.Config, jobs *job.Service, tasks TaskEnqueuer, assets AssetSource, narrator Narrator, renderer Renderer, store ArtifactStore) *Service {
	return &Service{
		cfg:      cfg,
		log:      logger.New("VideoService"),
		jobs:     jobs,
		tasks:    tasks,
		assets:   assets,
		narrator: narrator,
		renderer: renderer,
		store:    store,
	}
}

// Enqueue accepts a request, registers the job and hands it to the queue.
// It returns before any composition work starts; the accepted checkpoint is
// written first so an immediate poll observes processing at progress 0.
func (s *Service) Enqueue(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Story) == "" {
		return "", fmt.Errorf("title and story are required")
	}
	jobID := uuid.NewString()
	if err := s.jobs.InitQueued(ctx, jobID); err != nil {
		return "", err
	}
	// The accepted checkpoint is written before the task is handed off: once
	// enqueued, the worker is the sole writer for this job id.
	if err := s.jobs.Checkpoint(ctx, jobID, 0, "job accepted"); err != nil {
		return "", err
	}
	payload, _ := json.Marshal(Payload{JobID: jobID, Request: req})
	task := asynq.NewTask(TaskTypeGenerate, payload)
	if err := s.tasks.Enqueue(task, "default", s.cfg.TaskMaxRetries); err != nil {
		_ = s.jobs.Fail(ctx, jobID, "could not queue job")
		return "", err
	}
	return jobID, nil
}

// HandleTask is the queue-side entry point. Pipeline failures mark the job
// failed and are not returned to the queue, so a terminally failed job is
// never re-run.
func (s *Service) HandleTask(ctx context.Context, task *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return err
	}
	if err := s.generate(ctx, p.JobID, p.Request); err != nil {
		s.log.LogErrorf("job %s failed: %v", p.JobID, err)
		return s.jobs.Fail(ctx, p.JobID, err.Error())
	}
	s.log.LogSuccessf("job %s completed", p.JobID)
	return nil
}

func (s *Service) generate(ctx context.Context, jobID string, req Request) error {
	if err := s.jobs.Checkpoint(ctx, jobID, 10, "resolving assets"); err != nil {
		return err
	}

	background, err := s.assets.ResolveBackground(ctx, config.Category(strings.ToLower(strings.TrimSpace(req.Category))))
	if err != nil {
		s.log.LogError("background resolution exhausted", err)
		return fmt.Errorf("no background clip available")
	}
	banner, _ := s.assets.ResolveBanner()
	font, _ := s.assets.ResolveFont()

	if err := s.jobs.Checkpoint(ctx, jobID, 30, "synthesizing narration"); err != nil {
		return err
	}

	narrated := narratedBody(req.Story)
	scratch := filepath.Join(s.cfg.DataDir, "scratch")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("could not prepare scratch directory")
	}

	// The two clips are independent provider calls; synthesize concurrently.
	// A provider error degrades that clip to absent rather than failing the
	// job: the video must stay visually complete even without sound.
	var openingPath, storyPath string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path, err := s.stageClip(gctx, scratch, "opening_"+jobID, req.Title, req.Voice)
		openingPath = path
		return err
	})
	g.Go(func() error {
		path, err := s.stageClip(gctx, scratch, "story_"+jobID, narrated, req.Voice)
		storyPath = path
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.LogError("narration staging failed", err)
		return fmt.Errorf("could not stage narration audio")
	}

	if err := s.jobs.Checkpoint(ctx, jobID, 45, "timing narration"); err != nil {
		return err
	}

	openingDur := nominalOpeningSeconds
	if openingPath != "" {
		if openingDur, err = s.renderer.Probe(ctx, openingPath); err != nil {
			s.log.LogError("opening clip probe failed", err)
			return fmt.Errorf("audio analysis failed")
		}
	}
	storyDur := nominalStorySeconds
	if storyPath != "" {
		if storyDur, err = s.renderer.Probe(ctx, storyPath); err != nil {
			s.log.LogError("story clip probe failed", err)
			return fmt.Errorf("audio analysis failed")
		}
	}

	words := captions.Build(storyDur, narrated)

	outName := "video_" + jobID + ".mp4"
	outDir := filepath.Join(s.cfg.DataDir, "videos")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("could not prepare output directory")
	}

	in := compose.Inputs{
		Background:      background,
		Banner:          banner,
		OpeningAudio:    openingPath,
		StoryAudio:      storyPath,
		FontFile:        font,
		Words:           words,
		OpeningDuration: openingDur,
		TotalDuration:   openingDur + storyDur,
		OutputPath:      filepath.Join(outDir, outName),
	}

	if err := s.jobs.Checkpoint(ctx, jobID, 60, "rendering video"); err != nil {
		return err
	}

	artifact, err := s.renderer.Run(ctx, compose.Primary(in), compose.Fallback(in))
	if err != nil {
		return err
	}

	if err := s.jobs.Checkpoint(ctx, jobID, 90, "publishing artifact"); err != nil {
		return err
	}

	url, err := s.store.SaveVideo(artifact, outName)
	if err != nil {
		s.log.LogError("artifact publish failed", err)
		return fmt.Errorf("could not publish artifact")
	}
	return s.jobs.Complete(ctx, jobID, url)
}

// stageClip synthesizes one narration clip to a scratch file. An empty path
// means the clip is absent; only a scratch write error is returned.
func (s *Service) stageClip(ctx context.Context, scratch, name, text, voice string) (string, error) {
	audio, ok, err := s.narrator.Synthesize(ctx, text, voice)
	if err != nil {
		s.log.LogWarnf("narration synthesis failed, continuing silent: %v", err)
		return "", nil
	}
	if !ok {
		return "", nil
	}
	path := filepath.Join(scratch, name+".mp3")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
