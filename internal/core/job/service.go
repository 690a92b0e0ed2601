package job

import (
	"context"
	"fmt"
	"time"

	"storyreel/internal/logger"
)

// Service mediates all writes to the job table. It enforces the lifecycle:
// queued -> processing -> completed | failed, with monotone progress and
// write-once terminal states.
type Service struct {
	store Store
	log   *logger.Logger
}

func NewService(store Store) *Service {
	return &Service{store: store, log: logger.New("JobService")}
}

func (s *Service) Get(ctx context.Context, jobID string) (*Job, error) {
	return s.store.Get(ctx, jobID)
}

// InitQueued creates the job record at progress 0.
func (s *Service) InitQueued(ctx context.Context, jobID string) error {
	now := time.Now().UTC()
	return s.store.Put(ctx, &Job{
		JobID:     jobID,
		Status:    StatusQueued,
		Progress:  0,
		Message:   "queued",
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Checkpoint advances the job to processing with the given progress and
// phase message. Progress never moves backwards; a checkpoint against a
// terminal job is rejected.
func (s *Service) Checkpoint(ctx context.Context, jobID string, progress int, message string) error {
	j, err := s.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return fmt.Errorf("job %s already %s", jobID, j.Status)
	}
	if progress < j.Progress {
		progress = j.Progress
	}
	j.Status = StatusProcessing
	j.Progress = progress
	j.Message = message
	j.UpdatedAt = time.Now().UTC()
	return s.store.Put(ctx, j)
}

// Complete transitions the job to its terminal success state.
func (s *Service) Complete(ctx context.Context, jobID, videoURL string) error {
	j, err := s.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return fmt.Errorf("job %s already %s", jobID, j.Status)
	}
	j.Status = StatusCompleted
	j.Progress = 100
	j.Message = "completed"
	j.VideoURL = videoURL
	j.UpdatedAt = time.Now().UTC()
	return s.store.Put(ctx, j)
}

// Fail transitions the job to its terminal failure state. Only the short
// summary crosses the status boundary; callers log the full diagnostic.
func (s *Service) Fail(ctx context.Context, jobID, summary string) error {
	j, err := s.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		s.log.LogWarnf("ignoring fail for terminal job %s (%s)", jobID, j.Status)
		return nil
	}
	j.Status = StatusFailed
	j.Message = "failed"
	j.Error = summary
	j.UpdatedAt = time.Now().UTC()
	return s.store.Put(ctx, j)
}
