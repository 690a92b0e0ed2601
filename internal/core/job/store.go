package job

import (
	"context"
	"errors"
	"fmt"
	"sync"

	rds "storyreel/internal/platform/redis"
)

// ErrNotFound is returned for unknown job ids. The HTTP layer maps it to 404.
var ErrNotFound = errors.New("job not found")

// Store is the backing table for job records. Implementations must allow
// concurrent reads interleaved with writes; writes for a single job id are
// issued by one goroutine at a time (the orchestrator owns the job).
type Store interface {
	Get(ctx context.Context, jobID string) (*Job, error)
	Put(ctx context.Context, j *Job) error
}

// RedisStore keeps job records in redis with a TTL per status, so finished
// jobs age out instead of accumulating for the process lifetime.
type RedisStore struct{ redis *rds.Service }

func NewRedisStore(redis *rds.Service) *RedisStore { return &RedisStore{redis: redis} }

func (s *RedisStore) Get(ctx context.Context, jobID string) (*Job, error) {
	var j Job
	if err := s.redis.CacheGet(ctx, key(jobID), &j); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return &j, nil
}

func (s *RedisStore) Put(ctx context.Context, j *Job) error {
	return s.redis.CacheSet(ctx, key(j.JobID), j, ttl(j.Status))
}

func key(id string) string { return "video:job:" + id }

func ttl(s Status) int {
	if s.Terminal() {
		return 3600
	}
	return 600
}

// MemoryStore is a process-local Store for tests and redis-less runs.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{jobs: make(map[string]Job)} }

func (s *MemoryStore) Get(_ context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return &j, nil
}

func (s *MemoryStore) Put(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.JobID] = *j
	return nil
}
