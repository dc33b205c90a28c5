package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chivescore/api/internal/model"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrResultNotFound = errors.New("result not found")
)

// ResultStore persists jobs and results in Redis. Both key families share one
// TTL, so a job and its result expire together; expiry is the only lifecycle
// end — nothing is ever deleted explicitly.
type ResultStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewResultStore(redisClient *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

func jobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

func resultKey(jobID string) string {
	return fmt.Sprintf("result:%s", jobID)
}

// SaveJob writes the job record with the store TTL.
func (s *ResultStore) SaveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return s.redis.Set(ctx, jobKey(job.JobID), data, s.ttl).Err()
}

// GetJob loads a job record, returning ErrJobNotFound for missing or expired keys.
func (s *ResultStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// UpdateJobStatus transitions a job to a terminal status. Statuses are
// monotonic: pending moves to completed or failed and never back.
func (s *ResultStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = status
	return s.SaveJob(ctx, job)
}

// SaveResult writes the terminal result record with the store TTL.
func (s *ResultStore) SaveResult(ctx context.Context, result *model.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return s.redis.Set(ctx, resultKey(result.JobID), data, s.ttl).Err()
}

// GetResult loads a result record, returning ErrResultNotFound when absent.
func (s *ResultStore) GetResult(ctx context.Context, jobID string) (*model.Result, error) {
	data, err := s.redis.Get(ctx, resultKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	var result model.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}
