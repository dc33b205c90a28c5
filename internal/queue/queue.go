package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chivescore/api/internal/model"
)

const (
	pendingKey     = "chives:queue:pending"
	processingKey  = "chives:queue:processing"
	leaseKeyPrefix = "chives:queue:lease:"
)

// JobQueue is a single shared FIFO backed by a Redis list. Pop atomically
// moves the entry to a processing list and stamps a lease key; the worker
// acks after writing the terminal result. Entries on the processing list
// whose lease expired are requeued by the reaper, so a job popped by a
// crashed worker is redelivered instead of lost.
type JobQueue struct {
	redis      *redis.Client
	visibility time.Duration
}

// Delivery is one popped queue entry. The raw payload is retained so Ack can
// remove exactly this entry from the processing list.
type Delivery struct {
	Job     *model.Job
	payload string
}

func NewJobQueue(redisClient *redis.Client, visibility time.Duration) *JobQueue {
	return &JobQueue{
		redis:      redisClient,
		visibility: visibility,
	}
}

func leaseKey(jobID string) string {
	return leaseKeyPrefix + jobID
}

// Push appends a serialized job to the tail of the queue.
func (q *JobQueue) Push(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.redis.LPush(ctx, pendingKey, data).Err()
}

// Pop blocks up to timeout for the next job. Returns (nil, nil) when the
// wait elapses with nothing queued — an empty pop is not an error.
func (q *JobQueue) Pop(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	payload, err := q.redis.BLMove(ctx, pendingKey, processingKey, "RIGHT", "LEFT", timeout).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		// A poisoned entry cannot be processed or redelivered; drop it.
		q.redis.LRem(ctx, processingKey, 1, payload)
		return nil, fmt.Errorf("failed to unmarshal queued job: %w", err)
	}

	if err := q.redis.Set(ctx, leaseKey(job.JobID), "1", q.visibility).Err(); err != nil {
		return nil, fmt.Errorf("failed to set lease: %w", err)
	}

	return &Delivery{Job: &job, payload: payload}, nil
}

// Ack removes a processed entry and releases its lease.
func (q *JobQueue) Ack(ctx context.Context, d *Delivery) error {
	if err := q.redis.LRem(ctx, processingKey, 1, d.payload).Err(); err != nil {
		return fmt.Errorf("failed to remove processing entry: %w", err)
	}
	return q.redis.Del(ctx, leaseKey(d.Job.JobID)).Err()
}

// Len returns the number of jobs waiting to be popped.
func (q *JobQueue) Len(ctx context.Context) (int64, error) {
	return q.redis.LLen(ctx, pendingKey).Result()
}

// RequeueExpired scans the processing list and moves entries whose lease is
// gone back to the pending queue. Returns the number requeued.
func (q *JobQueue) RequeueExpired(ctx context.Context) (int, error) {
	payloads, err := q.redis.LRange(ctx, processingKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, payload := range payloads {
		var job model.Job
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			q.redis.LRem(ctx, processingKey, 1, payload)
			continue
		}

		exists, err := q.redis.Exists(ctx, leaseKey(job.JobID)).Result()
		if err != nil {
			return requeued, err
		}
		if exists > 0 {
			continue
		}

		// Remove-then-push: if another reaper instance removed it first,
		// LRem reports 0 and we skip the push.
		removed, err := q.redis.LRem(ctx, processingKey, 1, payload).Result()
		if err != nil {
			return requeued, err
		}
		if removed == 0 {
			continue
		}
		if err := q.redis.LPush(ctx, pendingKey, payload).Err(); err != nil {
			return requeued, err
		}
		requeued++
	}

	return requeued, nil
}
