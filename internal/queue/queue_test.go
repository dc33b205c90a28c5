package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chivescore/api/internal/model"
)

func newTestQueue(t *testing.T, visibility time.Duration) (*JobQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })
	return NewJobQueue(rc, visibility), mr
}

func testJob(id string) *model.Job {
	return &model.Job{
		JobID:       id,
		ImageRef:    "uploads/" + id + ".jpg",
		MimeType:    "image/jpeg",
		SubmittedBy: "chive_fan",
		Subreddit:   "chives",
		PostID:      "t3_abc",
		CreatedAt:   time.Now().UTC(),
		Status:      model.JobStatusPending,
	}
}

func TestQueue_FIFOOrder(t *testing.T) {
	q, _ := newTestQueue(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, testJob("a")))
	require.NoError(t, q.Push(ctx, testJob("b")))
	require.NoError(t, q.Push(ctx, testJob("c")))

	for _, want := range []string{"a", "b", "c"} {
		d, err := q.Pop(ctx, 100*time.Millisecond)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, want, d.Job.JobID)
		require.NoError(t, q.Ack(ctx, d))
	}
}

func TestQueue_EmptyPopIsNotAnError(t *testing.T) {
	q, _ := newTestQueue(t, time.Minute)

	d, err := q.Pop(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestQueue_PopMovesToProcessingUntilAck(t *testing.T) {
	q, mr := newTestQueue(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, testJob("a")))

	d, err := q.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d)

	processing, err := mr.List(processingKey)
	require.NoError(t, err)
	assert.Len(t, processing, 1)
	assert.True(t, mr.Exists(leaseKey("a")))

	require.NoError(t, q.Ack(ctx, d))

	// Redis deletes a list key once it is empty, so miniredis reports the
	// key as missing rather than returning an empty list.
	processing, err = mr.List(processingKey)
	if err != nil {
		require.ErrorIs(t, err, miniredis.ErrKeyNotFound)
	}
	assert.Empty(t, processing)
	assert.False(t, mr.Exists(leaseKey("a")))
}

func TestQueue_RequeueExpiredRedeliversUnackedJobs(t *testing.T) {
	q, mr := newTestQueue(t, time.Second)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, testJob("a")))

	d, err := q.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d)

	// Lease still live: nothing to requeue.
	n, err := q.RequeueExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Simulate a crashed worker: lease expires without an ack.
	mr.FastForward(2 * time.Second)

	n, err = q.RequeueExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	redelivered, err := q.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, redelivered)
	assert.Equal(t, "a", redelivered.Job.JobID)
}

func TestQueue_RequeueSkipsLeasedJobs(t *testing.T) {
	q, _ := newTestQueue(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, testJob("a")))
	require.NoError(t, q.Push(ctx, testJob("b")))

	d1, err := q.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d1)
	d2, err := q.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d2)

	n, err := q.RequeueExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	waiting, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, waiting)
}

func TestQueue_Len(t *testing.T) {
	q, _ := newTestQueue(t, time.Minute)
	ctx := context.Background()

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, q.Push(ctx, testJob("a")))
	require.NoError(t, q.Push(ctx, testJob("b")))

	n, err = q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
