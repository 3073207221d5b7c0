package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	FileID string `json:"fileId"`
}

func newTestQueue(t *testing.T, maxAttempts int) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "image transcoding", maxAttempts), mr
}

// runUntil processes q until done is closed, then stops the consumer and waits for it.
func runUntil(t *testing.T, q *Queue, handler Handler, done <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- q.Process(ctx, "test", 2, handler) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for jobs")
	}
	cancel()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestAddAndProcess(t *testing.T) {
	q, mr := newTestQueue(t, 3)
	ctx := context.Background()

	id, err := q.Add(ctx, payload{FileID: "f1"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	pending, _, err := q.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	got := make(chan payload, 1)
	done := make(chan struct{})
	runUntil(t, q, func(ctx context.Context, job *Job) error {
		var p payload
		assert.NoError(t, job.Decode(&p))
		assert.Equal(t, id, job.ID)
		got <- p
		close(done)
		return nil
	}, done)

	assert.Equal(t, "f1", (<-got).FileID)

	pending, failed, err := q.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Zero(t, failed)
	assert.False(t, mr.Exists("queue:image transcoding:processing:test:0"))
	assert.False(t, mr.Exists("queue:image transcoding:processing:test:1"))
}

func TestRetriesThenFails(t *testing.T) {
	q, mr := newTestQueue(t, 3)
	ctx := context.Background()

	_, err := q.Add(ctx, payload{FileID: "f1"})
	require.NoError(t, err)

	var calls atomic.Int32
	done := make(chan struct{})
	runUntil(t, q, func(ctx context.Context, job *Job) error {
		if calls.Add(1) == 3 {
			close(done)
		}
		return errors.New("boom")
	}, done)

	// Give the last settle a moment; it runs right after the handler returns.
	require.Eventually(t, func() bool {
		_, failed, err := q.Counts(ctx)
		return err == nil && failed == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(3), calls.Load())

	items, err := mr.List("queue:image transcoding:failed")
	require.NoError(t, err)
	require.Len(t, items, 1)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(items[0]), &job))
	assert.Equal(t, 3, job.Attempts)
}

func TestPanicIsAFailure(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	ctx := context.Background()

	_, err := q.Add(ctx, payload{FileID: "f1"})
	require.NoError(t, err)

	done := make(chan struct{})
	runUntil(t, q, func(ctx context.Context, job *Job) error {
		close(done)
		panic("bad image")
	}, done)

	require.Eventually(t, func() bool {
		_, failed, err := q.Counts(ctx)
		return err == nil && failed == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInFlightJobsAreRequeued(t *testing.T) {
	q, mr := newTestQueue(t, 3)

	// A previous run of consumer "test" died while holding a job.
	raw, err := json.Marshal(Job{ID: "j1", Data: json.RawMessage(`{"fileId":"f9"}`)})
	require.NoError(t, err)
	_, err = mr.Lpush("queue:image transcoding:processing:test:1", string(raw))
	require.NoError(t, err)

	got := make(chan string, 1)
	done := make(chan struct{})
	runUntil(t, q, func(ctx context.Context, job *Job) error {
		got <- job.ID
		close(done)
		return nil
	}, done)

	assert.Equal(t, "j1", <-got)
}

func seedInFlight(t *testing.T, mr *miniredis.Miniredis, key, id string) {
	t.Helper()
	raw, err := json.Marshal(Job{ID: id, Data: json.RawMessage(`{"fileId":"f9"}`)})
	require.NoError(t, err)
	_, err = mr.Lpush(key, string(raw))
	require.NoError(t, err)
}

func TestJobsOfDeadConsumersAreReclaimed(t *testing.T) {
	q, mr := newTestQueue(t, 3)

	// The container came back with a new hostname, and the old run used more workers.
	seedInFlight(t, mr, q.processingKey("old-host", 0), "j1")
	seedInFlight(t, mr, q.processingKey("test", 3), "j2")

	var handled atomic.Int32
	done := make(chan struct{})
	runUntil(t, q, func(ctx context.Context, job *Job) error {
		if handled.Add(1) == 2 {
			close(done)
		}
		return nil
	}, done)

	assert.Equal(t, int32(2), handled.Load())
	assert.False(t, mr.Exists(q.processingKey("old-host", 0)))
	assert.False(t, mr.Exists(q.processingKey("test", 3)))
}

func TestLiveConsumerKeepsItsJobs(t *testing.T) {
	q, mr := newTestQueue(t, 3)
	q.heartbeatTTL = 150 * time.Millisecond

	require.NoError(t, mr.Set(q.heartbeatKey("other-host"), "1"))
	mr.SetTTL(q.heartbeatKey("other-host"), time.Minute)
	seedInFlight(t, mr, q.processingKey("other-host", 0), "j1")

	var handled atomic.Int32
	done := make(chan struct{})
	go func() {
		// Several sweeps run while other-host is alive, then its heartbeat lapses.
		time.Sleep(500 * time.Millisecond)
		items, err := mr.List(q.processingKey("other-host", 0))
		assert.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Zero(t, handled.Load())
		mr.FastForward(2 * time.Minute)
	}()

	runUntil(t, q, func(ctx context.Context, job *Job) error {
		assert.Equal(t, "j1", job.ID)
		handled.Add(1)
		close(done)
		return nil
	}, done)

	assert.Equal(t, int32(1), handled.Load())
}

func TestShutdownRequeuesInterruptedJob(t *testing.T) {
	q, mr := newTestQueue(t, 1)
	ctx := context.Background()

	_, err := q.Add(ctx, payload{FileID: "f1"})
	require.NoError(t, err)

	// The requeued job may reach the second worker before it sees the shutdown.
	var once sync.Once
	started := make(chan struct{})
	runUntil(t, q, func(ctx context.Context, job *Job) error {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return ctx.Err()
	}, started)

	pending, failed, err := q.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
	assert.Zero(t, failed)

	items, err := mr.List("queue:image transcoding:pending")
	require.NoError(t, err)
	require.Len(t, items, 1)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(items[0]), &job))
	assert.Zero(t, job.Attempts)

	assert.False(t, mr.Exists(q.heartbeatKey("test")))
}

func TestProcessingOwner(t *testing.T) {
	q := New(nil, "image transcoding", 1)
	assert.Equal(t, "old-host", q.processingOwner(q.processingKey("old-host", 0)))
	assert.Equal(t, "web:1", q.processingOwner(q.processingKey("web:1", 12)))
}

func TestRetryFailed(t *testing.T) {
	q, mr := newTestQueue(t, 3)
	ctx := context.Background()

	for _, id := range []string{"j1", "j2"} {
		raw, err := json.Marshal(Job{ID: id, Data: json.RawMessage(`{}`), Attempts: 3})
		require.NoError(t, err)
		_, err = mr.Lpush("queue:image transcoding:failed", string(raw))
		require.NoError(t, err)
	}

	moved, err := q.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	pending, failed, err := q.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)
	assert.Zero(t, failed)

	moved, err = q.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Zero(t, moved)
}
