package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Job is one unit of work. Data holds the producer's JSON payload.
type Job struct {
	ID       string          `json:"id"`
	Data     json.RawMessage `json:"data"`
	Attempts int             `json:"attempts"`
}

// Decode unmarshals the job payload into v.
func (j *Job) Decode(v any) error {
	return json.Unmarshal(j.Data, v)
}

// Handler processes a job. Returning an error schedules a retry until the
// queue's attempt limit is reached.
type Handler func(ctx context.Context, job *Job) error

// Queue is a named Redis list with at-least-once delivery. A job moves
// atomically from the pending list to a per-worker processing list and is
// only removed from there once handled. Every running consumer keeps a
// heartbeat key alive; processing lists whose owner has no heartbeat are
// moved back to pending by any other consumer.
type Queue struct {
	rdb          *redis.Client
	name         string
	maxAttempts  int
	pollTimeout  time.Duration
	heartbeatTTL time.Duration
}

func New(rdb *redis.Client, name string, maxAttempts int) *Queue {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Queue{
		rdb:          rdb,
		name:         name,
		maxAttempts:  maxAttempts,
		pollTimeout:  time.Second,
		heartbeatTTL: 30 * time.Second,
	}
}

func (q *Queue) Name() string { return q.name }

func (q *Queue) pendingKey() string { return "queue:" + q.name + ":pending" }
func (q *Queue) failedKey() string  { return "queue:" + q.name + ":failed" }

func (q *Queue) processingPrefix() string { return "queue:" + q.name + ":processing:" }

func (q *Queue) processingKey(consumer string, worker int) string {
	return fmt.Sprintf("%s%s:%d", q.processingPrefix(), consumer, worker)
}

func (q *Queue) heartbeatKey(consumer string) string {
	return "queue:" + q.name + ":consumer:" + consumer
}

// processingOwner returns the consumer id encoded in a processing list key.
func (q *Queue) processingOwner(key string) string {
	rest := strings.TrimPrefix(key, q.processingPrefix())
	i := strings.LastIndexByte(rest, ':')
	if i < 0 {
		return rest
	}
	return rest[:i]
}

// Add enqueues payload and returns the job id.
func (q *Queue) Add(ctx context.Context, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode job payload: %w", err)
	}

	job := Job{ID: uuid.New().String(), Data: data}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}

	err = q.rdb.LPush(ctx, q.pendingKey(), raw).Err()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue job on %q: %w", q.name, err)
	}

	return job.ID, nil
}

// Counts returns the number of pending and permanently failed jobs.
func (q *Queue) Counts(ctx context.Context) (pending, failed int64, err error) {
	pending, err = q.rdb.LLen(ctx, q.pendingKey()).Result()
	if err != nil {
		return 0, 0, err
	}
	failed, err = q.rdb.LLen(ctx, q.failedKey()).Result()
	if err != nil {
		return 0, 0, err
	}
	return pending, failed, nil
}

// RetryFailed moves every permanently failed job back to pending and returns
// how many were moved. Their attempt count is kept, so each gets one more try.
func (q *Queue) RetryFailed(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.rdb.RPopLPush(ctx, q.failedKey(), q.pendingKey()).Result()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("failed to retry jobs on %q: %w", q.name, err)
		}
		moved++
	}
}

// Process runs concurrency workers that handle jobs until ctx is cancelled.
// Jobs left in processing lists by an earlier run of consumer, or by any
// consumer whose heartbeat has expired, are moved back to pending first and
// then periodically while the workers run.
func (q *Queue) Process(ctx context.Context, consumer string, concurrency int, handler Handler) error {
	if concurrency < 1 {
		concurrency = 1
	}

	err := q.reclaim(ctx, consumer, true)
	if err != nil {
		return err
	}
	err = q.beat(ctx, consumer)
	if err != nil {
		return err
	}

	slog.Info("queue consumer started", "queue", q.name, "consumer", consumer, "concurrency", concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		processing := q.processingKey(consumer, i)
		g.Go(func() error {
			q.work(gctx, processing, handler)
			return nil
		})
	}
	g.Go(func() error {
		q.keepAlive(gctx, consumer)
		return nil
	})

	err = g.Wait()

	// Workers have settled every job they held, so nothing is left to reclaim.
	if delErr := q.rdb.Del(context.WithoutCancel(ctx), q.heartbeatKey(consumer)).Err(); delErr != nil {
		slog.Warn("failed to clear heartbeat", "queue", q.name, "consumer", consumer, "error", delErr)
	}
	slog.Info("queue consumer stopped", "queue", q.name, "consumer", consumer)
	return err
}

func (q *Queue) beat(ctx context.Context, consumer string) error {
	err := q.rdb.Set(ctx, q.heartbeatKey(consumer), time.Now().Unix(), q.heartbeatTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to register consumer %q on %q: %w", consumer, q.name, err)
	}
	return nil
}

// keepAlive refreshes the heartbeat and sweeps orphaned processing lists
// until ctx is cancelled.
func (q *Queue) keepAlive(ctx context.Context, consumer string) {
	ticker := time.NewTicker(q.heartbeatTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := q.beat(ctx, consumer); err != nil && ctx.Err() == nil {
			slog.Error("heartbeat failed", "queue", q.name, "consumer", consumer, "error", err)
		}
		if err := q.reclaim(ctx, consumer, false); err != nil && ctx.Err() == nil {
			slog.Error("failed to reclaim orphaned jobs", "queue", q.name, "error", err)
		}
	}
}

// reclaim moves jobs from processing lists whose owner is gone back to
// pending. A list owned by consumer itself is only reclaimed when own is set,
// which is the case on startup before any of its workers run.
func (q *Queue) reclaim(ctx context.Context, consumer string, own bool) error {
	iter := q.rdb.Scan(ctx, 0, q.processingPrefix()+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		owner := q.processingOwner(key)

		if owner == consumer {
			if !own {
				continue
			}
		} else {
			alive, err := q.rdb.Exists(ctx, q.heartbeatKey(owner)).Result()
			if err != nil {
				return fmt.Errorf("failed to check consumer %q: %w", owner, err)
			}
			if alive > 0 {
				continue
			}
		}

		err := q.requeueInFlight(ctx, key)
		if err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan processing lists on %q: %w", q.name, err)
	}
	return nil
}

// requeueInFlight moves jobs left in a processing list back to pending.
func (q *Queue) requeueInFlight(ctx context.Context, processing string) error {
	for {
		raw, err := q.rdb.RPopLPush(ctx, processing, q.pendingKey()).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to requeue in-flight jobs: %w", err)
		}
		slog.Warn("requeued in-flight job", "queue", q.name, "job", jobID(raw), "from", processing)
	}
}

func (q *Queue) work(ctx context.Context, processing string, handler Handler) {
	for ctx.Err() == nil {
		raw, err := q.rdb.BRPopLPush(ctx, q.pendingKey(), processing, q.pollTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("failed to fetch job", "queue", q.name, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.pollTimeout):
			}
			continue
		}

		q.handle(ctx, processing, raw, handler)
	}
}

func (q *Queue) handle(ctx context.Context, processing, raw string, handler Handler) {
	// Bookkeeping must finish even when shutdown cancels ctx mid-job.
	bg := context.WithoutCancel(ctx)

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		slog.Error("dropping malformed job", "queue", q.name, "error", err)
		q.settle(bg, processing, raw, q.failedKey(), raw)
		return
	}

	start := time.Now()
	err := run(ctx, &job, handler)
	if err == nil {
		slog.Info("job completed", "queue", q.name, "job", job.ID, "duration", time.Since(start))
		q.settle(bg, processing, raw, "", "")
		return
	}

	// Interrupted by shutdown: hand the job back untouched for the next consumer.
	if ctx.Err() != nil {
		slog.Warn("job interrupted, requeued", "queue", q.name, "job", job.ID, "error", err)
		q.settle(bg, processing, raw, q.pendingKey(), raw)
		return
	}

	job.Attempts++
	next, encErr := json.Marshal(job)
	if encErr != nil {
		next = []byte(raw)
	}

	if job.Attempts < q.maxAttempts {
		slog.Warn("job failed, retrying", "queue", q.name, "job", job.ID, "attempt", job.Attempts, "error", err)
		q.settle(bg, processing, raw, q.pendingKey(), string(next))
		return
	}

	slog.Error("job failed permanently", "queue", q.name, "job", job.ID, "attempts", job.Attempts, "error", err)
	q.settle(bg, processing, raw, q.failedKey(), string(next))
}

// settle removes raw from processing and, when dest is set, pushes value onto dest
// in the same transaction.
func (q *Queue) settle(ctx context.Context, processing, raw, dest, value string) {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if dest != "" {
			pipe.LPush(ctx, dest, value)
		}
		pipe.LRem(ctx, processing, 1, raw)
		return nil
	})
	if err != nil {
		slog.Error("failed to settle job", "queue", q.name, "job", jobID(raw), "error", err)
	}
}

func run(ctx context.Context, job *Job, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return handler(ctx, job)
}

func jobID(raw string) string {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return ""
	}
	return job.ID
}
