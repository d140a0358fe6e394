package resumeinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// Queue key layout. Ready tasks wait in a list, scheduled retries in a
// sorted set scored by their due time, running tasks in a hash keyed by
// task id, and exhausted tasks in the cleanup list for inspection.
const (
	queueMainKey     = "queue:main"
	queueRetriesKey  = "queue:retries"
	queueInFlightKey = "queue:in_flight"
	queueCleanupKey  = "queue:cleanup"
)

const (
	defaultVisibilityTimeout = 600 * time.Second
	retryBackoffBase         = 4 * time.Second
	retryBackoffCap          = 60 * time.Second
	retryJitterFraction      = 0.2
)

// promoteDueScript moves every due retry to the ready list in one atomic
// step, so concurrent schedulers never promote the same task twice.
var promoteDueScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for i = 1, #due do
	redis.call('LPUSH', KEYS[2], due[i])
	redis.call('ZREM', KEYS[1], due[i])
end
return #due
`)

// inFlightEntry is the in-flight hash value. It embeds the whole envelope
// so an expired task can be requeued without consulting the job store.
type inFlightEntry struct {
	JobID       kernel.JobID        `json:"job_id"`
	Attempts    int                 `json:"attempts"`
	StartedAtMs int64               `json:"started_at_epoch_ms"`
	Task        resume.TaskEnvelope `json:"task"`
}

// RedisQueueConfig tunes delivery behavior; zero values take the defaults.
type RedisQueueConfig struct {
	VisibilityTimeout time.Duration
	MaxAttempts       int
}

// RedisQueue implements resume.TaskQueue on Redis list/zset/hash
// structures.
type RedisQueue struct {
	client            *redis.Client
	visibilityTimeout time.Duration
	maxAttempts       int
}

// NewRedisQueue creates the queue adapter.
func NewRedisQueue(client *redis.Client, cfg RedisQueueConfig) *RedisQueue {
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = defaultVisibilityTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = resume.MaxTaskAttempts
	}
	return &RedisQueue{
		client:            client,
		visibilityTimeout: cfg.VisibilityTimeout,
		maxAttempts:       cfg.MaxAttempts,
	}
}

// Enqueue pushes a task onto the ready queue, stamping enqueued_at when
// the caller left it zero.
func (q *RedisQueue) Enqueue(ctx context.Context, task resume.TaskEnvelope) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(task)
	if err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeEnqueueFailed, err)
	}
	if err := q.client.LPush(ctx, queueMainKey, data).Err(); err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeEnqueueFailed, err).
			WithDetail("job_id", task.JobID.String())
	}
	return nil
}

// Dequeue blocks up to timeout for the next ready task and records it
// in-flight before handing it to the worker.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*resume.TaskEnvelope, error) {
	result, err := q.client.BRPop(ctx, timeout, queueMainKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	if len(result) < 2 {
		return nil, resume.ErrInvalidJobPayload().
			WithDetail("reason", fmt.Sprintf("expected 2 elements from BRPOP, got %d", len(result)))
	}

	var task resume.TaskEnvelope
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeInvalidJobPayload, err)
	}

	entry := inFlightEntry{
		JobID:       task.JobID,
		Attempts:    task.Attempts,
		StartedAtMs: time.Now().UnixMilli(),
		Task:        task,
	}
	entryData, err := json.Marshal(entry)
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeInvalidJobPayload, err)
	}
	if err := q.client.HSet(ctx, queueInFlightKey, task.TaskID.String(), entryData).Err(); err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	return &task, nil
}

// Heartbeat refreshes the in-flight timestamp so a long-running task is
// not reclaimed by the visibility sweep. A task no longer in flight is
// ignored.
func (q *RedisQueue) Heartbeat(ctx context.Context, taskID kernel.TaskID) error {
	raw, err := q.client.HGet(ctx, queueInFlightKey, taskID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	var entry inFlightEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeInvalidJobPayload, err)
	}
	entry.StartedAtMs = time.Now().UnixMilli()
	data, err := json.Marshal(entry)
	if err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeInvalidJobPayload, err)
	}
	if err := q.client.HSet(ctx, queueInFlightKey, taskID.String(), data).Err(); err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	return nil
}

// Ack drops a finished task from the in-flight ledger.
func (q *RedisQueue) Ack(ctx context.Context, taskID kernel.TaskID) error {
	if err := q.client.HDel(ctx, queueInFlightKey, taskID.String()).Err(); err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	return nil
}

// ScheduleRetry acks the task and parks it in the retry set with its
// attempt count already incremented. The returned time is when the task
// becomes due.
func (q *RedisQueue) ScheduleRetry(ctx context.Context, task resume.TaskEnvelope) (time.Time, error) {
	task.Attempts++
	dueAt := time.Now().Add(retryDelay(task.Attempts))

	data, err := json.Marshal(task)
	if err != nil {
		return time.Time{}, resume.ErrRegistry.NewWithCause(resume.CodeEnqueueFailed, err)
	}

	pipe := q.client.TxPipeline()
	pipe.ZAdd(ctx, queueRetriesKey, redis.Z{
		Score:  float64(dueAt.UnixMilli()),
		Member: data,
	})
	pipe.HDel(ctx, queueInFlightKey, task.TaskID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return time.Time{}, resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	return dueAt, nil
}

// DeadLetter acks the task and parks it on the cleanup list.
func (q *RedisQueue) DeadLetter(ctx context.Context, task resume.TaskEnvelope) error {
	data, err := json.Marshal(task)
	if err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeEnqueueFailed, err)
	}
	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, queueCleanupKey, data)
	pipe.HDel(ctx, queueInFlightKey, task.TaskID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	return nil
}

// ProcessRetries promotes every due retry back to the ready queue.
func (q *RedisQueue) ProcessRetries(ctx context.Context) (int, error) {
	nowMs := strconv.FormatInt(time.Now().UnixMilli(), 10)
	moved, err := promoteDueScript.Run(ctx, q.client,
		[]string{queueRetriesKey, queueMainKey}, nowMs).Int()
	if err != nil {
		return 0, resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	return moved, nil
}

// CleanupExpired requeues in-flight tasks whose visibility timeout has
// passed, charging them one attempt. Tasks already out of attempts go to
// the cleanup list instead of looping forever.
func (q *RedisQueue) CleanupExpired(ctx context.Context) (int, error) {
	entries, err := q.client.HGetAll(ctx, queueInFlightKey).Result()
	if err != nil {
		return 0, resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}

	deadline := time.Now().Add(-q.visibilityTimeout).UnixMilli()
	requeued := 0
	for taskID, raw := range entries {
		var entry inFlightEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			// Unreadable ledger entries are dropped; the visibility
			// timeout already decided their fate.
			q.client.HDel(ctx, queueInFlightKey, taskID)
			continue
		}
		if entry.StartedAtMs > deadline {
			continue
		}

		task := entry.Task
		task.Attempts++
		data, err := json.Marshal(task)
		if err != nil {
			continue
		}

		pipe := q.client.TxPipeline()
		if task.Attempts >= q.maxAttempts {
			pipe.LPush(ctx, queueCleanupKey, data)
		} else {
			pipe.LPush(ctx, queueMainKey, data)
		}
		pipe.HDel(ctx, queueInFlightKey, taskID)
		if _, err := pipe.Exec(ctx); err != nil {
			return requeued, resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
		}
		requeued++
	}
	return requeued, nil
}

// Stats reports the depth of each queue segment.
func (q *RedisQueue) Stats(ctx context.Context) (*resume.QueueStats, error) {
	pipe := q.client.Pipeline()
	ready := pipe.LLen(ctx, queueMainKey)
	retries := pipe.ZCard(ctx, queueRetriesKey)
	inFlight := pipe.HLen(ctx, queueInFlightKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	return &resume.QueueStats{
		Ready:    ready.Val(),
		Retries:  retries.Val(),
		InFlight: inFlight.Val(),
	}, nil
}

// Purge drops every queue structure.
func (q *RedisQueue) Purge(ctx context.Context) error {
	if err := q.client.Del(ctx, queueMainKey, queueRetriesKey, queueInFlightKey, queueCleanupKey).Err(); err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeQueueUnavailable, err)
	}
	return nil
}

// retryDelay is exponential from the base, capped, with bounded jitter so
// simultaneous failures spread out.
func retryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := retryBackoffBase << (attempts - 1)
	if delay > retryBackoffCap || delay <= 0 {
		delay = retryBackoffCap
	}
	jitter := 1 + retryJitterFraction*(2*rand.Float64()-1)
	return time.Duration(float64(delay) * jitter)
}
