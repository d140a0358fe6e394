package resumeinfra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
)

const (
	jobKeyPrefix = "jobs:"
	jobsIndexKey = "jobs:index"

	defaultJobRetention = 30 * 24 * time.Hour
)

// Job hash fields.
const (
	fieldJobID     = "job_id"
	fieldStatus    = "status"
	fieldFilePath  = "file_path"
	fieldOptions   = "options"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
	fieldResult    = "result"
	fieldResultURL = "result_url"
	fieldError     = "error"
)

// RedisJobStoreConfig tunes retention; zero means the 30-day default.
type RedisJobStoreConfig struct {
	Retention time.Duration
}

// RedisJobStore keeps one hash per job under jobs:{job_id}, plus a sorted
// set of job ids by creation time for listing. Hashes expire after the
// retention window; every write refreshes the TTL.
type RedisJobStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisJobStore creates the job store adapter.
func NewRedisJobStore(client *redis.Client, cfg RedisJobStoreConfig) *RedisJobStore {
	if cfg.Retention <= 0 {
		cfg.Retention = defaultJobRetention
	}
	return &RedisJobStore{client: client, retention: cfg.Retention}
}

func jobKey(id kernel.JobID) string { return jobKeyPrefix + id.String() }

// CreateJob writes a fresh job record and indexes it.
func (s *RedisJobStore) CreateJob(ctx context.Context, job *resume.Job) error {
	fields, err := jobToFields(job)
	if err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeJobUpdateFailed, err)
	}

	key := jobKey(job.JobID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.retention)
	pipe.ZAdd(ctx, jobsIndexKey, redis.Z{
		Score:  float64(job.CreatedAt.UnixMilli()),
		Member: job.JobID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
			WithDetail("job_id", job.JobID.String())
	}
	return nil
}

// GetJob loads a job; a missing or expired record is a NotFound error.
func (s *RedisJobStore) GetJob(ctx context.Context, jobID kernel.JobID) (*resume.Job, error) {
	fields, err := s.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, resume.ErrJobNotFound().WithDetail("job_id", jobID.String())
	}
	return jobFromFields(fields)
}

// UpdateJob applies the patch with read-modify-write semantics, bumps
// updated_at and re-applies the retention TTL.
func (s *RedisJobStore) UpdateJob(ctx context.Context, jobID kernel.JobID, patch resume.JobPatch) (*resume.Job, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.Result != nil {
		job.Result = patch.Result
	}
	if patch.ResultURL != nil {
		job.ResultURL = *patch.ResultURL
	}
	if patch.Error != nil {
		job.Error = *patch.Error
	}
	job.UpdatedAt = time.Now().UTC()

	fields, err := jobToFields(job)
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeJobUpdateFailed, err)
	}

	key := jobKey(jobID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
			WithDetail("job_id", jobID.String())
	}
	return job, nil
}

// DeleteJob removes the record and its index entry. Deleting a missing job
// is a no-op.
func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID kernel.JobID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, jobKey(jobID))
	pipe.ZRem(ctx, jobsIndexKey, jobID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}
	return nil
}

// ListJobs pages through jobs newest first, optionally filtered by status.
// Index entries whose hash already expired are pruned as they are found.
func (s *RedisJobStore) ListJobs(ctx context.Context, status resume.JobStatus, pagination kernel.PaginationOptions) (*kernel.Paginated[resume.Job], error) {
	ids, err := s.client.ZRevRange(ctx, jobsIndexKey, 0, -1).Result()
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}

	jobs := make([]resume.Job, 0, len(ids))
	for _, id := range ids {
		fields, err := s.client.HGetAll(ctx, jobKeyPrefix+id).Result()
		if err != nil {
			return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
		}
		if len(fields) == 0 {
			s.client.ZRem(ctx, jobsIndexKey, id)
			continue
		}
		job, err := jobFromFields(fields)
		if err != nil {
			continue
		}
		if status != "" && job.Status != status {
			continue
		}
		jobs = append(jobs, *job)
	}

	opts := pagination.Normalized()
	total := len(jobs)
	start := opts.Offset()
	if start > total {
		start = total
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}
	return kernel.NewPaginated(jobs[start:end], opts.Page, opts.PageSize, total), nil
}

// CountJobsByStatus tallies live job records per status.
func (s *RedisJobStore) CountJobsByStatus(ctx context.Context) (map[resume.JobStatus]int64, error) {
	ids, err := s.client.ZRange(ctx, jobsIndexKey, 0, -1).Result()
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
	}

	counts := make(map[resume.JobStatus]int64)
	for _, id := range ids {
		status, err := s.client.HGet(ctx, jobKeyPrefix+id, fieldStatus).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err)
		}
		counts[resume.JobStatus(status)]++
	}
	return counts, nil
}

func jobToFields(job *resume.Job) (map[string]any, error) {
	options, err := json.Marshal(job.Options)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{
		fieldJobID:     job.JobID.String(),
		fieldStatus:    string(job.Status),
		fieldFilePath:  job.FilePath,
		fieldOptions:   string(options),
		fieldCreatedAt: job.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldUpdatedAt: job.UpdatedAt.UTC().Format(time.RFC3339Nano),
		fieldResultURL: job.ResultURL,
		fieldError:     job.Error,
	}
	if job.Result != nil {
		data, err := json.Marshal(job.Result)
		if err != nil {
			return nil, err
		}
		fields[fieldResult] = string(data)
	} else {
		fields[fieldResult] = ""
	}
	return fields, nil
}

func jobFromFields(fields map[string]string) (*resume.Job, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeInvalidJobPayload, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	if err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeInvalidJobPayload, err)
	}

	job := &resume.Job{
		JobID:     kernel.JobID(fields[fieldJobID]),
		Status:    resume.JobStatus(fields[fieldStatus]),
		FilePath:  fields[fieldFilePath],
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		ResultURL: fields[fieldResultURL],
		Error:     fields[fieldError],
	}
	if raw := fields[fieldOptions]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Options); err != nil {
			return nil, resume.ErrRegistry.NewWithCause(resume.CodeInvalidJobPayload, err)
		}
	}
	if raw := fields[fieldResult]; raw != "" {
		var result resume.JobResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			return nil, resume.ErrRegistry.NewWithCause(resume.CodeInvalidJobPayload, err)
		}
		job.Result = &result
	}
	return job, nil
}
