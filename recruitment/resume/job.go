package resume

import (
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
)

// JobStatus is the ingestion job state machine: pending moves to
// processing, which settles as completed or failed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// MaxTaskAttempts bounds how many times a task is processed before it is
// dead-lettered and its job marked failed.
const MaxTaskAttempts = 3

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the durable per-job record kept in the job store. Every write
// refreshes the retention TTL.
type Job struct {
	JobID     kernel.JobID `json:"job_id"`
	Status    JobStatus    `json:"status"`
	FilePath  string       `json:"file_path"`
	Options   JobOptions   `json:"options,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Result    *JobResult   `json:"result,omitempty"`
	ResultURL string       `json:"result_url,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// JobResult is stored JSON-encoded in the job record once ingestion
// completes.
type JobResult struct {
	Resume   *Resume        `json:"resume,omitempty"`
	Review   *ReviewResult  `json:"review,omitempty"`
	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata carries per-run processing facts. ReviewError is set when
// review generation failed without failing the job.
type ResultMetadata struct {
	FileType         string `json:"file_type,omitempty"`
	TotalPages       int    `json:"total_pages,omitempty"`
	ProcessingMethod string `json:"processing_method,omitempty"`
	EmbeddingCount   int    `json:"embedding_count"`
	ReviewError      string `json:"review_error,omitempty"`
	DurationMs       int64  `json:"duration_ms,omitempty"`
}

// JobPatch is a partial update applied by the job store with
// read-modify-write semantics; nil fields are left untouched.
type JobPatch struct {
	Status    *JobStatus
	Result    *JobResult
	ResultURL *string
	Error     *string
}

// JobOptions travel inside the task envelope and tune one ingestion run.
type JobOptions struct {
	GenerateReview bool `json:"generate_review,omitempty"`
}

// TaskEnvelope is the queue payload. Attempts counts deliveries that ended
// in a retryable failure.
type TaskEnvelope struct {
	TaskID     kernel.TaskID `json:"task_id"`
	JobID      kernel.JobID  `json:"job_id"`
	FilePath   string        `json:"file_path"`
	Attempts   int           `json:"attempts"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
	Options    JobOptions    `json:"options,omitempty"`
}

// QueueStats is a point-in-time snapshot of the queue structures.
type QueueStats struct {
	Ready    int64 `json:"ready"`
	Retries  int64 `json:"retries"`
	InFlight int64 `json:"in_flight"`
}

// JobStats aggregates job-store and queue counters for the stats endpoint.
type JobStats struct {
	TotalJobs      int        `json:"total_jobs"`
	PendingJobs    int        `json:"pending_jobs"`
	ProcessingJobs int        `json:"processing_jobs"`
	CompletedJobs  int        `json:"completed_jobs"`
	FailedJobs     int        `json:"failed_jobs"`
	Queue          QueueStats `json:"queue"`
}
