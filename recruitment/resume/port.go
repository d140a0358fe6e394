package resume

import (
	"context"
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
)

// JobStore persists job lifecycle records, one hash per job, expiring
// after the retention window.
type JobStore interface {
	// CreateJob writes a new job record and applies the retention TTL
	CreateJob(ctx context.Context, job *Job) error

	// GetJob retrieves a job by id
	GetJob(ctx context.Context, jobID kernel.JobID) (*Job, error)

	// UpdateJob applies a partial update, refreshes updated_at and re-applies the TTL
	UpdateJob(ctx context.Context, jobID kernel.JobID, patch JobPatch) (*Job, error)

	// DeleteJob removes a job record; deleting a missing job is not an error
	DeleteJob(ctx context.Context, jobID kernel.JobID) error

	// ListJobs pages through known jobs, optionally filtered by status
	ListJobs(ctx context.Context, status JobStatus, pagination kernel.PaginationOptions) (*kernel.Paginated[Job], error)

	// CountJobsByStatus tallies jobs per status for the stats endpoint
	CountJobsByStatus(ctx context.Context) (map[JobStatus]int64, error)
}

// TaskQueue moves processing tasks between the ready list, the retry
// schedule and the in-flight ledger.
type TaskQueue interface {
	// Enqueue pushes a task onto the ready queue
	Enqueue(ctx context.Context, task TaskEnvelope) error

	// Dequeue blocks up to timeout for the next task and records it in-flight;
	// returns (nil, nil) when the timeout elapses with nothing to do
	Dequeue(ctx context.Context, timeout time.Duration) (*TaskEnvelope, error)

	// Heartbeat refreshes the in-flight timestamp of a running task so the
	// visibility sweep does not reclaim it mid-pipeline
	Heartbeat(ctx context.Context, taskID kernel.TaskID) error

	// Ack removes a finished task from the in-flight ledger
	Ack(ctx context.Context, taskID kernel.TaskID) error

	// ScheduleRetry acks the task and re-schedules it with backoff based on
	// its attempt count
	ScheduleRetry(ctx context.Context, task TaskEnvelope) (time.Time, error)

	// DeadLetter acks the task and parks it for inspection after retries
	// are exhausted
	DeadLetter(ctx context.Context, task TaskEnvelope) error

	// ProcessRetries atomically moves due retries back to the ready queue
	ProcessRetries(ctx context.Context) (int, error)

	// CleanupExpired requeues in-flight tasks whose visibility timeout passed
	CleanupExpired(ctx context.Context) (int, error)

	// Stats reports the depth of each queue segment
	Stats(ctx context.Context) (*QueueStats, error)

	// Purge drops every queued, scheduled and in-flight task
	Purge(ctx context.Context) error
}

// GraphStore persists structured resumes as a property graph keyed by uid.
type GraphStore interface {
	// UpsertResume writes the full resume graph; returns true when a new
	// node was created rather than an existing one replaced
	UpsertResume(ctx context.Context, r *Resume) (bool, error)

	// GetResume loads one resume with all its sections
	GetResume(ctx context.Context, uid kernel.ResumeUID) (*Resume, error)

	// GetResumesByIds loads a batch of resumes, skipping missing uids
	GetResumesByIds(ctx context.Context, uids []kernel.ResumeUID) ([]*Resume, error)

	// GetResumeByEmail resolves a resume by normalized contact email
	GetResumeByEmail(ctx context.Context, email string) (*Resume, error)

	// ListResumes pages through stored resumes ordered by creation time
	ListResumes(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[Resume], error)

	// DeleteResume detaches and removes the resume node only
	DeleteResume(ctx context.Context, uid kernel.ResumeUID) error

	// DeleteResumeCascade removes the resume and its exclusive subtree,
	// leaving shared leaf nodes in place
	DeleteResumeCascade(ctx context.Context, uid kernel.ResumeUID) error
}

// VectorStore persists embedding points and answers similarity queries.
type VectorStore interface {
	// StoreVectors replaces all points for the uid with the given set and
	// returns the ids assigned to the inserted points
	StoreVectors(ctx context.Context, uid kernel.ResumeUID, points []EmbeddingPoint) ([]kernel.PointID, error)

	// Search runs cosine similarity over stored points, constrained by the
	// optional payload filter
	Search(ctx context.Context, query []float32, limit int, minScore float64, filter *PointFilter) ([]VectorHit, error)

	// DeleteVectors removes every point belonging to the uid and reports
	// how many points were dropped
	DeleteVectors(ctx context.Context, uid kernel.ResumeUID) (int, error)
}
