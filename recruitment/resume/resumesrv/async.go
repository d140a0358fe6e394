package resumesrv

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/hirelens/internal/docparse"
	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/recruitment/resume"
)

const (
	uploadDir       = "resumes"
	jobURLPrefix    = "/api/v1/jobs/"
	resumeURLPrefix = "/api/v1/resumes/"
)

// UploadResume validates the file, persists it to blob storage, records a
// pending job and enqueues the ingestion task. The caller gets back the job
// id to poll.
func (s *Service) UploadResume(ctx context.Context, req resume.UploadResumeRequest) (*resume.UploadAcceptedResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, resume.ErrInvalidFile().WithDetail("reason", err.Error())
	}
	fileType, err := docparse.ValidateUpload(req.FileName, req.Data, s.limits)
	if err != nil {
		return nil, mapUploadError(err, req.FileName)
	}

	jobID := kernel.NewJobID(uuid.NewString())
	path := s.files.Join(uploadDir, jobID.String()+strings.ToLower(filepath.Ext(req.FileName)))
	if err := s.files.WriteFile(ctx, path, req.Data); err != nil {
		return nil, resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
			WithDetail("file_path", path)
	}

	now := time.Now().UTC()
	job := &resume.Job{
		JobID:     jobID,
		Status:    resume.JobStatusPending,
		FilePath:  path,
		Options:   resume.JobOptions{GenerateReview: req.GenerateReview},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		s.discardUpload(ctx, kernel.JobID(""), path)
		return nil, err
	}

	task := resume.TaskEnvelope{
		TaskID:     kernel.NewTaskID(uuid.NewString()),
		JobID:      jobID,
		FilePath:   path,
		EnqueuedAt: now,
		Options:    job.Options,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// Roll back so the job does not sit pending with nothing behind it.
		s.discardUpload(ctx, jobID, path)
		return nil, err
	}

	logx.Infow("resume upload accepted",
		"job_id", jobID.String(),
		"file_type", string(fileType),
		"bytes", len(req.Data),
		"generate_review", req.GenerateReview,
	)
	return resume.ToUploadAcceptedResponse(job, jobURLPrefix+jobID.String()), nil
}

func (s *Service) discardUpload(ctx context.Context, jobID kernel.JobID, path string) {
	if !jobID.IsEmpty() {
		if err := s.jobs.DeleteJob(ctx, jobID); err != nil {
			logx.Warnw("upload rollback: job delete failed", "job_id", jobID.String(), "error", err)
		}
	}
	if err := s.files.DeleteFile(ctx, path); err != nil {
		logx.Warnw("upload rollback: file delete failed", "file_path", path, "error", err)
	}
}

func mapUploadError(err error, fileName string) error {
	switch {
	case errors.Is(err, docparse.ErrEmptyFile):
		return resume.ErrInvalidFile().WithDetail("reason", "empty file")
	case errors.Is(err, docparse.ErrDangerousName):
		return resume.ErrDangerousFile().WithDetail("reason", "file name failed safety checks")
	case errors.Is(err, docparse.ErrDangerousContent):
		return resume.ErrDangerousFile().WithDetail("reason", "file content failed safety checks")
	case errors.Is(err, docparse.ErrUnsupportedType):
		return resume.ErrUnsupportedFileType().WithDetail("file_name", fileName)
	case errors.Is(err, docparse.ErrTypeMismatch):
		return resume.ErrInvalidFile().WithDetail("reason", "file content does not match its extension")
	case errors.Is(err, docparse.ErrTooLarge):
		return resume.ErrFileTooLarge()
	default:
		return resume.ErrInvalidFile().WithDetail("reason", err.Error())
	}
}

// ============================================================================
// Job Operations
// ============================================================================

// GetJobStatus returns the current job record, including the result once
// the job completed.
func (s *Service) GetJobStatus(ctx context.Context, jobID kernel.JobID) (*resume.JobStatusResponse, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return resume.ToJobStatusResponse(job), nil
}

// ListJobs pages job records, optionally narrowed to one status.
func (s *Service) ListJobs(ctx context.Context, req resume.ListJobsRequest) (*kernel.Paginated[resume.JobStatusResponse], error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, resume.ErrInvalidJobPayload().WithDetail("reason", err.Error())
	}
	page, err := s.jobs.ListJobs(ctx, resume.JobStatus(req.Status), req.Pagination)
	if err != nil {
		return nil, err
	}
	return resume.ToJobList(page), nil
}

// DeleteJob removes a terminal job record and its stored file.
func (s *Service) DeleteJob(ctx context.Context, jobID kernel.JobID) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.Status.IsTerminal() {
		return resume.ErrJobNotTerminal().WithDetail("status", string(job.Status))
	}
	if err := s.jobs.DeleteJob(ctx, jobID); err != nil {
		return err
	}
	if job.FilePath != "" {
		if err := s.files.DeleteFile(ctx, job.FilePath); err != nil {
			logx.Warnw("job file delete failed", "job_id", jobID.String(), "file_path", job.FilePath, "error", err)
		}
	}
	logx.Infow("job deleted", "job_id", jobID.String())
	return nil
}

// RetryJob re-enqueues a failed job with a fresh attempt budget.
func (s *Service) RetryJob(ctx context.Context, jobID kernel.JobID) (*resume.JobStatusResponse, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != resume.JobStatusFailed {
		return nil, resume.ErrJobNotFailed().WithDetail("status", string(job.Status))
	}

	updated, err := s.jobs.UpdateJob(ctx, jobID, resume.JobPatch{
		Status: ptr(resume.JobStatusPending),
		Error:  ptr(""),
	})
	if err != nil {
		return nil, err
	}

	task := resume.TaskEnvelope{
		TaskID:     kernel.NewTaskID(uuid.NewString()),
		JobID:      jobID,
		FilePath:   job.FilePath,
		EnqueuedAt: time.Now().UTC(),
		Options:    job.Options,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, err
	}

	logx.Infow("failed job re-enqueued", "job_id", jobID.String())
	return resume.ToJobStatusResponse(updated), nil
}

// GetJobStats aggregates job counts by status with queue depths.
func (s *Service) GetJobStats(ctx context.Context) (*resume.JobStats, error) {
	counts, err := s.jobs.CountJobsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	queueStats, err := s.queue.Stats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &resume.JobStats{
		PendingJobs:    int(counts[resume.JobStatusPending]),
		ProcessingJobs: int(counts[resume.JobStatusProcessing]),
		CompletedJobs:  int(counts[resume.JobStatusCompleted]),
		FailedJobs:     int(counts[resume.JobStatusFailed]),
		Queue:          *queueStats,
	}
	stats.TotalJobs = stats.PendingJobs + stats.ProcessingJobs + stats.CompletedJobs + stats.FailedJobs
	return stats, nil
}
