package resumesrv

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/hirelens/internal/ai/embeddings"
	"github.com/hirelens/hirelens/internal/ai/llmclient"
	"github.com/hirelens/hirelens/internal/docparse"
	"github.com/hirelens/hirelens/pkg/errx"
	"github.com/hirelens/hirelens/pkg/fsx"
	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// Processing methods recorded in the job result metadata.
const (
	methodText = "text"
	methodOCR  = "ocr"
)

// ProcessTask runs one ingestion attempt end to end and settles the outcome:
// ack plus completed result on success, scheduled retry or dead-letter plus
// failed status otherwise. The returned error is for worker logging only.
func (s *Service) ProcessTask(ctx context.Context, task resume.TaskEnvelope) error {
	start := time.Now()
	logx.Infow("processing resume job",
		"job_id", task.JobID.String(),
		"task_id", task.TaskID.String(),
		"attempt", task.Attempts+1,
	)

	s.patchJob(ctx, task.JobID, resume.JobPatch{Status: ptr(resume.JobStatusProcessing)})

	result, err := s.ingest(ctx, task)
	if err != nil {
		return s.settleFailure(ctx, task, start, err)
	}
	result.Metadata.DurationMs = time.Since(start).Milliseconds()

	s.patchJob(ctx, task.JobID, resume.JobPatch{
		Status:    ptr(resume.JobStatusCompleted),
		Result:    result,
		ResultURL: ptr(resumeURLPrefix + result.Resume.UID.String()),
	})
	if err := s.queue.Ack(ctx, task.TaskID); err != nil {
		logx.Warnw("task ack failed", "task_id", task.TaskID.String(), "error", err)
	}
	s.metrics.ObserveJob(string(resume.JobStatusCompleted), time.Since(start))

	logx.Infow("resume job completed",
		"job_id", task.JobID.String(),
		"uid", result.Resume.UID.String(),
		"embedding_count", result.Metadata.EmbeddingCount,
		"duration_ms", result.Metadata.DurationMs,
	)
	return nil
}

func (s *Service) ingest(ctx context.Context, task resume.TaskEnvelope) (*resume.JobResult, error) {
	data, err := s.files.ReadFile(ctx, task.FilePath)
	if err != nil {
		if errors.Is(err, fsx.ErrNotFound) {
			return nil, tagOperation(resume.ErrInvalidFile().
				WithDetail("reason", "stored file is gone").
				WithDetail("file_path", task.FilePath), "read_file")
		}
		return nil, tagOperation(resume.ErrRegistry.NewWithCause(resume.CodeStoreUnavailable, err).
			WithDetail("file_path", task.FilePath), "read_file")
	}

	fileType, ok := docparse.SniffType(data)
	if !ok {
		return nil, tagOperation(resume.ErrUnsupportedFileType().
			WithDetail("file_path", task.FilePath), "sniff_type")
	}

	doc, method, err := s.extract(ctx, fileType, data)
	if err != nil {
		return nil, tagOperation(err, "extract")
	}

	structured, err := s.structurer.Structure(ctx, doc)
	if err != nil {
		return nil, tagOperation(mapLLMError(err, resume.ErrStructuringFailed), "structure")
	}

	// The model calls above dominate the task's lifetime; refresh the
	// in-flight timestamp so the visibility sweep leaves us alone.
	if err := s.queue.Heartbeat(ctx, task.TaskID); err != nil {
		logx.Debugw("task heartbeat failed", "task_id", task.TaskID.String(), "error", err)
	}

	if err := s.resolveUID(ctx, structured); err != nil {
		return nil, tagOperation(err, "resolve_identity")
	}
	structured.Touch(time.Now().UTC())

	seeds := structured.EmbeddingSeeds()
	inputs := make([]string, len(seeds))
	for i := range seeds {
		inputs[i] = seeds[i].Input()
	}
	vectors, err := s.encoder.EncodeBatch(ctx, inputs)
	s.metrics.ObserveEmbedding(err)
	if err != nil {
		if errors.Is(err, embeddings.ErrCircuitOpen) {
			return nil, tagUID(tagOperation(resume.ErrCircuitOpen(), "encode_batch"), structured.UID)
		}
		return nil, tagUID(tagOperation(resume.ErrRegistry.NewWithCause(resume.CodeEmbeddingFailed, err), "encode_batch"), structured.UID)
	}
	points := resume.BuildEmbeddingPoints(structured, seeds, vectors)

	created, err := s.graph.UpsertResume(ctx, structured)
	if err != nil {
		return nil, tagUID(tagOperation(err, "graph_upsert"), structured.UID)
	}
	pointIDs, err := s.vectors.StoreVectors(ctx, structured.UID, points)
	if err != nil {
		// A retry rebuilds both stores from scratch; upsert plus
		// replace-set keeps that safe to repeat.
		return nil, tagUID(tagOperation(err, "vector_store"), structured.UID)
	}
	logx.Infow("resume persisted",
		"uid", structured.UID.String(),
		"created", created,
		"points", len(pointIDs),
	)

	result := &resume.JobResult{
		Resume: structured,
		Metadata: resume.ResultMetadata{
			FileType:         string(fileType),
			TotalPages:       doc.TotalPages,
			ProcessingMethod: method,
			EmbeddingCount:   len(pointIDs),
		},
	}

	if task.Options.GenerateReview && s.reviewer != nil {
		review, rerr := s.reviewer.Review(ctx, structured)
		if rerr != nil {
			// Review is best-effort; the resume is already stored.
			logx.Warnw("resume review failed", "job_id", task.JobID.String(), "error", rerr)
			result.Metadata.ReviewError = sanitizeError(mapLLMError(rerr, resume.ErrReviewFailed))
		} else {
			result.Review = review
		}
	}
	return result, nil
}

// extract picks the extraction path: native text for PDFs with a text
// layer, vision OCR for images and scanned PDFs.
func (s *Service) extract(ctx context.Context, fileType docparse.FileType, data []byte) (*docparse.Document, string, error) {
	switch fileType {
	case docparse.FileTypePDF:
		doc, err := s.parsePDF(data)
		if err == nil && doc.HasText() {
			return doc, methodText, nil
		}
		if err != nil {
			logx.Warnw("pdf text extraction failed, trying ocr", "error", err)
		}
		if s.ocr == nil {
			if err != nil {
				return nil, "", resume.ErrParseFailed().WithDetail("reason", err.Error())
			}
			return nil, "", resume.ErrParseFailed().WithDetail("reason", "document has no extractable text")
		}
		ocrDoc, oerr := s.ocr.ExtractPDF(ctx, data)
		if oerr != nil {
			return nil, "", mapLLMError(oerr, resume.ErrParseFailed)
		}
		if !ocrDoc.HasText() {
			return nil, "", resume.ErrParseFailed().WithDetail("reason", "ocr produced no text")
		}
		return ocrDoc, methodOCR, nil

	case docparse.FileTypeJPEG, docparse.FileTypePNG:
		if s.ocr == nil {
			return nil, "", resume.ErrUnsupportedFileType().WithDetail("reason", "image ingestion requires ocr")
		}
		doc, err := s.ocr.ExtractImage(ctx, fileType, data)
		if err != nil {
			return nil, "", mapLLMError(err, resume.ErrParseFailed)
		}
		if !doc.HasText() {
			return nil, "", resume.ErrParseFailed().WithDetail("reason", "ocr produced no text")
		}
		return doc, methodOCR, nil

	default:
		return nil, "", resume.ErrUnsupportedFileType()
	}
}

// resolveUID keeps one resume per person: a stored resume with the same
// normalized email lends its uid and created_at, otherwise a fresh uid is
// minted.
func (s *Service) resolveUID(ctx context.Context, r *resume.Resume) error {
	if email := r.Email(); email != "" {
		existing, err := s.graph.GetResumeByEmail(ctx, email)
		switch {
		case err == nil:
			r.UID = existing.UID
			r.CreatedAt = existing.CreatedAt
			logx.Infow("resume matched by email, replacing", "uid", r.UID.String())
			return nil
		case errx.IsType(err, errx.TypeNotFound):
			// fall through to mint
		default:
			return err
		}
	}
	if r.UID.IsEmpty() {
		r.UID = kernel.NewResumeUID(uuid.NewString())
	}
	return nil
}

// settleFailure decides between retry and dead-letter, then reflects the
// outcome on the job record. Either way the job reads failed with the
// sanitized message; a scheduled retry flips it back to processing when
// the task is picked up again.
func (s *Service) settleFailure(ctx context.Context, task resume.TaskEnvelope, start time.Time, cause error) error {
	sanitized := sanitizeError(cause)
	operation, target, uid := failureContext(cause)

	if resume.IsRetryable(cause) && task.Attempts+1 < resume.MaxTaskAttempts {
		dueAt, err := s.queue.ScheduleRetry(ctx, task)
		if err == nil {
			logx.Warnw("resume job scheduled for retry",
				"job_id", task.JobID.String(),
				"uid", uid,
				"attempt", task.Attempts+1,
				"operation", operation,
				"target_service", target,
				"status", string(resume.JobStatusFailed),
				"next_at", dueAt.UTC().Format(time.RFC3339),
				"error", cause,
			)
			s.patchJob(ctx, task.JobID, resume.JobPatch{
				Status: ptr(resume.JobStatusFailed),
				Error:  ptr(sanitized),
			})
			return cause
		}
		logx.Errorw("retry scheduling failed, dead-lettering",
			"job_id", task.JobID.String(), "error", err)
	}

	if err := s.queue.DeadLetter(ctx, task); err != nil {
		logx.Errorw("dead-letter failed", "task_id", task.TaskID.String(), "error", err)
	}
	s.patchJob(ctx, task.JobID, resume.JobPatch{
		Status: ptr(resume.JobStatusFailed),
		Error:  ptr(sanitized),
	})
	s.metrics.ObserveJob(string(resume.JobStatusFailed), time.Since(start))

	logx.Errorw("resume job failed",
		"job_id", task.JobID.String(),
		"uid", uid,
		"attempt", task.Attempts+1,
		"operation", operation,
		"target_service", target,
		"status", string(resume.JobStatusFailed),
		"duration_ms", time.Since(start).Milliseconds(),
		"error", cause,
	)
	return cause
}

// patchJob applies a best-effort job update. Queue state, not the job
// record, drives the pipeline, so a failed patch only degrades visibility.
func (s *Service) patchJob(ctx context.Context, jobID kernel.JobID, patch resume.JobPatch) {
	if _, err := s.jobs.UpdateJob(ctx, jobID, patch); err != nil {
		logx.Warnw("job update failed", "job_id", jobID.String(), "error", err)
	}
}

// tagOperation records which pipeline step an error escaped from, for the
// failure logs. Non-registry errors pass through untouched.
func tagOperation(err error, op string) error {
	if e, ok := errx.AsError(err); ok {
		e.WithDetail("operation", op)
	}
	return err
}

// tagUID stamps the resolved resume identity on an error. Only steps after
// identity resolution can carry it.
func tagUID(err error, uid kernel.ResumeUID) error {
	if e, ok := errx.AsError(err); ok {
		e.WithDetail("uid", uid.String())
	}
	return err
}

// failureContext pulls the failed step, the dependency behind it and the
// resume identity (when known) out of the error chain. Validation and parse
// failures have no target service.
func failureContext(err error) (operation, targetService, uid string) {
	e, ok := errx.AsError(err)
	if !ok {
		return "", "", ""
	}
	if op, ok := e.Details["operation"].(string); ok {
		operation = op
	}
	if id, ok := e.Details["uid"].(string); ok {
		uid = id
	}
	switch e.Code {
	case resume.CodeLLMUnavailable, resume.CodeStructuringFailed, resume.CodeReviewFailed:
		targetService = "llm"
	case resume.CodeEmbeddingFailed, resume.CodeCircuitOpen, resume.CodeVectorMismatch:
		targetService = "embeddings"
	case resume.CodeQueueUnavailable, resume.CodeEnqueueFailed:
		targetService = "queue"
	case resume.CodeJobUpdateFailed:
		targetService = "job-store"
	case resume.CodeStoreUnavailable:
		targetService = "store"
	}
	return operation, targetService, uid
}

// mapLLMError keeps model unavailability retryable while malformed model
// output fails fast through the given final-error constructor.
func mapLLMError(err error, final func() *errx.Error) error {
	if errors.Is(err, llmclient.ErrInvalidResponse) {
		return final().WithDetail("reason", "model returned unusable output")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resume.ErrLLMUnavailable()
	}
	return resume.ErrRegistry.NewWithCause(resume.CodeLLMUnavailable, err)
}

// sanitizeError yields the operator-safe message stored on the job record.
// Raw provider errors stay in logs only.
func sanitizeError(err error) string {
	var e *errx.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "resume processing failed"
}
