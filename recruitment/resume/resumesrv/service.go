// Package resumesrv orchestrates resume ingestion: uploads, job bookkeeping
// and the worker-side pipeline that turns a stored file into a graph resume
// plus its embedding points.
package resumesrv

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/hirelens/hirelens/internal/docparse"
	"github.com/hirelens/hirelens/pkg/errx"
	"github.com/hirelens/hirelens/pkg/fsx"
	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/pkg/metrics"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// Collaborator contracts, defined here so tests can stub them without
// touching the AI packages.

// DocumentOCR transcribes scanned PDFs and images through the vision model.
type DocumentOCR interface {
	ExtractPDF(ctx context.Context, data []byte) (*docparse.Document, error)
	ExtractImage(ctx context.Context, fileType docparse.FileType, data []byte) (*docparse.Document, error)
}

// ResumeStructurer turns an extracted document into a structured resume.
type ResumeStructurer interface {
	Structure(ctx context.Context, doc *docparse.Document) (*resume.Resume, error)
}

// ResumeReviewer produces the optional quality review.
type ResumeReviewer interface {
	Review(ctx context.Context, r *resume.Resume) (*resume.ReviewResult, error)
}

// EmbeddingEncoder encodes seed texts into vectors, preserving input order.
type EmbeddingEncoder interface {
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Dependencies wires the service. Reviewer and Metrics may be nil; OCR may
// be nil to disable the image path and scanned-PDF fallback.
type Dependencies struct {
	Jobs       resume.JobStore
	Queue      resume.TaskQueue
	Graph      resume.GraphStore
	Vectors    resume.VectorStore
	Files      fsx.FileSystem
	OCR        DocumentOCR
	Structurer ResumeStructurer
	Reviewer   ResumeReviewer
	Encoder    EmbeddingEncoder
	Metrics    *metrics.Metrics
	Limits     docparse.Limits
}

type Service struct {
	jobs       resume.JobStore
	queue      resume.TaskQueue
	graph      resume.GraphStore
	vectors    resume.VectorStore
	files      fsx.FileSystem
	ocr        DocumentOCR
	structurer ResumeStructurer
	reviewer   ResumeReviewer
	encoder    EmbeddingEncoder
	metrics    *metrics.Metrics
	limits     docparse.Limits
	validate   *validator.Validate

	// swapped out in tests; production always uses docparse.ParsePDF
	parsePDF func(data []byte) (*docparse.Document, error)
}

func NewService(deps Dependencies) *Service {
	limits := deps.Limits
	if limits.MaxPDFBytes == 0 && limits.MaxImageBytes == 0 {
		limits = docparse.DefaultLimits()
	}
	return &Service{
		jobs:       deps.Jobs,
		queue:      deps.Queue,
		graph:      deps.Graph,
		vectors:    deps.Vectors,
		files:      deps.Files,
		ocr:        deps.OCR,
		structurer: deps.Structurer,
		reviewer:   deps.Reviewer,
		encoder:    deps.Encoder,
		metrics:    deps.Metrics,
		limits:     limits,
		validate:   validator.New(),
		parsePDF:   docparse.ParsePDF,
	}
}

// ============================================================================
// Resume Read & Delete
// ============================================================================

// GetResume returns the full structured document for one resume.
func (s *Service) GetResume(ctx context.Context, uid kernel.ResumeUID) (*resume.ResumeResponse, error) {
	r, err := s.graph.GetResume(ctx, uid)
	if err != nil {
		return nil, err
	}
	return resume.ToResumeResponse(r), nil
}

// ListResumes pages stored resumes, newest first.
func (s *Service) ListResumes(ctx context.Context, req resume.ListResumesRequest) (*kernel.Paginated[resume.ResumeSummary], error) {
	page, err := s.graph.ListResumes(ctx, req.Pagination)
	if err != nil {
		return nil, err
	}
	return resume.ToResumeList(page), nil
}

// DeleteResume removes a resume from both stores. Deleting a uid that is
// already gone is not an error; the vector cleanup still runs so no
// orphaned points survive. A vector cleanup failure leaves unreachable
// points, so it is reported rather than swallowed.
func (s *Service) DeleteResume(ctx context.Context, uid kernel.ResumeUID) (*resume.DeleteResumeResponse, error) {
	deleted := true
	if err := s.graph.DeleteResumeCascade(ctx, uid); err != nil {
		if !errx.IsType(err, errx.TypeNotFound) {
			return nil, err
		}
		deleted = false
	}
	removed, err := s.vectors.DeleteVectors(ctx, uid)
	if err != nil {
		logx.Errorw("vector cleanup failed after graph delete",
			"uid", uid.String(), "error", err)
		return nil, err
	}
	logx.Infow("resume deleted",
		"uid", uid.String(), "deleted", deleted, "points_removed", removed)
	return &resume.DeleteResumeResponse{
		UID:     uid,
		Deleted: deleted,
		Cascade: true,
	}, nil
}

func ptr[T any](v T) *T { return &v }
