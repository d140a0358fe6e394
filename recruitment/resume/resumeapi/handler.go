package resumeapi

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
	"github.com/hirelens/hirelens/recruitment/resume/resumesrv"
)

type ResumeHandlers struct {
	service *resumesrv.Service
}

func NewResumeHandlers(service *resumesrv.Service) *ResumeHandlers {
	return &ResumeHandlers{service: service}
}

func (h *ResumeHandlers) RegisterRoutes(app *fiber.App) {
	resumes := app.Group("/api/v1/resumes")
	resumes.Post("/", h.UploadResume)      // Upload and queue for processing
	resumes.Get("/:uid", h.GetResume)      // Full structured document
	resumes.Delete("/:uid", h.DeleteResume)
	resumes.Get("/", h.ListResumes)

	jobs := app.Group("/api/v1/jobs")
	jobs.Get("/stats", h.GetJobStats) // before :job_id so "stats" is not a job id
	jobs.Get("/:job_id", h.GetJobStatus)
	jobs.Get("/", h.ListJobs)
	jobs.Delete("/:job_id", h.DeleteJob)
	jobs.Post("/:job_id/retry", h.RetryJob)
}

// ============================================================================
// Resume Handlers
// ============================================================================

// UploadResume accepts a multipart resume file and queues it for ingestion.
// POST /api/v1/resumes
func (h *ResumeHandlers) UploadResume(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	uploaded, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open uploaded file",
		})
	}
	defer uploaded.Close()

	data, err := io.ReadAll(uploaded)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read uploaded file",
		})
	}

	req := resume.UploadResumeRequest{
		FileName:       file.Filename,
		Data:           data,
		GenerateReview: c.FormValue("generate_review", "false") == "true",
	}

	response, err := h.service.UploadResume(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(response)
}

// GetResume returns the stored structured document.
// GET /api/v1/resumes/:uid
func (h *ResumeHandlers) GetResume(c *fiber.Ctx) error {
	uid := kernel.ResumeUID(c.Params("uid"))
	if uid.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid resume uid",
		})
	}

	response, err := h.service.GetResume(c.Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// DeleteResume removes a resume from the graph and vector stores.
// DELETE /api/v1/resumes/:uid
func (h *ResumeHandlers) DeleteResume(c *fiber.Ctx) error {
	uid := kernel.ResumeUID(c.Params("uid"))
	if uid.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid resume uid",
		})
	}

	response, err := h.service.DeleteResume(c.Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// ListResumes pages stored resumes, newest first.
// GET /api/v1/resumes?page=1&page_size=20
func (h *ResumeHandlers) ListResumes(c *fiber.Ctx) error {
	req := resume.ListResumesRequest{
		Pagination: kernel.PaginationOptions{
			Page:     c.QueryInt("page", 1),
			PageSize: c.QueryInt("page_size", 20),
		},
	}

	response, err := h.service.ListResumes(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// ============================================================================
// Job Handlers
// ============================================================================

// GetJobStatus returns the processing state of one job.
// GET /api/v1/jobs/:job_id
func (h *ResumeHandlers) GetJobStatus(c *fiber.Ctx) error {
	jobID := kernel.JobID(c.Params("job_id"))
	if jobID.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	response, err := h.service.GetJobStatus(c.Context(), jobID)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// ListJobs pages job records, optionally filtered by status.
// GET /api/v1/jobs?status=failed&page=1&page_size=20
func (h *ResumeHandlers) ListJobs(c *fiber.Ctx) error {
	req := resume.ListJobsRequest{
		Status: c.Query("status"),
		Pagination: kernel.PaginationOptions{
			Page:     c.QueryInt("page", 1),
			PageSize: c.QueryInt("page_size", 20),
		},
	}

	response, err := h.service.ListJobs(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// DeleteJob removes a terminal job record.
// DELETE /api/v1/jobs/:job_id
func (h *ResumeHandlers) DeleteJob(c *fiber.Ctx) error {
	jobID := kernel.JobID(c.Params("job_id"))
	if jobID.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	if err := h.service.DeleteJob(c.Context(), jobID); err != nil {
		return err
	}
	return c.Status(fiber.StatusNoContent).Send(nil)
}

// RetryJob re-enqueues a failed job.
// POST /api/v1/jobs/:job_id/retry
func (h *ResumeHandlers) RetryJob(c *fiber.Ctx) error {
	jobID := kernel.JobID(c.Params("job_id"))
	if jobID.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	response, err := h.service.RetryJob(c.Context(), jobID)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// GetJobStats returns counts by status plus live queue depths.
// GET /api/v1/jobs/stats
func (h *ResumeHandlers) GetJobStats(c *fiber.Ctx) error {
	stats, err := h.service.GetJobStats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
