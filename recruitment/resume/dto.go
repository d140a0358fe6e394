package resume

import (
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
)

// ============================================================================
// Request DTOs
// ============================================================================

// UploadResumeRequest - Accepted file upload, already read into memory
type UploadResumeRequest struct {
	FileName       string `json:"file_name" validate:"required"`
	Data           []byte `json:"-" validate:"required"`
	GenerateReview bool   `json:"generate_review"`
}

// ListJobsRequest - Page through processing jobs
type ListJobsRequest struct {
	Status     string                   `json:"status" validate:"omitempty,oneof=pending processing completed failed"`
	Pagination kernel.PaginationOptions `json:"pagination"`
}

// ListResumesRequest - Page through stored resumes
type ListResumesRequest struct {
	Pagination kernel.PaginationOptions `json:"pagination"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// UploadAcceptedResponse - Returned with 202 when a file enters the pipeline
type UploadAcceptedResponse struct {
	JobID     kernel.JobID `json:"job_id"`
	Status    JobStatus    `json:"status"`
	StatusURL string       `json:"status_url"`
	CreatedAt time.Time    `json:"created_at"`
}

// JobStatusResponse - Current state of a processing job
type JobStatusResponse struct {
	JobID     kernel.JobID `json:"job_id"`
	Status    JobStatus    `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Result    *JobResult   `json:"result,omitempty"`
	ResultURL string       `json:"result_url,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// ResumeSummary - Lightweight listing view of a stored resume
type ResumeSummary struct {
	UID             kernel.ResumeUID `json:"uid"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Role            string           `json:"role,omitempty"`
	Location        string           `json:"location,omitempty"`
	YearsExperience int              `json:"years_experience"`
	TopSkills       []string         `json:"top_skills,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ResumeResponse - Full structured resume
type ResumeResponse struct {
	UID                     kernel.ResumeUID         `json:"uid"`
	PersonalInfo            *PersonalInfo            `json:"personal_info,omitempty"`
	ProfessionalProfile     *ProfessionalProfile     `json:"professional_profile,omitempty"`
	Skills                  []Skill                  `json:"skills,omitempty"`
	EmploymentHistory       []EmploymentHistoryItem  `json:"employment_history,omitempty"`
	Projects                []Project                `json:"projects,omitempty"`
	Education               []EducationItem          `json:"education,omitempty"`
	Courses                 []Course                 `json:"courses,omitempty"`
	Certifications          []Certification          `json:"certifications,omitempty"`
	LanguageProficiencies   []LanguageProficiency    `json:"language_proficiencies,omitempty"`
	Awards                  []Award                  `json:"awards,omitempty"`
	ScientificContributions []ScientificContribution `json:"scientific_contributions,omitempty"`
	YearsExperience         float64                  `json:"years_experience"`
	CreatedAt               time.Time                `json:"created_at"`
	UpdatedAt               time.Time                `json:"updated_at"`
}

// DeleteResumeResponse - Confirms removal from both stores
type DeleteResumeResponse struct {
	UID     kernel.ResumeUID `json:"uid"`
	Deleted bool             `json:"deleted"`
	Cascade bool             `json:"cascade"`
}

// ============================================================================
// Mapper Functions
// ============================================================================

// ToUploadAcceptedResponse builds the 202 body for a freshly created job
func ToUploadAcceptedResponse(job *Job, statusURL string) *UploadAcceptedResponse {
	return &UploadAcceptedResponse{
		JobID:     job.JobID,
		Status:    job.Status,
		StatusURL: statusURL,
		CreatedAt: job.CreatedAt,
	}
}

// ToJobStatusResponse converts a Job record to its API view
func ToJobStatusResponse(job *Job) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:     job.JobID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Result:    job.Result,
		ResultURL: job.ResultURL,
		Error:     job.Error,
	}
}

// ToJobList maps a page of jobs to their API views
func ToJobList(jobs *kernel.Paginated[Job]) *kernel.Paginated[JobStatusResponse] {
	items := make([]JobStatusResponse, len(jobs.Items))
	for i := range jobs.Items {
		items[i] = *ToJobStatusResponse(&jobs.Items[i])
	}
	return kernel.NewPaginated(items, jobs.Page.Number, jobs.Page.Size, jobs.Page.Total)
}

// ToResumeSummary converts a Resume to its listing view
func ToResumeSummary(r *Resume) *ResumeSummary {
	skills := r.SkillNames()
	if len(skills) > 10 {
		skills = skills[:10]
	}
	return &ResumeSummary{
		UID:             r.UID,
		Name:            r.Name(),
		Email:           r.Email(),
		Role:            r.PreferredRole(),
		Location:        r.PrimaryLocation(),
		YearsExperience: r.RoundedYearsOfExperience(),
		TopSkills:       skills,
		CreatedAt:       r.CreatedAt,
	}
}

// ToResumeList maps a page of resumes to their listing views
func ToResumeList(page *kernel.Paginated[Resume]) *kernel.Paginated[ResumeSummary] {
	items := make([]ResumeSummary, len(page.Items))
	for i := range page.Items {
		items[i] = *ToResumeSummary(&page.Items[i])
	}
	return kernel.NewPaginated(items, page.Page.Number, page.Page.Size, page.Page.Total)
}

// ToResumeResponse converts a Resume domain model to its full API view
func ToResumeResponse(r *Resume) *ResumeResponse {
	return &ResumeResponse{
		UID:                     r.UID,
		PersonalInfo:            r.PersonalInfo,
		ProfessionalProfile:     r.ProfessionalProfile,
		Skills:                  r.Skills,
		EmploymentHistory:       r.EmploymentHistory,
		Projects:                r.Projects,
		Education:               r.Education,
		Courses:                 r.Courses,
		Certifications:          r.Certifications,
		LanguageProficiencies:   r.LanguageProficiencies,
		Awards:                  r.Awards,
		ScientificContributions: r.ScientificContributions,
		YearsExperience:         r.TotalYearsOfExperience(),
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}
}
