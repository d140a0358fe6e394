package rag

import (
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
)

// ============================================================================
// Request DTOs
// ============================================================================

// ExplainMatchRequest - Score one stored resume against a job description
type ExplainMatchRequest struct {
	UID            string `json:"uid" validate:"required"`
	JobDescription string `json:"job_description" validate:"required,min=30"`
}

// CompareCandidatesRequest - Rank two to five stored resumes side by side
type CompareCandidatesRequest struct {
	UIDs       []string `json:"uids" validate:"required,min=2,max=5,unique,dive,required"`
	Criteria   string   `json:"criteria,omitempty"`
	JobContext string   `json:"job_context,omitempty"`
}

// InterviewQuestionsRequest - Generate an interview script for one resume
type InterviewQuestionsRequest struct {
	UID           string        `json:"uid" validate:"required"`
	InterviewType InterviewType `json:"interview_type" validate:"required,oneof=technical behavioral general"`
	RoleContext   string        `json:"role_context,omitempty"`
	FocusAreas    []string      `json:"focus_areas,omitempty" validate:"max=10"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// ExplainMatchResponse - Match explanation plus the candidate it concerns
type ExplainMatchResponse struct {
	UID           kernel.ResumeUID     `json:"uid"`
	CandidateName string               `json:"candidate_name,omitempty"`
	Explanation   *JobMatchExplanation `json:"explanation"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// CompareCandidatesResponse - Full comparison across the requested resumes
type CompareCandidatesResponse struct {
	Comparison  *CandidateComparison `json:"comparison"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// InterviewQuestionsResponse - Interview script for the requested resume
type InterviewQuestionsResponse struct {
	UID           kernel.ResumeUID      `json:"uid"`
	CandidateName string                `json:"candidate_name,omitempty"`
	QuestionSet   *InterviewQuestionSet `json:"question_set"`
	GeneratedAt   time.Time             `json:"generated_at"`
}
