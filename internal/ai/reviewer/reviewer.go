// Package reviewer produces an advisory quality review of a structured
// resume: per-section improvement points ranked by severity, an overall
// score and a short summary. Reviews are optional and never block
// ingestion.
package reviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hirelens/hirelens/internal/ai/llmclient"
	"github.com/hirelens/hirelens/recruitment/resume"
)

const reviewTemperature = 0.3

const systemPrompt = `You are a senior technical recruiter reviewing a structured resume. For each section, list concrete improvement points in three severity buckets:
- "must": problems that will cost the candidate interviews (missing contact email, no dates on positions, empty key points).
- "should": weaknesses worth fixing (vague bullets, missing metrics, unexplained gaps).
- "advise": optional polish (ordering, phrasing, extras worth adding).

Leave a bucket empty when there is nothing to say. Judge only what is in the document. Score the overall resume quality from 0 (unusable) to 100 (excellent) and write a 2-4 sentence summary of its state.`

// reviewOutput is the LLM contract. Severity buckets are plain string
// lists; sections the model has nothing to say about stay empty.
type reviewOutput struct {
	PersonalInfo        sectionOutput `json:"personal_info"`
	ProfessionalProfile sectionOutput `json:"professional_profile"`
	Skills              sectionOutput `json:"skills"`
	EmploymentHistory   sectionOutput `json:"employment_history"`
	Projects            sectionOutput `json:"projects"`
	Education           sectionOutput `json:"education"`
	Languages           sectionOutput `json:"languages"`
	OverallScore        int           `json:"overall_score" validate:"min=0,max=100"`
	Summary             string        `json:"summary" validate:"required"`
}

type sectionOutput struct {
	Must   []string `json:"must"`
	Should []string `json:"should"`
	Advise []string `json:"advise"`
}

// Reviewer generates resume quality reviews.
type Reviewer struct {
	llm      *llmclient.Client
	validate *validator.Validate
}

// New creates a reviewer on top of the shared LLM client.
func New(llm *llmclient.Client) *Reviewer {
	return &Reviewer{llm: llm, validate: validator.New()}
}

// Review runs the quality review over a structured resume.
func (rv *Reviewer) Review(ctx context.Context, r *resume.Resume) (*resume.ReviewResult, error) {
	doc, err := json.MarshalIndent(resume.ToResumeResponse(r), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resume for review: %w", err)
	}

	out, err := llmclient.Run[reviewOutput](ctx, rv.llm, llmclient.Request{
		System:      systemPrompt,
		User:        "Review this structured resume:\n\n" + string(doc),
		Temperature: reviewTemperature,
		SchemaName:  "resume_review",
	})
	if err != nil {
		return nil, err
	}
	if err := rv.validate.Struct(out); err != nil {
		return nil, fmt.Errorf("review failed validation: %w", err)
	}

	return out.toDomain(r), nil
}

// toDomain keeps a section when the resume has content for it or the model
// raised issues about it; clean reviews of absent sections are dropped.
func (ro *reviewOutput) toDomain(r *resume.Resume) *resume.ReviewResult {
	all := []struct {
		section resume.ReviewSection
		output  sectionOutput
		present bool
	}{
		{resume.SectionPersonalInfo, ro.PersonalInfo, r.PersonalInfo != nil},
		{resume.SectionProfile, ro.ProfessionalProfile, r.ProfessionalProfile != nil},
		{resume.SectionSkills, ro.Skills, len(r.Skills) > 0},
		{resume.SectionEmployment, ro.EmploymentHistory, len(r.EmploymentHistory) > 0},
		{resume.SectionProjects, ro.Projects, len(r.Projects) > 0},
		{resume.SectionEducation, ro.Education, len(r.Education) > 0},
		{resume.SectionLanguages, ro.Languages, len(r.LanguageProficiencies) > 0},
	}

	sections := make(map[resume.ReviewSection]resume.SectionReview, len(all))
	for _, entry := range all {
		review := entry.output.toDomain()
		if !entry.present && review.IsClean() {
			continue
		}
		sections[entry.section] = review
	}
	return &resume.ReviewResult{
		Sections:     sections,
		OverallScore: ro.OverallScore,
		Summary:      ro.Summary,
		GeneratedAt:  time.Now().UTC(),
	}
}

// toDomain keeps empty buckets nil so they serialize as null.
func (so sectionOutput) toDomain() resume.SectionReview {
	return resume.SectionReview{
		Must:   nilIfEmpty(so.Must),
		Should: nilIfEmpty(so.Should),
		Advise: nilIfEmpty(so.Advise),
	}
}

func nilIfEmpty(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	return items
}
