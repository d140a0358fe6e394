package resume

import "time"

// ReviewSection names the resume sections a review can cover.
type ReviewSection string

const (
	SectionPersonalInfo ReviewSection = "personal_info"
	SectionProfile      ReviewSection = "professional_profile"
	SectionSkills       ReviewSection = "skills"
	SectionEmployment   ReviewSection = "employment_history"
	SectionProjects     ReviewSection = "projects"
	SectionEducation    ReviewSection = "education"
	SectionLanguages    ReviewSection = "languages"
)

// SectionReview holds issues found in one section, split by severity.
// A nil bucket means the section had no issues at that severity.
type SectionReview struct {
	Must   []string `json:"must"`
	Should []string `json:"should"`
	Advise []string `json:"advise"`
}

// IsClean reports whether the section raised no issues at all.
func (s SectionReview) IsClean() bool {
	return len(s.Must) == 0 && len(s.Should) == 0 && len(s.Advise) == 0
}

// ReviewResult is the section-keyed quality review of a parsed resume.
// OverallScore is 0..100.
type ReviewResult struct {
	Sections     map[ReviewSection]SectionReview `json:"sections"`
	OverallScore int                             `json:"overall_score"`
	Summary      string                          `json:"summary"`
	GeneratedAt  time.Time                       `json:"generated_at"`
}
