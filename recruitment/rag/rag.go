// Package rag produces recruiter-facing analyses grounded in stored
// resumes: job match explanations, side-by-side candidate comparisons and
// interview question sets. Every analysis comes from a schema-constrained
// LLM call; the jsonschema tags below are reflected into the response
// schema the model must satisfy, and the validate tags are re-checked
// before a result leaves the service.
package rag

import "sort"

// FitRecommendation is the hiring verdict of a match explanation.
type FitRecommendation string

const (
	FitStrong   FitRecommendation = "strong_fit"
	FitModerate FitRecommendation = "moderate_fit"
	FitWeak     FitRecommendation = "weak_fit"
)

// ConcernSeverity ranks how much a concern should weigh on the decision.
type ConcernSeverity string

const (
	SeverityCritical ConcernSeverity = "critical"
	SeverityModerate ConcernSeverity = "moderate"
	SeverityMinor    ConcernSeverity = "minor"
)

// JobMatchExplanation scores one candidate against one job description.
type JobMatchExplanation struct {
	MatchScore       float64           `json:"match_score" jsonschema:"minimum=0,maximum=1" validate:"min=0,max=1"`
	Recommendation   FitRecommendation `json:"recommendation" jsonschema:"enum=strong_fit,enum=moderate_fit,enum=weak_fit" validate:"oneof=strong_fit moderate_fit weak_fit"`
	Strengths        []Strength        `json:"strengths" jsonschema:"minItems=1,maxItems=5" validate:"min=1,max=5,dive"`
	Concerns         []Concern         `json:"concerns,omitempty" jsonschema:"maxItems=5" validate:"max=5,dive"`
	Summary          string            `json:"summary" jsonschema:"minLength=50,maxLength=500" validate:"min=50,max=500"`
	DiscussionPoints []string          `json:"discussion_points,omitempty" jsonschema:"maxItems=3" validate:"max=3"`
}

// Strength is one area where the candidate matches the job, backed by
// evidence quoted or paraphrased from the resume.
type Strength struct {
	Area     string `json:"area" validate:"required"`
	Evidence string `json:"evidence" validate:"required"`
}

// Concern is one gap or risk relative to the job.
type Concern struct {
	Area     string          `json:"area" validate:"required"`
	Severity ConcernSeverity `json:"severity" jsonschema:"enum=critical,enum=moderate,enum=minor" validate:"oneof=critical moderate minor"`
	Detail   string          `json:"detail" validate:"required"`
}

// CandidateComparison ranks two to five candidates against each other.
// Assessments and ranked_uids refer to candidates by their resume uid.
type CandidateComparison struct {
	Scores                  []CandidateScore         `json:"scores" jsonschema:"minItems=2,maxItems=5" validate:"min=2,max=5,dive"`
	DimensionComparisons    []DimensionComparison    `json:"dimension_comparisons" jsonschema:"minItems=4,maxItems=8" validate:"min=4,max=8,dive"`
	ScenarioRecommendations []ScenarioRecommendation `json:"scenario_recommendations" jsonschema:"minItems=1" validate:"min=1,dive"`
	RiskAssessments         []RiskAssessment         `json:"risk_assessments" jsonschema:"minItems=1" validate:"min=1,dive"`
	RankedUIDs              []string                 `json:"ranked_uids" jsonschema:"minItems=2,maxItems=5" validate:"min=2,max=5"`
}

// CandidateScore grades one candidate on the four comparison dimensions,
// each 0-10, plus the weighted overall score.
type CandidateScore struct {
	UID             string  `json:"uid" validate:"required"`
	TechnicalSkills float64 `json:"technical_skills" jsonschema:"minimum=0,maximum=10" validate:"min=0,max=10"`
	Experience      float64 `json:"experience" jsonschema:"minimum=0,maximum=10" validate:"min=0,max=10"`
	Education       float64 `json:"education" jsonschema:"minimum=0,maximum=10" validate:"min=0,max=10"`
	SoftSkills      float64 `json:"soft_skills" jsonschema:"minimum=0,maximum=10" validate:"min=0,max=10"`
	OverallScore    float64 `json:"overall_score" jsonschema:"minimum=0,maximum=10" validate:"min=0,max=10"`
}

// DimensionComparison contrasts all candidates on one dimension. The
// assessments map is keyed by resume uid.
type DimensionComparison struct {
	Dimension   string            `json:"dimension" validate:"required"`
	Assessments map[string]string `json:"assessments" validate:"required"`
	Winner      string            `json:"winner,omitempty"`
}

// ScenarioRecommendation names which candidate fits a concrete hiring
// scenario, such as a greenfield build-out or a legacy rescue.
type ScenarioRecommendation struct {
	Scenario       string `json:"scenario" validate:"required"`
	RecommendedUID string `json:"recommended_uid" validate:"required"`
	Reason         string `json:"reason" validate:"required"`
}

// RiskAssessment flags the main hiring risk for one candidate.
type RiskAssessment struct {
	UID        string `json:"uid" validate:"required"`
	Risk       string `json:"risk" validate:"required"`
	Mitigation string `json:"mitigation,omitempty"`
}

// RankByOverall rebuilds RankedUIDs from Scores ordered by overall score
// descending. The model is asked for the same ordering, but scores are
// authoritative when the two disagree.
func (c *CandidateComparison) RankByOverall() {
	scores := make([]CandidateScore, len(c.Scores))
	copy(scores, c.Scores)
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].OverallScore > scores[j].OverallScore
	})
	ranked := make([]string, len(scores))
	for i, s := range scores {
		ranked[i] = s.UID
	}
	c.RankedUIDs = ranked
}

// InterviewType selects the flavor of a generated question set.
type InterviewType string

const (
	InterviewTechnical  InterviewType = "technical"
	InterviewBehavioral InterviewType = "behavioral"
	InterviewGeneral    InterviewType = "general"
)

// QuestionCategory buckets interview questions by what they probe.
type QuestionCategory string

const (
	CategoryTechnicalDepth       QuestionCategory = "technical_depth"
	CategoryProblemSolving       QuestionCategory = "problem_solving"
	CategoryExperienceValidation QuestionCategory = "experience_validation"
	CategoryBehavioral           QuestionCategory = "behavioral"
	CategorySystemDesign         QuestionCategory = "system_design"
	CategoryCultureFit           QuestionCategory = "culture_fit"
)

// QuestionDifficulty pins a question to a seniority level.
type QuestionDifficulty string

const (
	DifficultyJunior QuestionDifficulty = "junior"
	DifficultyMid    QuestionDifficulty = "mid"
	DifficultySenior QuestionDifficulty = "senior"
	DifficultyStaff  QuestionDifficulty = "staff"
)

// InterviewQuestionSet is a ready-to-run interview script tailored to one
// candidate's resume.
type InterviewQuestionSet struct {
	InterviewType        InterviewType       `json:"interview_type" jsonschema:"enum=technical,enum=behavioral,enum=general" validate:"oneof=technical behavioral general"`
	Questions            []InterviewQuestion `json:"questions" jsonschema:"minItems=6,maxItems=12" validate:"min=6,max=12,dive"`
	TotalDurationMinutes int                 `json:"total_duration_minutes" jsonschema:"minimum=30,maximum=90" validate:"min=30,max=90"`
}

// InterviewQuestion is one question with the interviewer's crib sheet:
// follow-ups to dig deeper, answers that should worry you, and answers
// that signal real experience.
type InterviewQuestion struct {
	Question            string             `json:"question" validate:"required"`
	Category            QuestionCategory   `json:"category" jsonschema:"enum=technical_depth,enum=problem_solving,enum=experience_validation,enum=behavioral,enum=system_design,enum=culture_fit" validate:"oneof=technical_depth problem_solving experience_validation behavioral system_design culture_fit"`
	Difficulty          QuestionDifficulty `json:"difficulty" jsonschema:"enum=junior,enum=mid,enum=senior,enum=staff" validate:"oneof=junior mid senior staff"`
	FollowUps           []string           `json:"follow_ups" jsonschema:"minItems=1,maxItems=4" validate:"min=1,max=4"`
	RedFlags            []string           `json:"red_flags" jsonschema:"minItems=1,maxItems=3" validate:"min=1,max=3"`
	GoodAnswerSigns     []string           `json:"good_answer_signs" jsonschema:"minItems=1,maxItems=3" validate:"min=1,max=3"`
	TimeEstimateMinutes int                `json:"time_estimate_minutes" jsonschema:"minimum=2,maximum=15" validate:"min=2,max=15"`
}
