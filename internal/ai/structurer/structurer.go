// Package structurer turns extracted resume text into the structured
// resume document via a schema-constrained LLM call, then normalizes the
// fields the model tends to get loose with.
package structurer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirelens/hirelens/internal/ai/llmclient"
	"github.com/hirelens/hirelens/internal/docparse"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// Prompt input is capped so a pathological document cannot blow the
// context window.
const maxPromptChars = 30000

const defaultTemperature = 0.2

const systemPrompt = `You are an expert resume analyst. You read raw resume text and return a single JSON object with the candidate's structured profile.

Rules:
- Write free-text fields (summaries, key points, descriptions) in the same language the resume is written in. Never translate.
- Extract every position, project, education entry, course, certification, language, award and publication you find. Do not invent anything; leave fields empty when the resume does not state them.
- Split responsibility and achievement bullets into short, self-contained key points.
- Dates use "YYYY-MM". When the resume gives only a year, use "01" as the month. Use "present" as the end of a current position.
- URL handling: put the candidate's profile URLs into linkedin/github/portfolio. A URL that belongs to an employer goes into that employment entry, a project URL into that project. Everything left goes into other_links. Never put the same URL in two places.
- Language proficiency: keep the candidate's own wording in self_assessed and convert it to a CEFR level (A1, A2, B1, B2, C1, C2, or Native).
- Education status is one of: completed, ongoing, incomplete.
- Location: fill city only when an actual city is named. If only a country is given, leave city empty.`

// Structurer runs the extraction-to-document step of the pipeline.
type Structurer struct {
	llm         *llmclient.Client
	temperature float64
	maxChars    int
}

// New creates a structurer on top of the shared LLM client.
func New(llm *llmclient.Client) *Structurer {
	return &Structurer{llm: llm, temperature: defaultTemperature, maxChars: maxPromptChars}
}

// NewWithLimit creates a structurer with a custom prompt budget in runes.
func NewWithLimit(llm *llmclient.Client, maxChars int) *Structurer {
	s := New(llm)
	if maxChars > 0 {
		s.maxChars = maxChars
	}
	return s
}

// structuredResume is the LLM output contract. It reuses the domain section
// types so the schema matches the stored document exactly; identity and
// timestamps are assigned by the caller, never by the model.
type structuredResume struct {
	PersonalInfo            *resume.PersonalInfo            `json:"personal_info"`
	ProfessionalProfile     *resume.ProfessionalProfile     `json:"professional_profile,omitempty"`
	Skills                  []resume.Skill                  `json:"skills,omitempty"`
	EmploymentHistory       []resume.EmploymentHistoryItem  `json:"employment_history,omitempty"`
	Projects                []resume.Project                `json:"projects,omitempty"`
	Education               []resume.EducationItem          `json:"education,omitempty"`
	Courses                 []resume.Course                 `json:"courses,omitempty"`
	Certifications          []resume.Certification          `json:"certifications,omitempty"`
	LanguageProficiencies   []resume.LanguageProficiency    `json:"language_proficiencies,omitempty"`
	Awards                  []resume.Award                  `json:"awards,omitempty"`
	ScientificContributions []resume.ScientificContribution `json:"scientific_contributions,omitempty"`
}

// Structure extracts the structured document from parsed file content.
func (s *Structurer) Structure(ctx context.Context, doc *docparse.Document) (*resume.Resume, error) {
	text := truncateRunes(doc.FullText(), s.maxChars)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document has no text to structure")
	}

	out, err := llmclient.Run[structuredResume](ctx, s.llm, llmclient.Request{
		System:      systemPrompt,
		User:        buildUserPrompt(text, doc.Links()),
		Temperature: s.temperature,
		SchemaName:  "structured_resume",
	})
	if err != nil {
		return nil, err
	}

	r := out.toDomain()
	Normalize(r)
	return r, nil
}

func (sr *structuredResume) toDomain() *resume.Resume {
	return &resume.Resume{
		PersonalInfo:            sr.PersonalInfo,
		ProfessionalProfile:     sr.ProfessionalProfile,
		Skills:                  sr.Skills,
		EmploymentHistory:       sr.EmploymentHistory,
		Projects:                sr.Projects,
		Education:               sr.Education,
		Courses:                 sr.Courses,
		Certifications:          sr.Certifications,
		LanguageProficiencies:   sr.LanguageProficiencies,
		Awards:                  sr.Awards,
		ScientificContributions: sr.ScientificContributions,
	}
}

func buildUserPrompt(text string, links []docparse.Link) string {
	var b strings.Builder
	b.WriteString("Structure the following resume.\n\nRESUME TEXT:\n")
	b.WriteString(text)

	if len(links) > 0 {
		b.WriteString("\n\nHYPERLINKS FOUND IN THE DOCUMENT (anchor text -> url):\n")
		for _, l := range links {
			anchor := l.AnchorText
			if anchor == "" {
				anchor = "(no anchor text)"
			}
			fmt.Fprintf(&b, "- %s -> %s\n", anchor, l.URI)
		}
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
