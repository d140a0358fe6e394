package ragsrv

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hirelens/hirelens/recruitment/rag"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// Per-resume prompt budget. A pathological document gets cut, not the
// whole request.
const maxResumeChars = 15000

const explainSystemPrompt = `You are an expert technical recruiter assessing how well a candidate fits a specific job. You receive the candidate's structured resume, the job description, and the resume fragments most similar to the job text.

Rules:
- Judge only what the resume states. Never invent experience the candidate does not claim.
- match_score is your overall fit estimate from 0 (no overlap) to 1 (ideal candidate). Reserve scores above 0.85 for near-perfect alignment.
- recommendation: strong_fit for clearly interviewable candidates, moderate_fit when the gaps look coachable, weak_fit when core requirements are missing.
- strengths: the 1-5 strongest matches, each naming the area and citing concrete evidence from the resume.
- concerns: up to 5 gaps or risks. Severity is critical when a hard requirement is missing, moderate for significant but bridgeable gaps, minor for nice-to-haves.
- summary: 2-3 sentences a hiring manager can read in ten seconds.
- discussion_points: up to 3 things worth probing in a screening call.`

const compareSystemPrompt = `You are an expert technical recruiter comparing candidates for the same role. You receive each candidate's structured resume labeled with its uid. Always refer to candidates by that uid, never by name.

Rules:
- scores: grade every candidate on technical_skills, experience, education and soft_skills, each 0-10, and set overall_score to the weighted overall picture. Score only from resume evidence.
- dimension_comparisons: 4-8 entries. Each names one dimension, gives a short assessment per candidate keyed by uid, and names the winning uid when one stands out.
- scenario_recommendations: for each distinct hiring scenario you can justify (greenfield build, legacy stabilization, tight deadline, mentoring a junior team), recommend the best-suited uid with the reason.
- risk_assessments: the main hiring risk per candidate, with a mitigation when one exists.
- ranked_uids: every compared uid ordered best to worst by overall_score.`

const interviewSystemPrompt = `You are a senior interviewer preparing a question set tailored to one candidate's resume.

Rules:
- Ground every question in the candidate's actual claimed experience: reference their projects, employers and technologies, and probe whether the claims hold up.
- Write 6-12 questions. Mix categories appropriate to the requested interview type; pick each question's difficulty from the candidate's apparent seniority.
- follow_ups: 1-4 deeper probes per question. red_flags: 1-3 answer patterns that should worry the interviewer. good_answer_signs: 1-3 signals of genuine experience.
- time_estimate_minutes: realistic minutes per question, 2 to 15. total_duration_minutes must roughly equal the sum of the estimates and stay between 30 and 90.`

func buildExplainPrompt(doc, jobDescription string, hits []resume.VectorHit) string {
	var b strings.Builder
	b.WriteString("JOB DESCRIPTION:\n")
	b.WriteString(jobDescription)
	b.WriteString("\n\nCANDIDATE RESUME (structured):\n")
	b.WriteString(doc)

	if len(hits) > 0 {
		b.WriteString("\n\nRESUME FRAGMENTS MOST SIMILAR TO THE JOB (score, section):\n")
		for _, h := range hits {
			fmt.Fprintf(&b, "- [%.2f, %s] %s\n", h.Score, h.Payload.Source, h.Payload.Text)
		}
	}
	return b.String()
}

func buildComparePrompt(candidates []*resume.Resume, criteria, jobContext string) (string, error) {
	var b strings.Builder
	if jobContext != "" {
		b.WriteString("JOB CONTEXT:\n")
		b.WriteString(jobContext)
		b.WriteString("\n\n")
	}
	if criteria != "" {
		b.WriteString("COMPARISON CRITERIA TO EMPHASIZE:\n")
		b.WriteString(criteria)
		b.WriteString("\n\n")
	}
	b.WriteString("CANDIDATES:\n")
	for _, r := range candidates {
		doc, err := marshalResume(r)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n--- CANDIDATE uid=%s ---\n%s\n", r.UID.String(), doc)
	}
	return b.String(), nil
}

func buildInterviewPrompt(doc string, req rag.InterviewQuestionsRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INTERVIEW TYPE: %s\n", req.InterviewType)
	if req.RoleContext != "" {
		b.WriteString("ROLE CONTEXT:\n")
		b.WriteString(req.RoleContext)
		b.WriteString("\n")
	}
	if len(req.FocusAreas) > 0 {
		b.WriteString("FOCUS AREAS: ")
		b.WriteString(strings.Join(req.FocusAreas, ", "))
		b.WriteString("\n")
	}
	b.WriteString("\nCANDIDATE RESUME (structured):\n")
	b.WriteString(doc)
	return b.String()
}

// marshalResume renders the document the way the API would return it.
func marshalResume(r *resume.Resume) (string, error) {
	doc, err := json.MarshalIndent(resume.ToResumeResponse(r), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal resume %s: %w", r.UID.String(), err)
	}
	return truncateRunes(string(doc), maxResumeChars), nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
