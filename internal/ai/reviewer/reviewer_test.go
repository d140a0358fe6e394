package reviewer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/hirelens/internal/ai/llmclient"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// stubReviewer serves canned completion content and captures the user
// message of the last request.
func stubReviewer(t *testing.T, content string, userPrompt *string) *Reviewer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) && userPrompt != nil {
			for _, msg := range body.Messages {
				var text string
				if msg.Role == "user" && json.Unmarshal(msg.Content, &text) == nil {
					*userPrompt = text
				}
			}
		}
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	return New(llmclient.New(llmclient.Config{APIKey: "test", BaseURL: srv.URL}))
}

// reviewFixture has personal info, skills and employment but no profile,
// projects, education or languages.
func reviewFixture() *resume.Resume {
	return &resume.Resume{
		PersonalInfo: &resume.PersonalInfo{
			Name:    "Jane Doe",
			Contact: resume.Contact{Email: "jane@doe.dev"},
		},
		Skills: []resume.Skill{{Name: "Go"}, {Name: "Redis"}},
		EmploymentHistory: []resume.EmploymentHistoryItem{{
			Position: "Backend Engineer",
			Company:  resume.CompanyInfo{Name: "Acme"},
			Duration: resume.EmploymentDuration{Start: "2020-01", End: "2023-06", DurationMonths: 42},
		}},
	}
}

const reviewCompletion = `{
	"personal_info": {"must": ["add a phone number"], "should": [], "advise": []},
	"professional_profile": {"must": [], "should": [], "advise": []},
	"skills": {"must": [], "should": [], "advise": []},
	"employment_history": {"must": [], "should": ["quantify the key points"], "advise": []},
	"projects": {"must": [], "should": [], "advise": []},
	"education": {"must": ["list your highest degree"], "should": [], "advise": []},
	"languages": {"must": [], "should": [], "advise": []},
	"overall_score": 68,
	"summary": "Solid mid-level backend resume missing education details."
}`

func TestReviewBuildsSectionedResult(t *testing.T) {
	var userPrompt string
	rv := stubReviewer(t, reviewCompletion, &userPrompt)

	out, err := rv.Review(context.Background(), reviewFixture())
	require.NoError(t, err)

	assert.Equal(t, 68, out.OverallScore)
	assert.Equal(t, "Solid mid-level backend resume missing education details.", out.Summary)
	assert.False(t, out.GeneratedAt.IsZero())
	assert.Contains(t, userPrompt, "Jane Doe")

	assert.Equal(t, []string{"add a phone number"}, out.Sections[resume.SectionPersonalInfo].Must)
	assert.Equal(t, []string{"quantify the key points"}, out.Sections[resume.SectionEmployment].Should)

	// Sections the resume has stay even when clean; absent sections stay
	// only when the model raised issues.
	skills, ok := out.Sections[resume.SectionSkills]
	require.True(t, ok)
	assert.True(t, skills.IsClean())
	assert.Equal(t, []string{"list your highest degree"}, out.Sections[resume.SectionEducation].Must)

	assert.NotContains(t, out.Sections, resume.SectionProfile)
	assert.NotContains(t, out.Sections, resume.SectionProjects)
	assert.NotContains(t, out.Sections, resume.SectionLanguages)
	assert.Len(t, out.Sections, 4)
}

func TestReviewRejectsOutOfRangeScore(t *testing.T) {
	content := `{
		"personal_info": {"must": [], "should": [], "advise": []},
		"professional_profile": {"must": [], "should": [], "advise": []},
		"skills": {"must": [], "should": [], "advise": []},
		"employment_history": {"must": [], "should": [], "advise": []},
		"projects": {"must": [], "should": [], "advise": []},
		"education": {"must": [], "should": [], "advise": []},
		"languages": {"must": [], "should": [], "advise": []},
		"overall_score": 150,
		"summary": "Too good to be true."
	}`
	rv := stubReviewer(t, content, nil)

	_, err := rv.Review(context.Background(), reviewFixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}
