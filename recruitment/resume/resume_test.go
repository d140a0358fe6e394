package resume

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hirelens/hirelens/pkg/kernel"
)

func TestCEFRLevelRankOrdering(t *testing.T) {
	ladder := []CEFRLevel{CEFRA1, CEFRA2, CEFRB1, CEFRB2, CEFRC1, CEFRC2, CEFRNative}
	for i := 1; i < len(ladder); i++ {
		assert.Greater(t, ladder[i].Rank(), ladder[i-1].Rank(),
			"%s must rank above %s", ladder[i], ladder[i-1])
	}
	assert.Equal(t, 0, CEFRLevel("fluent").Rank(), "unknown levels rank below A1")
}

func TestCEFRLevelAtLeast(t *testing.T) {
	assert.True(t, CEFRNative.AtLeast(CEFRB2))
	assert.True(t, CEFRB2.AtLeast(CEFRB2))
	assert.False(t, CEFRB1.AtLeast(CEFRB2))
	assert.False(t, CEFRLevel("").AtLeast(CEFRA1))
}

func TestJobStatusIsTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusProcessing.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
}

func TestTotalYearsOfExperience(t *testing.T) {
	r := &Resume{EmploymentHistory: []EmploymentHistoryItem{
		{Duration: EmploymentDuration{DurationMonths: 24}},
		{Duration: EmploymentDuration{DurationMonths: 6}},
		{Duration: EmploymentDuration{DurationMonths: -3}}, // garbage is ignored
	}}
	assert.InDelta(t, 2.5, r.TotalYearsOfExperience(), 0.001)
	assert.Equal(t, 3, r.RoundedYearsOfExperience(), "2.5 rounds up")
}

func TestTouchKeepsCreatedAt(t *testing.T) {
	r := &Resume{}
	first := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	r.Touch(first)
	assert.Equal(t, first, r.CreatedAt)
	assert.Equal(t, first, r.UpdatedAt)

	second := first.Add(48 * time.Hour)
	r.Touch(second)
	assert.Equal(t, first, r.CreatedAt, "created_at never moves")
	assert.Equal(t, second, r.UpdatedAt)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestPrimaryLocation(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"city and country", &Location{City: "Lima", Country: "Peru"}, "Lima, Peru"},
		{"city only", &Location{City: "Lima"}, "Lima"},
		{"country only", &Location{Country: "Peru"}, "Peru"},
		{"nothing", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Resume{}
			if tt.loc != nil {
				r.PersonalInfo = &PersonalInfo{Demographics: &Demographics{Location: tt.loc}}
			}
			assert.Equal(t, tt.want, r.PrimaryLocation())
		})
	}
}

func TestHasSkill(t *testing.T) {
	r := &Resume{Skills: []Skill{{Name: "Go"}, {Name: "PostgreSQL"}}}
	assert.True(t, r.HasSkill("go"))
	assert.True(t, r.HasSkill("POSTGRESQL"))
	assert.False(t, r.HasSkill("Rust"))
}

func TestTechnologiesUnion(t *testing.T) {
	r := &Resume{
		EmploymentHistory: []EmploymentHistoryItem{
			{Technologies: []string{"Go", "Redis", ""}},
			{Technologies: []string{"redis", "Neo4j"}},
		},
		Projects: []Project{
			{Technologies: []string{"GO", "Postgres"}},
		},
	}
	assert.Equal(t, []string{"Go", "Redis", "Neo4j", "Postgres"}, r.Technologies())
}

func TestEmbeddingSeedsOrderAndProvenance(t *testing.T) {
	r := &Resume{
		ProfessionalProfile: &ProfessionalProfile{Summary: "Backend engineer."},
		Skills:              []Skill{{Name: "Go"}, {Name: ""}},
		EmploymentHistory: []EmploymentHistoryItem{
			{
				Position: "Senior Engineer",
				KeyPoints: []KeyPoint{
					{Text: "Cut latencies by 40%"},
					{Text: "  "},
				},
			},
		},
		Projects: []Project{
			{Title: "Sidecar", KeyPoints: []KeyPoint{{Text: "Built a proxy"}}},
		},
		Education: []EducationItem{
			{
				Qualification: "B.Sc.",
				Institution:   InstitutionInfo{Name: "MIT"},
				Extras:        []string{"Graduated with honors"},
			},
		},
	}

	seeds := r.EmbeddingSeeds()
	want := []EmbeddingSeed{
		{Text: "Backend engineer.", Source: SourceSummary},
		{Text: "Go", Source: SourceSkill},
		{Text: "Cut latencies by 40%", Source: SourceEmployment, Context: "Senior Engineer"},
		{Text: "Built a proxy", Source: SourceProject, Context: "Sidecar"},
		{Text: "Graduated with honors", Source: SourceEducation, Context: "B.Sc. at MIT"},
	}
	assert.Equal(t, want, seeds)
}

func TestEmbeddingSeedsEmptyResume(t *testing.T) {
	assert.Empty(t, (&Resume{}).EmbeddingSeeds())
}

func TestEmbeddingSeedInput(t *testing.T) {
	assert.Equal(t, "plain", EmbeddingSeed{Text: "plain"}.Input())
	assert.Equal(t, "Senior Engineer: cut latencies",
		EmbeddingSeed{Text: "cut latencies", Context: "Senior Engineer"}.Input())
}

func TestBuildEmbeddingPoints(t *testing.T) {
	r := &Resume{
		UID: kernel.NewResumeUID("uid-1"),
		PersonalInfo: &PersonalInfo{
			Name:    "Jane",
			Contact: Contact{Email: "jane@example.com"},
		},
		ProfessionalProfile: &ProfessionalProfile{Summary: "Backend engineer."},
		Skills:              []Skill{{Name: "Go"}},
	}
	seeds := r.EmbeddingSeeds()
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	points := BuildEmbeddingPoints(r, seeds, vectors)
	assert.Len(t, points, 2)

	assert.Equal(t, kernel.NewResumeUID("uid-1"), points[0].UID)
	assert.Equal(t, []float32{0.1, 0.2}, points[0].Vector)
	assert.Equal(t, "Backend engineer.", points[0].Payload.Text)
	assert.Equal(t, SourceSummary, points[0].Payload.Source)
	assert.Equal(t, "Jane", points[0].Payload.Name)
	assert.Equal(t, "jane@example.com", points[0].Payload.Email)

	assert.Equal(t, SourceSkill, points[1].Payload.Source)
	assert.Equal(t, "Go", points[1].Payload.Text)
}

func TestBuildEmbeddingPointsShortVectorSlice(t *testing.T) {
	r := &Resume{
		UID:                 kernel.NewResumeUID("uid-2"),
		ProfessionalProfile: &ProfessionalProfile{Summary: "Engineer."},
		Skills:              []Skill{{Name: "Go"}},
	}
	seeds := r.EmbeddingSeeds()

	points := BuildEmbeddingPoints(r, seeds, [][]float32{{0.5}})
	assert.Len(t, points, 1, "extra seeds without vectors are dropped")
}

func TestPointFilterIsZero(t *testing.T) {
	assert.True(t, (*PointFilter)(nil).IsZero())
	assert.True(t, (&PointFilter{}).IsZero())
	assert.False(t, (&PointFilter{UID: "x"}).IsZero())
	years := 3
	assert.False(t, (&PointFilter{MinYears: &years}).IsZero())
}
