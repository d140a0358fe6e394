package resume

import (
	"strings"

	"github.com/hirelens/hirelens/pkg/kernel"
)

// PointSource tags which part of the resume an embedding text came from.
type PointSource string

const (
	SourceSummary    PointSource = "summary"
	SourceSkill      PointSource = "skill"
	SourceEmployment PointSource = "employment"
	SourceProject    PointSource = "project"
	SourceEducation  PointSource = "education"
)

// EmbeddingSeed is one text to encode, with its provenance. Seeds are
// materialized in a fixed order so the encoded vectors line up 1:1.
type EmbeddingSeed struct {
	Text    string      `json:"text"`
	Source  PointSource `json:"source"`
	Context string      `json:"context,omitempty"`
}

// Input is the string actually sent to the encoder. Context is prefixed so
// a bullet like "cut latencies by 40%" stays attached to the role it
// happened in.
func (s EmbeddingSeed) Input() string {
	if s.Context == "" {
		return s.Text
	}
	return s.Context + ": " + s.Text
}

// EmbeddingSeeds extracts the texts to embed, in deterministic order:
// summary, skills, employment key-points, project key-points, education
// extras. Blank texts are dropped here so batch encoding stays aligned.
func (r *Resume) EmbeddingSeeds() []EmbeddingSeed {
	var seeds []EmbeddingSeed
	add := func(text string, source PointSource, context string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		seeds = append(seeds, EmbeddingSeed{Text: text, Source: source, Context: context})
	}

	add(r.Summary(), SourceSummary, "")

	for _, s := range r.Skills {
		add(s.Name, SourceSkill, "")
	}
	for _, e := range r.EmploymentHistory {
		for _, kp := range e.KeyPoints {
			add(kp.Text, SourceEmployment, e.Position)
		}
	}
	for _, p := range r.Projects {
		for _, kp := range p.KeyPoints {
			add(kp.Text, SourceProject, p.Title)
		}
	}
	for _, ed := range r.Education {
		context := ed.Institution.Name
		if ed.Qualification != "" {
			context = ed.Qualification + " at " + ed.Institution.Name
		}
		for _, extra := range ed.Extras {
			add(extra, SourceEducation, context)
		}
	}
	return seeds
}

// Technologies returns the union of employment and project technologies,
// first occurrence wins, resume order preserved.
func (r *Resume) Technologies() []string {
	seen := make(map[string]struct{})
	var out []string
	collect := func(techs []string) {
		for _, t := range techs {
			key := strings.ToLower(strings.TrimSpace(t))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, t)
		}
	}
	for _, e := range r.EmploymentHistory {
		collect(e.Technologies)
	}
	for _, p := range r.Projects {
		collect(p.Technologies)
	}
	return out
}

// PointPayload is the searchable metadata stored with every vector point.
type PointPayload struct {
	UID             string      `json:"uid"`
	Text            string      `json:"text"`
	Source          PointSource `json:"source"`
	Context         string      `json:"context,omitempty"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Skills          []string    `json:"skills"`
	Technologies    []string    `json:"technologies"`
	Companies       []string    `json:"companies"`
	Role            string      `json:"role,omitempty"`
	Location        string      `json:"location,omitempty"`
	YearsExperience int         `json:"years_experience"`
}

// BasePointPayload builds the metadata shared by all points of a resume.
// Text/Source/Context are filled per seed.
func (r *Resume) BasePointPayload() PointPayload {
	return PointPayload{
		UID:             r.UID.String(),
		Name:            r.Name(),
		Email:           r.Email(),
		Skills:          r.SkillNames(),
		Technologies:    r.Technologies(),
		Companies:       r.CompanyNames(),
		Role:            r.PreferredRole(),
		Location:        r.PrimaryLocation(),
		YearsExperience: r.RoundedYearsOfExperience(),
	}
}

// EmbeddingPoint pairs a vector with its payload. ID is assigned fresh by
// the vector store on every write; UID is the join key back to the graph.
type EmbeddingPoint struct {
	ID      kernel.PointID   `json:"id,omitempty"`
	UID     kernel.ResumeUID `json:"uid"`
	Vector  []float32        `json:"vector"`
	Payload PointPayload     `json:"payload"`
}

// BuildEmbeddingPoints zips seeds with their encoded vectors. len(vectors)
// must equal len(seeds); the caller guarantees this by encoding the seed
// texts in order.
func BuildEmbeddingPoints(r *Resume, seeds []EmbeddingSeed, vectors [][]float32) []EmbeddingPoint {
	base := r.BasePointPayload()
	points := make([]EmbeddingPoint, 0, len(seeds))
	for i, seed := range seeds {
		if i >= len(vectors) {
			break
		}
		payload := base
		payload.Text = seed.Text
		payload.Source = seed.Source
		payload.Context = seed.Context
		points = append(points, EmbeddingPoint{
			UID:     r.UID,
			Vector:  vectors[i],
			Payload: payload,
		})
	}
	return points
}

// VectorHit is one ANN match.
type VectorHit struct {
	ID      kernel.PointID   `json:"id"`
	UID     kernel.ResumeUID `json:"uid"`
	Score   float64          `json:"score"`
	Payload PointPayload     `json:"payload"`
}

// PointFilter restricts an ANN search by payload fields. Zero values mean
// no constraint; Skills require every listed skill, Companies and Locations
// match any listed value.
type PointFilter struct {
	UID       string   `json:"uid,omitempty"`
	Email     string   `json:"email,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	Companies []string `json:"companies,omitempty"`
	Role      string   `json:"role,omitempty"`
	Locations []string `json:"locations,omitempty"`
	MinYears  *int     `json:"min_years,omitempty"`
}

// IsZero reports whether the filter imposes no constraints.
func (f *PointFilter) IsZero() bool {
	if f == nil {
		return true
	}
	return f.UID == "" && f.Email == "" && len(f.Skills) == 0 &&
		len(f.Companies) == 0 && f.Role == "" && len(f.Locations) == 0 &&
		f.MinYears == nil
}
