// Package search defines the candidate search domain: structured filters
// over the resume graph, semantic similarity over the vector store, and
// the hybrid fusion of both.
package search

import (
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// Mode names a search strategy. Hybrid results carry the modes that
// contributed each hit.
type Mode string

const (
	ModeSemantic   Mode = "semantic"
	ModeStructured Mode = "structured"
	ModeHybrid     Mode = "hybrid"
)

// ============================================================================
// Filters
// ============================================================================

// SearchFilters narrows a search. All set fields must hold at once; list
// entries follow per-field semantics documented on each type.
type SearchFilters struct {
	// Skills the resume must all be connected to
	Skills []string `json:"skills,omitempty"`
	// Role is a case-insensitive substring of the preferred role
	Role string `json:"role,omitempty"`
	// Company matches any employment item's company name
	Company string `json:"company,omitempty"`
	// Locations is satisfied when any entry matches
	Locations []LocationRequirement `json:"locations,omitempty"`
	// YearsExperience is the minimum total, summed over employment durations
	YearsExperience *float64 `json:"years_experience,omitempty" validate:"omitempty,min=0"`
	// Education is satisfied when any entry matches
	Education []EducationRequirement `json:"education,omitempty" validate:"dive"`
	// Languages must all be satisfied
	Languages []LanguageRequirement `json:"languages,omitempty" validate:"dive"`
}

// IsZero reports whether no filter field is set.
func (f *SearchFilters) IsZero() bool {
	if f == nil {
		return true
	}
	return len(f.Skills) == 0 && f.Role == "" && f.Company == "" &&
		len(f.Locations) == 0 && f.YearsExperience == nil &&
		len(f.Education) == 0 && len(f.Languages) == 0
}

// LocationRequirement matches candidates in a country, optionally narrowed
// to any of the listed cities.
type LocationRequirement struct {
	Country string   `json:"country" validate:"required"`
	Cities  []string `json:"cities,omitempty"`
}

// EducationRequirement matches an education item by qualification level
// and, when statuses are given, completion status.
type EducationRequirement struct {
	Level    string                   `json:"level" validate:"required"`
	Statuses []resume.EducationStatus `json:"statuses,omitempty"`
}

// LanguageRequirement matches a language proficiency at or above MinCEFR.
type LanguageRequirement struct {
	Name    string           `json:"name" validate:"required"`
	MinCEFR resume.CEFRLevel `json:"min_cefr,omitempty"`
}

// ============================================================================
// Results
// ============================================================================

// MatchSnippet is one vector hit supporting a result.
type MatchSnippet struct {
	Text    string             `json:"text"`
	Source  resume.PointSource `json:"source"`
	Context string             `json:"context,omitempty"`
	Score   float64            `json:"score"`
}

// Result is one ranked candidate.
type Result struct {
	UID     kernel.ResumeUID       `json:"uid"`
	Score   float64                `json:"score"`
	Name    string                 `json:"name,omitempty"`
	Email   string                 `json:"email,omitempty"`
	Matches []MatchSnippet         `json:"matches,omitempty"`
	Sources []Mode                 `json:"sources,omitempty"`
	Resume  *resume.ResumeResponse `json:"resume,omitempty"`
}

// StructuredHit is a graph-side match before enrichment. The graph assigns
// no ranking, so ordering is newest first.
type StructuredHit struct {
	UID       kernel.ResumeUID `json:"uid"`
	Name      string           `json:"name,omitempty"`
	Email     string           `json:"email,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ============================================================================
// Hybrid weights
// ============================================================================

// Weights blends the vector and graph scores of a hybrid search.
type Weights struct {
	Vector float64 `json:"vector_weight"`
	Graph  float64 `json:"graph_weight"`
}

// DefaultWeights favours semantic similarity over the binary graph signal.
var DefaultWeights = Weights{Vector: 0.7, Graph: 0.3}

// Valid reports whether both weights sit in [0, 1].
func (w Weights) Valid() bool {
	return w.Vector >= 0 && w.Vector <= 1 && w.Graph >= 0 && w.Graph <= 1
}

// Normalized substitutes an even split when both weights are zero.
func (w Weights) Normalized() Weights {
	if w.Vector == 0 && w.Graph == 0 {
		return Weights{Vector: 0.5, Graph: 0.5}
	}
	return w
}

// Combine fuses the two per-resume signals. Resumes found by both legs
// earn the weighted sum, capped at 1; resumes found by one leg keep the
// larger single weighted term so one strong signal is never averaged away.
func (w Weights) Combine(vectorScore float64, inVector, inGraph bool) float64 {
	v, g := 0.0, 0.0
	if inVector {
		v = vectorScore * w.Vector
	}
	if inGraph {
		g = w.Graph
	}
	if inVector && inGraph {
		combined := v + g
		if combined > 1 {
			combined = 1
		}
		return combined
	}
	if v > g {
		return v
	}
	return g
}

// ============================================================================
// Filter options
// ============================================================================

// FacetCount is one distinct value with the number of resumes carrying it.
type FacetCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// CountryFacet nests the cities seen within a country.
type CountryFacet struct {
	Country string       `json:"country"`
	Count   int64        `json:"count"`
	Cities  []FacetCount `json:"cities,omitempty"`
}

// EducationFacet nests the statuses seen for a qualification level.
type EducationFacet struct {
	Level    string       `json:"level"`
	Count    int64        `json:"count"`
	Statuses []FacetCount `json:"statuses,omitempty"`
}

// LanguageFacet nests the CEFR levels seen for a language.
type LanguageFacet struct {
	Name   string       `json:"name"`
	Count  int64        `json:"count"`
	Levels []FacetCount `json:"levels,omitempty"`
}

// FilterOptions lists every filterable value currently in the graph, for
// populating search UIs.
type FilterOptions struct {
	Skills          []FacetCount     `json:"skills"`
	Roles           []FacetCount     `json:"roles"`
	Companies       []FacetCount     `json:"companies"`
	Countries       []CountryFacet   `json:"countries"`
	EducationLevels []EducationFacet `json:"education_levels"`
	Languages       []LanguageFacet  `json:"languages"`
}
