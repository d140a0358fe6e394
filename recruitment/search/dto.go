package search

// SemanticSearchRequest - DTO for similarity search over embedding points
type SemanticSearchRequest struct {
	Query               string         `json:"query" validate:"required,min=2"`
	Limit               int            `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	MinScore            float64        `json:"min_score,omitempty" validate:"omitempty,min=0,max=1"`
	MaxMatchesPerResult int            `json:"max_matches_per_result,omitempty" validate:"omitempty,min=1,max=20"`
	Filters             *SearchFilters `json:"filters,omitempty"`
	IncludeResumes      bool           `json:"include_resumes,omitempty"`
}

// StructuredSearchRequest - DTO for pure graph-filter search
type StructuredSearchRequest struct {
	Filters        SearchFilters `json:"filters"`
	Limit          int           `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	IncludeResumes bool          `json:"include_resumes,omitempty"`
}

// HybridSearchRequest - DTO for fused semantic + structured search
type HybridSearchRequest struct {
	Query          string         `json:"query" validate:"required,min=2"`
	Filters        *SearchFilters `json:"filters,omitempty"`
	Limit          int            `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	MinScore       float64        `json:"min_score,omitempty" validate:"omitempty,min=0,max=1"`
	VectorWeight   *float64       `json:"vector_weight,omitempty" validate:"omitempty,min=0,max=1"`
	GraphWeight    *float64       `json:"graph_weight,omitempty" validate:"omitempty,min=0,max=1"`
	IncludeResumes bool           `json:"include_resumes,omitempty"`
}

// SearchResponse - Ranked results for any search mode
type SearchResponse struct {
	Mode    Mode     `json:"mode"`
	Query   string   `json:"query,omitempty"`
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// FilterOptionsResponse - Distinct filter values with resume counts
type FilterOptionsResponse struct {
	Options FilterOptions `json:"options"`
}
