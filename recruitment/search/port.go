package search

import (
	"context"
)

// GraphSearcher answers structured filter queries against the resume graph.
type GraphSearcher interface {
	// StructuredSearch returns resumes satisfying every filter, newest
	// first. The graph assigns no relevance ranking.
	StructuredSearch(ctx context.Context, filters SearchFilters, limit int) ([]StructuredHit, error)

	// FilterOptions aggregates distinct filterable values with resume counts
	FilterOptions(ctx context.Context) (*FilterOptions, error)
}
