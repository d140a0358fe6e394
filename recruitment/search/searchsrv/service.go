// Package searchsrv coordinates the three search modes: semantic over the
// vector store, structured over the graph, and the hybrid fusion of both.
package searchsrv

import (
	"context"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/metrics"
	"github.com/hirelens/hirelens/recruitment/resume"
	"github.com/hirelens/hirelens/recruitment/search"
)

const (
	defaultLimit      = 10
	defaultMaxMatches = 3

	// hybrid legs overfetch so fusion has enough overlap to rank
	hybridFetchFactor = 2
)

// QueryEncoder turns the search query into an embedding vector.
type QueryEncoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Dependencies wires the service. Metrics may be nil; Weights zero value
// falls back to the default vector/graph split.
type Dependencies struct {
	Graph   search.GraphSearcher
	Vectors resume.VectorStore
	Resumes resume.GraphStore
	Encoder QueryEncoder
	Metrics *metrics.Metrics
	Weights search.Weights
}

type Service struct {
	graph    search.GraphSearcher
	vectors  resume.VectorStore
	resumes  resume.GraphStore
	encoder  QueryEncoder
	metrics  *metrics.Metrics
	weights  search.Weights
	validate *validator.Validate
}

func NewService(deps Dependencies) *Service {
	weights := deps.Weights
	if weights.Vector == 0 && weights.Graph == 0 {
		weights = search.DefaultWeights
	}
	return &Service{
		graph:    deps.Graph,
		vectors:  deps.Vectors,
		resumes:  deps.Resumes,
		encoder:  deps.Encoder,
		metrics:  deps.Metrics,
		weights:  weights,
		validate: validator.New(),
	}
}

// Semantic encodes the query and ranks resumes by their best-matching
// embedding points.
func (s *Service) Semantic(ctx context.Context, req search.SemanticSearchRequest) (*search.SearchResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, search.ErrInvalidQuery().WithDetail("reason", err.Error())
	}
	limit := normalizeLimit(req.Limit)
	maxMatches := req.MaxMatchesPerResult
	if maxMatches <= 0 {
		maxMatches = defaultMaxMatches
	}

	results, err := s.semanticLeg(ctx, req.Query, req.Filters, limit, req.MinScore, maxMatches)
	s.metrics.ObserveSearch(string(search.ModeSemantic), err)
	if err != nil {
		return nil, err
	}
	if req.IncludeResumes {
		if err := s.attachResumes(ctx, results); err != nil {
			return nil, err
		}
	}
	return &search.SearchResponse{
		Mode:    search.ModeSemantic,
		Query:   req.Query,
		Results: results,
		Total:   len(results),
	}, nil
}

// Structured runs the graph filters. Every hit scores 1.0; ordering is
// newest first because the graph assigns no relevance.
func (s *Service) Structured(ctx context.Context, req search.StructuredSearchRequest) (*search.SearchResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, search.ErrInvalidQuery().WithDetail("reason", err.Error())
	}
	if req.Filters.IsZero() {
		return nil, search.ErrEmptyFilters()
	}
	limit := normalizeLimit(req.Limit)

	hits, err := s.graph.StructuredSearch(ctx, req.Filters, limit)
	s.metrics.ObserveSearch(string(search.ModeStructured), err)
	if err != nil {
		return nil, err
	}
	results := structuredResults(hits)
	if req.IncludeResumes {
		if err := s.attachResumes(ctx, results); err != nil {
			return nil, err
		}
	}
	return &search.SearchResponse{
		Mode:    search.ModeStructured,
		Results: results,
		Total:   len(results),
	}, nil
}

// Hybrid runs both legs concurrently and fuses the scores. Without
// filters the structured leg has nothing to assert and is skipped, so the
// result degenerates to weighted semantic search.
func (s *Service) Hybrid(ctx context.Context, req search.HybridSearchRequest) (*search.SearchResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, search.ErrInvalidQuery().WithDetail("reason", err.Error())
	}
	weights := s.weights
	if req.VectorWeight != nil {
		weights.Vector = *req.VectorWeight
	}
	if req.GraphWeight != nil {
		weights.Graph = *req.GraphWeight
	}
	if !weights.Valid() {
		return nil, search.ErrInvalidWeights().
			WithDetail("vector_weight", weights.Vector).
			WithDetail("graph_weight", weights.Graph)
	}
	weights = weights.Normalized()
	limit := normalizeLimit(req.Limit)

	var (
		vecResults []search.Result
		structHits []search.StructuredHit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vecResults, err = s.semanticLeg(gctx, req.Query, req.Filters,
			limit*hybridFetchFactor, req.MinScore, defaultMaxMatches)
		return err
	})
	g.Go(func() error {
		if req.Filters.IsZero() {
			return nil
		}
		var err error
		structHits, err = s.graph.StructuredSearch(gctx, *req.Filters, limit*hybridFetchFactor)
		return err
	})
	err := g.Wait()
	s.metrics.ObserveSearch(string(search.ModeHybrid), err)
	if err != nil {
		return nil, err
	}

	results := fuseResults(vecResults, structHits, weights, limit)
	if req.IncludeResumes {
		if err := s.attachResumes(ctx, results); err != nil {
			return nil, err
		}
	}
	return &search.SearchResponse{
		Mode:    search.ModeHybrid,
		Query:   req.Query,
		Results: results,
		Total:   len(results),
	}, nil
}

// FilterOptions lists the distinct filterable values currently stored.
func (s *Service) FilterOptions(ctx context.Context) (*search.FilterOptionsResponse, error) {
	opts, err := s.graph.FilterOptions(ctx)
	s.metrics.ObserveSearch("filter_options", err)
	if err != nil {
		return nil, err
	}
	return &search.FilterOptionsResponse{Options: *opts}, nil
}

func (s *Service) semanticLeg(ctx context.Context, query string, filters *search.SearchFilters, limit int, minScore float64, maxMatches int) ([]search.Result, error) {
	vector, err := s.encoder.Encode(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := s.vectors.Search(ctx, vector, limit, minScore, pointFilterFrom(filters))
	if err != nil {
		return nil, err
	}
	return groupHits(hits, limit, maxMatches), nil
}

// attachResumes loads the full documents for the result uids. Results
// whose resume vanished between search and fetch keep their snippet form.
func (s *Service) attachResumes(ctx context.Context, results []search.Result) error {
	if len(results) == 0 {
		return nil
	}
	uids := make([]kernel.ResumeUID, 0, len(results))
	for _, r := range results {
		uids = append(uids, r.UID)
	}
	docs, err := s.resumes.GetResumesByIds(ctx, uids)
	if err != nil {
		return err
	}
	byUID := make(map[kernel.ResumeUID]*resume.Resume, len(docs))
	for _, r := range docs {
		byUID[r.UID] = r
	}
	for i := range results {
		r, ok := byUID[results[i].UID]
		if !ok {
			continue
		}
		results[i].Resume = resume.ToResumeResponse(r)
		if results[i].Name == "" {
			results[i].Name = r.Name()
		}
		if results[i].Email == "" {
			results[i].Email = r.Email()
		}
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

// pointFilterFrom maps graph filters onto the vector payload. Education
// and language requirements have no payload counterpart and apply only on
// the graph leg.
func pointFilterFrom(f *search.SearchFilters) *resume.PointFilter {
	if f.IsZero() {
		return nil
	}
	filter := &resume.PointFilter{
		Skills: f.Skills,
		Role:   f.Role,
	}
	if f.Company != "" {
		filter.Companies = []string{f.Company}
	}
	for _, loc := range f.Locations {
		if len(loc.Cities) == 0 {
			filter.Locations = append(filter.Locations, loc.Country)
			continue
		}
		// payload stores "City, Country", so the pair pins both halves
		for _, city := range loc.Cities {
			filter.Locations = append(filter.Locations, city+", "+loc.Country)
		}
	}
	if f.YearsExperience != nil {
		minYears := int(*f.YearsExperience)
		filter.MinYears = &minYears
	}
	return filter
}
