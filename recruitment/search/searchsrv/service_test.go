package searchsrv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
	"github.com/hirelens/hirelens/recruitment/search"
)

// ============================================================================
// Collaborator mocks
// ============================================================================

type mockGraphSearcher struct {
	calls    int
	searchFn func(ctx context.Context, filters search.SearchFilters, limit int) ([]search.StructuredHit, error)
	optsFn   func(ctx context.Context) (*search.FilterOptions, error)
}

func (m *mockGraphSearcher) StructuredSearch(ctx context.Context, filters search.SearchFilters, limit int) ([]search.StructuredHit, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, filters, limit)
	}
	return nil, nil
}

func (m *mockGraphSearcher) FilterOptions(ctx context.Context) (*search.FilterOptions, error) {
	if m.optsFn != nil {
		return m.optsFn(ctx)
	}
	return &search.FilterOptions{}, nil
}

type mockVectorStore struct {
	lastLimit    int
	lastMinScore float64
	lastFilter   *resume.PointFilter
	searchFn     func(ctx context.Context, query []float32, limit int, minScore float64, filter *resume.PointFilter) ([]resume.VectorHit, error)
}

func (m *mockVectorStore) StoreVectors(ctx context.Context, uid kernel.ResumeUID, points []resume.EmbeddingPoint) ([]kernel.PointID, error) {
	return nil, nil
}

func (m *mockVectorStore) Search(ctx context.Context, query []float32, limit int, minScore float64, filter *resume.PointFilter) ([]resume.VectorHit, error) {
	m.lastLimit = limit
	m.lastMinScore = minScore
	m.lastFilter = filter
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit, minScore, filter)
	}
	return nil, nil
}

func (m *mockVectorStore) DeleteVectors(ctx context.Context, uid kernel.ResumeUID) (int, error) {
	return 0, nil
}

type mockResumeStore struct {
	getByIdsFn func(ctx context.Context, uids []kernel.ResumeUID) ([]*resume.Resume, error)
}

func (m *mockResumeStore) UpsertResume(ctx context.Context, r *resume.Resume) (bool, error) {
	return false, nil
}

func (m *mockResumeStore) GetResume(ctx context.Context, uid kernel.ResumeUID) (*resume.Resume, error) {
	return nil, resume.ErrResumeNotFound()
}

func (m *mockResumeStore) GetResumesByIds(ctx context.Context, uids []kernel.ResumeUID) ([]*resume.Resume, error) {
	if m.getByIdsFn != nil {
		return m.getByIdsFn(ctx, uids)
	}
	return nil, nil
}

func (m *mockResumeStore) GetResumeByEmail(ctx context.Context, email string) (*resume.Resume, error) {
	return nil, resume.ErrResumeNotFound()
}

func (m *mockResumeStore) ListResumes(ctx context.Context, p kernel.PaginationOptions) (*kernel.Paginated[resume.Resume], error) {
	return &kernel.Paginated[resume.Resume]{}, nil
}

func (m *mockResumeStore) DeleteResume(ctx context.Context, uid kernel.ResumeUID) error { return nil }
func (m *mockResumeStore) DeleteResumeCascade(ctx context.Context, uid kernel.ResumeUID) error {
	return nil
}

type mockQueryEncoder struct {
	lastText string
}

func (m *mockQueryEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	m.lastText = text
	return []float32{0.1, 0.2, 0.3}, nil
}

type searchMocks struct {
	graph   *mockGraphSearcher
	vectors *mockVectorStore
	resumes *mockResumeStore
	encoder *mockQueryEncoder
}

func newSearchService(weights search.Weights) (*Service, *searchMocks) {
	m := &searchMocks{
		graph:   &mockGraphSearcher{},
		vectors: &mockVectorStore{},
		resumes: &mockResumeStore{},
		encoder: &mockQueryEncoder{},
	}
	svc := NewService(Dependencies{
		Graph:   m.graph,
		Vectors: m.vectors,
		Resumes: m.resumes,
		Encoder: m.encoder,
		Weights: weights,
	})
	return svc, m
}

// ============================================================================
// Semantic
// ============================================================================

func TestSemanticSearch(t *testing.T) {
	svc, m := newSearchService(search.Weights{})
	m.vectors.searchFn = func(context.Context, []float32, int, float64, *resume.PointFilter) ([]resume.VectorHit, error) {
		return []resume.VectorHit{
			vectorHit("r1", 0.9, "distributed queue work"),
			vectorHit("r2", 0.7, "other candidate"),
		}, nil
	}

	resp, err := svc.Semantic(context.Background(), search.SemanticSearchRequest{
		Query:    "go engineer with queue experience",
		Limit:    5,
		MinScore: 0.4,
	})

	require.NoError(t, err)
	assert.Equal(t, search.ModeSemantic, resp.Mode)
	assert.Equal(t, "go engineer with queue experience", resp.Query)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, kernel.ResumeUID("r1"), resp.Results[0].UID)

	assert.Equal(t, "go engineer with queue experience", m.encoder.lastText)
	assert.Equal(t, 5, m.vectors.lastLimit)
	assert.Equal(t, 0.4, m.vectors.lastMinScore)
	assert.Nil(t, m.vectors.lastFilter)
}

func TestSemanticSearchValidatesQuery(t *testing.T) {
	svc, _ := newSearchService(search.Weights{})

	_, err := svc.Semantic(context.Background(), search.SemanticSearchRequest{Query: "a"})

	assert.ErrorIs(t, err, search.ErrInvalidQuery())
}

func TestSemanticSearchDefaultsLimit(t *testing.T) {
	svc, m := newSearchService(search.Weights{})

	_, err := svc.Semantic(context.Background(), search.SemanticSearchRequest{Query: "golang"})

	require.NoError(t, err)
	assert.Equal(t, defaultLimit, m.vectors.lastLimit)
}

// ============================================================================
// Structured
// ============================================================================

func TestStructuredSearch(t *testing.T) {
	svc, m := newSearchService(search.Weights{})
	m.graph.searchFn = func(_ context.Context, filters search.SearchFilters, limit int) ([]search.StructuredHit, error) {
		assert.Equal(t, []string{"Go"}, filters.Skills)
		assert.Equal(t, 10, limit)
		return []search.StructuredHit{
			{UID: "newest", Name: "Ada", CreatedAt: time.Now()},
			{UID: "older", Name: "Grace", CreatedAt: time.Now().Add(-time.Hour)},
		}, nil
	}

	resp, err := svc.Structured(context.Background(), search.StructuredSearchRequest{
		Filters: search.SearchFilters{Skills: []string{"Go"}},
	})

	require.NoError(t, err)
	assert.Equal(t, search.ModeStructured, resp.Mode)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, kernel.ResumeUID("newest"), resp.Results[0].UID)
	assert.Equal(t, 1.0, resp.Results[0].Score)
}

func TestStructuredSearchRequiresFilters(t *testing.T) {
	svc, m := newSearchService(search.Weights{})

	_, err := svc.Structured(context.Background(), search.StructuredSearchRequest{})

	assert.ErrorIs(t, err, search.ErrEmptyFilters())
	assert.Zero(t, m.graph.calls)
}

// ============================================================================
// Hybrid
// ============================================================================

func TestHybridSearchFusesBothLegs(t *testing.T) {
	svc, m := newSearchService(search.Weights{Vector: 0.7, Graph: 0.3})
	m.vectors.searchFn = func(context.Context, []float32, int, float64, *resume.PointFilter) ([]resume.VectorHit, error) {
		return []resume.VectorHit{
			vectorHit("vector-only", 0.9, "great semantic match"),
			vectorHit("confirmed", 0.6, "weaker semantic match"),
		}, nil
	}
	m.graph.searchFn = func(_ context.Context, _ search.SearchFilters, limit int) ([]search.StructuredHit, error) {
		assert.Equal(t, 10*hybridFetchFactor, limit)
		return []search.StructuredHit{{UID: "confirmed", Name: "Ada"}}, nil
	}

	resp, err := svc.Hybrid(context.Background(), search.HybridSearchRequest{
		Query:   "go engineer",
		Filters: &search.SearchFilters{Skills: []string{"Go"}},
	})

	require.NoError(t, err)
	assert.Equal(t, search.ModeHybrid, resp.Mode)
	require.Len(t, resp.Results, 2)
	// Graph confirmation outranks the stronger pure-vector hit.
	assert.Equal(t, kernel.ResumeUID("confirmed"), resp.Results[0].UID)
	assert.InDelta(t, 0.72, resp.Results[0].Score, 1e-9)
	assert.Equal(t, kernel.ResumeUID("vector-only"), resp.Results[1].UID)
	assert.InDelta(t, 0.63, resp.Results[1].Score, 1e-9)

	// Both legs overfetch so fusion has overlap to rank.
	assert.Equal(t, 10*hybridFetchFactor, m.vectors.lastLimit)
}

func TestHybridSearchSkipsGraphLegWithoutFilters(t *testing.T) {
	svc, m := newSearchService(search.Weights{Vector: 0.7, Graph: 0.3})
	m.vectors.searchFn = func(context.Context, []float32, int, float64, *resume.PointFilter) ([]resume.VectorHit, error) {
		return []resume.VectorHit{vectorHit("r1", 0.8, "match")}, nil
	}

	resp, err := svc.Hybrid(context.Background(), search.HybridSearchRequest{Query: "go engineer"})

	require.NoError(t, err)
	assert.Zero(t, m.graph.calls)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 0.8*0.7, resp.Results[0].Score, 1e-9)
}

func TestHybridSearchWeightOverrides(t *testing.T) {
	svc, m := newSearchService(search.Weights{Vector: 0.7, Graph: 0.3})
	m.vectors.searchFn = func(context.Context, []float32, int, float64, *resume.PointFilter) ([]resume.VectorHit, error) {
		return []resume.VectorHit{vectorHit("r1", 0.5, "match")}, nil
	}
	vw, gw := 0.4, 0.6

	resp, err := svc.Hybrid(context.Background(), search.HybridSearchRequest{
		Query:        "go engineer",
		VectorWeight: &vw,
		GraphWeight:  &gw,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 0.5*0.4, resp.Results[0].Score, 1e-9)
}

func TestHybridSearchRejectsInvalidConfiguredWeights(t *testing.T) {
	svc, _ := newSearchService(search.Weights{Vector: 1.5, Graph: 0.3})

	_, err := svc.Hybrid(context.Background(), search.HybridSearchRequest{Query: "go engineer"})

	assert.ErrorIs(t, err, search.ErrInvalidWeights())
}

// ============================================================================
// Resume attachment
// ============================================================================

func TestSemanticSearchAttachesResumes(t *testing.T) {
	svc, m := newSearchService(search.Weights{})
	m.vectors.searchFn = func(context.Context, []float32, int, float64, *resume.PointFilter) ([]resume.VectorHit, error) {
		hit := vectorHit("r1", 0.9, "match")
		hit.Payload.Name = ""
		hit.Payload.Email = ""
		gone := vectorHit("r-gone", 0.5, "stale point")
		return []resume.VectorHit{hit, gone}, nil
	}
	m.resumes.getByIdsFn = func(_ context.Context, uids []kernel.ResumeUID) ([]*resume.Resume, error) {
		assert.Equal(t, []kernel.ResumeUID{"r1", "r-gone"}, uids)
		return []*resume.Resume{{
			UID: "r1",
			PersonalInfo: &resume.PersonalInfo{
				Name:    "Ada Lovelace",
				Contact: resume.Contact{Email: "ada@example.com"},
			},
		}}, nil
	}

	resp, err := svc.Semantic(context.Background(), search.SemanticSearchRequest{
		Query:          "go engineer",
		IncludeResumes: true,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	require.NotNil(t, resp.Results[0].Resume)
	assert.Equal(t, "Ada Lovelace", resp.Results[0].Name)
	assert.Equal(t, "ada@example.com", resp.Results[0].Email)

	// A resume deleted between search and fetch keeps its snippet form.
	assert.Nil(t, resp.Results[1].Resume)
}

// ============================================================================
// Filter translation
// ============================================================================

func TestPointFilterFrom(t *testing.T) {
	years := 3.9
	filters := &search.SearchFilters{
		Skills:          []string{"Go", "Redis"},
		Role:            "backend",
		Company:         "Acme",
		Locations:       []search.LocationRequirement{{Country: "Spain", Cities: []string{"Madrid", "Barcelona"}}, {Country: "Peru"}},
		YearsExperience: &years,
	}

	pf := pointFilterFrom(filters)

	require.NotNil(t, pf)
	assert.Equal(t, []string{"Go", "Redis"}, pf.Skills)
	assert.Equal(t, "backend", pf.Role)
	assert.Equal(t, []string{"Acme"}, pf.Companies)
	assert.Equal(t, []string{"Madrid, Spain", "Barcelona, Spain", "Peru"}, pf.Locations)
	require.NotNil(t, pf.MinYears)
	assert.Equal(t, 3, *pf.MinYears)
}

func TestPointFilterFromZeroFilters(t *testing.T) {
	assert.Nil(t, pointFilterFrom(nil))
	assert.Nil(t, pointFilterFrom(&search.SearchFilters{}))
}
