package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *batchRecorder) add(batch []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
	return len(r.batches)
}

func (r *batchRecorder) all() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func decodeEmbeddingRequest(t *testing.T, r *http.Request) []string {
	t.Helper()
	var body struct {
		Input      []string `json:"input"`
		Model      string   `json:"model"`
		Dimensions int      `json:"dimensions"`
	}
	if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
		return nil
	}
	assert.Equal(t, string(defaultModel), body.Model)
	assert.Equal(t, 2, body.Dimensions)
	return body.Input
}

// writeVectors answers with one embedding per entry, tagged with its index.
func writeVectors(w http.ResponseWriter, vectors [][]float64) {
	data := make([]any, len(vectors))
	for i, vec := range vectors {
		data[i] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
	}
	resp := map[string]any{
		"object": "list",
		"data":   data,
		"model":  string(defaultModel),
		"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeEmbeddingError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": "upstream unhappy", "type": "api_error"},
	})
}

func newTestGenerator(srvURL string, batchMax int) *Generator {
	return NewGenerator(Config{
		APIKey:     "test",
		BaseURL:    srvURL,
		Dimensions: 2,
		BatchMax:   batchMax,
	})
}

func TestEncodeBatchChunksRequests(t *testing.T) {
	rec := &batchRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batch := decodeEmbeddingRequest(t, r)
		rec.add(batch)
		vectors := make([][]float64, len(batch))
		for i, text := range batch {
			// Derive the vector from the text so input order is
			// checkable across chunks.
			vectors[i] = []float64{float64(len(text)), 0}
		}
		writeVectors(w, vectors)
	}))
	defer srv.Close()

	gen := newTestGenerator(srv.URL, 2)
	vectors, err := gen.EncodeBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)

	require.Len(t, vectors, 5)
	for i, vec := range vectors {
		assert.Equal(t, []float32{float32(i + 1), 0}, vec)
	}

	batches := rec.all()
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a", "bb"}, batches[0])
	assert.Equal(t, []string{"ccc", "dddd"}, batches[1])
	assert.Equal(t, []string{"eeeee"}, batches[2])
}

func TestEncodeBatchDropsBlankTexts(t *testing.T) {
	rec := &batchRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batch := decodeEmbeddingRequest(t, r)
		rec.add(batch)
		writeVectors(w, [][]float64{{1, 0}, {2, 0}})
	}))
	defer srv.Close()

	gen := newTestGenerator(srv.URL, 64)
	vectors, err := gen.EncodeBatch(context.Background(), []string{"  ", "alpha", "", "beta"})
	require.NoError(t, err)

	require.Len(t, vectors, 2)
	batches := rec.all()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"alpha", "beta"}, batches[0])
}

func TestEncodeBatchAllBlankSkipsRequest(t *testing.T) {
	rec := &batchRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(nil)
		writeVectors(w, nil)
	}))
	defer srv.Close()

	gen := newTestGenerator(srv.URL, 64)
	vectors, err := gen.EncodeBatch(context.Background(), []string{"", "   ", "\n"})
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Empty(t, rec.all())
}

func TestEncodeBatchReordersByResponseIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Respond out of order; the index field is authoritative.
		resp := map[string]any{
			"object": "list",
			"data": []any{
				map[string]any{"object": "embedding", "index": 1, "embedding": []float64{2, 0}},
				map[string]any{"object": "embedding", "index": 0, "embedding": []float64{1, 0}},
			},
			"model": string(defaultModel),
			"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	gen := newTestGenerator(srv.URL, 64)
	vectors, err := gen.EncodeBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{2, 0}, vectors[1])
}

func TestEncodeBatchRejectsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeVectors(w, [][]float64{{1, 0}})
	}))
	defer srv.Close()

	gen := newTestGenerator(srv.URL, 64)
	_, err := gen.EncodeBatch(context.Background(), []string{"first", "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings, got 1")
}

func TestEncodeBatchRejectsOutOfRangeIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"object": "list",
			"data": []any{
				map[string]any{"object": "embedding", "index": 7, "embedding": []float64{1, 0}},
			},
			"model": string(defaultModel),
			"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	gen := newTestGenerator(srv.URL, 64)
	_, err := gen.EncodeBatch(context.Background(), []string{"only"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding index 7 out of range")
}

func TestEncodeReturnsSingleVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeVectors(w, [][]float64{{0.5, 0.25}})
	}))
	defer srv.Close()

	gen := newTestGenerator(srv.URL, 64)
	vec, err := gen.Encode(context.Background(), "senior Go engineer")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}

func TestEncodeRejectsBlankText(t *testing.T) {
	gen := newTestGenerator("http://127.0.0.1:1", 64)
	_, err := gen.Encode(context.Background(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text is empty")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	rec := &batchRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(nil)
		writeEmbeddingError(w, http.StatusInternalServerError)
	}))
	defer srv.Close()

	var states []gobreaker.State
	gen := NewGenerator(Config{
		APIKey:     "test",
		BaseURL:    srv.URL,
		Dimensions: 2,
		OnStateChange: func(name string, state gobreaker.State) {
			assert.Equal(t, breakerName, name)
			states = append(states, state)
		},
	})

	for i := 0; i < breakerFailMax; i++ {
		_, err := gen.EncodeBatch(context.Background(), []string{"text"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := gen.EncodeBatch(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, ErrCircuitOpen)

	// The open breaker rejects the fourth call before it reaches the API.
	assert.Len(t, rec.all(), breakerFailMax)
	require.NotEmpty(t, states)
	assert.Equal(t, gobreaker.StateOpen, states[len(states)-1])
}

func TestGeneratorDefaults(t *testing.T) {
	gen := NewGenerator(Config{APIKey: "test"})
	assert.Equal(t, defaultDimensions, gen.Dimensions())
	assert.Equal(t, defaultBatchMax, gen.batchMax)
	assert.Equal(t, defaultTimeout, gen.timeout)
	assert.Equal(t, defaultModel, gen.model)
}

func TestCountsAsFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		failure bool
	}{
		{name: "nil", err: nil, failure: false},
		{name: "canceled context", err: context.Canceled, failure: false},
		{name: "wrapped cancellation", err: errors.Join(errors.New("embed"), context.Canceled), failure: false},
		{name: "rate limited", err: &openai.Error{StatusCode: http.StatusTooManyRequests}, failure: true},
		{name: "server error", err: &openai.Error{StatusCode: http.StatusInternalServerError}, failure: true},
		{name: "bad request", err: &openai.Error{StatusCode: http.StatusBadRequest}, failure: false},
		{name: "unparseable base url", err: &url.Error{Op: "parse", URL: "::bad", Err: errors.New("invalid")}, failure: false},
		{name: "network error", err: errors.New("dial tcp: connection refused"), failure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.failure, countsAsFailure(tt.err))
		})
	}
}
