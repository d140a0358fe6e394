// Package embeddings turns resume texts into vectors through the OpenAI
// embeddings API, shielded by a circuit breaker so a degraded provider
// fails fast instead of stalling every worker.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultModel      = openai.EmbeddingModelTextEmbedding3Small
	defaultDimensions = 384
	defaultTimeout    = 60 * time.Second

	// The API accepts large batches but keeping requests small bounds
	// retry cost when one call fails.
	defaultBatchMax = 64
)

// ErrCircuitOpen is returned while the breaker rejects calls. Callers treat
// it as a transient outage and retry later.
var ErrCircuitOpen = errors.New("embedding service circuit is open")

// StateHook observes breaker transitions, typically to drive a gauge.
type StateHook func(name string, state gobreaker.State)

// Config holds connection settings for the embeddings API.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimensions    int
	BatchMax      int
	Timeout       time.Duration
	OnStateChange StateHook
}

// Generator encodes texts into embedding vectors.
type Generator struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	batchMax   int
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[[][]float32]
}

// NewGenerator creates a generator with defaults for anything unset.
func NewGenerator(cfg Config) *Generator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	model := defaultModel
	if cfg.Model != "" {
		model = openai.EmbeddingModel(cfg.Model)
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	batchMax := cfg.BatchMax
	if batchMax <= 0 {
		batchMax = defaultBatchMax
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Generator{
		client:     &client,
		model:      model,
		dimensions: dimensions,
		batchMax:   batchMax,
		timeout:    timeout,
		breaker:    newBreaker(cfg.OnStateChange),
	}
}

// Dimensions reports the vector width this generator requests.
func (g *Generator) Dimensions() int { return g.dimensions }

// Encode creates an embedding for a single text. Whitespace-only input is
// an error here since there is nothing to skip to.
func (g *Generator) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is empty")
	}
	vectors, err := g.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// EncodeBatch encodes the non-blank texts and returns their vectors in
// input order. Blank entries are dropped, so the result holds one vector
// per non-blank input. Requests are chunked to stay under the batch cap.
func (g *Generator) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	valid := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(valid))
	for start := 0; start < len(valid); start += g.batchMax {
		end := start + g.batchMax
		if end > len(valid) {
			end = len(valid)
		}
		chunk := valid[start:end]

		encoded, err := g.breaker.Execute(func() ([][]float32, error) {
			return g.embed(ctx, chunk)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, ErrCircuitOpen
			}
			return nil, err
		}
		vectors = append(vectors, encoded...)
	}
	return vectors, nil
}

func (g *Generator) embed(ctx context.Context, chunk []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: chunk,
		},
		Model:      g.model,
		Dimensions: openai.Int(int64(g.dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(resp.Data) != len(chunk) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunk), len(resp.Data))
	}

	// The API tags each vector with its input index; order by it rather
	// than trusting response order.
	vectors := make([][]float32, len(chunk))
	for _, data := range resp.Data {
		if data.Index < 0 || int(data.Index) >= len(chunk) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		vectors[data.Index] = vec
	}
	return vectors, nil
}
