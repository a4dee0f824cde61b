package embed

import (
	"context"

	"github.com/trellishq/trellis/backend/internal/util"

	"golang.org/x/sync/errgroup"
)

const defaultDimensions = 1536

// Embedder produces vector embeddings for text content. Implementations
// wrap a remote or local embedding model; the knowledge index stores the
// returned vectors for cosine similarity search.
//
// Embed must return a vector of exactly Dimensions() values. Empty or
// whitespace-only input yields a zero vector rather than an error, so
// callers can embed heterogeneous batches without pre-filtering.
type Embedder interface {
	Embed(ctx context.Context, input []byte) ([]float32, error)
	ModelID() string
	ResetMetrics()
	GetMetrics() Metrics
}

// Metrics contains accumulated usage from embedding operations.
type Metrics struct {
	InputTokens int   `json:"input_tokens"`
	TotalTokens int   `json:"total_tokens"`
	DurationMs  int64 `json:"duration_ms"`
	Requests    int   `json:"requests"`
}

// Dimensions returns the embedding width for this deployment. The value
// must match the vector column width in the schema.
func Dimensions() int {
	return int(util.GetEnvNumeric("EMBED_DIM", defaultDimensions))
}

// batcher is implemented by embedders that support a native multi-input
// request, which is much faster than one call per input.
type batcher interface {
	EmbedBatch(ctx context.Context, inputs [][]byte) ([][]float32, error)
}

// EmbedTexts generates embeddings for all inputs, preserving order. It
// uses the embedder's native batch call when available and otherwise
// fans out single requests through an errgroup with bounded parallelism.
func EmbedTexts(ctx context.Context, embedder Embedder, inputs [][]byte) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	if b, ok := embedder.(batcher); ok {
		return b.EmbedBatch(ctx, inputs)
	}

	out := make([][]float32, len(inputs))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for i := range inputs {
		idx := i
		input := inputs[i]
		eg.Go(func() error {
			vec, err := embedder.Embed(ectx, input)
			if err != nil {
				return err
			}
			out[idx] = vec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ZeroVector returns an all-zero embedding of the configured width.
func ZeroVector() []float32 {
	return make([]float32, Dimensions())
}

// FitDimensions truncates or zero-pads vec to the configured width.
// Models occasionally return a different width than the schema column;
// storing a mismatched vector fails the insert outright.
func FitDimensions(vec []float32, dim int) []float32 {
	if len(vec) == dim {
		return vec
	}
	out := make([]float32, dim)
	copy(out, vec)
	return out
}
