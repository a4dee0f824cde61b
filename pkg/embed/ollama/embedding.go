package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/trellishq/trellis/backend/pkg/embed"

	"github.com/ollama/ollama/api"
)

// Embed creates a vector embedding for the given input text using the
// configured embedding model on Ollama.
//
// The input is provided as a byte slice and converted to a string before
// being sent to the embedding model. The returned slice contains the
// embedding vector as float32 values.
func (c *Client) Embed(ctx context.Context, input []byte) ([]float32, error) {
	dim := embed.Dimensions()
	if len(input) == 0 || len(strings.TrimSpace(string(input))) == 0 {
		return make([]float32, dim), nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Duration(c.timeoutMin*float64(time.Minute)))
	defer cancel()

	req := &api.EmbedRequest{
		Model: c.model,
		Input: string(input),
	}

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	res, err := c.api.Embed(rCtx, req)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(embed.Metrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
		Requests:    1,
	})

	out := make([]float32, 0, dim)
	for _, v := range res.Embeddings {
		for _, val := range v {
			if len(out) >= dim {
				break
			}
			out = append(out, float32(val))
		}
	}
	return embed.FitDimensions(out, dim), nil
}
