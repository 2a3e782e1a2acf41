package embed

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
)

// OpenAIEmbedder batches embedding requests against the OpenAI API. A failed
// batch degrades to empty vectors for its members instead of failing the
// whole call; only context cancellation aborts early.
type OpenAIEmbedder struct {
	Client    openai.Client
	Model     string
	BatchSize int
	Logger    *zap.Logger
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := make([]string, 0, end-start)
		for _, text := range texts[start:end] {
			// Newlines degrade embedding quality on this API.
			batch = append(batch, strings.ReplaceAll(text, "\n", " "))
		}

		resp, err := e.Client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(e.Model),
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: batch,
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if e.Logger != nil {
				e.Logger.Warn("embedding batch failed",
					zap.Int("batch_start", start),
					zap.Int("batch_size", len(batch)),
					zap.Error(err),
				)
			}
			for range batch {
				out = append(out, nil)
			}
			continue
		}

		vectors := make([][]float64, len(batch))
		for _, item := range resp.Data {
			idx := int(item.Index)
			if idx >= 0 && idx < len(vectors) {
				vectors[idx] = item.Embedding
			}
		}
		out = append(out, vectors...)
	}
	return out, nil
}
