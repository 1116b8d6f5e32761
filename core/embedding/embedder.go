package embedding

import (
	"context"
	"fmt"

	"github.com/siherrmann/docqa/model"
)

// Embedder turns texts into fixed-length vectors.
// Embed returns exactly one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Close() error
}

// EmbedOne embeds a single text
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, &model.EmbeddingServiceError{
			Kind: model.EmbeddingErrorInvalidResponse,
			Err:  fmt.Errorf("expected 1 embedding, got %d", len(vectors)),
		}
	}
	return vectors[0], nil
}

// EmbedInBatches embeds texts in calls of at most batchSize texts.
// Results keep the input order. A batchSize of 0 sends everything at once.
func EmbedInBatches(ctx context.Context, e Embedder, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		batch, err := e.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, &model.EmbeddingServiceError{
				Kind: model.EmbeddingErrorInvalidResponse,
				Err:  fmt.Errorf("expected %d embeddings, got %d", end-start, len(batch)),
			}
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// checkVectors verifies that all vectors have the same non-zero length
func checkVectors(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("embedding %d is empty", i)
		}
		if len(v) != len(vectors[0]) {
			return fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(v), len(vectors[0]))
		}
	}
	return nil
}
