package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/siherrmann/docqa/model"
)

// HashEmbedder maps lowercased word tokens into a fixed number of buckets
// and normalizes the counts. It needs no model or network and is meant for
// development and tests, texts sharing words end up close to each other.
type HashEmbedder struct {
	dimensions int
}

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hashing embedder with the given dimension
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed hashes every text
func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.EmbeddingServiceError{Kind: model.EmbeddingErrorNetwork, Err: err}
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	vector := make([]float32, e.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vector[h.Sum32()%uint32(e.dimensions)]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Keep empty texts comparable instead of returning a zero vector
		vector[0] = 1
		return vector
	}
	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}

// Dimensions returns the number of buckets
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns "hash"
func (e *HashEmbedder) ModelName() string {
	return "hash"
}

// Close is a no-op
func (e *HashEmbedder) Close() error {
	return nil
}
