package vectorstore

import (
	"context"
	"math"

	"github.com/siherrmann/docqa/model"
)

// Store is a persistent index of embedded records grouped in named collections.
//
// Upsert creates the collection on the first non-empty call, using the
// dimension of the first record. Records with an existing key are replaced.
// Query returns at most k records ordered by descending cosine similarity
// and fails with a *model.CollectionNotFoundError for unknown collections.
type Store interface {
	Upsert(ctx context.Context, collection string, records []model.Record) error
	Query(ctx context.Context, collection string, vector []float32, k int) ([]*model.RetrievalResult, error)
	Close() error
}

// CheckDimensions verifies that all records have the given dimension.
// A dimension of 0 takes the dimension of the first record.
func CheckDimensions(collection string, dimension int, records []model.Record) (int, error) {
	for _, r := range records {
		if dimension == 0 {
			dimension = len(r.Embedding)
		}
		if len(r.Embedding) != dimension || dimension == 0 {
			return dimension, &model.DimensionMismatchError{Collection: collection, Expected: dimension, Actual: len(r.Embedding)}
		}
	}
	return dimension, nil
}

// CosineSimilarity returns the cosine similarity of two vectors of equal length.
// Zero vectors have a similarity of 0.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
