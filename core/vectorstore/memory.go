package vectorstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/siherrmann/docqa/model"
)

type memoryCollection struct {
	dimension int
	keys      []uuid.UUID
	records   map[uuid.UUID]model.Record
}

// MemoryStore is an in-process Store using brute-force cosine search
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
	}
}

// Upsert inserts or replaces records by key
func (s *MemoryStore) Upsert(ctx context.Context, collection string, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &model.VectorStoreError{Op: "upsert", Collection: collection, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	dimension := 0
	if ok {
		dimension = c.dimension
	}
	dimension, err := CheckDimensions(collection, dimension, records)
	if err != nil {
		return err
	}

	if !ok {
		c = &memoryCollection{
			dimension: dimension,
			records:   make(map[uuid.UUID]model.Record),
		}
		s.collections[collection] = c
	}

	for _, r := range records {
		if _, exists := c.records[r.Key]; !exists {
			c.keys = append(c.keys, r.Key)
		}
		r.Embedding = append([]float32(nil), r.Embedding...)
		c.records[r.Key] = r
	}

	return nil
}

// Query returns the k records most similar to vector
func (s *MemoryStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]*model.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.VectorStoreError{Op: "query", Collection: collection, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, &model.CollectionNotFoundError{Collection: collection}
	}
	if len(vector) != c.dimension {
		return nil, &model.DimensionMismatchError{Collection: collection, Expected: c.dimension, Actual: len(vector)}
	}
	if k <= 0 {
		return []*model.RetrievalResult{}, nil
	}

	results := make([]*model.RetrievalResult, 0, len(c.keys))
	for _, key := range c.keys {
		r := c.records[key]
		results = append(results, &model.RetrievalResult{
			Record: &r,
			Score:  CosineSimilarity(vector, r.Embedding),
		})
	}

	// Stable sort keeps insertion order for equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Count returns the number of records in a collection
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.collections[collection]; ok {
		return len(c.records)
	}
	return 0
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
