package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/docqa/core/vectorstore"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
	loadSql "github.com/siherrmann/docqa/sql"
)

// PgvectorStore is a vectorstore.Store on PostgreSQL with pgvector.
// All collections share the records table, so every collection has the
// dimension the table was created with.
type PgvectorStore struct {
	DB          *helper.Database
	Collections *CollectionsDBHandler
	Records     *RecordsDBHandler
}

var _ vectorstore.Store = (*PgvectorStore)(nil)

// NewPgvectorStore initializes the extensions, SQL functions and tables
func NewPgvectorStore(db *helper.Database, embeddingDim int, force bool) (*PgvectorStore, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Collections first, records reference them
	collections, err := NewCollectionsDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create collections handler", err)
	}

	records, err := NewRecordsDBHandler(db, embeddingDim, force)
	if err != nil {
		return nil, helper.NewError("create records handler", err)
	}

	return &PgvectorStore{
		DB:          db,
		Collections: collections,
		Records:     records,
	}, nil
}

// Upsert writes all records of one call in a single transaction
func (s *PgvectorStore) Upsert(ctx context.Context, collection string, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	if _, err := vectorstore.CheckDimensions(collection, s.Records.EmbeddingDim, records); err != nil {
		return err
	}

	tx, err := s.DB.Instance.BeginTx(ctx, nil)
	if err != nil {
		return &model.VectorStoreError{Op: "upsert", Collection: collection, Err: helper.NewError("begin transaction", err)}
	}
	defer func() {
		// No-op after commit
		_ = tx.Rollback()
	}()

	c, err := s.Collections.ensureCollection(ctx, tx, collection, s.Records.EmbeddingDim)
	if err != nil {
		return &model.VectorStoreError{Op: "upsert", Collection: collection, Err: helper.NewError("ensure collection", err)}
	}
	if c.Dimension != s.Records.EmbeddingDim {
		return &model.DimensionMismatchError{Collection: collection, Expected: c.Dimension, Actual: s.Records.EmbeddingDim}
	}

	for i := range records {
		if err := s.Records.upsertRecord(ctx, tx, c.ID, &records[i]); err != nil {
			return &model.VectorStoreError{Op: "upsert", Collection: collection, Err: helper.NewError(fmt.Sprintf("upsert record %d", i), err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &model.VectorStoreError{Op: "upsert", Collection: collection, Err: helper.NewError("commit", err)}
	}

	s.DB.Logger.Debug("Upserted records", slog.String("collection", collection), slog.Int("count", len(records)))

	return nil
}

// Query returns the k records closest to vector
func (s *PgvectorStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]*model.RetrievalResult, error) {
	c, err := s.Collections.SelectCollection(ctx, collection)
	if err != nil {
		if model.IsNoContent(err) {
			return nil, err
		}
		return nil, &model.VectorStoreError{Op: "query", Collection: collection, Err: err}
	}
	if len(vector) != c.Dimension {
		return nil, &model.DimensionMismatchError{Collection: collection, Expected: c.Dimension, Actual: len(vector)}
	}
	if k <= 0 {
		return []*model.RetrievalResult{}, nil
	}

	results, err := s.Records.SelectRecordsBySimilarity(ctx, c.ID, vector, k)
	if err != nil {
		return nil, &model.VectorStoreError{Op: "query", Collection: collection, Err: err}
	}

	return results, nil
}

// Count returns the number of records in a collection
func (s *PgvectorStore) Count(ctx context.Context, collection string) (int, error) {
	c, err := s.Collections.SelectCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	return s.Records.CountRecords(ctx, c.ID)
}

// Close closes the database connection
func (s *PgvectorStore) Close() error {
	return s.DB.Close()
}
